package main


import (
    "context"
    "encoding/json"
    "flag"
    "fmt"
    "os"
    "os/signal"
    "strings"
    "syscall"
    "time"
    "log"

    "golang.org/x/term"

    "github.com/docopt/docopt-go"

    "github.com/bringyour/pageclient/page"
)


const PageCtlVersion = "0.0.1"

const readyTimeout = 30 * time.Second


var Out *log.Logger
var Err *log.Logger

func init() {
    Out = log.New(os.Stdout, "", 0)
    Err = log.New(os.Stderr, "", log.Ldate | log.Ltime | log.Lshortfile)
}


func main() {
    usage := `Page control.

Connects to a page server, keeps its element tree in sync and prints it.
The http port defaults to the websocket port + 1.
Use --jwt=- to type the jwt without echo.

Usage:
    pagectl watch [--config=<path>] [--host=<host>] [--port=<port>] [--http_port=<port>] [--jwt=<jwt>]
        [--once]
        [-v <level>]
    pagectl call [--config=<path>] [--host=<host>] [--port=<port>] [--http_port=<port>] [--jwt=<jwt>]
        <function_id> [<kwargs_json>]
    pagectl set [--config=<path>] [--host=<host>] [--port=<port>] [--http_port=<port>] [--jwt=<jwt>]
        <variable_id> <value_json>
    pagectl export [--config=<path>] [--host=<host>] [--port=<port>] [--http_port=<port>] [--jwt=<jwt>]
        [--out=<path>]
    pagectl dump [--config=<path>] [--host=<host>] [--port=<port>] [--http_port=<port>] [--jwt=<jwt>]
        [--format=<format>]
        [--out=<path>]

Options:
    -h --help              Show this screen.
    --version              Show version.
    --config=<path>        Yaml config file. Flags override it.
    --host=<host>          Page server host.
    --port=<port>          Page server websocket port.
    --http_port=<port>     Page server http port.
    --jwt=<jwt>            Bearer jwt.
    --once                 Print the first snapshot then exit.
    --out=<path>           Output file.
    --format=<format>      json, cbor, or proto [default: json].
    -v <level>             Log verbosity.`

    opts, err := docopt.ParseArgs(usage, os.Args[1:], PageCtlVersion)
    if err != nil {
        panic(err)
    }

    initGlog(opts)

    if watch_, _ := opts.Bool("watch"); watch_ {
        watch(opts)
    } else if call_, _ := opts.Bool("call"); call_ {
        call(opts)
    } else if set_, _ := opts.Bool("set"); set_ {
        set(opts)
    } else if export_, _ := opts.Bool("export"); export_ {
        export(opts)
    } else if dump_, _ := opts.Bool("dump"); dump_ {
        dump(opts)
    }
}


func initGlog(opts docopt.Opts) {
    flag.Set("logtostderr", "true")
    flag.Set("stderrthreshold", "ERROR")
    if level, err := opts.String("-v"); err == nil && level != "" {
        flag.Set("v", level)
    }
}


func loadSettings(opts docopt.Opts) *page.Settings {
    if jwt, _ := opts.String("--jwt"); jwt == "-" {
        opts["--jwt"] = promptJwt()
    }
    settings, err := settingsFromOpts(opts)
    if err != nil {
        Err.Fatalf("%s", err)
    }
    return settings
}


func promptJwt() string {
    if !term.IsTerminal(int(syscall.Stdin)) {
        Err.Fatalf("--jwt=- needs a terminal")
    }
    fmt.Fprint(os.Stderr, "jwt: ")
    jwtBytes, err := term.ReadPassword(int(syscall.Stdin))
    fmt.Fprintln(os.Stderr)
    if err != nil {
        Err.Fatalf("%s", err)
    }
    return strings.TrimSpace(string(jwtBytes))
}


func signalContext() (context.Context, context.CancelFunc) {
    return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}


// starts a session and waits for the first snapshot
func openSession(ctx context.Context, opts docopt.Opts) *page.Session {
    settings := loadSettings(opts)

    session := page.NewSession(ctx, settings)
    session.AddErrorCallback(func(err error) {
        Err.Printf("[%s] %s", session.InstanceId(), err)
    })

    if claims, err := settings.Auth.Claims(); err == nil && claims.Subject != "" {
        Err.Printf("auth %s", claims)
    }

    select {
    case <- session.Ready():
    case <- session.Done():
        session.Close()
        os.Exit(1)
    case <- time.After(readyTimeout):
        session.Close()
        Err.Fatalf("no snapshot from %s", settings.HttpUrl())
    }
    return session
}


// print the tree after every store change
func watch(opts docopt.Opts) {
    ctx, cancel := signalContext()
    defer cancel()

    session := openSession(ctx, opts)
    defer session.Close()

    presenters := page.NewTextPresenterSet()
    clearScreen := term.IsTerminal(int(os.Stdout.Fd()))

    present := func() {
        // a prop root cycle still returns the rest of the tree
        node, err := session.Materialize(page.RootId)
        if err != nil {
            Err.Printf("%s", err)
        }
        if node == nil {
            return
        }
        store := session.Store()
        if clearScreen {
            fmt.Print("\033[H\033[2J")
        }
        if title := store.Title(); title != "" {
            Out.Printf("# %s", title)
        }
        if displayError := store.DisplayError(); displayError != "" {
            Out.Printf("! %s", displayError)
        }
        Out.Print(presenters.Present(node))
    }

    if once, _ := opts.Bool("--once"); once {
        present()
        return
    }

    // coalesce changes. Only the latest store matters.
    changed := make(chan struct{}, 1)
    session.AddStoreCallback(func(store *page.Store) {
        select {
        case changed <- struct{}{}:
        default:
        }
    })

    present()
    for {
        select {
        case <- ctx.Done():
            return
        case <- session.Done():
            os.Exit(1)
        case <- changed:
            present()
        }
    }
}


func call(opts docopt.Opts) {
    functionId, _ := opts.String("<function_id>")

    var kwargs map[string]any
    if kwargsJson, _ := opts.String("<kwargs_json>"); kwargsJson != "" {
        if err := json.Unmarshal([]byte(kwargsJson), &kwargs); err != nil {
            Err.Fatalf("Invalid kwargs (%s).", err)
        }
    }

    ctx, cancel := signalContext()
    defer cancel()

    session := openSession(ctx, opts)
    defer session.Close()

    if err := session.Call(functionId, kwargs); err != nil {
        Err.Fatalf("%s", err)
    }
    flush(ctx, session)
    Out.Printf("Called %s.", functionId)
}


func set(opts docopt.Opts) {
    variableId, _ := opts.String("<variable_id>")
    valueJson, _ := opts.String("<value_json>")

    var value any
    if err := json.Unmarshal([]byte(valueJson), &value); err != nil {
        Err.Fatalf("Invalid value (%s).", err)
    }

    ctx, cancel := signalContext()
    defer cancel()

    session := openSession(ctx, opts)
    defer session.Close()

    if err := session.UpdateVariable(variableId, value); err != nil {
        Err.Fatalf("%s", err)
    }
    flush(ctx, session)
    Out.Printf("Set %s.", variableId)
}


// waits for queued frames to be written
func flush(ctx context.Context, session *page.Session) {
    syncCtx, syncCancel := context.WithTimeout(ctx, readyTimeout)
    defer syncCancel()
    if err := session.Sync(syncCtx); err != nil {
        Err.Fatalf("%s", err)
    }
}


func export(opts docopt.Opts) {
    ctx, cancel := signalContext()
    defer cancel()

    session := openSession(ctx, opts)
    defer session.Close()

    result, err := session.Export(ctx)
    if err != nil {
        Err.Fatalf("%s", err)
    }

    if result == nil {
        objectJson, err := json.MarshalIndent(session.Store().DisplayExportObjectResult(), "", "  ")
        if err != nil {
            Err.Fatalf("%s", err)
        }
        Out.Print(string(objectJson))
        return
    }

    out, _ := opts.String("--out")
    if out == "" {
        out = result.Filename
    }
    if err := os.WriteFile(out, result.Html, 0644); err != nil {
        Err.Fatalf("%s", err)
    }
    Out.Printf("Exported %s.", out)
}


// one snapshot over http, no websocket
func dump(opts docopt.Opts) {
    format, _ := opts.String("--format")

    ctx, cancel := signalContext()
    defer cancel()

    settings := loadSettings(opts)
    api := page.NewPageApi(ctx, settings.HttpUrl(), settings.Auth)
    defer api.Close()

    snapshot, err := api.InitialStateSync(ctx)
    if err != nil {
        Err.Fatalf("%s", err)
    }
    store, err := page.NewApplier().ApplyAll(page.NewStore(), snapshot.Operations())
    if err != nil {
        Err.Printf("%s", err)
    }
    node, err := page.Materialize(store, page.RootId, nil)
    if err != nil {
        Err.Printf("%s", err)
    }
    if node == nil {
        os.Exit(1)
    }
    out, err := page.Dump(node, format)
    if err != nil {
        Err.Fatalf("%s", err)
    }

    if outPath, _ := opts.String("--out"); outPath != "" {
        if err := os.WriteFile(outPath, out, 0644); err != nil {
            Err.Fatalf("%s", err)
        }
        return
    }
    os.Stdout.Write(out)
}
