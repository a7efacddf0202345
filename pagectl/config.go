package main


import (
    "fmt"
    "os"
    "strconv"
    "time"

    "gopkg.in/yaml.v3"

    "github.com/docopt/docopt-go"

    "github.com/bringyour/pageclient/page"
)


// optional yaml file. Flags override file values.
type pageConfig struct {
    Host string `yaml:"host"`
    Port int `yaml:"port"`
    HttpPort int `yaml:"http_port"`
    Secure bool `yaml:"secure"`
    Jwt string `yaml:"jwt"`
    HandshakeTimeout string `yaml:"handshake_timeout"`
    WriteTimeout string `yaml:"write_timeout"`
    ReadTimeout string `yaml:"read_timeout"`
}


func loadPageConfig(path string) (*pageConfig, error) {
    data, err := os.ReadFile(path)
    if err != nil {
        return nil, fmt.Errorf("reading config: %w", err)
    }

    config := &pageConfig{}
    if err := yaml.Unmarshal(data, config); err != nil {
        return nil, fmt.Errorf("parsing config: %w", err)
    }
    return config, nil
}


func settingsFromOpts(opts docopt.Opts) (*page.Settings, error) {
    config := &pageConfig{}
    if configPath, err := opts.String("--config"); err == nil && configPath != "" {
        config, err = loadPageConfig(configPath)
        if err != nil {
            return nil, err
        }
    }

    if host, err := opts.String("--host"); err == nil && host != "" {
        config.Host = host
    }
    if port, err := optInt(opts, "--port"); err != nil {
        return nil, err
    } else if 0 < port {
        config.Port = port
    }
    if httpPort, err := optInt(opts, "--http_port"); err != nil {
        return nil, err
    } else if 0 < httpPort {
        config.HttpPort = httpPort
    }
    if jwt, err := opts.String("--jwt"); err == nil && jwt != "" {
        config.Jwt = jwt
    }

    return config.settings()
}


func (self *pageConfig) settings() (*page.Settings, error) {
    settings := page.DefaultSettings()
    if self.Host != "" {
        settings.Host = self.Host
    }
    if 0 < self.Port {
        settings.Port = self.Port
        // pages serve http on the next port by default
        settings.HttpPort = self.Port + 1
    }
    if 0 < self.HttpPort {
        settings.HttpPort = self.HttpPort
    }
    settings.Secure = self.Secure
    settings.Auth = page.NewClientAuth(self.Jwt)

    for _, timeout := range []struct {
        name string
        value string
        target *time.Duration
    }{
        {"handshake_timeout", self.HandshakeTimeout, &settings.WsHandshakeTimeout},
        {"write_timeout", self.WriteTimeout, &settings.WriteTimeout},
        {"read_timeout", self.ReadTimeout, &settings.ReadTimeout},
    } {
        if timeout.value == "" {
            continue
        }
        d, err := time.ParseDuration(timeout.value)
        if err != nil {
            return nil, fmt.Errorf("%s: %w", timeout.name, err)
        }
        *timeout.target = d
    }

    return settings, nil
}


// docopt keeps option values as strings
func optInt(opts docopt.Opts, name string) (int, error) {
    value, err := opts.String(name)
    if err != nil || value == "" {
        return 0, nil
    }
    n, err := strconv.Atoi(value)
    if err != nil {
        return 0, fmt.Errorf("%s: %w", name, err)
    }
    return n, nil
}
