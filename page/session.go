package page

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/golang/glog"
)


type Settings struct {
	Host     string
	Port     int
	HttpPort int
	// use `wss` and `https`
	Secure bool
	// nil for no auth
	Auth *ClientAuth

	WsHandshakeTimeout time.Duration
	// 0 means no write deadline
	WriteTimeout time.Duration
	// 0 means no read deadline. Servers only send on change, so a quiet page is normal.
	ReadTimeout time.Duration

	EventBufferSize int
}

func DefaultSettings() *Settings {
	return &Settings{
		Host:               "localhost",
		Port:               9000,
		HttpPort:           9001,
		WsHandshakeTimeout: 5 * time.Second,
		WriteTimeout:       5 * time.Second,
		ReadTimeout:        0,
		EventBufferSize:    32,
	}
}

func (self *Settings) WsUrl() string {
	scheme := "ws"
	if self.Secure {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, self.Host, self.Port)
}

func (self *Settings) HttpUrl() string {
	scheme := "http"
	if self.Secure {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, self.Host, self.HttpPort)
}


// Store and error callbacks run on the session loop and must not block on the session.
type StoreCallback func(store *Store)

type ErrorCallback func(err error)


// events of the session loop. Events from a connection carry its generation,
// so events of a connection closed by `refresh` are ignored.
type frameEvent struct {
	generation int
	message    *InboundMessage
}

type snapshotEvent struct {
	generation int
	snapshot   *Snapshot
	err        error
}

type readErrorEvent struct {
	generation int
	err        error
}

type outboundEvent struct {
	// applied to the store before the frame is sent. May be nil.
	local Operation
	// encodes the frame with the client id at the time of sending
	encode func(clientId string) ([]byte, error)
}

type localEvent struct {
	ops    []Operation
	result chan error
}

type syncEvent struct {
	done chan struct{}
}


// A session with one page server.
// All store changes happen on a single loop goroutine. The current store is published
// with an atomic swap, so `Store` never blocks and always returns a complete immutable value.
type Session struct {
	ctx    context.Context
	cancel context.CancelFunc

	settings   *Settings
	instanceId Id

	api          *PageApi
	applier      *Applier
	materializer *Materializer

	store  atomic.Pointer[Store]
	events chan any

	storeCallbacks *CallbackList[StoreCallback]
	errorCallbacks *CallbackList[ErrorCallback]

	ready     chan struct{}
	readyOnce sync.Once

	stateLock sync.Mutex
	clientId  string
	err       error

	// owned by the loop
	buffer               *PendingBuffer
	finishedInitialFetch bool
	generation           int
}

func NewSessionWithDefaults(ctx context.Context) *Session {
	return NewSession(ctx, DefaultSettings())
}

func NewSession(ctx context.Context, settings *Settings) *Session {
	return NewSessionWithApplier(ctx, settings, NewApplier())
}

func NewSessionWithApplier(ctx context.Context, settings *Settings, applier *Applier) *Session {
	cancelCtx, cancel := context.WithCancel(ctx)

	eventBufferSize := settings.EventBufferSize
	if eventBufferSize <= 0 {
		eventBufferSize = 1
	}

	session := &Session{
		ctx:            cancelCtx,
		cancel:         cancel,
		settings:       settings,
		instanceId:     NewId(),
		api:            NewPageApi(cancelCtx, settings.HttpUrl(), settings.Auth),
		applier:        applier,
		events:         make(chan any, eventBufferSize),
		storeCallbacks: NewCallbackList[StoreCallback](),
		errorCallbacks: NewCallbackList[ErrorCallback](),
		ready:          make(chan struct{}),
		buffer:         NewPendingBuffer(),
	}
	session.materializer = NewMaterializer(func(variableId string, value any) {
		session.UpdateVariable(variableId, value)
	})
	session.store.Store(NewStore())
	go session.run()
	return session
}

func (self *Session) InstanceId() Id {
	return self.instanceId
}

func (self *Session) Settings() *Settings {
	return self.settings
}

func (self *Session) Store() *Store {
	return self.store.Load()
}

// empty until the server sends `setClientId`
func (self *Session) ClientId() string {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.clientId
}

func (self *Session) setClientId(clientId string) {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	self.clientId = clientId
}

// the transport fault that ended the session, if any
func (self *Session) Err() error {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()

	return self.err
}

func (self *Session) AddStoreCallback(callback StoreCallback) func() {
	return self.storeCallbacks.Add(callback)
}

func (self *Session) AddErrorCallback(callback ErrorCallback) func() {
	return self.errorCallbacks.Add(callback)
}

// closed once the first snapshot is applied
func (self *Session) Ready() <-chan struct{} {
	return self.ready
}

func (self *Session) Done() <-chan struct{} {
	return self.ctx.Done()
}

func (self *Session) Close() {
	self.cancel()
}

func (self *Session) Materialize(rootId string) (*RenderNode, error) {
	return self.materializer.Materialize(self.Store(), rootId)
}

// Sends a function call. The frame is stamped with the client id when it is written.
func (self *Session) Call(functionId string, kwargs map[string]any) error {
	return self.post(&outboundEvent{
		encode: func(clientId string) ([]byte, error) {
			return EncodeCall(functionId, kwargs, clientId)
		},
	})
}

// Applies the value locally, then sends it to the server.
func (self *Session) UpdateVariable(variableId string, value any) error {
	return self.post(&outboundEvent{
		local: &UpdateVariable{
			Id:      variableId,
			Value:   value,
			Version: InternalVersion,
		},
		encode: func(clientId string) ([]byte, error) {
			return EncodeUpdateVariable(variableId, value, clientId)
		},
	})
}

// Applies operations on the loop and waits for them to be published.
func (self *Session) ApplyLocal(ctx context.Context, ops ...Operation) error {
	result := make(chan error, 1)
	if err := self.postContext(ctx, &localEvent{ops: ops, result: result}); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-self.ctx.Done():
		return ErrSessionClosed
	case err := <-result:
		return err
	}
}

// Waits until every event posted before the call is processed.
func (self *Session) Sync(ctx context.Context) error {
	done := make(chan struct{})
	if err := self.postContext(ctx, &syncEvent{done: done}); err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-self.ctx.Done():
		return ErrSessionClosed
	case <-done:
		return nil
	}
}

func (self *Session) post(event any) error {
	return self.postContext(self.ctx, event)
}

func (self *Session) postContext(ctx context.Context, event any) error {
	if self.ctx.Err() != nil {
		return ErrSessionClosed
	}
	select {
	case <-self.ctx.Done():
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	case self.events <- event:
		return nil
	}
}

func (self *Session) run() {
	defer func() {
		self.cancel()
		self.api.Close()
	}()

	for {
		refresh, err := self.runGeneration()
		if err != nil {
			self.fault(err)
			return
		}
		if !refresh {
			return
		}
		glog.V(LogLevelLifecycle).Infof("[s]%s refresh\n", self.instanceId)
	}
}

func (self *Session) fault(err error) {
	glog.Infof("[s]%s error = %s\n", self.instanceId, err)

	self.stateLock.Lock()
	self.err = err
	self.stateLock.Unlock()

	for _, errorCallback := range self.errorCallbacks.Get() {
		HandleError(func() {
			errorCallback(err)
		})
	}
}

// One connection. Returns true when the server asked for a refresh.
func (self *Session) runGeneration() (refresh bool, returnErr error) {
	self.generation += 1
	generation := self.generation

	self.buffer.Clear()
	self.finishedInitialFetch = false
	self.setClientId("")
	if generation > 1 {
		self.publish(NewStore())
	}

	connect := func() (*websocket.Conn, error) {
		dialer := &websocket.Dialer{
			HandshakeTimeout: self.settings.WsHandshakeTimeout,
		}
		header := http.Header{}
		addAuthHeader(header, self.settings.Auth.ByJwt())
		addProtocolVersionHeader(header)
		ws, _, err := dialer.DialContext(self.ctx, self.settings.WsUrl(), header)
		return ws, err
	}

	var ws *websocket.Conn
	var err error
	if glog.V(LogLevelTrace) {
		ws, err = TraceWithReturnError(fmt.Sprintf("[s]connect %s", self.settings.WsUrl()), connect)
	} else {
		ws, err = connect()
	}
	if err != nil {
		if self.ctx.Err() != nil {
			return false, nil
		}
		return false, fmt.Errorf("connect %s: %w", self.settings.WsUrl(), err)
	}
	defer ws.Close()

	handleCtx, handleCancel := context.WithCancel(self.ctx)
	defer handleCancel()

	postHandle := func(event any) {
		select {
		case <-handleCtx.Done():
		case self.events <- event:
		}
	}

	go func() {
		for {
			if 0 < self.settings.ReadTimeout {
				ws.SetReadDeadline(time.Now().Add(self.settings.ReadTimeout))
			}
			messageType, frame, err := ws.ReadMessage()
			if err != nil {
				postHandle(&readErrorEvent{
					generation: generation,
					err:        err,
				})
				return
			}

			switch messageType {
			case websocket.TextMessage, websocket.BinaryMessage:
				message, err := DecodeFrame(frame)
				if err != nil {
					glog.Infof("[sr]drop %s<- error = %s\n", self.instanceId, err)
					continue
				}
				glog.V(LogLevelTrace).Infof("[sr]%s<- %s\n", self.instanceId, message.Type)
				postHandle(&frameEvent{
					generation: generation,
					message:    message,
				})
			default:
				glog.V(LogLevelTrace).Infof("[sr]other=%d %s<-\n", messageType, self.instanceId)
			}
		}
	}()

	self.api.InitialState(NewApiCallback[*Snapshot](func(snapshot *Snapshot, err error) {
		postHandle(&snapshotEvent{
			generation: generation,
			snapshot:   snapshot,
			err:        err,
		})
	}))

	for {
		select {
		case <-self.ctx.Done():
			return false, nil
		case event := <-self.events:
			switch v := event.(type) {
			case *frameEvent:
				if v.generation != generation {
					continue
				}
				if refresh := self.handleMessage(v.message); refresh {
					return true, nil
				}
			case *snapshotEvent:
				if v.generation != generation {
					continue
				}
				if v.err != nil {
					return false, fmt.Errorf("initial state: %w", v.err)
				}
				self.handleSnapshot(v.snapshot)
			case *readErrorEvent:
				if v.generation != generation {
					continue
				}
				if self.ctx.Err() != nil {
					return false, nil
				}
				return false, fmt.Errorf("read: %w", v.err)
			case *outboundEvent:
				if err := self.handleOutbound(ws, v); err != nil {
					return false, err
				}
			case *localEvent:
				v.result <- self.applyAndPublish(v.ops)
			case *syncEvent:
				close(v.done)
			}
		}
	}
}

func (self *Session) handleMessage(message *InboundMessage) (refresh bool) {
	switch message.Type {
	case MessageSetClientId:
		glog.V(LogLevelLifecycle).Infof("[s]%s client id = %s\n", self.instanceId, message.ClientId)
		self.setClientId(message.ClientId)
		return false
	case MessageRefresh:
		return true
	}

	if !self.finishedInitialFetch {
		self.buffer.Add(message.PendingAction())
		glog.V(LogLevelTrace).Infof("[s]%s buffer %s (%d)\n", self.instanceId, message.Type, self.buffer.Len())
		return false
	}

	self.applyAndPublish([]Operation{message.Operation})
	return false
}

func (self *Session) handleSnapshot(snapshot *Snapshot) {
	store := self.Store()
	applySnapshot := func() {
		var err error
		store, err = self.applyAll(store, snapshot.Operations())
		if err != nil {
			glog.Infof("[s]%s snapshot apply error = %s\n", self.instanceId, err)
		}
	}
	if glog.V(LogLevelTrace) {
		Trace(fmt.Sprintf("[s]%s snapshot apply (%d)", self.instanceId, snapshot.Version), applySnapshot)
	} else {
		applySnapshot()
	}

	retained, discardCount := self.buffer.Drain(snapshot.Version)
	ops := make([]Operation, 0, len(retained))
	for _, action := range retained {
		ops = append(ops, action.Operation)
	}
	store, err := self.applyAll(store, ops)
	if err != nil {
		glog.Infof("[s]%s buffer apply error = %s\n", self.instanceId, err)
	}

	self.finishedInitialFetch = true
	self.publish(store)
	glog.V(LogLevelLifecycle).Infof(
		"[s]%s snapshot version=%d replayed=%d discarded=%d\n",
		self.instanceId,
		snapshot.Version,
		len(retained),
		discardCount,
	)

	self.readyOnce.Do(func() {
		close(self.ready)
	})
}

func (self *Session) handleOutbound(ws *websocket.Conn, event *outboundEvent) error {
	if event.local != nil {
		self.applyAndPublish([]Operation{event.local})
	}

	clientId := self.ClientId()
	frame, err := event.encode(clientId)
	if err != nil {
		// a bad payload does not end the session
		glog.Infof("[ss]%s-> encode error = %s\n", self.instanceId, err)
		return nil
	}

	if 0 < self.settings.WriteTimeout {
		ws.SetWriteDeadline(time.Now().Add(self.settings.WriteTimeout))
	}
	if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		// note that for websocket a dealine timeout cannot be recovered
		return fmt.Errorf("write: %w", err)
	}
	glog.V(LogLevelTrace).Infof("[ss]%s->\n", self.instanceId)
	return nil
}

func (self *Session) applyAndPublish(ops []Operation) error {
	store, err := self.applyAll(self.Store(), ops)
	if err != nil {
		glog.Infof("[s]%s apply error = %s\n", self.instanceId, err)
	}
	self.publish(store)
	return err
}

// logs unknown operations and continues past failed ones
func (self *Session) applyAll(store *Store, ops []Operation) (*Store, error) {
	for _, op := range ops {
		if unknown, ok := op.(*UnknownOperation); ok {
			glog.V(LogLevelTrace).Infof("[s]%s unknown operation %s\n", self.instanceId, unknown.Type)
		}
	}
	return self.applier.ApplyAll(store, ops)
}

func (self *Session) publish(store *Store) {
	self.store.Store(store)
	for _, storeCallback := range self.storeCallbacks.Get() {
		HandleError(func() {
			storeCallback(store)
		})
	}
}
