// Package tizen is a client for the websocket API of Samsung Tizen TVs. A
// Client keeps two authenticated channels open to one TV, tracks the app in
// the foreground and sends remote key presses and app launches.
package tizen

import (
	"context"
	"crypto/tls"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tvremote/go-tizenws/logger"
	"github.com/tvremote/go-tizenws/resilience"
	"github.com/tvremote/go-tizenws/store"
)

const (
	// TokenKey is the store key of the session token
	TokenKey = "token"

	DefaultName              = "tizenws"
	DefaultKeyPressDelay     = 500 * time.Millisecond
	DefaultQueryInterval     = 100 * time.Millisecond
	DefaultHeartbeatInterval = 30 * time.Second
	DefaultDialTimeout       = 15 * time.Second
	DefaultWriteTimeout      = 10 * time.Second

	// installed app lists with icons easily exceed the websocket library default of 32KiB
	defaultReadLimit = 4 << 20
)

type Options struct {
	// Context is the parent context of the client (optional)
	Context context.Context
	// Logger is the logger for the client (optional)
	Logger logger.Logger
	// Host is the address of the TV (required)
	Host string
	// Port is the websocket port of the TV (optional, defaults to DefaultPort)
	Port int
	// Name is shown on the TV when it asks the user to allow the client (optional)
	Name string
	// Store persists the session token (optional, defaults to an in-memory store)
	Store store.Store
	// Handler receives connection and app change notifications (optional)
	Handler Handler
	// KeyPressDelay is the pause after each key press (optional, defaults to DefaultKeyPressDelay, negative disables it)
	KeyPressDelay time.Duration
	// QueryInterval is the pause between app status queries of the monitor (optional)
	QueryInterval time.Duration
	// HeartbeatInterval is the websocket ping interval (optional, negative disables pings)
	HeartbeatInterval time.Duration
	// DialTimeout bounds each connection attempt (optional)
	DialTimeout time.Duration
	// WriteTimeout bounds each frame write (optional)
	WriteTimeout time.Duration
	// Backoff is the reconnect policy of both channels (optional, defaults to resilience.DefaultBackoffConfig)
	Backoff resilience.BackoffConfig
	// IgnoreApps drops installed apps whose name contains one of these substrings (optional)
	IgnoreApps []string
}

// session is one active period of the client, from Open to Close
type session struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	ready     chan struct{}
	readyOnce sync.Once
	failed    chan struct{}
	failOnce  sync.Once
}

func newSession(parent context.Context) *session {
	ctx, cancel := context.WithCancel(parent)
	return &session{
		ctx:    ctx,
		cancel: cancel,
		ready:  make(chan struct{}),
		failed: make(chan struct{}),
	}
}

func (s *session) isFailed() bool {
	select {
	case <-s.failed:
		return true
	default:
		return false
	}
}

func (s *session) stop() {
	s.cancel()
	s.wg.Wait()
}

// Client maintains the remote and control channels to one TV
type Client struct {
	ctx     context.Context
	logger  logger.Logger
	host    string
	port    int
	name    string
	store   store.Store
	handler Handler

	keyPressDelay     time.Duration
	queryInterval     time.Duration
	heartbeatInterval time.Duration
	dialTimeout       time.Duration
	writeTimeout      time.Duration
	readLimit         int64
	ignoreApps        []string
	httpClient        *http.Client

	remote  *channel
	control *channel

	mu      sync.Mutex
	session *session
	err     error

	connected atomic.Bool
	found     atomic.Bool
	apps      atomic.Pointer[registry]

	// notifyMu serializes state changes with their notifications
	notifyMu sync.Mutex
	appMu    sync.RWMutex
	current  *App
}

// New creates a Client. Call Open to start connecting.
func New(opts Options) (*Client, error) {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewConsoleLogger()
	}
	if opts.Port == 0 {
		opts.Port = DefaultPort
	}
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Handler == nil {
		opts.Handler = &HandlerCallback{}
	}
	switch {
	case opts.KeyPressDelay == 0:
		opts.KeyPressDelay = DefaultKeyPressDelay
	case opts.KeyPressDelay < 0:
		opts.KeyPressDelay = 0
	}
	if opts.QueryInterval <= 0 {
		opts.QueryInterval = DefaultQueryInterval
	}
	switch {
	case opts.HeartbeatInterval == 0:
		opts.HeartbeatInterval = DefaultHeartbeatInterval
	case opts.HeartbeatInterval < 0:
		opts.HeartbeatInterval = 0
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = DefaultDialTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = DefaultWriteTimeout
	}
	if _, err := FormatWebsocketURL(opts.Host, opts.Port, PathRemoteControl, opts.Name, ""); err != nil {
		return nil, err
	}

	// the TV presents a self-signed certificate
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec

	c := &Client{
		ctx:               opts.Context,
		logger:            opts.Logger.WithPrefix("[tizen]"),
		host:              strings.TrimSpace(opts.Host),
		port:              opts.Port,
		name:              opts.Name,
		store:             opts.Store,
		handler:           opts.Handler,
		keyPressDelay:     opts.KeyPressDelay,
		queryInterval:     opts.QueryInterval,
		heartbeatInterval: opts.HeartbeatInterval,
		dialTimeout:       opts.DialTimeout,
		writeTimeout:      opts.WriteTimeout,
		readLimit:         defaultReadLimit,
		ignoreApps:        opts.IgnoreApps,
		httpClient:        &http.Client{Transport: transport},
	}
	c.apps.Store(emptyRegistry)
	c.remote = newChannel(c, ChannelRemote, PathRemoteControl, opts.Backoff)
	c.control = newChannel(c, ChannelControl, PathAppControl, opts.Backoff)
	return c, nil
}

// Open starts connecting to the TV in the background. It is a no-op while the
// client is already active, unless the remote channel stopped for good, in which
// case a new active period is started.
func (c *Client) Open() {
	c.mu.Lock()
	if s := c.session; s != nil {
		if !s.isFailed() {
			c.mu.Unlock()
			return
		}
		c.session = nil
		c.mu.Unlock()
		s.stop()
		c.mu.Lock()
		if c.session != nil {
			c.mu.Unlock()
			return
		}
	}
	c.logger.Debug("opening websocket connections to %s", c.host)
	s := newSession(c.ctx)
	c.session = s
	c.err = nil
	// started under the lock so a concurrent Close waits for it
	c.remote.open(s)
	c.mu.Unlock()
}

// Close stops all background work and releases both sockets. It returns once
// every goroutine of the client has exited and never fails, even if the client was never opened.
func (c *Client) Close() {
	c.mu.Lock()
	s := c.session
	c.session = nil
	c.mu.Unlock()
	if s == nil {
		return
	}
	c.logger.Debug("closing websocket connections")
	s.stop()
	c.connected.Store(false)
}

// Active returns true between Open and Close
func (c *Client) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session != nil
}

// Connected returns true once the control channel handshake completed and while both channels stay up
func (c *Client) Connected() bool {
	return c.connected.Load()
}

// ChannelState returns the state of the named channel
func (c *Client) ChannelState(name ChannelName) ChannelState {
	if name == ChannelControl {
		return c.control.State()
	}
	return c.remote.State()
}

// Err returns the error that stopped the remote channel for good, if any
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// WaitReady blocks until the remote channel handshake is confirmed. It returns
// the terminal error if the remote channel gives up first.
func (c *Client) WaitReady(ctx context.Context) error {
	s := c.currentSession()
	if s == nil {
		return errors.Wrap(ErrCancelled, "client is not open")
	}
	select {
	case <-s.ready:
		return nil
	case <-s.failed:
		return c.Err()
	case <-s.ctx.Done():
		return errors.Wrap(ErrCancelled, "client closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CurrentApp returns the app in the foreground, or nil when none is
func (c *Client) CurrentApp() *App {
	c.appMu.RLock()
	defer c.appMu.RUnlock()
	if c.current == nil {
		return nil
	}
	app := *c.current
	return &app
}

// InstalledApps returns the installed apps sorted by name
func (c *Client) InstalledApps() []App {
	return c.apps.Load().sorted()
}

// App returns the installed app with the given id
func (c *Client) App(id string) (App, bool) {
	return c.apps.Load().get(id)
}

func (c *Client) currentSession() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// token reads the persisted session token. A failing store is logged and treated as no token.
func (c *Client) token(ctx context.Context) string {
	token, err := store.Value(ctx, c.store, TokenKey, "")
	if err != nil {
		c.logger.Warn("failed to read token: %s", err)
		return ""
	}
	return token
}

func (c *Client) channelURL(ctx context.Context, name ChannelName, path string) (string, error) {
	var token string
	if name == ChannelRemote {
		token = c.token(ctx)
	}
	return FormatWebsocketURL(c.host, c.port, path, c.name, token)
}

// fail records a terminal channel error and notifies the handler
func (c *Client) fail(s *session, name ChannelName, err error) {
	if s.ctx.Err() != nil {
		return
	}
	if name == ChannelRemote {
		c.mu.Lock()
		if c.session == s {
			c.err = err
		}
		c.mu.Unlock()
		s.failOnce.Do(func() { close(s.failed) })
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if s.ctx.Err() == nil {
		c.handler.OnError(c, name, err)
	}
}

func (c *Client) channelDown(s *session, name ChannelName) {
	c.connected.Store(false)
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if s.ctx.Err() == nil {
		c.handler.OnDisconnect(c, name)
	}
}
