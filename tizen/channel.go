package tizen

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tvremote/go-tizenws/logger"
	"github.com/tvremote/go-tizenws/resilience"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

// ChannelName identifies one of the two websocket channels of a client
type ChannelName string

const (
	// ChannelRemote carries key presses, the installed app list and launch events
	ChannelRemote ChannelName = "remote"
	// ChannelControl carries app starts by id and running-state queries
	ChannelControl ChannelName = "control"
)

// ChannelState is the lifecycle position of a channel
type ChannelState int32

const (
	StateClosed ChannelState = iota
	StateConnecting
	StateOpen
	StateClosing
)

func (s ChannelState) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateConnecting:
		return "CONNECTING"
	case StateOpen:
		return "OPEN"
	case StateClosing:
		return "CLOSING"
	default:
		return "UNKNOWN"
	}
}

// channel supervises one websocket endpoint: it dials, reads frames in order
// and hands them to the client router, and reconnects with backoff until the
// session ends or the TV refuses the channel.
type channel struct {
	name    ChannelName
	path    string
	client  *Client
	logger  logger.Logger
	backoff *resilience.Backoff

	state   atomic.Int32
	running atomic.Bool

	mu   sync.RWMutex
	conn *websocket.Conn
}

// connection is one established socket of a channel
type connection struct {
	ctx       context.Context
	channel   *channel
	conn      *websocket.Conn
	handshook bool
}

func newChannel(client *Client, name ChannelName, path string, backoff resilience.BackoffConfig) *channel {
	return &channel{
		name:    name,
		path:    path,
		client:  client,
		logger:  client.logger.WithPrefix("[" + string(name) + "]"),
		backoff: resilience.NewBackoff(backoff),
	}
}

// State returns the current state of the channel
func (ch *channel) State() ChannelState {
	return ChannelState(ch.state.Load())
}

func (ch *channel) setState(state ChannelState) {
	ch.state.Store(int32(state))
}

func (ch *channel) currentConn() *websocket.Conn {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.conn
}

func (ch *channel) setConn(conn *websocket.Conn) {
	ch.mu.Lock()
	ch.conn = conn
	ch.mu.Unlock()
}

// open starts the reconnect loop for the session unless it is already running
func (ch *channel) open(s *session) {
	if s.ctx.Err() != nil || !ch.running.CompareAndSwap(false, true) {
		return
	}
	ch.backoff.Reset()
	s.wg.Add(1)
	go ch.run(s)
}

func (ch *channel) run(s *session) {
	defer s.wg.Done()
	defer ch.running.Store(false)
	defer ch.setState(StateClosed)

	ch.logger.Debug("starting")
	for {
		if s.ctx.Err() != nil {
			ch.logger.Debug("stopped")
			return
		}
		ch.setState(StateConnecting)
		err := ch.connect(s)
		if s.ctx.Err() != nil {
			ch.logger.Debug("stopped")
			return
		}
		ch.setState(StateClosed)
		if errors.Is(err, ErrAuthorization) {
			ch.logger.Error("authorization refused, allow the client on the TV and open again")
			ch.client.fail(s, ch.name, err)
			return
		}
		delay, berr := ch.backoff.Failure()
		if berr != nil {
			ch.logger.Error("giving up: %s (last error: %s)", berr, err)
			ch.client.fail(s, ch.name, errors.Mark(errors.Wrapf(err, "%s", berr), ErrTooManyFailures))
			return
		}
		ch.logger.Error("connection error: %s", err)
		ch.logger.Debug("retrying in %s", delay)
		if err := resilience.Sleep(s.ctx, delay); err != nil {
			ch.logger.Debug("stopped")
			return
		}
	}
}

// connect dials the channel and reads until the socket fails. It returns a
// *TransportError for socket failures and ErrAuthorization when the TV refuses the channel.
func (ch *channel) connect(s *session) error {
	url, err := ch.client.channelURL(s.ctx, ch.name, ch.path)
	if err != nil {
		return &TransportError{Channel: ch.name, Err: err}
	}
	ch.logger.Debug("attempting connection to %s", redactToken(url))

	dialCtx, cancel := context.WithTimeout(s.ctx, ch.client.dialTimeout)
	conn, _, err := websocket.Dial(dialCtx, url, &websocket.DialOptions{HTTPClient: ch.client.httpClient})
	cancel()
	if err != nil {
		return &TransportError{Channel: ch.name, Err: err}
	}
	conn.SetReadLimit(ch.client.readLimit)

	ctx, cancelConn := context.WithCancel(s.ctx)
	c := &connection{ctx: ctx, channel: ch, conn: conn}
	ch.setConn(conn)
	ch.setState(StateOpen)
	ch.logger.Debug("connection established")

	s.wg.Add(1)
	go ch.heartbeat(s, c)

	defer func() {
		ch.setState(StateClosing)
		cancelConn()
		ch.setConn(nil)
		_ = conn.Close(websocket.StatusNormalClosure, "")
		ch.logger.Debug("disconnected")
		ch.client.channelDown(s, ch.name)
	}()

	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			if s.ctx.Err() != nil {
				return s.ctx.Err()
			}
			return &TransportError{Channel: ch.name, Err: err}
		}
		if typ != websocket.MessageText {
			ch.logger.Trace("ignoring %v frame", typ)
			continue
		}
		msg, err := DecodeMessage(data)
		if err != nil {
			ch.logger.Error("dropping frame: %s", err)
			continue
		}
		if err := ch.client.route(s, c, msg); err != nil {
			return err
		}
	}
}

// heartbeat pings the TV so a silently dropped socket is noticed. A failed
// ping closes the socket, which ends the read loop and triggers a reconnect.
func (ch *channel) heartbeat(s *session, c *connection) {
	defer s.wg.Done()
	interval := ch.client.heartbeatInterval
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(c.ctx, interval)
			err := c.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				if c.ctx.Err() == nil {
					ch.logger.Warn("heartbeat failed: %s", err)
					_ = c.conn.Close(websocket.StatusGoingAway, "heartbeat timeout")
				}
				return
			}
		}
	}
}

// send writes v as a JSON text frame. It fails with ErrSendFailure when the channel is not open.
func (ch *channel) send(ctx context.Context, v any) error {
	conn := ch.currentConn()
	if conn == nil || ch.State() != StateOpen {
		return sendFailure(ch.name, errors.Newf("channel is %s", ch.State()))
	}
	wctx, cancel := context.WithTimeout(ctx, ch.client.writeTimeout)
	defer cancel()
	if err := wsjson.Write(wctx, conn, v); err != nil {
		return sendFailure(ch.name, err)
	}
	return nil
}
