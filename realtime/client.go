// Package realtime is a socket.io client for the platform's push channel. It
// speaks Engine.IO v4 over a websocket transport and exposes the connection as
// a small state machine.
package realtime

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jrsteele09/go-guard-companion/internal/errors"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// State of a Client
type State int32

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	}
	return "DISCONNECTED"
}

const (
	// Time allowed to write a frame to the server.
	writeWait = 5 * time.Second
	// Time allowed for the goodbye frame on Close.
	closeWait = 500 * time.Millisecond
)

// Handler receives every server event. It runs on the client's read goroutine
// and is not called for frames read after Close.
type Handler func(event string, payload []byte)

// Client holds one socket.io connection for one session. It dials in the
// background, reconnects after unexpected drops, and never reconnects once
// closed.
type Client struct {
	id        string
	endpoint  string
	token     string
	handler   Handler
	dialer    *websocket.Dialer
	baseDelay time.Duration
	maxDelay  time.Duration

	state   atomic.Int32
	closed  atomic.Bool
	mu      sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	done    chan struct{}
}

type Option func(*Client)

// WithReconnectDelay sets the first retry delay and the cap it doubles up to
func WithReconnectDelay(base, max time.Duration) Option {
	return func(c *Client) {
		if base > 0 {
			c.baseDelay = base
		}
		if max >= c.baseDelay {
			c.maxDelay = max
		}
	}
}

// WithDialer replaces the websocket dialer
func WithDialer(d *websocket.Dialer) Option {
	return func(c *Client) {
		c.dialer = d
	}
}

// NewClient prepares a client for the socket.io server mounted at baseURL
// (http, https, ws or wss). token is sent in the CONNECT auth payload.
func NewClient(baseURL, token string, handler Handler, options ...Option) (*Client, error) {
	endpoint, err := Endpoint(baseURL)
	if err != nil {
		return nil, err
	}
	if handler == nil {
		handler = func(string, []byte) {}
	}
	c := &Client{
		id:        uuid.NewString(),
		endpoint:  endpoint,
		token:     token,
		handler:   handler,
		dialer:    websocket.DefaultDialer,
		baseDelay: time.Second,
		maxDelay:  5 * time.Second,
		done:      make(chan struct{}),
	}
	for _, opt := range options {
		opt(c)
	}
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c, nil
}

// Endpoint returns the websocket URL of the socket.io server at baseURL
func Endpoint(baseURL string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", pkgerrors.Wrap(err, "[Endpoint] invalid socket URL")
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", pkgerrors.Errorf("[Endpoint] unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/socket.io/"
	u.RawQuery = url.Values{"EIO": {"4"}, "transport": {"websocket"}}.Encode()
	return u.String(), nil
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) State() State {
	return State(c.state.Load())
}

func (c *Client) Connected() bool {
	return c.State() == Connected
}

// Done is closed once the background goroutine has exited
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Start launches the connection loop. Calling it more than once, or after
// Close, does nothing.
func (c *Client) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started || c.closed.Load() {
		return
	}
	c.started = true
	c.state.Store(int32(Connecting))
	go c.run()
}

// Close tears the connection down. The state is Disconnected when it returns
// and no further events are delivered; the read goroutine exits shortly after.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed.Swap(true) {
		c.mu.Unlock()
		return
	}
	c.state.Store(int32(Disconnected))
	conn := c.conn
	c.conn = nil
	started := c.started
	c.cancel()
	c.mu.Unlock()

	if conn != nil {
		c.writeMu.Lock()
		_ = conn.SetWriteDeadline(time.Now().Add(closeWait))
		_ = conn.WriteMessage(websocket.TextMessage, encodeDisconnect())
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(closeWait))
		c.writeMu.Unlock()
		_ = conn.Close()
	}
	if !started {
		close(c.done)
	}
	log.Debug().Str("connection", c.id).Msg("Realtime connection closed")
}

// setState never moves a closed client out of Disconnected
func (c *Client) setState(s State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() && s != Disconnected {
		return
	}
	c.state.Store(int32(s))
}

func (c *Client) run() {
	defer close(c.done)
	delay := c.baseDelay
	for {
		connected, err := c.connectOnce()
		if c.closed.Load() {
			return
		}
		c.setState(Disconnected)
		if connected {
			delay = c.baseDelay
		}
		log.Warn().Err(err).Str("connection", c.id).Dur("retry_in", delay).Msg("Realtime connection lost")

		timer := time.NewTimer(delay)
		select {
		case <-c.ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
		delay *= 2
		if delay > c.maxDelay {
			delay = c.maxDelay
		}
		c.setState(Connecting)
	}
}

// connectOnce runs one transport from dial to drop. connected reports whether
// the socket.io handshake completed.
func (c *Client) connectOnce() (connected bool, err error) {
	conn, resp, err := c.dialer.DialContext(c.ctx, c.endpoint, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return false, pkgerrors.Wrap(err, "[connectOnce] dial")
	}

	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		conn.Close()
		return false, errors.ErrConnectionClosed
	}
	c.conn = conn
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		if c.conn == conn {
			c.conn = nil
		}
		c.mu.Unlock()
		conn.Close()
	}()

	info, err := c.handshake(conn)
	if err != nil {
		return false, err
	}
	c.setState(Connected)
	log.Info().Str("connection", c.id).Str("sid", info.SID).Msg("Realtime connection established")
	return true, c.readLoop(conn, info)
}

func (c *Client) handshake(conn *websocket.Conn) (openInfo, error) {
	_ = conn.SetReadDeadline(time.Now().Add(writeWait * 2))
	pkt, err := c.read(conn)
	if err != nil {
		return openInfo{}, err
	}
	if pkt.kind != kindOpen {
		return openInfo{}, errors.Wrapf(errors.ErrHandshake, "[handshake] expected open packet")
	}
	info, err := parseOpen(pkt.data)
	if err != nil {
		return openInfo{}, err
	}

	var auth map[string]string
	if c.token != "" {
		auth = map[string]string{"token": c.token}
	}
	if err := c.write(conn, encodeConnect(auth)); err != nil {
		return openInfo{}, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(info.PingInterval + info.PingTimeout))
	for {
		pkt, err := c.read(conn)
		if err != nil {
			return openInfo{}, err
		}
		switch pkt.kind {
		case kindConnect:
			return info, nil
		case kindConnectError:
			return openInfo{}, errors.Wrapf(errors.ErrHandshake, "[handshake] %s", connectErrorMessage(pkt.data))
		case kindPing:
			if err := c.write(conn, encodePong()); err != nil {
				return openInfo{}, err
			}
		case kindClose, kindDisconnect:
			return openInfo{}, errors.Wrapf(errors.ErrHandshake, "[handshake] server closed the connection")
		}
	}
}

func (c *Client) readLoop(conn *websocket.Conn, info openInfo) error {
	for {
		_ = conn.SetReadDeadline(time.Now().Add(info.PingInterval + info.PingTimeout))
		pkt, err := c.read(conn)
		if err != nil {
			return err
		}
		switch pkt.kind {
		case kindPing:
			if err := c.write(conn, encodePong()); err != nil {
				return err
			}
		case kindEvent:
			c.dispatch(pkt.event, pkt.data)
		case kindClose, kindDisconnect:
			return errors.ErrConnectionClosed
		}
	}
}

func (c *Client) read(conn *websocket.Conn) (packet, error) {
	for {
		msgType, frame, err := conn.ReadMessage()
		if err != nil {
			return packet{}, pkgerrors.Wrap(err, "[read]")
		}
		if msgType != websocket.TextMessage {
			continue
		}
		pkt, err := decodePacket(frame)
		if err != nil {
			log.Warn().Err(err).Str("connection", c.id).Msg("Dropping malformed realtime frame")
			continue
		}
		return pkt, nil
	}
}

func (c *Client) write(conn *websocket.Conn, frame []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return pkgerrors.Wrap(err, "[write]")
	}
	return nil
}

func (c *Client) dispatch(event string, payload []byte) {
	if c.closed.Load() {
		return
	}
	log.Debug().Str("connection", c.id).Str("event", event).Msg("Realtime event received")
	c.handler(event, payload)
}

// Conn is the view of a Client its owner needs
type Conn interface {
	ID() string
	State() State
	Connected() bool
	Close()
	Done() <-chan struct{}
}

var _ Conn = (*Client)(nil)

// Dialer opens realtime clients against one server
type Dialer struct {
	BaseURL string
	Options []Option
}

// Dial creates and starts a client for token
func (d Dialer) Dial(token string, handler Handler) (Conn, error) {
	c, err := NewClient(d.BaseURL, token, handler, d.Options...)
	if err != nil {
		return nil, err
	}
	c.Start()
	return c, nil
}
