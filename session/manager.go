// Package session owns the signed-in guard's identity: it persists and restores
// the session, keeps the realtime connection alive while a session exists and
// fans server events out to the refresh bus.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/jrsteele09/go-guard-companion/api"
	"github.com/jrsteele09/go-guard-companion/debounce"
	"github.com/jrsteele09/go-guard-companion/internal/config"
	"github.com/jrsteele09/go-guard-companion/realtime"
	"github.com/jrsteele09/go-guard-companion/refresh"
	"github.com/jrsteele09/go-guard-companion/storage"
	"github.com/jrsteele09/go-guard-companion/users"
	"github.com/rs/zerolog/log"
)

// Area is a navigation area of the client
type Area int

const (
	AreaUnauthenticated Area = iota // sign in
	AreaAuthenticated               // guard screens
)

func (a Area) String() string {
	if a == AreaAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// Navigator moves the user to another area, replacing the current one
type Navigator interface {
	Replace(area Area)
}

// Alerter gets the guard's attention. Alert blocks until the guard acknowledges.
type Alerter interface {
	Vibrate()
	Alert(alert realtime.EmergencyAlert)
}

// PushProvider obtains the device's push token. An empty token means the device
// cannot receive pushes.
type PushProvider interface {
	Token(ctx context.Context) (string, error)
}

// Dialer opens the realtime connection for a session token
type Dialer interface {
	Dial(token string, handler realtime.Handler) (realtime.Conn, error)
}

// API is the part of the backend the manager talks to
type API interface {
	Login(ctx context.Context, email, password string) (api.LoginResponse, error)
	UpdatePushSettings(ctx context.Context, userID string, settings api.PushSettings) error
	SetToken(token string)
	ClearToken()
}

// Config is what the manager reads from configuration
type Config interface {
	config.EnvConfig
	config.SessionConfig
	config.RealtimeConfig
}

// Session is the signed-in identity
type Session struct {
	User     users.User
	Token    string
	TenantID string
}

type Manager struct {
	store     storage.Repo
	client    API
	navigator Navigator
	alerter   Alerter
	push      PushProvider
	dialer    Dialer
	scheduler debounce.Scheduler
	nowTime   func() time.Time
	allowed   []users.Role
	native    bool
	bus       *refresh.Bus

	// writeMu orders storage writes with the in-memory changes they mirror
	writeMu sync.Mutex

	mu         sync.Mutex
	session    *Session
	conn       realtime.Conn
	connGen    uint64
	location   Area
	pushCancel context.CancelFunc
	wg         sync.WaitGroup
}

type Option func(*Manager)

func WithNavigator(n Navigator) Option {
	return func(m *Manager) {
		m.navigator = n
	}
}

func WithAlerter(a Alerter) Option {
	return func(m *Manager) {
		m.alerter = a
	}
}

// WithPushProvider enables push registration on native platforms
func WithPushProvider(p PushProvider) Option {
	return func(m *Manager) {
		m.push = p
	}
}

func WithDialer(d Dialer) Option {
	return func(m *Manager) {
		m.dialer = d
	}
}

// WithScheduler replaces the clock driving the refresh debounce
func WithScheduler(s debounce.Scheduler) Option {
	return func(m *Manager) {
		m.scheduler = s
	}
}

func WithNowTime(now func() time.Time) Option {
	return func(m *Manager) {
		m.nowTime = now
	}
}

// NewManager returns a manager with no session. Call Restore to pick up a
// persisted one.
func NewManager(cfg Config, store storage.Repo, client API, options ...Option) *Manager {
	m := &Manager{
		store:     store,
		client:    client,
		navigator: noopNavigator{},
		alerter:   logAlerter{},
		scheduler: debounce.SystemScheduler{},
		nowTime:   time.Now,
		allowed:   users.RolesFromStrings(cfg.GetAllowedRoles()),
		native:    cfg.GetPlatform().IsNative(),
		dialer: realtime.Dialer{
			BaseURL: cfg.GetSocketURL(),
			Options: []realtime.Option{realtime.WithReconnectDelay(cfg.GetReconnectDelay(), cfg.GetMaxReconnectDelay())},
		},
	}
	for _, opt := range options {
		opt(m)
	}
	if len(m.allowed) == 0 {
		m.allowed = users.DefaultAllowedRoles
	}
	m.bus = refresh.NewBus(refresh.WithDelay(cfg.GetRefreshDebounce()), refresh.WithScheduler(m.scheduler))
	return m
}

// Current returns a copy of the session, if any
func (m *Manager) Current() (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return Session{}, false
	}
	return *m.session, true
}

// Connected reports whether the realtime connection is up
func (m *Manager) Connected() bool {
	return m.ConnectionState() == realtime.Connected
}

func (m *Manager) ConnectionState() realtime.State {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()
	if conn == nil {
		return realtime.Disconnected
	}
	return conn.State()
}

// OnDataRefresh subscribes fn to refresh dispatches. Call the returned func to
// unsubscribe; it is safe to call more than once.
func (m *Manager) OnDataRefresh(fn func()) (unsubscribe func()) {
	return m.bus.Subscribe(fn)
}

// RefreshData asks every subscriber to refetch, once the debounce window has
// passed without another request.
func (m *Manager) RefreshData() {
	m.bus.Refresh()
}

// Close releases the connection and background work. The persisted session
// is kept, so a later Restore adopts it again.
func (m *Manager) Close() {
	m.mu.Lock()
	m.session = nil
	conn := m.conn
	m.conn = nil
	m.connGen++
	cancelPush := m.pushCancel
	m.pushCancel = nil
	m.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if cancelPush != nil {
		cancelPush()
	}
	m.bus.Cancel()
	m.wg.Wait()
}

type noopNavigator struct{}

func (noopNavigator) Replace(Area) {}

type logAlerter struct{}

func (logAlerter) Vibrate() {}

func (logAlerter) Alert(alert realtime.EmergencyAlert) {
	log.Warn().Str("title", alert.Title()).Msg(alert.Message())
}
