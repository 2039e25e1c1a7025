package session_test

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-guard-companion/api"
	"github.com/jrsteele09/go-guard-companion/debounce"
	"github.com/jrsteele09/go-guard-companion/internal/config"
	"github.com/jrsteele09/go-guard-companion/internal/fakebackend"
	"github.com/jrsteele09/go-guard-companion/realtime"
	"github.com/jrsteele09/go-guard-companion/session"
	"github.com/jrsteele09/go-guard-companion/storage/repofake"
	"github.com/jrsteele09/go-guard-companion/users"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = 3 * time.Second
	tick    = 10 * time.Millisecond
	window  = 500 * time.Millisecond
)

type testConfig struct {
	config.Config
	platform config.Platform
}

func (c testConfig) GetPlatform() config.Platform {
	return c.platform
}

func (c testConfig) GetAllowedRoles() []string {
	return []string{"SECURITY", "ADMIN"}
}

func (c testConfig) GetRefreshDebounce() time.Duration {
	return window
}

type recordingNavigator struct {
	mu    sync.Mutex
	calls []session.Area
}

func (n *recordingNavigator) Replace(area session.Area) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, area)
}

func (n *recordingNavigator) Calls() []session.Area {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]session.Area(nil), n.calls...)
}

func (n *recordingNavigator) Last() (session.Area, bool) {
	calls := n.Calls()
	if len(calls) == 0 {
		return 0, false
	}
	return calls[len(calls)-1], true
}

type recordingAlerter struct {
	mu       sync.Mutex
	vibrated int
	alerts   chan realtime.EmergencyAlert
}

func newRecordingAlerter() *recordingAlerter {
	return &recordingAlerter{alerts: make(chan realtime.EmergencyAlert, 8)}
}

func (a *recordingAlerter) Vibrate() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vibrated++
}

func (a *recordingAlerter) Alert(alert realtime.EmergencyAlert) {
	a.alerts <- alert
}

func (a *recordingAlerter) Vibrations() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vibrated
}

// fakeConn delivers events straight to the manager's handler, even after
// Close, so the manager's own filtering is what is under test.
type fakeConn struct {
	id      string
	token   string
	handler realtime.Handler

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

func (c *fakeConn) ID() string {
	return c.id
}

func (c *fakeConn) State() realtime.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return realtime.Disconnected
	}
	return realtime.Connected
}

func (c *fakeConn) Connected() bool {
	return c.State() == realtime.Connected
}

func (c *fakeConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.done)
	}
}

func (c *fakeConn) Done() <-chan struct{} {
	return c.done
}

func (c *fakeConn) Closed() bool {
	return c.State() == realtime.Disconnected
}

func (c *fakeConn) Emit(t *testing.T, event string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	c.handler(event, raw)
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn
}

func (d *fakeDialer) Dial(token string, handler realtime.Handler) (realtime.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c := &fakeConn{id: uuid.NewString(), token: token, handler: handler, done: make(chan struct{})}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) Conns() []*fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*fakeConn(nil), d.conns...)
}

func (d *fakeDialer) Last(t *testing.T) *fakeConn {
	t.Helper()
	conns := d.Conns()
	require.NotEmpty(t, conns, "no connection was dialed")
	return conns[len(conns)-1]
}

type staticPush struct {
	token string
	err   error
}

func (p staticPush) Token(context.Context) (string, error) {
	return p.token, p.err
}

type fixture struct {
	store     *repofake.FakeStorageRepo
	backend   *fakebackend.Backend
	client    *api.Client
	navigator *recordingNavigator
	alerter   *recordingAlerter
	dialer    *fakeDialer
	scheduler *debounce.ManualScheduler
	now       time.Time
	platform  config.Platform
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	backend := fakebackend.New(t)
	return &fixture{
		store:     repofake.NewFakeStorageRepo(),
		backend:   backend,
		client:    api.New(backend.URL()),
		navigator: &recordingNavigator{},
		alerter:   newRecordingAlerter(),
		dialer:    &fakeDialer{},
		scheduler: debounce.NewManualScheduler(),
		now:       time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC),
		platform:  config.PlatformWeb,
	}
}

func (f *fixture) manager(t *testing.T, extra ...session.Option) *session.Manager {
	t.Helper()
	opts := []session.Option{
		session.WithNavigator(f.navigator),
		session.WithAlerter(f.alerter),
		session.WithDialer(f.dialer),
		session.WithScheduler(f.scheduler),
		session.WithNowTime(func() time.Time { return f.now }),
	}
	m := session.NewManager(testConfig{Config: config.New(), platform: f.platform}, f.store, f.client, append(opts, extra...)...)
	t.Cleanup(m.Close)
	return m
}

// accessToken mints a token the way the backend does; the client never
// checks the signature.
func accessToken(t *testing.T, userID, tenantID string, expires time.Time) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":      userID,
		"tenantId": tenantID,
		"exp":      expires.Unix(),
	}).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return signed
}

func guard() users.User {
	enabled := true
	return users.User{
		ID:                       "u-1",
		Name:                     "Ana Mora",
		Email:                    "guard@site.com",
		Role:                     users.RoleSecurity,
		BadgeNumber:              "B-12",
		Gate:                     "North",
		PushNotificationsEnabled: &enabled,
		Plan:                     "elite",
		Branding:                 &users.Branding{PrimaryColor: "#000000"},
	}
}

// addAccount registers user at the backend with password "pw" and returns the
// token it will hand out
func (f *fixture) addAccount(t *testing.T, user users.User) string {
	t.Helper()
	tok := accessToken(t, user.ID, "tenant-1", f.now.Add(time.Hour))
	f.backend.AddAccount(user.Email, fakebackend.Account{Password: "pw", Token: tok, User: user})
	return tok
}

// signIn logs the standard guard in
func (f *fixture) signIn(t *testing.T, m *session.Manager) string {
	t.Helper()
	tok := f.addAccount(t, guard())
	require.NoError(t, m.Login(context.Background(), "guard@site.com", "pw"))
	return tok
}

func (f *fixture) seed(t *testing.T, tok string, user users.User) {
	t.Helper()
	raw, err := json.Marshal(user)
	require.NoError(t, err)
	require.NoError(t, f.store.Set(context.Background(), "authToken", tok))
	require.NoError(t, f.store.Set(context.Background(), "user", string(raw)))
}
