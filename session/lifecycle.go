package session

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/go-guard-companion/api"
	"github.com/jrsteele09/go-guard-companion/internal/errors"
	"github.com/jrsteele09/go-guard-companion/storage"
	"github.com/jrsteele09/go-guard-companion/token"
	"github.com/jrsteele09/go-guard-companion/users"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Restore adopts the persisted session, if there is one, without asking the
// backend whether the token is still valid. It reports whether a session is
// active afterwards.
func (m *Manager) Restore(ctx context.Context) bool {
	m.writeMu.Lock()
	s, ok := m.loadSession(ctx)
	if ok {
		m.adopt(s)
	}
	m.writeMu.Unlock()

	if ok {
		log.Info().Str("user", s.User.ID).Msg("Session restored")
	}
	m.enforce()
	_, ok = m.Current()
	return ok
}

func (m *Manager) loadSession(ctx context.Context) (Session, bool) {
	accessToken, ok, err := m.store.Get(ctx, storage.KeyAuthToken)
	if err != nil {
		log.Err(err).Msg("Failed to read stored token")
		return Session{}, false
	}
	if !ok || accessToken == "" {
		return Session{}, false
	}

	rawUser, ok, err := m.store.Get(ctx, storage.KeyUser)
	if err != nil {
		log.Err(err).Msg("Failed to read stored user")
		return Session{}, false
	}
	if !ok || rawUser == "" {
		return Session{}, false
	}
	var user users.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		log.Err(err).Msg("Stored user is corrupt, ignoring session")
		return Session{}, false
	}

	tenantID, _, err := m.store.Get(ctx, storage.KeyTenantID)
	if err != nil {
		log.Err(err).Msg("Failed to read stored tenant")
	}

	if claims, err := token.Inspect(accessToken); err != nil {
		log.Warn().Err(err).Msg("Stored token is not a readable JWT")
	} else {
		if claims.Expired(m.nowTime()) {
			log.Warn().Time("expiredAt", claims.ExpiresAt).Msg("Stored token has expired; the backend will reject it")
		}
		if tenantID == "" {
			tenantID = claims.TenantID
		}
	}

	return Session{User: user, Token: accessToken, TenantID: tenantID}, true
}

// Login signs in with the backend. Accounts whose role may not use this client
// are refused with an access denied APIError and nothing is kept. Backend
// errors are returned unchanged.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	resp, err := m.client.Login(ctx, email, password)
	if err != nil {
		return err
	}
	if !resp.User.IsAuthorized(m.allowed) {
		log.Warn().Str("user", resp.User.ID).Str("role", string(resp.User.Role)).Msg("Sign in refused for role")
		return errors.AccessDenied()
	}

	s := Session{User: resp.User, Token: resp.AccessToken}
	if claims, err := token.Inspect(resp.AccessToken); err == nil {
		s.TenantID = claims.TenantID
	}

	m.writeMu.Lock()
	m.persist(ctx, storage.KeyAuthToken, s.Token)
	m.persistUser(ctx, s.User)
	if s.TenantID != "" {
		m.persist(ctx, storage.KeyTenantID, s.TenantID)
	}
	m.adopt(s)
	m.writeMu.Unlock()

	log.Info().Str("user", s.User.ID).Str("role", string(s.User.Role)).Msg("Signed in")
	m.navigate(AreaAuthenticated)
	return nil
}

// Logout ends the session: storage, API token and realtime connection are
// cleared and the user is sent to sign in. It never fails and may be called
// without a session.
func (m *Manager) Logout() {
	ctx := context.Background()

	m.writeMu.Lock()
	for _, key := range []string{storage.KeyAuthToken, storage.KeyUser} {
		if err := m.store.Remove(ctx, key); err != nil {
			log.Err(err).Str("key", key).Msg("Failed to clear stored session")
		}
	}
	m.mu.Lock()
	hadSession := m.session != nil
	m.session = nil
	conn := m.conn
	m.conn = nil
	m.connGen++
	cancelPush := m.pushCancel
	m.pushCancel = nil
	m.mu.Unlock()
	m.client.ClearToken()
	m.writeMu.Unlock()

	if conn != nil {
		conn.Close()
	}
	if cancelPush != nil {
		cancelPush()
	}
	m.bus.Cancel()

	if hadSession {
		log.Info().Msg("Signed out")
	}
	m.navigate(AreaUnauthenticated)
}

// UpdateUser merges patch into the session user, in memory and in storage.
// Fields missing from patch keep their value. It does nothing without a session.
func (m *Manager) UpdateUser(ctx context.Context, patch users.Patch) error {
	if len(patch) == 0 {
		return nil
	}

	m.writeMu.Lock()
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		m.writeMu.Unlock()
		return nil
	}
	merged, err := m.session.User.Merge(patch)
	if err != nil {
		m.mu.Unlock()
		m.writeMu.Unlock()
		return pkgerrors.Wrap(err, "[UpdateUser] invalid patch")
	}
	updated := *m.session
	updated.User = merged
	m.session = &updated
	m.mu.Unlock()
	m.persistUser(ctx, merged)
	m.writeMu.Unlock()

	m.enforce()
	return nil
}

// UpdatePushToken registers the device's push token with the backend and
// records it on the user. Failures are logged.
func (m *Manager) UpdatePushToken(ctx context.Context, pushToken string) {
	s, ok := m.Current()
	if !ok || pushToken == "" || s.User.PushToken == pushToken {
		return
	}
	if err := m.client.UpdatePushSettings(ctx, s.User.ID, api.PushSettings{PushToken: &pushToken}); err != nil {
		log.Err(err).Msg("Failed to update push token on backend")
		return
	}
	if err := m.UpdateUser(ctx, users.Patch{"pushToken": pushToken}); err != nil {
		log.Err(err).Msg("Failed to record push token")
	}
}

// Guard records where the user is and enforces the area rules
func (m *Manager) Guard(location Area) {
	m.mu.Lock()
	m.location = location
	m.mu.Unlock()
	m.enforce()
}

// enforce keeps signed-out users out of the guard screens, signs out accounts
// whose role is not allowed and moves signed-in users into the guard screens.
func (m *Manager) enforce() {
	m.mu.Lock()
	s := m.session
	location := m.location
	m.mu.Unlock()

	switch {
	case s == nil:
		if location == AreaAuthenticated {
			m.navigate(AreaUnauthenticated)
		}
	case !s.User.IsAuthorized(m.allowed):
		log.Warn().Str("user", s.User.ID).Str("role", string(s.User.Role)).Msg("Role not allowed in this app, signing out")
		m.Logout()
	case location != AreaAuthenticated:
		m.navigate(AreaAuthenticated)
	}
}

func (m *Manager) navigate(area Area) {
	m.mu.Lock()
	m.location = area
	m.mu.Unlock()
	m.navigator.Replace(area)
}

// adopt makes s the session. A new connection is opened when there was no
// session or the token changed. Callers hold writeMu.
func (m *Manager) adopt(s Session) {
	m.client.SetToken(s.Token)

	m.mu.Lock()
	prev := m.session
	m.session = &s
	reconnect := prev == nil || prev.Token != s.Token
	var stale func()
	var gen uint64
	if reconnect {
		if m.conn != nil {
			stale = m.conn.Close
		}
		m.conn = nil
		m.connGen++
		gen = m.connGen
	}
	var pushCtx context.Context
	if prev == nil && m.native && m.push != nil {
		var cancel context.CancelFunc
		pushCtx, cancel = context.WithCancel(context.Background())
		m.pushCancel = cancel
		m.wg.Add(1)
	}
	m.mu.Unlock()

	if stale != nil {
		stale()
	}
	if reconnect {
		m.connect(s.Token, gen)
	}
	if pushCtx != nil {
		go m.registerPush(pushCtx)
	}
}

func (m *Manager) connect(accessToken string, gen uint64) {
	conn, err := m.dialer.Dial(accessToken, m.handler(gen))
	if err != nil {
		log.Err(err).Msg("Failed to open realtime connection")
		return
	}

	m.mu.Lock()
	if m.connGen != gen || m.session == nil {
		m.mu.Unlock()
		conn.Close()
		return
	}
	m.conn = conn
	m.mu.Unlock()
	log.Debug().Str("connection", conn.ID()).Msg("Realtime connection opened")
}

func (m *Manager) registerPush(ctx context.Context) {
	defer m.wg.Done()
	pushToken, err := m.push.Token(ctx)
	if err != nil {
		log.Err(err).Msg("Failed to obtain push token")
		return
	}
	if pushToken == "" || ctx.Err() != nil {
		return
	}
	m.UpdatePushToken(ctx, pushToken)
}

func (m *Manager) persist(ctx context.Context, key, value string) {
	if err := m.store.Set(ctx, key, value); err != nil {
		log.Err(err).Str("key", key).Msg("Failed to persist session")
	}
}

func (m *Manager) persistUser(ctx context.Context, user users.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		log.Err(err).Msg("Failed to encode user")
		return
	}
	m.persist(ctx, storage.KeyUser, string(raw))
}
