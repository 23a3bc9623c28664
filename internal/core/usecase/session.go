package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/maildeck/maildeck/internal/core/domain"
	"github.com/maildeck/maildeck/internal/core/ports"
	"github.com/maildeck/maildeck/internal/observability/logging"
)

// logoutTimeout bounds the best-effort server-side logout.
const logoutTimeout = 5 * time.Second

// SessionManager owns the session lifecycle: one bootstrap probe per
// process, a single-flight login handoff and local-first logout.
type SessionManager struct {
	auth   ports.AuthAPI
	creds  ports.CredentialStore
	nav    ports.Navigator
	logger *slog.Logger

	mu           sync.Mutex
	session      domain.Session
	bootstrapped bool
	loginPending bool

	wg sync.WaitGroup
}

func NewSessionManager(auth ports.AuthAPI, creds ports.CredentialStore, nav ports.Navigator, logger *slog.Logger) *SessionManager {
	if logger == nil {
		logger = logging.Discard("session")
	}
	return &SessionManager{
		auth:    auth,
		creds:   creds,
		nav:     nav,
		logger:  logger,
		session: domain.Session{Phase: domain.SessionPending},
	}
}

// Bootstrap resolves the session exactly once. The first caller probes
// the backend; every later call returns the settled state without
// another round trip. Any probe failure settles to anonymous.
func (m *SessionManager) Bootstrap(ctx context.Context) domain.Session {
	m.mu.Lock()
	if m.bootstrapped {
		session := m.session
		m.mu.Unlock()
		return session
	}
	m.bootstrapped = true
	m.mu.Unlock()

	profile, tokens, err := m.auth.Me(ctx)
	if err != nil && domain.IsKind(err, domain.ErrUnauthenticated) && m.refreshCredentials(ctx) {
		profile, tokens, err = m.auth.Me(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.session = domain.Session{Phase: domain.SessionAnonymous}
		m.logger.Info("session_anonymous", "error", err)
		return m.session
	}
	if tokens != nil && m.creds != nil {
		if err := m.creds.Save(*tokens); err != nil {
			m.logger.Warn("credential_save_failed", "error", err)
		}
	}
	m.session = domain.Session{Phase: domain.SessionAuthenticated, User: profile}
	m.logger.Info("session_authenticated", "user_id", profile.ID)
	return m.session
}

// refreshCredentials trades stored credentials for a fresh access
// token. Reports whether a retry of the probe is worthwhile.
func (m *SessionManager) refreshCredentials(ctx context.Context) bool {
	if m.creds == nil {
		return false
	}
	stored, err := m.creds.Load()
	if err != nil || stored == nil {
		return false
	}

	fresh, err := m.auth.Refresh(ctx)
	if err != nil {
		m.logger.Debug("token_refresh_failed", "error", err)
		return false
	}
	pair := domain.TokenPair{AccessToken: fresh.AccessToken, RefreshToken: stored.RefreshToken}
	if err := m.creds.Save(pair); err != nil {
		m.logger.Warn("credential_save_failed", "error", err)
		return false
	}
	m.logger.Info("token_refreshed")
	return true
}

// StartLogin fetches the authorization URL and hands it to the
// navigator. Calls while a handoff is in flight return immediately
// without a second backend call.
func (m *SessionManager) StartLogin(ctx context.Context) error {
	m.mu.Lock()
	if m.session.Authenticated() {
		m.mu.Unlock()
		return domain.WrapError(domain.ErrInvalidInput, "session.login", errors.New("already signed in"))
	}
	if m.loginPending {
		m.mu.Unlock()
		return nil
	}
	m.loginPending = true
	m.session.LoginPending = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.loginPending = false
		m.session.LoginPending = false
		m.mu.Unlock()
	}()

	url, err := m.auth.GoogleAuthURL(ctx)
	if err != nil {
		return err
	}
	if err := m.nav.OpenURL(ctx, url); err != nil {
		return domain.WrapError(domain.ErrTemporary, "session.login", err)
	}
	m.logger.Info("login_handoff_started")
	return nil
}

// Logout settles the local session immediately. The server-side logout
// runs in the background and a failure there is only logged.
func (m *SessionManager) Logout() {
	m.mu.Lock()
	m.session = domain.Session{Phase: domain.SessionAnonymous}
	m.bootstrapped = true
	m.mu.Unlock()

	if m.creds != nil {
		if err := m.creds.Clear(); err != nil {
			m.logger.Warn("credential_clear_failed", "error", err)
		}
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
		defer cancel()
		if err := m.auth.Logout(ctx); err != nil {
			m.logger.Warn("server_logout_failed", "error", err)
		}
	}()
}

func (m *SessionManager) Session() domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Close waits for any background logout to finish.
func (m *SessionManager) Close() {
	m.wg.Wait()
}
