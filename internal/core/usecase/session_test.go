package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/maildeck/maildeck/internal/core/domain"
)

type meResult struct {
	profile *domain.Profile
	tokens  *domain.TokenPair
	err     error
}

type authFake struct {
	mu        sync.Mutex
	meResults []meResult
	meCalls   int

	authURL    string
	authURLErr error
	urlCalls   int
	urlStarted chan struct{}
	urlGate    chan struct{}

	logoutCalls int
	logoutErr   error
	logoutDone  chan struct{}

	refreshPair *domain.TokenPair
	refreshErr  error
}

func (f *authFake) Me(context.Context) (*domain.Profile, *domain.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.meCalls++
	if len(f.meResults) == 0 {
		return nil, nil, domain.WrapError(domain.ErrUnauthenticated, "auth.me", errors.New("no session"))
	}
	r := f.meResults[0]
	if len(f.meResults) > 1 {
		f.meResults = f.meResults[1:]
	}
	return r.profile, r.tokens, r.err
}

func (f *authFake) GoogleAuthURL(context.Context) (string, error) {
	f.mu.Lock()
	f.urlCalls++
	started := f.urlStarted
	gate := f.urlGate
	f.mu.Unlock()

	if started != nil {
		close(started)
		f.mu.Lock()
		f.urlStarted = nil
		f.mu.Unlock()
	}
	if gate != nil {
		<-gate
	}
	if f.authURLErr != nil {
		return "", f.authURLErr
	}
	return f.authURL, nil
}

func (f *authFake) Logout(context.Context) error {
	f.mu.Lock()
	f.logoutCalls++
	done := f.logoutDone
	f.logoutDone = nil
	f.mu.Unlock()
	if done != nil {
		close(done)
	}
	return f.logoutErr
}

func (f *authFake) Refresh(context.Context) (*domain.TokenPair, error) {
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.refreshPair, nil
}

func (f *authFake) calls() (me, url, logout int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.meCalls, f.urlCalls, f.logoutCalls
}

type credsFake struct {
	mu      sync.Mutex
	stored  *domain.TokenPair
	cleared bool
	loadErr error
	saveErr error
}

func (f *credsFake) Load() (*domain.TokenPair, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.stored, nil
}

func (f *credsFake) Save(tokens domain.TokenPair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	copied := tokens
	f.stored = &copied
	return nil
}

func (f *credsFake) Clear() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored = nil
	f.cleared = true
	return nil
}

type navFake struct {
	mu     sync.Mutex
	opened []string
	err    error
}

func (f *navFake) OpenURL(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.opened = append(f.opened, url)
	return nil
}

func (f *navFake) openedURLs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.opened...)
}

func TestBootstrapResolvesExactlyOnce(t *testing.T) {
	auth := &authFake{meResults: []meResult{{profile: &domain.Profile{ID: "u-1", Email: "a@b.c"}}}}
	m := NewSessionManager(auth, &credsFake{}, &navFake{}, nil)

	first := m.Bootstrap(context.Background())
	if first.Phase != domain.SessionAuthenticated || first.User == nil || first.User.ID != "u-1" {
		t.Fatalf("unexpected session: %+v", first)
	}

	second := m.Bootstrap(context.Background())
	if second.Phase != domain.SessionAuthenticated {
		t.Fatalf("expected settled session, got %+v", second)
	}
	if me, _, _ := auth.calls(); me != 1 {
		t.Fatalf("expected one probe, got %d", me)
	}
}

func TestBootstrapRejectedSessionSettlesAnonymous(t *testing.T) {
	// An empty result queue answers every probe with 401.
	auth := &authFake{}
	m := NewSessionManager(auth, &credsFake{}, &navFake{}, nil)

	session := m.Bootstrap(context.Background())
	if session.Phase != domain.SessionAnonymous {
		t.Fatalf("expected anonymous session, got %+v", session)
	}
	if me, _, _ := auth.calls(); me != 1 {
		t.Fatalf("expected a single probe without stored credentials, got %d", me)
	}
}

func TestBootstrapFailureSettlesAnonymousWithoutRetry(t *testing.T) {
	auth := &authFake{meResults: []meResult{
		{err: domain.WrapError(domain.ErrTemporary, "auth.me", errors.New("backend down"))},
	}}
	m := NewSessionManager(auth, &credsFake{}, &navFake{}, nil)

	session := m.Bootstrap(context.Background())
	if session.Phase != domain.SessionAnonymous {
		t.Fatalf("expected anonymous session, got %+v", session)
	}
	if again := m.Bootstrap(context.Background()); again.Phase != domain.SessionAnonymous {
		t.Fatalf("expected the settled state, got %+v", again)
	}
	if me, _, _ := auth.calls(); me != 1 {
		t.Fatalf("expected no retry, got %d probes", me)
	}
}

func TestBootstrapStoresReturnedTokens(t *testing.T) {
	auth := &authFake{meResults: []meResult{{
		profile: &domain.Profile{ID: "u-1"},
		tokens:  &domain.TokenPair{AccessToken: "tok-1", RefreshToken: "ref-1"},
	}}}
	creds := &credsFake{}
	m := NewSessionManager(auth, creds, &navFake{}, nil)

	m.Bootstrap(context.Background())
	if creds.stored == nil || creds.stored.AccessToken != "tok-1" {
		t.Fatalf("expected stored tokens, got %+v", creds.stored)
	}
}

func TestBootstrapRefreshesExpiredCredentials(t *testing.T) {
	auth := &authFake{
		meResults: []meResult{
			{err: domain.WrapError(domain.ErrUnauthenticated, "auth.me", errors.New("token expired"))},
			{profile: &domain.Profile{ID: "u-1"}},
		},
		refreshPair: &domain.TokenPair{AccessToken: "tok-2"},
	}
	creds := &credsFake{stored: &domain.TokenPair{AccessToken: "tok-1", RefreshToken: "ref-1"}}
	m := NewSessionManager(auth, creds, &navFake{}, nil)

	session := m.Bootstrap(context.Background())
	if session.Phase != domain.SessionAuthenticated {
		t.Fatalf("expected an authenticated session after refresh, got %+v", session)
	}
	if me, _, _ := auth.calls(); me != 2 {
		t.Fatalf("expected one retry after refresh, got %d probes", me)
	}
	if creds.stored.AccessToken != "tok-2" || creds.stored.RefreshToken != "ref-1" {
		t.Fatalf("expected refreshed credentials, got %+v", creds.stored)
	}
}

func TestStartLoginIsSingleFlight(t *testing.T) {
	auth := &authFake{
		authURL:    "https://accounts.example.com/auth",
		urlStarted: make(chan struct{}),
		urlGate:    make(chan struct{}),
	}
	nav := &navFake{}
	m := NewSessionManager(auth, &credsFake{}, nav, nil)

	firstDone := make(chan error, 1)
	go func() {
		firstDone <- m.StartLogin(context.Background())
	}()
	<-auth.urlStarted

	if !m.Session().LoginPending {
		t.Fatal("expected the pending flag while the handoff is in flight")
	}
	// A second click during the window returns without another call.
	if err := m.StartLogin(context.Background()); err != nil {
		t.Fatalf("concurrent StartLogin() error = %v", err)
	}

	close(auth.urlGate)
	if err := <-firstDone; err != nil {
		t.Fatalf("StartLogin() error = %v", err)
	}

	if _, url, _ := auth.calls(); url != 1 {
		t.Fatalf("expected one auth-url fetch, got %d", url)
	}
	if opened := nav.openedURLs(); len(opened) != 1 || opened[0] != "https://accounts.example.com/auth" {
		t.Fatalf("expected one navigation, got %v", opened)
	}
	if m.Session().LoginPending {
		t.Fatal("expected the pending flag to clear after the handoff")
	}
}

func TestStartLoginRejectedWhenAuthenticated(t *testing.T) {
	auth := &authFake{meResults: []meResult{{profile: &domain.Profile{ID: "u-1"}}}}
	m := NewSessionManager(auth, &credsFake{}, &navFake{}, nil)
	m.Bootstrap(context.Background())

	if err := m.StartLogin(context.Background()); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid-input kind, got %v", err)
	}
}

func TestNavigatorFailureClearsPending(t *testing.T) {
	auth := &authFake{authURL: "https://accounts.example.com/auth"}
	nav := &navFake{err: errors.New("no display")}
	m := NewSessionManager(auth, &credsFake{}, nav, nil)

	if err := m.StartLogin(context.Background()); !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind, got %v", err)
	}
	if m.Session().LoginPending {
		t.Fatal("expected the pending flag to clear after a failed handoff")
	}
	// The next attempt reaches the backend again.
	nav.err = nil
	if err := m.StartLogin(context.Background()); err != nil {
		t.Fatalf("StartLogin() error = %v", err)
	}
	if _, url, _ := auth.calls(); url != 2 {
		t.Fatalf("expected a second auth-url fetch, got %d", url)
	}
}

func TestLogoutIsLocalFirst(t *testing.T) {
	auth := &authFake{
		meResults:  []meResult{{profile: &domain.Profile{ID: "u-1"}}},
		logoutDone: make(chan struct{}),
	}
	creds := &credsFake{}
	m := NewSessionManager(auth, creds, &navFake{}, nil)
	m.Bootstrap(context.Background())

	m.Logout()
	// The local state settles before the server call finishes.
	if session := m.Session(); session.Phase != domain.SessionAnonymous {
		t.Fatalf("expected anonymous session right away, got %+v", session)
	}
	if !creds.cleared {
		t.Fatal("expected cleared credentials")
	}

	select {
	case <-auth.logoutDone:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the server-side logout")
	}
	m.Close()
	if _, _, logout := auth.calls(); logout != 1 {
		t.Fatalf("expected one server logout, got %d", logout)
	}
}

func TestLogoutSurvivesServerFailure(t *testing.T) {
	auth := &authFake{
		meResults: []meResult{{profile: &domain.Profile{ID: "u-1"}}},
		logoutErr: errors.New("backend down"),
	}
	m := NewSessionManager(auth, &credsFake{}, &navFake{}, nil)
	m.Bootstrap(context.Background())

	m.Logout()
	m.Close()
	if session := m.Session(); session.Phase != domain.SessionAnonymous {
		t.Fatalf("expected anonymous session, got %+v", session)
	}
}
