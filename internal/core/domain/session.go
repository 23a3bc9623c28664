package domain

// SessionPhase tracks the bootstrap lifecycle. The phase leaves Pending
// exactly once per process and never returns to it.
type SessionPhase string

const (
	SessionPending       SessionPhase = "pending"
	SessionAuthenticated SessionPhase = "authenticated"
	SessionAnonymous     SessionPhase = "anonymous"
)

// Profile is the backend's view of the signed-in user.
type Profile struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
}

// Session is a value snapshot; only the session manager mutates the
// underlying state.
type Session struct {
	Phase SessionPhase
	User  *Profile
	// LoginPending is set while a sign-in redirect has been requested
	// and not yet handed to the navigator.
	LoginPending bool
}

func (s Session) Authenticated() bool {
	return s.Phase == SessionAuthenticated
}

// Settled reports whether bootstrap reached a terminal phase.
func (s Session) Settled() bool {
	return s.Phase != SessionPending
}

// TokenPair is the legacy bearer credential set. The primary credential
// path is the cookie jar; tokens exist for non-browser clients.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
}
