package domain

import "time"

// AuthState is the position of a session in the login flow.
type AuthState int

const (
	// AuthUnauthenticated means no token is held.
	AuthUnauthenticated AuthState = iota

	// AuthAwaitingCallback means an authorization URL was issued and
	// at least one attempt is waiting for its redirect.
	AuthAwaitingCallback

	// AuthAuthenticated means a token and account ID are held.
	AuthAuthenticated

	// AuthFailed means the last exchange was rejected.
	// It is transient: the session drops back to AuthUnauthenticated.
	AuthFailed
)

// String returns the state name.
func (s AuthState) String() string {
	switch s {
	case AuthUnauthenticated:
		return "unauthenticated"
	case AuthAwaitingCallback:
		return "awaiting-callback"
	case AuthAuthenticated:
		return "authenticated"
	case AuthFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// AuthAttempt is one authorization attempt's single-use PKCE material.
type AuthAttempt struct {
	// ID identifies the attempt in logs.
	ID string

	// State is the anti-forgery value echoed by the redirect.
	State string

	// CodeVerifier is the PKCE secret sent at token exchange.
	CodeVerifier string

	// CodeChallenge is base64url(SHA-256(CodeVerifier)).
	CodeChallenge string

	// AuthURL is the URL the user visits to authorize.
	AuthURL string

	// CreatedAt is when the attempt was issued.
	CreatedAt time.Time
}

// AuthSession holds the in-memory login state.
// It is never persisted; a process restart requires a new login.
type AuthSession struct {
	State       AuthState
	AccessToken string
	TokenType   string
	AccountID   string
	Expiry      time.Time
}

// Valid reports whether both the token and the account ID are present.
func (s AuthSession) Valid() bool {
	return s.AccessToken != "" && s.AccountID != ""
}

// IsExpired returns true if the token has a known expiry in the past.
func (s AuthSession) IsExpired() bool {
	return s.IsExpiredAt(time.Now())
}

// IsExpiredAt reports whether the token has a known expiry before now.
func (s AuthSession) IsExpiredAt(now time.Time) bool {
	if s.Expiry.IsZero() {
		return false
	}
	return now.After(s.Expiry)
}

// TokenResult is what a token exchange yields.
type TokenResult struct {
	AccessToken string
	TokenType   string
	Expiry      time.Time
}

// UserInfo is the subset of the user-info response accord uses.
type UserInfo struct {
	Subject  string
	Name     string
	Email    string
	Accounts []UserAccount
}

// UserAccount is one account the user can act on.
type UserAccount struct {
	AccountID   string
	AccountName string
	BaseURI     string
	IsDefault   bool
}
