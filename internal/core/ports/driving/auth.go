package driving

import (
	"context"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// AuthService runs the OAuth authorization code flow with PKCE.
type AuthService interface {
	// Begin starts a new attempt and returns its authorization URL.
	Begin(ctx context.Context) (*domain.AuthAttempt, error)

	// Complete validates the returned state and exchanges the code.
	// The attempt is consumed whether or not the exchange succeeds.
	Complete(ctx context.Context, state, code string) (*domain.AuthSession, error)

	// Session returns a snapshot of the current session.
	Session() domain.AuthSession

	// Logout clears the session and all pending attempts.
	Logout()
}
