package driven

import (
	"context"

	"github.com/custodia-labs/accord/internal/core/domain"
)

// TokenExchanger talks to the platform's OAuth endpoints.
type TokenExchanger interface {
	// AuthCodeURL builds the browser authorization URL for a PKCE attempt.
	AuthCodeURL(state, codeVerifier string) string

	// Exchange trades an authorization code and its PKCE verifier for a token.
	Exchange(ctx context.Context, code, codeVerifier string) (*domain.TokenResult, error)

	// UserInfo fetches the user's accounts with the given access token.
	UserInfo(ctx context.Context, accessToken string) (*domain.UserInfo, error)
}

// AccessProvider hands out the current session's credentials to REST clients.
type AccessProvider interface {
	// Token returns the access token and account ID, or domain.ErrAuthRequired.
	Token(ctx context.Context) (accessToken, accountID string, err error)

	// Invalidate drops the session after the platform rejected its token.
	Invalidate()
}
