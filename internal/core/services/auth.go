package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
	"github.com/custodia-labs/accord/internal/logger"
)

// Ensure AuthService implements the interfaces.
var (
	_ driving.AuthService   = (*AuthService)(nil)
	_ driven.AccessProvider = (*AuthService)(nil)
)

// attemptTTL is how long an issued authorization URL stays redeemable.
const attemptTTL = 10 * time.Minute

// AuthService runs the authorization code flow with PKCE and holds the
// resulting session in memory.
//
// Pending attempts are keyed by their state value, so two logins started
// concurrently never overwrite each other's verifier. Each attempt is
// removed the moment its callback is processed, successful or not.
type AuthService struct {
	exchanger driven.TokenExchanger

	// accountID, when set, skips the user-info lookup.
	accountID string

	now func() time.Time

	mu       sync.Mutex
	attempts map[string]*domain.AuthAttempt
	session  domain.AuthSession
}

// NewAuthService creates an auth service. accountID may be empty.
func NewAuthService(exchanger driven.TokenExchanger, accountID string) *AuthService {
	return &AuthService{
		exchanger: exchanger,
		accountID: accountID,
		now:       time.Now,
		attempts:  make(map[string]*domain.AuthAttempt),
	}
}

// Begin creates a fresh verifier, challenge and state, and returns the
// authorization URL the user must visit.
func (s *AuthService) Begin(_ context.Context) (*domain.AuthAttempt, error) {
	pair, err := newPKCEPair()
	if err != nil {
		return nil, fmt.Errorf("generate code verifier: %w", err)
	}
	state, err := generateState()
	if err != nil {
		return nil, fmt.Errorf("generate state: %w", err)
	}

	attempt := &domain.AuthAttempt{
		ID:            uuid.NewString(),
		State:         state,
		CodeVerifier:  pair.verifier,
		CodeChallenge: pair.challenge,
		AuthURL:       s.exchanger.AuthCodeURL(state, pair.verifier),
		CreatedAt:     s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()
	s.attempts[state] = attempt
	if s.session.State != domain.AuthAuthenticated {
		s.session.State = domain.AuthAwaitingCallback
	}

	logger.Debug("Auth attempt %s issued (%d pending)", attempt.ID, len(s.attempts))
	return attempt, nil
}

// Complete redeems the attempt identified by state.
// An unknown state fails with ErrStateMismatch before any network call.
func (s *AuthService) Complete(ctx context.Context, state, code string) (*domain.AuthSession, error) {
	s.mu.Lock()
	attempt, ok := s.attempts[state]
	delete(s.attempts, state)
	s.mu.Unlock()

	if !ok || state == "" {
		return nil, s.fail(fmt.Errorf("%w: no pending attempt for the returned state", domain.ErrStateMismatch))
	}
	if s.now().Sub(attempt.CreatedAt) > attemptTTL {
		return nil, s.fail(fmt.Errorf("%w: attempt expired", domain.ErrAuthInvalid))
	}
	if code == "" {
		return nil, s.fail(fmt.Errorf("%w: no authorization code", domain.ErrAuthInvalid))
	}

	logger.Debug("Exchanging code for attempt %s", attempt.ID)
	tok, err := s.exchanger.Exchange(ctx, code, attempt.CodeVerifier)
	if err != nil {
		return nil, s.fail(err)
	}
	if tok == nil || tok.AccessToken == "" {
		return nil, s.fail(fmt.Errorf("%w: response has no access token", domain.ErrAuthInvalid))
	}

	accountID := s.accountID
	if accountID == "" {
		info, err := s.exchanger.UserInfo(ctx, tok.AccessToken)
		if err != nil {
			return nil, s.fail(fmt.Errorf("user info: %w", err))
		}
		accountID = firstAccount(info.Accounts)
		if accountID == "" {
			return nil, s.fail(fmt.Errorf("%w: user has no accounts", domain.ErrAuthInvalid))
		}
	}

	session := domain.AuthSession{
		State:       domain.AuthAuthenticated,
		AccessToken: tok.AccessToken,
		TokenType:   tok.TokenType,
		AccountID:   accountID,
		Expiry:      tok.Expiry,
	}
	if !session.Valid() {
		return nil, s.fail(fmt.Errorf("%w: incomplete session", domain.ErrAuthInvalid))
	}

	s.mu.Lock()
	s.session = session
	s.mu.Unlock()

	logger.Info("Authenticated for account %s", accountID)
	return &session, nil
}

// fail passes through AuthFailed and clears the token. The session lands
// on unauthenticated, or awaiting-callback if other attempts are pending.
func (s *AuthService) fail(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Warn("Auth attempt failed (%s): %v", domain.AuthFailed, err)
	next := domain.AuthUnauthenticated
	if len(s.attempts) > 0 {
		next = domain.AuthAwaitingCallback
	}
	s.session = domain.AuthSession{State: next}
	return err
}

// Session returns a snapshot of the current session.
func (s *AuthService) Session() domain.AuthSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

// Logout clears the session and all pending attempts.
func (s *AuthService) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = domain.AuthSession{State: domain.AuthUnauthenticated}
	s.attempts = make(map[string]*domain.AuthAttempt)
}

// Token returns the bearer token and account ID for REST calls.
// There is no refresh: an expired token clears the session.
func (s *AuthService) Token(_ context.Context) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.session.Valid() {
		return "", "", domain.ErrAuthRequired
	}
	if s.session.IsExpiredAt(s.now()) {
		s.session = domain.AuthSession{State: domain.AuthUnauthenticated}
		return "", "", fmt.Errorf("%w: log in again", domain.ErrAuthExpired)
	}
	return s.session.AccessToken, s.session.AccountID, nil
}

// Invalidate drops the session after the platform rejected its token.
func (s *AuthService) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.session.State == domain.AuthAuthenticated {
		logger.Warn("Session invalidated by the platform")
	}
	s.session = domain.AuthSession{State: domain.AuthUnauthenticated}
}

// Pending returns the number of unredeemed attempts.
func (s *AuthService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.attempts)
}

// firstAccount returns the first account DocuSign lists for the user.
func firstAccount(accounts []domain.UserAccount) string {
	if len(accounts) == 0 {
		return ""
	}
	return accounts[0].AccountID
}

// pruneLocked drops attempts older than attemptTTL. Caller holds mu.
func (s *AuthService) pruneLocked() {
	now := s.now()
	for state, a := range s.attempts {
		if now.Sub(a.CreatedAt) > attemptTTL {
			delete(s.attempts, state)
		}
	}
}

// IsAuthError reports whether err should send the user back to login.
func IsAuthError(err error) bool {
	return errors.Is(err, domain.ErrAuthRequired) ||
		errors.Is(err, domain.ErrAuthExpired) ||
		errors.Is(err, domain.ErrAuthInvalid) ||
		errors.Is(err, domain.ErrStateMismatch)
}
