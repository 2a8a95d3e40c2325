package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAuthSession_Valid(t *testing.T) {
	tests := []struct {
		name    string
		session AuthSession
		want    bool
	}{
		{"empty", AuthSession{}, false},
		{"token only", AuthSession{AccessToken: "tok"}, false},
		{"account only", AuthSession{AccountID: "acct"}, false},
		{"token and account", AuthSession{AccessToken: "tok", AccountID: "acct"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.session.Valid())
		})
	}
}

func TestAuthSession_IsExpired(t *testing.T) {
	assert.False(t, AuthSession{}.IsExpired())
	assert.False(t, AuthSession{Expiry: time.Now().Add(time.Hour)}.IsExpired())
	assert.True(t, AuthSession{Expiry: time.Now().Add(-time.Minute)}.IsExpired())
}

func TestAuthSession_IsExpiredAt(t *testing.T) {
	expiry := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	s := AuthSession{Expiry: expiry}

	assert.False(t, s.IsExpiredAt(expiry.Add(-time.Second)))
	assert.False(t, s.IsExpiredAt(expiry))
	assert.True(t, s.IsExpiredAt(expiry.Add(time.Second)))
	assert.False(t, AuthSession{}.IsExpiredAt(expiry))
}

func TestAuthState_String(t *testing.T) {
	assert.Equal(t, "unauthenticated", AuthUnauthenticated.String())
	assert.Equal(t, "awaiting-callback", AuthAwaitingCallback.String())
	assert.Equal(t, "authenticated", AuthAuthenticated.String())
	assert.Equal(t, "failed", AuthFailed.String())
	assert.Equal(t, "unknown", AuthState(42).String())
}
