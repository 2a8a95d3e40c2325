package services

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"io"
)

// PKCE code verifier length in random bytes (RFC 7636 recommends 43-128 characters).
const codeVerifierLength = 64

// stateLength is the number of random bytes in the anti-forgery state.
const stateLength = 32

// randomReader is the entropy source; tests may replace it.
var randomReader io.Reader = rand.Reader

// pkcePair is one attempt's verifier and its S256 challenge.
type pkcePair struct {
	verifier  string
	challenge string
}

// newPKCEPair creates a fresh verifier and its challenge.
func newPKCEPair() (pkcePair, error) {
	verifier, err := generateCodeVerifier()
	if err != nil {
		return pkcePair{}, err
	}
	return pkcePair{verifier: verifier, challenge: generateCodeChallenge(verifier)}, nil
}

// generateCodeVerifier creates a cryptographically random code verifier for PKCE.
func generateCodeVerifier() (string, error) {
	return randomToken(codeVerifierLength)
}

// generateCodeChallenge creates a S256 code challenge from the verifier.
func generateCodeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// generateState creates a random state parameter for CSRF protection.
func generateState() (string, error) {
	return randomToken(stateLength)
}

// randomToken returns n random bytes, base64url encoded without padding.
func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := io.ReadFull(randomReader, b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
