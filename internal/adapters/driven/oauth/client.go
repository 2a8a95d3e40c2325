// Package oauth implements the platform's OAuth endpoints on top of
// golang.org/x/oauth2: PKCE authorization URLs, the code exchange and
// the user-info lookup.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.TokenExchanger = (*Client)(nil)

// Endpoint paths relative to the auth server.
const (
	AuthPath     = "/oauth/auth"
	TokenPath    = "/oauth/token"
	UserInfoPath = "/oauth/userinfo"
)

// DefaultTimeout bounds each call to the auth server.
const DefaultTimeout = 30 * time.Second

// Config holds the public client's settings.
type Config struct {
	// ClientID is the integration key (required).
	ClientID string

	// AuthServer is the base URL, e.g. https://account-d.docusign.com (required).
	AuthServer string

	// RedirectURI must match the one registered for the integration.
	RedirectURI string

	// Scopes requested at authorization.
	Scopes []string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Client performs OAuth calls against the auth server.
type Client struct {
	oauth      oauth2.Config
	userInfo   string
	httpClient *http.Client
}

// NewClient creates a client. No client secret is used: the exchange is
// bound to the attempt by the PKCE verifier.
func NewClient(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("oauth: client ID is required")
	}
	if cfg.AuthServer == "" {
		return nil, fmt.Errorf("oauth: auth server is required")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	base := strings.TrimRight(cfg.AuthServer, "/")

	return &Client{
		oauth: oauth2.Config{
			ClientID:    cfg.ClientID,
			RedirectURL: cfg.RedirectURI,
			Scopes:      cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   base + AuthPath,
				TokenURL:  base + TokenPath,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfo:   base + UserInfoPath,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// AuthCodeURL builds the authorization URL with an S256 challenge
// derived from codeVerifier. prompt=login forces a fresh sign-in.
func (c *Client) AuthCodeURL(state, codeVerifier string) string {
	return c.oauth.AuthCodeURL(state,
		oauth2.S256ChallengeOption(codeVerifier),
		oauth2.SetAuthURLParam("prompt", "login"),
	)
}

// Exchange posts grant_type=authorization_code with the code, client_id,
// code_verifier and redirect_uri.
func (c *Client) Exchange(ctx context.Context, code, codeVerifier string) (*domain.TokenResult, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)

	tok, err := c.oauth.Exchange(ctx, code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			if re.ErrorCode != "" {
				return nil, fmt.Errorf("%w: token error: %s - %s", domain.ErrAuthInvalid, re.ErrorCode, re.ErrorDescription)
			}
			if re.Response != nil {
				return nil, fmt.Errorf("%w: token request failed with status %d", domain.ErrAuthInvalid, re.Response.StatusCode)
			}
		}
		return nil, fmt.Errorf("%w: token exchange: %w", domain.ErrAuthInvalid, err)
	}

	return &domain.TokenResult{
		AccessToken: tok.AccessToken,
		TokenType:   tok.Type(),
		Expiry:      tok.Expiry,
	}, nil
}

// userInfoResponse is the user-info body.
type userInfoResponse struct {
	Sub      string `json:"sub"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Accounts []struct {
		AccountID   string `json:"account_id"`
		AccountName string `json:"account_name"`
		BaseURI     string `json:"base_uri"`
		IsDefault   bool   `json:"is_default"`
	} `json:"accounts"`
}

// UserInfo fetches the accounts the token can act on.
func (c *Client) UserInfo(ctx context.Context, accessToken string) (*domain.UserInfo, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: accessToken,
		TokenType:   "Bearer",
	}))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.userInfo, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("user info request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, fmt.Errorf("%w: user info rejected the token", domain.ErrAuthInvalid)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: user info (status %d): %s", domain.ErrRemoteStatus, resp.StatusCode, string(body))
	}

	var info userInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode user info: %w", err)
	}

	out := &domain.UserInfo{Subject: info.Sub, Name: info.Name, Email: info.Email}
	for _, a := range info.Accounts {
		out.Accounts = append(out.Accounts, domain.UserAccount{
			AccountID:   a.AccountID,
			AccountName: a.AccountName,
			BaseURI:     a.BaseURI,
			IsDefault:   a.IsDefault,
		})
	}
	return out, nil
}
