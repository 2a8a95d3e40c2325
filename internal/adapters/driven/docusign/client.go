// Package docusign is a read-only client for the DocuSign eSignature REST API.
//
// Every call takes the current access token and account id from an
// AccessProvider. A 401 invalidates the session; there is no refresh.
package docusign

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.DocumentPlatform = (*Client)(nil)

// Default configuration values.
const (
	DefaultMetadataTimeout = 30 * time.Second
	DefaultDownloadTimeout = 120 * time.Second
	DefaultLookback        = 30 * 24 * time.Hour
	pageSize               = 100
	maxErrorBody           = 4096
)

// Config holds configuration for the DocuSign client.
type Config struct {
	// BasePath is the REST base, e.g. https://demo.docusign.net/restapi/v2.1.
	BasePath string

	// MetadataTimeout bounds listing calls (default: 30s).
	MetadataTimeout time.Duration

	// DownloadTimeout bounds document downloads (default: 120s).
	DownloadTimeout time.Duration

	// RateLimit overrides DefaultRateLimit.
	RateLimit *RateLimitConfig

	// HTTPClient is the base client the bearer transport wraps. Tests use it.
	HTTPClient *http.Client
}

// Client reads envelopes and documents.
type Client struct {
	access          driven.AccessProvider
	basePath        string
	metadataTimeout time.Duration
	downloadTimeout time.Duration
	limiter         *RateLimiter
	base            *http.Client
	now             func() time.Time
}

// NewClient creates a DocuSign client.
func NewClient(access driven.AccessProvider, cfg Config) (*Client, error) {
	if access == nil {
		return nil, fmt.Errorf("%w: access provider is required", domain.ErrInvalidInput)
	}
	if cfg.BasePath == "" {
		return nil, fmt.Errorf("%w: DOCUSIGN_BASE_PATH is required", domain.ErrConfigMissing)
	}
	if cfg.MetadataTimeout == 0 {
		cfg.MetadataTimeout = DefaultMetadataTimeout
	}
	if cfg.DownloadTimeout == 0 {
		cfg.DownloadTimeout = DefaultDownloadTimeout
	}
	rl := DefaultRateLimit
	if cfg.RateLimit != nil {
		rl = *cfg.RateLimit
	}

	return &Client{
		access:          access,
		basePath:        strings.TrimRight(cfg.BasePath, "/"),
		metadataTimeout: cfg.MetadataTimeout,
		downloadTimeout: cfg.DownloadTimeout,
		limiter:         NewRateLimiter(rl),
		base:            cfg.HTTPClient,
		now:             time.Now,
	}, nil
}

// envelopesResponse is the envelope list payload. Counts and positions
// arrive as strings.
type envelopesResponse struct {
	ResultSetSize string         `json:"resultSetSize"`
	EndPosition   string         `json:"endPosition"`
	TotalSetSize  string         `json:"totalSetSize"`
	NextURI       string         `json:"nextUri"`
	Envelopes     []envelopeJSON `json:"envelopes"`
}

type envelopeJSON struct {
	EnvelopeID        string         `json:"envelopeId"`
	Status            string         `json:"status"`
	EmailSubject      string         `json:"emailSubject"`
	SentDateTime      string         `json:"sentDateTime"`
	EnvelopeDocuments []documentJSON `json:"envelopeDocuments"`
}

type documentsResponse struct {
	EnvelopeID        string         `json:"envelopeId"`
	EnvelopeDocuments []documentJSON `json:"envelopeDocuments"`
}

type documentJSON struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	URI        string `json:"uri"`
	Order      string `json:"order"`
}

type errorJSON struct {
	ErrorCode string `json:"errorCode"`
	Message   string `json:"message"`
}

func (d documentJSON) toDomain(envelopeID string) domain.EnvelopeDocument {
	order, _ := strconv.Atoi(d.Order)
	return domain.EnvelopeDocument{
		EnvelopeID: envelopeID,
		DocumentID: d.DocumentID,
		Name:       d.Name,
		Type:       d.Type,
		URI:        d.URI,
		Order:      order,
	}
}

func (e envelopeJSON) toDomain() domain.Envelope {
	env := domain.Envelope{
		EnvelopeID:   e.EnvelopeID,
		Status:       e.Status,
		EmailSubject: e.EmailSubject,
	}
	if t, err := time.Parse(time.RFC3339, e.SentDateTime); err == nil {
		env.SentDateTime = t
	}
	for _, d := range e.EnvelopeDocuments {
		env.Documents = append(env.Documents, d.toDomain(e.EnvelopeID))
	}
	return env
}

// ListEnvelopes lists envelopes changed since the given time, following
// result pages. A zero time means the last 30 days.
func (c *Client) ListEnvelopes(ctx context.Context, since time.Time) ([]domain.Envelope, error) {
	if since.IsZero() {
		since = c.now().Add(-DefaultLookback)
	}

	var envelopes []domain.Envelope
	start := 0
	for {
		query := url.Values{}
		query.Set("from_date", since.UTC().Format(time.RFC3339))
		query.Set("include", "documents")
		query.Set("count", strconv.Itoa(pageSize))
		query.Set("start_position", strconv.Itoa(start))

		var page envelopesResponse
		if err := c.getJSON(ctx, "/envelopes?"+query.Encode(), &page); err != nil {
			return nil, fmt.Errorf("list envelopes: %w", err)
		}
		for _, e := range page.Envelopes {
			envelopes = append(envelopes, e.toDomain())
		}

		end, err := strconv.Atoi(page.EndPosition)
		if page.NextURI == "" || err != nil || len(page.Envelopes) == 0 {
			break
		}
		start = end + 1
	}

	logger.Debug("docusign: %d envelopes since %s", len(envelopes), since.Format(time.DateOnly))
	return envelopes, nil
}

// ListDocuments lists the documents inside an envelope.
func (c *Client) ListDocuments(ctx context.Context, envelopeID string) ([]domain.EnvelopeDocument, error) {
	if envelopeID == "" {
		return nil, fmt.Errorf("%w: envelope id is required", domain.ErrInvalidInput)
	}

	var resp documentsResponse
	if err := c.getJSON(ctx, "/envelopes/"+url.PathEscape(envelopeID)+"/documents", &resp); err != nil {
		return nil, fmt.Errorf("list documents of %s: %w", envelopeID, err)
	}

	docs := make([]domain.EnvelopeDocument, 0, len(resp.EnvelopeDocuments))
	for _, d := range resp.EnvelopeDocuments {
		docs = append(docs, d.toDomain(envelopeID))
	}
	return docs, nil
}

// Download fetches a document's bytes and content type.
func (c *Client) Download(ctx context.Context, envelopeID, documentID string) ([]byte, string, error) {
	if envelopeID == "" || documentID == "" {
		return nil, "", fmt.Errorf("%w: envelope and document id are required", domain.ErrInvalidInput)
	}

	path := "/envelopes/" + url.PathEscape(envelopeID) + "/documents/" + url.PathEscape(documentID)
	resp, err := c.get(ctx, path, c.downloadTimeout)
	if err != nil {
		return nil, "", fmt.Errorf("download %s/%s: %w", envelopeID, documentID, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("download %s/%s: read body: %w", envelopeID, documentID, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	resp, err := c.get(ctx, path, c.metadataTimeout)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// get sends an authenticated GET below the account path. The caller closes
// the body of a successful response.
func (c *Client) get(ctx context.Context, path string, timeout time.Duration) (*http.Response, error) {
	token, accountID, err := c.access.Token(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if c.base != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, c.base)
	}
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: token,
		TokenType:   "Bearer",
	}))
	httpClient.Timeout = timeout

	endpoint := c.basePath + "/accounts/" + url.PathEscape(accountID) + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		c.access.Invalidate()
		return nil, fmt.Errorf("%w: the platform rejected the access token, run login again", domain.ErrAuthExpired)
	case http.StatusTooManyRequests:
		backoff := c.limiter.RecordRateLimit(resp.Header.Get("Retry-After"))
		logger.Warn("docusign: rate limited, backing off for %s", backoff)
		return nil, fmt.Errorf("%w: retry after %s", domain.ErrRateLimited, backoff)
	}
	return nil, fmt.Errorf("%w: docusign error (status %d): %s", domain.ErrRemoteStatus, resp.StatusCode, errorMessage(body))
}

func errorMessage(body []byte) string {
	var e errorJSON
	if err := json.Unmarshal(body, &e); err == nil && (e.ErrorCode != "" || e.Message != "") {
		if e.Message == "" {
			return e.ErrorCode
		}
		return e.ErrorCode + " - " + e.Message
	}
	return strings.TrimSpace(string(body))
}
