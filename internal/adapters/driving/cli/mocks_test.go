package cli

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
)

// fakeRuntime implements Runtime with canned services.
type fakeRuntime struct {
	search    *mockSearchService
	ingest    *mockIngestService
	imports   *mockImportService
	auth      *mockAuthService
	documents *mockDocumentService
	status    *mockStatusService
	login     LoginSettings

	searchErr error
	authErr   error

	withAnswer    bool
	skipUnchanged bool
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		search:    &mockSearchService{},
		ingest:    &mockIngestService{},
		imports:   &mockImportService{},
		auth:      &mockAuthService{},
		documents: &mockDocumentService{},
		status:    &mockStatusService{},
		login:     LoginSettings{RedirectURI: "http://127.0.0.1:0/callback", Timeout: time.Second},
	}
}

func (f *fakeRuntime) Search(_ context.Context, withAnswer bool) (driving.SearchService, error) {
	f.withAnswer = withAnswer
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.search, nil
}

func (f *fakeRuntime) Ingest(_ context.Context, skipUnchanged bool) (driving.IngestService, error) {
	f.skipUnchanged = skipUnchanged
	return f.ingest, nil
}

func (f *fakeRuntime) Import(_ context.Context) (driving.ImportService, error) {
	return f.imports, nil
}

func (f *fakeRuntime) Auth() (driving.AuthService, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	return f.auth, nil
}

func (f *fakeRuntime) Documents() (driving.DocumentService, error) {
	return f.documents, nil
}

func (f *fakeRuntime) Status(_ context.Context) driving.StatusService {
	return f.status
}

func (f *fakeRuntime) Login() LoginSettings {
	return f.login
}

func (f *fakeRuntime) Close() error {
	return nil
}

type mockSearchService struct {
	results  []domain.SearchResult
	answer   string
	err      error
	askErr   error
	lastOpts domain.SearchOptions
	asked    bool
}

func (m *mockSearchService) Search(_ context.Context, _ string, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockSearchService) Ask(_ context.Context, _ string, opts domain.SearchOptions) (string, []domain.SearchResult, error) {
	m.lastOpts = opts
	m.asked = true
	return m.answer, m.results, m.askErr
}

type mockIngestService struct {
	mu    sync.Mutex
	items map[string]domain.IngestItem
	seen  []string
}

func (m *mockIngestService) IngestFile(_ context.Context, file domain.FileInput) domain.IngestItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, file.Name)
	if item, ok := m.items[file.Name]; ok {
		return item
	}
	return domain.IngestItem{Name: file.Name, Key: "upload-" + file.Name, Path: domain.EmbeddingPrimary}
}

func (m *mockIngestService) IngestFiles(ctx context.Context, files []domain.FileInput) domain.IngestReport {
	var report domain.IngestReport
	for _, f := range files {
		report.Items = append(report.Items, m.IngestFile(ctx, f))
	}
	return report
}

func (m *mockIngestService) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.seen...)
}

type mockImportService struct {
	report    domain.IngestReport
	envelopes []domain.Envelope
	err       error
	since     time.Time
}

func (m *mockImportService) Import(_ context.Context, since time.Time) (domain.IngestReport, error) {
	m.since = since
	return m.report, m.err
}

func (m *mockImportService) Envelopes(_ context.Context, since time.Time) ([]domain.Envelope, error) {
	m.since = since
	return m.envelopes, m.err
}

type mockAuthService struct {
	session     domain.AuthSession
	attempt     *domain.AuthAttempt
	completeErr error
	gotCode     string
}

func (m *mockAuthService) Begin(_ context.Context) (*domain.AuthAttempt, error) {
	if m.attempt == nil {
		m.attempt = &domain.AuthAttempt{State: "state-1", AuthURL: "https://auth.example/oauth/auth?state=state-1"}
	}
	return m.attempt, nil
}

func (m *mockAuthService) Complete(_ context.Context, state, code string) (*domain.AuthSession, error) {
	m.gotCode = code
	if m.completeErr != nil {
		return nil, m.completeErr
	}
	m.session = domain.AuthSession{
		State:       domain.AuthAuthenticated,
		AccessToken: "tok",
		AccountID:   "acct-42",
	}
	return &m.session, nil
}

func (m *mockAuthService) Session() domain.AuthSession {
	return m.session
}

func (m *mockAuthService) Logout() {
	m.session = domain.AuthSession{}
}

type mockDocumentService struct {
	entries   []domain.LedgerEntry
	err       error
	lastLimit int
}

func (m *mockDocumentService) List(_ context.Context, limit int) ([]domain.LedgerEntry, error) {
	m.lastLimit = limit
	return m.entries, m.err
}

func (m *mockDocumentService) Get(_ context.Context, key string) (*domain.LedgerEntry, error) {
	for i := range m.entries {
		if m.entries[i].Key == key {
			return &m.entries[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

type mockStatusService struct {
	statuses []domain.ServiceStatus
}

func (m *mockStatusService) Check(_ context.Context) []domain.ServiceStatus {
	return m.statuses
}

// setupRuntime installs a fake runtime and returns it with a cleanup.
func setupRuntime(t *testing.T) *fakeRuntime {
	t.Helper()
	rt := newFakeRuntime()
	previous := app
	SetRuntime(rt)
	t.Cleanup(func() { app = previous })
	return rt
}

// executeCommand runs the root command with args and returns its output.
// Flag values persist between executions, so they are reset first.
func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}
