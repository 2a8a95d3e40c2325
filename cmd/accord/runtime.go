package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/custodia-labs/accord/internal/adapters/driven/ai"
	"github.com/custodia-labs/accord/internal/adapters/driven/config/file"
	"github.com/custodia-labs/accord/internal/adapters/driven/docusign"
	oauthclient "github.com/custodia-labs/accord/internal/adapters/driven/oauth"
	"github.com/custodia-labs/accord/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/accord/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/accord/internal/adapters/driving/cli"
	"github.com/custodia-labs/accord/internal/config"
	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/core/ports/driving"
	"github.com/custodia-labs/accord/internal/core/services"
	"github.com/custodia-labs/accord/internal/logger"
	"github.com/custodia-labs/accord/internal/normalisers"
)

// Ensure runtime implements the interface.
var _ cli.Runtime = (*runtime)(nil)

// runtime builds adapters and services from the configuration on first use
// and keeps them for the rest of the process.
type runtime struct {
	cfg *config.Config

	mu        sync.Mutex
	ai        *ai.Services
	llmBuilt  bool
	indexed   bool
	ledger    driven.IngestLedger
	auth      *services.AuthService
	platform  *docusign.Client
	ingestSvc *services.IngestService
}

func newRuntime(cfg *config.Config) *runtime {
	return &runtime{cfg: cfg}
}

// services returns the embedding, vector store and optionally the answer
// generator. Must be called with mu held.
func (r *runtime) services(ctx context.Context, withLLM bool) (*ai.Services, error) {
	if r.ai == nil {
		svc, err := ai.Init(ctx, r.cfg, withLLM)
		if err != nil {
			return nil, err
		}
		r.ai = svc
		r.llmBuilt = withLLM
		return r.ai, nil
	}
	if withLLM && !r.llmBuilt {
		llm, err := ai.CreateLLMService(ctx, r.cfg)
		if err != nil {
			return nil, fmt.Errorf("answer generator: %w", err)
		}
		r.ai.LLMService = llm
		r.llmBuilt = true
	}
	return r.ai, nil
}

// ledgerLocked opens the ingest ledger. When the database cannot be
// opened the ledger lives in memory for this process only.
// Must be called with mu held.
func (r *runtime) ledgerLocked() driven.IngestLedger {
	if r.ledger != nil {
		return r.ledger
	}
	ledger, err := sqlite.NewLedger(r.cfg.Home)
	if err != nil {
		logger.Warn("ingest ledger unavailable, history will not be kept: %v", err)
		r.ledger = memory.NewLedger()
		return r.ledger
	}
	r.ledger = ledger
	return ledger
}

// authLocked builds the DocuSign login flow. Must be called with mu held.
func (r *runtime) authLocked() (*services.AuthService, error) {
	if r.auth != nil {
		return r.auth, nil
	}
	if err := r.cfg.Require(config.GroupDocuSign); err != nil {
		return nil, err
	}
	client, err := oauthclient.NewClient(oauthclient.Config{
		ClientID:    r.cfg.DocuSign.ClientID,
		AuthServer:  r.cfg.DocuSign.AuthServer,
		RedirectURI: r.cfg.DocuSign.RedirectURI,
		Scopes:      r.cfg.DocuSign.Scopes,
	})
	if err != nil {
		return nil, err
	}
	r.auth = services.NewAuthService(client, r.cfg.DocuSign.AccountID)
	return r.auth, nil
}

// ingestLocked builds the ingestion pipeline. Must be called with mu held.
func (r *runtime) ingestLocked(ctx context.Context) (*services.IngestService, error) {
	if r.ingestSvc != nil {
		return r.ingestSvc, nil
	}
	svc, err := r.services(ctx, false)
	if err != nil {
		return nil, err
	}
	if !r.indexed {
		if err := svc.VectorStore.EnsureIndex(ctx); err != nil {
			return nil, fmt.Errorf("prepare index: %w", err)
		}
		r.indexed = true
	}

	registry := services.NewNormaliserRegistry(normalisers.Defaults()...)
	ingest := services.NewIngestService(registry, svc.Embedding, svc.VectorStore)
	ingest.SetPreviewLength(r.cfg.PreviewLength)
	ingest.SetLedger(r.ledgerLocked())
	r.ingestSvc = ingest
	return ingest, nil
}

func (r *runtime) Search(ctx context.Context, withAnswer bool) (driving.SearchService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	svc, err := r.services(ctx, withAnswer)
	if err != nil {
		return nil, err
	}
	search := services.NewSearchService(svc.Embedding, svc.VectorStore, svc.LLMService)
	search.SetDefaultTopK(r.cfg.Vector.TopK)
	if prompts, err := file.NewPromptStore(filepath.Join(r.cfg.Home, file.PromptDirName)); err != nil {
		logger.Warn("prompt store unavailable: %v", err)
	} else {
		search.SetPromptStore(prompts)
	}
	return search, nil
}

func (r *runtime) Ingest(ctx context.Context, skipUnchanged bool) (driving.IngestService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ingest, err := r.ingestLocked(ctx)
	if err != nil {
		return nil, err
	}
	ingest.SetSkipUnchanged(skipUnchanged)
	return ingest, nil
}

func (r *runtime) Import(ctx context.Context) (driving.ImportService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Report every missing setting of both features at once.
	if err := r.cfg.Require(config.GroupEmbedding, config.GroupVector, config.GroupDocuSign); err != nil {
		return nil, err
	}
	auth, err := r.authLocked()
	if err != nil {
		return nil, err
	}
	if r.platform == nil {
		client, err := docusign.NewClient(auth, docusign.Config{
			BasePath:        r.cfg.DocuSign.BasePath,
			MetadataTimeout: r.cfg.DocuSign.MetadataTimeout,
			DownloadTimeout: r.cfg.DocuSign.DownloadTimeout,
		})
		if err != nil {
			return nil, err
		}
		r.platform = client
	}
	ingest, err := r.ingestLocked(ctx)
	if err != nil {
		return nil, err
	}
	return services.NewImportService(r.platform, ingest), nil
}

func (r *runtime) Auth() (driving.AuthService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	auth, err := r.authLocked()
	if err != nil {
		return nil, err
	}
	return auth, nil
}

func (r *runtime) Documents() (driving.DocumentService, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return services.NewDocumentService(r.ledgerLocked()), nil
}

// Status builds whatever can be built and reports the rest as missing.
func (r *runtime) Status(ctx context.Context) driving.StatusService {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		primary, secondary, store, llm services.Pinger
		primaryDetail, llmDetail       string
	)
	if svc, err := r.services(ctx, true); err != nil {
		if !errors.Is(err, domain.ErrConfigMissing) {
			logger.Warn("status: %v", err)
		}
	} else {
		primary = svc.Embedding.Primary()
		primaryDetail = svc.Embedding.Primary().ModelName()
		if s := svc.Embedding.Secondary(); s != nil {
			secondary = s
		}
		store = svc.VectorStore
		if svc.LLMService != nil {
			llm = svc.LLMService
			llmDetail = svc.LLMService.ModelName()
		}
	}

	status := services.NewStatusService(
		services.StatusCheck{Name: "embedding (primary)", Target: primary, Detail: primaryDetail},
		services.StatusCheck{Name: "embedding (fallback)", Target: secondary, Detail: r.cfg.Embedding.OllamaModel},
		services.StatusCheck{Name: "vector store", Target: store, Detail: r.cfg.Vector.Backend + "/" + r.cfg.Vector.IndexName},
		services.StatusCheck{Name: "answer generator", Target: llm, Detail: llmDetail},
	)
	if auth, err := r.authLocked(); err == nil {
		status.SetSession(auth.Session)
	}

	var missing *config.MissingSettingsError
	if err := r.cfg.Require(
		config.GroupEmbedding, config.GroupVector, config.GroupDocuSign, config.GroupAnswer,
	); errors.As(err, &missing) {
		status.SetMissing(missing.Names)
	}
	return status
}

func (r *runtime) Login() cli.LoginSettings {
	return cli.LoginSettings{
		RedirectURI: r.cfg.DocuSign.RedirectURI,
		Timeout:     config.DefaultLoginTimeout,
	}
}

func (r *runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	if r.ai != nil {
		errs = append(errs, r.ai.Close())
		r.ai = nil
	}
	if r.ledger != nil {
		errs = append(errs, r.ledger.Close())
		r.ledger = nil
	}
	return errors.Join(errs...)
}
