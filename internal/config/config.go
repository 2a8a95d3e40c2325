// Package config assembles accord's settings from defaults, the TOML
// config file and the process environment, and validates them per feature.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
)

// Vector store backends.
const (
	BackendPinecone = "pinecone"
	BackendWeaviate = "weaviate"
	BackendBadger   = "badger"
)

// Answer providers.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Defaults.
const (
	DefaultHFEmbeddingURL    = "https://api-inference.huggingface.co/pipeline/feature-extraction/sentence-transformers/all-MiniLM-L6-v2"
	DefaultDimensions        = 384
	DefaultOllamaURL         = "http://localhost:11434"
	DefaultOllamaModel       = "all-minilm"
	DefaultIndexName         = "contracts"
	DefaultBatchSize         = 5
	DefaultPineconeCloud     = "aws"
	DefaultPineconeControl   = "https://api.pinecone.io"
	DefaultWeaviateScheme    = "https"
	DefaultDocuSignAuth      = "https://account-d.docusign.com"
	DefaultDocuSignBasePath  = "https://demo.docusign.net/restapi/v2.1"
	DefaultDocuSignRedirect  = "http://127.0.0.1:8765/callback"
	DefaultDocuSignScopes    = "signature extended"
	DefaultGeminiModel       = "gemini-1.5-flash"
	DefaultOpenAIModel       = "gpt-4o-mini"
	DefaultOllamaLLMModel    = "llama3.2"
	DefaultPreviewLength     = 500
	DefaultLoginTimeout      = 5 * time.Minute
	DefaultMetadataTimeout   = 30 * time.Second
	DefaultDownloadTimeout   = 120 * time.Second
	DefaultEmbeddingTimeout  = 30 * time.Second
	defaultHomeDirectoryName = ".accord"
)

// Embedding configures the primary and fallback embedders.
type Embedding struct {
	HFToken     string
	HFURL       string
	Dimensions  int
	Fallback    bool
	OllamaURL   string
	OllamaModel string
	Timeout     time.Duration
}

// Vector configures the vector store.
type Vector struct {
	Backend   string
	IndexName string
	BatchSize int
	TopK      int

	PineconeKey           string
	PineconeEnvironment   string
	PineconeCloud         string
	PineconeControllerURL string

	WeaviateHost   string
	WeaviateScheme string
	WeaviateAPIKey string

	BadgerPath string
}

// DocuSign configures the OAuth client and REST API.
type DocuSign struct {
	ClientID        string
	AuthServer      string
	BasePath        string
	RedirectURI     string
	Scopes          []string
	AccountID       string
	MetadataTimeout time.Duration
	DownloadTimeout time.Duration
}

// Answer configures the answer generator.
type Answer struct {
	Provider    string
	GeminiKey   string
	GeminiModel string
	OpenAIKey   string
	OpenAIModel string
	OllamaURL   string
	OllamaModel string
}

// Config is the complete accord configuration.
type Config struct {
	Home          string
	PreviewLength int
	Embedding     Embedding
	Vector        Vector
	DocuSign      DocuSign
	Answer        Answer
}

// Load merges defaults, the config store and the environment.
// Environment values win over file values. store may be nil.
func Load(store driven.ConfigStore, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	r := &reader{store: store, getenv: getenv}

	home := getenv("ACCORD_HOME")
	if home == "" {
		if dir, err := os.UserHomeDir(); err == nil {
			home = filepath.Join(dir, defaultHomeDirectoryName)
		}
	}

	cfg := &Config{
		Home:          home,
		PreviewLength: r.int("PREVIEW_LENGTH", "ingest.preview_length", DefaultPreviewLength),
		Embedding: Embedding{
			HFToken:     r.str("HF_API_TOKEN", "embedding.hf_token", ""),
			HFURL:       r.str("HF_EMBEDDING_URL", "embedding.hf_url", DefaultHFEmbeddingURL),
			Dimensions:  r.int("EMBEDDING_DIMENSIONS", "embedding.dimensions", DefaultDimensions),
			Fallback:    r.bool("EMBEDDING_FALLBACK", "embedding.fallback", true),
			OllamaURL:   r.str("OLLAMA_BASE_URL", "embedding.ollama_url", DefaultOllamaURL),
			OllamaModel: r.str("OLLAMA_EMBED_MODEL", "embedding.ollama_model", DefaultOllamaModel),
			Timeout:     DefaultEmbeddingTimeout,
		},
		Vector: Vector{
			Backend:               strings.ToLower(r.str("VECTOR_BACKEND", "vector.backend", BackendPinecone)),
			IndexName:             r.str("INDEX_NAME", "vector.index", DefaultIndexName),
			BatchSize:             r.int("UPSERT_BATCH_SIZE", "vector.batch_size", DefaultBatchSize),
			TopK:                  r.int("SEARCH_TOP_K", "vector.top_k", domain.DefaultTopK),
			PineconeKey:           r.str("PINECONE_KEY", "pinecone.api_key", ""),
			PineconeEnvironment:   r.str("PINECONE_ENVIRONMENT", "pinecone.environment", ""),
			PineconeCloud:         r.str("PINECONE_CLOUD", "pinecone.cloud", DefaultPineconeCloud),
			PineconeControllerURL: r.str("PINECONE_CONTROLLER_URL", "pinecone.controller_url", DefaultPineconeControl),
			WeaviateHost:          r.str("WEAVIATE_HOST", "weaviate.host", ""),
			WeaviateScheme:        r.str("WEAVIATE_SCHEME", "weaviate.scheme", DefaultWeaviateScheme),
			WeaviateAPIKey:        r.str("WEAVIATE_API_KEY", "weaviate.api_key", ""),
			BadgerPath:            r.str("BADGER_PATH", "badger.path", filepath.Join(home, "vectors")),
		},
		DocuSign: DocuSign{
			ClientID:        r.str("DOCUSIGN_CLIENT_ID", "docusign.client_id", ""),
			AuthServer:      strings.TrimRight(r.str("DOCUSIGN_AUTH_SERVER", "docusign.auth_server", DefaultDocuSignAuth), "/"),
			BasePath:        strings.TrimRight(r.str("DOCUSIGN_BASE_PATH", "docusign.base_path", DefaultDocuSignBasePath), "/"),
			RedirectURI:     r.str("DOCUSIGN_REDIRECT_URI", "docusign.redirect_uri", DefaultDocuSignRedirect),
			Scopes:          strings.Fields(r.str("DOCUSIGN_SCOPES", "docusign.scopes", DefaultDocuSignScopes)),
			AccountID:       r.str("DOCUSIGN_ACCOUNT_ID", "docusign.account_id", ""),
			MetadataTimeout: DefaultMetadataTimeout,
			DownloadTimeout: DefaultDownloadTimeout,
		},
		Answer: Answer{
			Provider:    strings.ToLower(r.str("ANSWER_PROVIDER", "answer.provider", ProviderGemini)),
			GeminiKey:   r.str("GEMINI_API_KEY", "answer.gemini_key", ""),
			GeminiModel: r.str("GEMINI_MODEL", "answer.gemini_model", DefaultGeminiModel),
			OpenAIKey:   r.str("OPENAI_API_KEY", "answer.openai_key", ""),
			OpenAIModel: r.str("OPENAI_MODEL", "answer.openai_model", DefaultOpenAIModel),
			OllamaURL:   r.str("OLLAMA_BASE_URL", "embedding.ollama_url", DefaultOllamaURL),
			OllamaModel: r.str("OLLAMA_LLM_MODEL", "answer.ollama_model", DefaultOllamaLLMModel),
		},
	}

	switch cfg.Vector.Backend {
	case BackendPinecone, BackendWeaviate, BackendBadger:
	default:
		r.errs = append(r.errs, fmt.Sprintf("VECTOR_BACKEND must be one of pinecone, weaviate, badger, got %q", cfg.Vector.Backend))
	}
	switch cfg.Answer.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		r.errs = append(r.errs, fmt.Sprintf("ANSWER_PROVIDER must be one of gemini, openai, ollama, got %q", cfg.Answer.Provider))
	}

	if len(r.errs) > 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, strings.Join(r.errs, "; "))
	}
	return cfg, nil
}

// reader resolves one setting from env, then file, then default,
// collecting parse errors instead of stopping at the first.
type reader struct {
	store  driven.ConfigStore
	getenv func(string) string
	errs   []string
}

func (r *reader) str(env, key, def string) string {
	if v := strings.TrimSpace(r.getenv(env)); v != "" {
		return v
	}
	if r.store != nil {
		if v := r.store.GetString(key); v != "" {
			return v
		}
	}
	return def
}

func (r *reader) int(env, key string, def int) int {
	if v := strings.TrimSpace(r.getenv(env)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			r.errs = append(r.errs, fmt.Sprintf("%s must be a positive integer, got %q", env, v))
			return def
		}
		return n
	}
	if r.store != nil {
		if n := r.store.GetInt(key); n > 0 {
			return n
		}
	}
	return def
}

func (r *reader) bool(env, key string, def bool) bool {
	if v := strings.TrimSpace(r.getenv(env)); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			r.errs = append(r.errs, fmt.Sprintf("%s must be a boolean, got %q", env, v))
			return def
		}
		return b
	}
	if r.store != nil {
		if _, ok := r.store.Get(key); ok {
			return r.store.GetBool(key)
		}
	}
	return def
}

// Group is a set of settings one feature needs.
type Group int

const (
	// GroupEmbedding is needed to embed text.
	GroupEmbedding Group = iota
	// GroupVector is needed to read or write the vector store.
	GroupVector
	// GroupDocuSign is needed to log in and import.
	GroupDocuSign
	// GroupAnswer is needed to generate answers.
	GroupAnswer
)

// MissingSettingsError lists every required setting that is absent.
type MissingSettingsError struct {
	Names []string
}

// Error implements error.
func (e *MissingSettingsError) Error() string {
	return "missing required settings: " + strings.Join(e.Names, ", ")
}

// Unwrap lets errors.Is match domain.ErrConfigMissing.
func (e *MissingSettingsError) Unwrap() error {
	return domain.ErrConfigMissing
}

// Require checks the settings of every group and reports all missing
// names at once. It returns nil when nothing is missing.
func (c *Config) Require(groups ...Group) error {
	seen := make(map[string]bool)
	need := func(name, value string) {
		if strings.TrimSpace(value) == "" {
			seen[name] = true
		}
	}

	for _, g := range groups {
		switch g {
		case GroupEmbedding:
			need("HF_API_TOKEN", c.Embedding.HFToken)
		case GroupVector:
			switch c.Vector.Backend {
			case BackendPinecone:
				need("PINECONE_KEY", c.Vector.PineconeKey)
				need("PINECONE_ENVIRONMENT", c.Vector.PineconeEnvironment)
			case BackendWeaviate:
				need("WEAVIATE_HOST", c.Vector.WeaviateHost)
			case BackendBadger:
				need("BADGER_PATH", c.Vector.BadgerPath)
			}
		case GroupDocuSign:
			need("DOCUSIGN_CLIENT_ID", c.DocuSign.ClientID)
			need("DOCUSIGN_AUTH_SERVER", c.DocuSign.AuthServer)
			need("DOCUSIGN_BASE_PATH", c.DocuSign.BasePath)
			need("DOCUSIGN_REDIRECT_URI", c.DocuSign.RedirectURI)
		case GroupAnswer:
			switch c.Answer.Provider {
			case ProviderGemini:
				need("GEMINI_API_KEY", c.Answer.GeminiKey)
			case ProviderOpenAI:
				need("OPENAI_API_KEY", c.Answer.OpenAIKey)
			}
		}
	}

	if len(seen) == 0 {
		return nil
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return &MissingSettingsError{Names: names}
}

// AnswerConfigured reports whether an answer generator can be built.
func (c *Config) AnswerConfigured() bool {
	return c.Require(GroupAnswer) == nil
}
