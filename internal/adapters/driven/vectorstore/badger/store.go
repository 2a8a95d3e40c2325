// Package badger implements a local vector store on BadgerDB.
//
// Records are stored as JSON under "vec:<key>". Search is a brute-force
// cosine scan over that prefix, which suits a personal document collection.
package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/custodia-labs/accord/internal/adapters/driven/vectorstore"
	"github.com/custodia-labs/accord/internal/core/domain"
	"github.com/custodia-labs/accord/internal/core/ports/driven"
	"github.com/custodia-labs/accord/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

const recordPrefix = "vec:"

// Config holds configuration for the Badger store.
type Config struct {
	// Path is the database directory. Ignored when InMemory is set.
	Path string

	// InMemory keeps everything in memory.
	InMemory bool

	// Dimensions is the vector size (default: 384).
	Dimensions int

	// BatchSize is the number of records per write transaction (default: 5).
	BatchSize int
}

// Store is a Badger-backed vector store.
type Store struct {
	db        *badger.DB
	dims      int
	batchSize int
}

type storedRecord struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// badgerLogger routes badger's own logging into the accord logger.
type badgerLogger struct{}

var _ badger.Logger = badgerLogger{}

func (badgerLogger) Errorf(msg string, items ...any) {
	logger.Error("badger: "+trimNewline(msg), items...)
}
func (badgerLogger) Warningf(msg string, items ...any) {
	logger.Warn("badger: "+trimNewline(msg), items...)
}
func (badgerLogger) Infof(msg string, items ...any) {
	logger.Debug("badger: "+trimNewline(msg), items...)
}
func (badgerLogger) Debugf(msg string, items ...any) {
	logger.Debug("badger: "+trimNewline(msg), items...)
}

func trimNewline(s string) string {
	if n := len(s); n > 0 && s[n-1] == '\n' {
		return s[:n-1]
	}
	return s
}

// Open opens (creating if needed) the store.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Path == "" {
			return nil, fmt.Errorf("%w: badger path is required", domain.ErrConfigMissing)
		}
		if err := os.MkdirAll(cfg.Path, 0700); err != nil {
			return nil, fmt.Errorf("create badger directory: %w", err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts.Logger = badgerLogger{}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger: %w", domain.ErrVectorStoreUnavailable, err)
	}

	if cfg.Dimensions == 0 {
		cfg.Dimensions = vectorstore.DefaultDimensions
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = vectorstore.DefaultBatchSize
	}
	return &Store{db: db, dims: cfg.Dimensions, batchSize: cfg.BatchSize}, nil
}

// EnsureIndex is a no-op; the key space needs no setup.
func (s *Store) EnsureIndex(_ context.Context) error {
	if s.db.IsClosed() {
		return fmt.Errorf("%w: database is closed", domain.ErrVectorStoreUnavailable)
	}
	return nil
}

// Upsert writes each batch in one transaction, overwriting by ID.
func (s *Store) Upsert(ctx context.Context, records []domain.VectorRecord) (int, error) {
	return vectorstore.UpsertBatches(ctx, records, s.batchSize, s.dims, func(_ context.Context, batch []domain.VectorRecord) error {
		return s.db.Update(func(txn *badger.Txn) error {
			for _, r := range batch {
				data, err := json.Marshal(storedRecord{ID: r.ID, Values: r.Values, Metadata: r.Metadata})
				if err != nil {
					return fmt.Errorf("encode %s: %w", r.ID, err)
				}
				if err := txn.Set([]byte(recordPrefix+r.ID), data); err != nil {
					return fmt.Errorf("%w: write %s: %w", domain.ErrVectorStoreUnavailable, r.ID, err)
				}
			}
			return nil
		})
	})
}

// Search scores every stored record and returns the best topK.
func (s *Store) Search(ctx context.Context, vec []float32, topK int) ([]domain.Match, error) {
	if len(vec) != s.dims {
		return nil, fmt.Errorf("%w: query has %d values, index has %d", domain.ErrDimensionMismatch, len(vec), s.dims)
	}

	var matches []domain.Match
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		iter := txn.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec storedRecord
			if err := iter.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				return fmt.Errorf("decode %s: %w", iter.Item().Key(), err)
			}
			if len(rec.Values) != len(vec) {
				continue
			}
			matches = append(matches, domain.Match{
				ID:       rec.ID,
				Score:    vectorstore.Cosine(vec, rec.Values),
				Metadata: rec.Metadata,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortStableFunc(matches, func(a, b domain.Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	if k := vectorstore.TopK(topK); len(matches) > k {
		matches = matches[:k]
	}
	if matches == nil {
		matches = []domain.Match{}
	}
	return matches, nil
}

// Get returns a stored record by ID.
func (s *Store) Get(_ context.Context, id string) (*domain.VectorRecord, error) {
	var rec storedRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(recordPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error { return json.Unmarshal(val, &rec) })
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, fmt.Errorf("%w: vector %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &domain.VectorRecord{ID: rec.ID, Values: rec.Values, Metadata: rec.Metadata}, nil
}

// Count returns the number of stored records.
func (s *Store) Count(_ context.Context) (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(recordPrefix)
		opts.PrefetchValues = false
		iter := txn.NewIterator(opts)
		defer iter.Close()
		for iter.Rewind(); iter.Valid(); iter.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// Dimensions returns the vector size.
func (s *Store) Dimensions() int {
	return s.dims
}

// Ping fails once the database is closed.
func (s *Store) Ping(ctx context.Context) error {
	return s.EnsureIndex(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db.IsClosed() {
		return nil
	}
	return s.db.Close()
}
