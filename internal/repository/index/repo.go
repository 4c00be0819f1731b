// Package index writes canonical tender documents into the RediSearch index.
package index

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mapletenders/tenderindex/internal/db"
	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/tender"
)

// store is the consumer interface for the index writer (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	DropIndex(ctx context.Context, name string, deleteDocs bool) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchCount(ctx context.Context, index, query string) (int, error)
}

// HNSWConfig HNSW index parameters.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Config names the index and its document keyspace.
type Config struct {
	Name      string // FT index name, e.g. "tenders:idx"
	KeyPrefix string // document key prefix, e.g. "tenders:doc:"
	VectorDim int
	HNSW      HNSWConfig
}

// Repo implements the index writer on top of a RediSearch/RedisJSON store.
type Repo struct {
	store store
	cfg   Config
}

// New creates an index repository. Zero config values fall back to defaults.
func New(s store, cfg Config) *Repo {
	if cfg.Name == "" {
		cfg.Name = domain.KeyPrefix + "idx"
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = domain.KeyPrefix + "doc:"
	}
	if cfg.VectorDim <= 0 {
		cfg.VectorDim = domain.DefaultVectorConfig().Dimensions
	}
	if cfg.HNSW.M <= 0 {
		cfg.HNSW.M = 16
	}
	if cfg.HNSW.EFConstruct <= 0 {
		cfg.HNSW.EFConstruct = 200
	}
	return &Repo{store: s, cfg: cfg}
}

// Name returns the FT index name.
func (r *Repo) Name() string { return r.cfg.Name }

// KeyPrefix returns the document key prefix.
func (r *Repo) KeyPrefix() string { return r.cfg.KeyPrefix }

// EnsureSchema creates the index if absent. An existing index is left untouched,
// even when its mapping differs.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	def, err := buildIndex(r.cfg.Name, r.cfg.KeyPrefix, r.cfg.VectorDim, r.cfg.HNSW)
	if err != nil {
		return fmt.Errorf("build index: %w", err)
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create index %s: %w: %w", r.cfg.Name, domain.ErrTransientIndex, err)
	}
	return nil
}

// Upsert stores doc under its id, replacing any previous version entirely.
func (r *Repo) Upsert(ctx context.Context, doc tender.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("%w: missing id", domain.ErrInvalidRecord)
	}
	if doc.HasEmbedding() && len(doc.Embedding) != r.cfg.VectorDim {
		return fmt.Errorf("tender %s: %w: got %d, want %d",
			doc.ID, domain.ErrVectorDimMismatch, len(doc.Embedding), r.cfg.VectorDim)
	}

	normalizeDates(&doc)

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal tender %s: %w", doc.ID, err)
	}

	key := r.DocKey(doc.ID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w: %w", key, domain.ErrTransientIndex, err)
	}
	return nil
}

// DeleteIndex drops the index together with its documents. A missing index is not an error.
func (r *Repo) DeleteIndex(ctx context.Context) error {
	if err := r.store.DropIndex(ctx, r.cfg.Name, true); err != nil {
		if errors.Is(err, db.ErrIndexNotFound) {
			return nil
		}
		return fmt.Errorf("drop index %s: %w: %w", r.cfg.Name, domain.ErrTransientIndex, err)
	}
	return nil
}

// Exists reports whether the index is present.
func (r *Repo) Exists(ctx context.Context) (bool, error) {
	ok, err := r.store.IndexExists(ctx, r.cfg.Name)
	if err != nil {
		return false, fmt.Errorf("index exists %s: %w: %w", r.cfg.Name, domain.ErrTransientIndex, err)
	}
	return ok, nil
}

// Count returns the exact number of indexed documents.
func (r *Repo) Count(ctx context.Context) (int, error) {
	n, err := r.store.SearchCount(ctx, r.cfg.Name, "*")
	if err != nil {
		return 0, fmt.Errorf("count %s: %w: %w", r.cfg.Name, domain.ErrTransientIndex, err)
	}
	return n, nil
}

// DocKey returns the store key of a tender document.
func (r *Repo) DocKey(id string) string {
	return r.cfg.KeyPrefix + id
}

// normalizeDates turns blank dates into absent ones and keeps the epoch keys consistent.
func normalizeDates(doc *tender.Document) {
	for _, p := range doc.DateFields() {
		*p = strings.TrimSpace(*p)
	}
	doc.PublicationTS = tender.Epoch(doc.PublicationDate)
	doc.ClosingTS = tender.Epoch(doc.TenderClosingDate)
}
