// Package search runs the two retrieval branches of hybrid tender search against RediSearch.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/mapletenders/tenderindex/internal/db"
	"github.com/mapletenders/tenderindex/internal/domain/search/filter"
	"github.com/mapletenders/tenderindex/internal/domain/search/result"
	"github.com/mapletenders/tenderindex/internal/repository/index"
)

// bm25Scorer is the RediSearch scorer matching Lucene-style BM25.
const bm25Scorer = "BM25STD"

// store is the consumer interface for search operations (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// returnFields are the display fields fetched with every hit.
var returnFields = []string{
	index.FieldTitle,
	index.FieldDescription,
	index.FieldClosingDate,
	index.FieldClosingTS,
}

// lexicalReturnFields add the stored vector so lexical hits outside the KNN
// pool can still be scored semantically.
var lexicalReturnFields = append(slices.Clone(returnFields), index.FieldEmbedding)

// Repo implements usecase/search.Repository.
type Repo struct {
	store     store
	indexName string
	keyPrefix string
}

// New creates a search repository over the named index and document keyspace.
func New(s store, indexName, keyPrefix string) *Repo {
	return &Repo{store: s, indexName: indexName, keyPrefix: keyPrefix}
}

// SearchKNN returns the topK nearest tenders to vector among those matching filters.
// Candidate scores are raw cosine distances.
func (r *Repo) SearchKNN(
	ctx context.Context, vector []float32, filters filter.Expression, topK int,
) ([]result.Candidate, error) {
	q := &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  index.FieldEmbedding,
		Filters:      filters,
		Vector:       vector,
		K:            topK,
		ReturnFields: returnFields,
	}

	sr, err := r.store.SearchKNN(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", r.indexName, err)
	}
	return r.parseCandidates(sr), nil
}

// SearchBM25 returns the topK tenders by weighted BM25 over the full-text fields,
// matching any of the query terms, among those matching filters.
func (r *Repo) SearchBM25(
	ctx context.Context, query string, filters filter.Expression, topK int,
) ([]result.Candidate, error) {
	q := &db.TextQuery{
		IndexName:    r.indexName,
		Query:        query,
		Fields:       index.TextFields(),
		MatchAny:     true,
		Scorer:       bm25Scorer,
		Filters:      filters,
		TopK:         topK,
		ReturnFields: lexicalReturnFields,
	}

	sr, err := r.store.SearchBM25(ctx, q)
	if errors.Is(err, db.ErrNoTerms) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("search bm25 %s: %w", r.indexName, err)
	}
	return r.parseCandidates(sr), nil
}

// parseCandidates converts db.SearchResult into branch candidates.
func (r *Repo) parseCandidates(sr *db.SearchResult) []result.Candidate {
	if sr == nil || len(sr.Entries) == 0 {
		return nil
	}

	out := make([]result.Candidate, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		c := result.Candidate{
			ID:          strings.TrimPrefix(entry.Key, r.keyPrefix),
			Score:       entry.Score,
			Title:       entry.Fields[index.FieldTitle],
			Description: entry.Fields[index.FieldDescription],
			ClosingDate: entry.Fields[index.FieldClosingDate],
		}
		if v, ok := entry.Fields[index.FieldClosingTS]; ok {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				ts := int64(f)
				c.ClosingTS = &ts
			}
		}
		if v, ok := entry.Fields[index.FieldEmbedding]; ok {
			c.Embedding = decodeVector(v)
		}
		out = append(out, c)
	}
	return out
}

// decodeVector parses a vector returned as a JSON array. Malformed values yield nil.
func decodeVector(raw string) []float32 {
	var v []float32
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil
	}
	return v
}
