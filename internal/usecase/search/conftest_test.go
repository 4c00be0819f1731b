package search

import (
	"context"
	"testing"
	"time"

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/search/filter"
	"github.com/mapletenders/tenderindex/internal/domain/search/request"
	"github.com/mapletenders/tenderindex/internal/domain/search/result"
)

// --- Mocks ---

type mockRepo struct {
	knnResults  []result.Candidate
	knnErr      error
	bm25Results []result.Candidate
	bm25Err     error

	knnCalled   bool
	bm25Called  bool
	knnFilters  filter.Expression
	bm25Filters filter.Expression
	knnTopK     int
	bm25Query   string
}

func (m *mockRepo) SearchKNN(
	_ context.Context, _ []float32, filters filter.Expression, topK int,
) ([]result.Candidate, error) {
	m.knnCalled = true
	m.knnFilters = filters
	m.knnTopK = topK
	return m.knnResults, m.knnErr
}

func (m *mockRepo) SearchBM25(
	_ context.Context, query string, filters filter.Expression, _ int,
) ([]result.Candidate, error) {
	m.bm25Called = true
	m.bm25Filters = filters
	m.bm25Query = query
	return m.bm25Results, m.bm25Err
}

type mockIndex struct {
	exists     bool
	existsErr  error
	ensureErr  error
	ensureCall int
}

func (m *mockIndex) Exists(_ context.Context) (bool, error) { return m.exists, m.existsErr }

func (m *mockIndex) EnsureSchema(_ context.Context) error {
	m.ensureCall++
	return m.ensureErr
}

type mockEmbedder struct {
	vec    []float32
	tokens int
	err    error
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, TotalTokens: m.tokens}, nil
}

// --- Helpers ---

func newTestService(repo *mockRepo, idx *mockIndex, emb *mockEmbedder) *Service {
	return New(repo, idx, emb, 0, nil)
}

func mustRequest(t *testing.T, query string, f request.Filters, limit int) *request.Request {
	t.Helper()
	req, err := request.New(query, f, limit)
	if err != nil {
		t.Fatalf("request.New: %v", err)
	}
	return &req
}

func ts(v int64) *int64 { return &v }

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return &d
}
