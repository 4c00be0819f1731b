// Package search implements hybrid tender search: semantic KNN plus lexical BM25,
// blended, filtered, and ranked.
package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/search/request"
	"github.com/mapletenders/tenderindex/internal/domain/search/result"
	logpkg "github.com/mapletenders/tenderindex/internal/logger"
	"github.com/mapletenders/tenderindex/internal/metrics"
)

// DefaultCandidates is the per-branch retrieval depth.
const DefaultCandidates = 100

// Outcome is the internal result of a search: either Ok(Results) or Degraded(reason).
// The boundary collapses both to a plain result list.
type Outcome struct {
	Results []result.Result
	// Degraded is non-nil when a subsystem failed and Results is empty for that reason.
	Degraded error
	// IndexCreated is set when the index was missing and has just been created.
	IndexCreated bool
}

// Service handles hybrid tender search.
type Service struct {
	repo       Repository
	index      IndexManager
	embed      Embedder
	candidates int
	logger     *zap.Logger
}

// New creates a search service. candidates <= 0 uses DefaultCandidates.
func New(repo Repository, idx IndexManager, embed Embedder, candidates int, logger *zap.Logger) *Service {
	if candidates <= 0 {
		candidates = DefaultCandidates
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:       repo,
		index:      idx,
		embed:      embed,
		candidates: candidates,
		logger:     logger,
	}
}

// Search runs a hybrid search and never fails: a degraded outcome yields an empty list.
func (s *Service) Search(ctx context.Context, req *request.Request) []result.Result {
	out := s.Query(ctx, req)
	if out.Degraded != nil {
		return []result.Result{}
	}
	return out.Results
}

// Query runs a hybrid search and reports subsystem failures as a degraded outcome.
func (s *Service) Query(ctx context.Context, req *request.Request) Outcome {
	start := time.Now()
	out := s.query(ctx, req)

	outcome := metrics.SearchOutcomeOK
	switch {
	case out.Degraded != nil:
		outcome = metrics.SearchOutcomeDegraded
		logpkg.FromContext(ctx, s.logger).Warn("Search degraded",
			zap.String("query", req.Query()),
			zap.Error(out.Degraded),
		)
	case out.IndexCreated:
		outcome = metrics.SearchOutcomeCreated
	}
	metrics.SearchRequestsTotal.WithLabelValues(outcome).Inc()
	metrics.SearchDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	metrics.SearchResults.Observe(float64(len(out.Results)))

	return out
}

func (s *Service) query(ctx context.Context, req *request.Request) Outcome {
	exists, err := s.index.Exists(ctx)
	if err != nil {
		return degraded(fmt.Errorf("check index: %w", err))
	}
	if !exists {
		if err := s.index.EnsureSchema(ctx); err != nil {
			return degraded(fmt.Errorf("create index: %w", err))
		}
		s.logger.Info("Search index was missing and has been created")
		return Outcome{Results: []result.Result{}, IndexCreated: true}
	}

	filters, err := compileFilters(req.Filters())
	if err != nil {
		return degraded(err)
	}

	topK := max(s.candidates, req.Limit())

	g, gctx := errgroup.WithContext(ctx)

	var (
		vector    []float32
		knn, bm25 []result.Candidate
	)
	g.Go(func() error {
		emb, err := s.embed.Embed(gctx, req.Query())
		if err != nil {
			return fmt.Errorf("vectorize query: %w", err)
		}
		domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)
		vector = emb.Embedding
		knn, err = s.repo.SearchKNN(gctx, vector, filters, topK)
		if err != nil {
			return fmt.Errorf("search knn: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bm25, err = s.repo.SearchBM25(gctx, req.Query(), filters, topK)
		if err != nil {
			return fmt.Errorf("search bm25: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return degraded(err)
	}

	hits := blend(vector, knn, bm25)
	rank(hits)
	if len(hits) > req.Limit() {
		hits = hits[:req.Limit()]
	}

	results := make([]result.Result, len(hits))
	for i, h := range hits {
		results[i] = result.New(
			h.id, h.score, explain(req.Query(), h.title, h.description),
			h.title, h.closingDate, h.closingTS,
		)
	}

	s.logger.Debug("Search completed",
		zap.Int("knn", len(knn)),
		zap.Int("bm25", len(bm25)),
		zap.Int("results", len(results)),
	)
	return Outcome{Results: results}
}

func degraded(err error) Outcome {
	return Outcome{Results: []result.Result{}, Degraded: err}
}
