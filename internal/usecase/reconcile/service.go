// Package reconcile copies tenders from the source store into the search index
// and reports how far the two have drifted.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/syncrun"
	"github.com/mapletenders/tenderindex/internal/domain/tender"
	logpkg "github.com/mapletenders/tenderindex/internal/logger"
	"github.com/mapletenders/tenderindex/internal/mapper"
	"github.com/mapletenders/tenderindex/internal/metrics"
	"github.com/mapletenders/tenderindex/internal/usecase/health"
)

// Defaults for Config zero values.
const (
	DefaultWorkers       = 1
	DefaultProgressEvery = 10
)

// Config tunes a sync run.
type Config struct {
	// Workers is the number of records mapped and upserted concurrently. 1 is sequential.
	Workers int
	// ProgressEvery logs progress after every N processed records.
	ProgressEvery int
}

// OneResult is the outcome of syncing a single tender.
type OneResult struct {
	Status   syncrun.Status
	TenderID string
	Message  string
}

// StatusReport compares the source store with the index.
type StatusReport struct {
	SourceCount int
	IndexCount  int
	InSync      bool
	Health      health.Report
}

// Service coordinates source-to-index synchronization.
type Service struct {
	source Source
	index  Index
	health HealthChecker
	cfg    Config
	logger *zap.Logger
}

// New creates a reconcile service.
func New(source Source, index Index, hc HealthChecker, cfg Config, logger *zap.Logger) *Service {
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.ProgressEvery <= 0 {
		cfg.ProgressEvery = DefaultProgressEvery
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, index: index, health: hc, cfg: cfg, logger: logger}
}

// SyncAll ensures the index exists, reads every source record, and upserts each one.
// Per-record failures are counted and the run continues; whole-run failures yield an error report.
func (s *Service) SyncAll(ctx context.Context) syncrun.Report {
	start := time.Now()
	runID := uuid.NewString()
	log := logpkg.FromContext(ctx, s.logger).With(zap.String("run_id", runID))

	log.Info("Sync started", zap.String("state", string(syncrun.StateFetching)))

	if err := s.index.EnsureSchema(ctx); err != nil {
		return s.fail(log, runID, 0, syncrun.Tally{}, start, fmt.Errorf("ensure index: %w", err))
	}

	recs, err := s.source.FetchAll(ctx)
	if err != nil {
		return s.fail(log, runID, 0, syncrun.Tally{}, start, fmt.Errorf("fetch tenders: %w", err))
	}

	log.Info("Sync indexing",
		zap.String("state", string(syncrun.StateIndexing)),
		zap.Int("total", len(recs)),
		zap.Int("workers", s.cfg.Workers),
	)

	outcomes, err := s.indexAll(ctx, log, recs)
	tally := syncrun.Fold(outcomes)
	if err != nil {
		return s.fail(log, runID, len(recs), tally, start, err)
	}
	if err := ctx.Err(); err != nil {
		return s.fail(log, runID, len(recs), tally, start, fmt.Errorf("sync interrupted: %w", err))
	}

	report := syncrun.Succeeded(runID, len(recs), tally, time.Since(start))

	metrics.SyncRunsTotal.WithLabelValues(string(report.Status)).Inc()
	metrics.SyncRecordsTotal.WithLabelValues("indexed").Add(float64(tally.Indexed))
	metrics.SyncRecordsTotal.WithLabelValues("failed").Add(float64(tally.Failed))
	metrics.SyncDuration.Observe(report.Elapsed.Seconds())

	log.Info("Sync finished",
		zap.String("state", string(report.State)),
		zap.Int("total", report.Total),
		zap.Int("indexed", tally.Indexed),
		zap.Int("failed", tally.Failed),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report
}

// indexAll maps and upserts every record. Outcomes are stored by position so the
// fold sees them in source order regardless of worker scheduling.
func (s *Service) indexAll(ctx context.Context, log *zap.Logger, recs []tender.Record) ([]syncrun.Outcome, error) {
	outcomes := make([]syncrun.Outcome, len(recs))
	var done atomic.Int64

	process := func(i int) {
		if err := ctx.Err(); err != nil {
			outcomes[i] = syncrun.NewError(recs[i].ID(), err)
		} else {
			outcomes[i] = s.syncRecord(ctx, log, recs[i])
		}
		if n := done.Add(1); n%int64(s.cfg.ProgressEvery) == 0 {
			log.Info("Sync progress", zap.Int64("done", n), zap.Int("total", len(recs)))
		}
	}

	if s.cfg.Workers == 1 {
		for i := range recs {
			process(i)
		}
		return outcomes, nil
	}

	pool, err := ants.NewPool(s.cfg.Workers)
	if err != nil {
		return outcomes, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	for i := range recs {
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			process(i)
		}); err != nil {
			wg.Done()
			outcomes[i] = syncrun.NewError(recs[i].ID(), fmt.Errorf("submit: %w", err))
		}
	}
	wg.Wait()

	return outcomes, nil
}

func (s *Service) syncRecord(ctx context.Context, log *zap.Logger, rec tender.Record) syncrun.Outcome {
	id := rec.ID()
	if err := s.writeRecord(ctx, rec); err != nil {
		log.Warn("Failed to index tender", zap.String("tender_id", id), zap.Error(err))
		return syncrun.NewError(id, err)
	}
	return syncrun.NewOK(id)
}

func (s *Service) writeRecord(ctx context.Context, rec tender.Record) error {
	doc, err := mapper.Map(rec)
	if err != nil {
		return domain.NewRecordError(rec.ID(), err)
	}
	if err := s.index.Upsert(ctx, doc); err != nil {
		return domain.NewRecordError(doc.ID, err)
	}
	return nil
}

func (s *Service) fail(
	log *zap.Logger, runID string, total int, tally syncrun.Tally, start time.Time, err error,
) syncrun.Report {
	report := syncrun.Failed(runID, total, tally, time.Since(start), err)

	metrics.SyncRunsTotal.WithLabelValues(string(report.Status)).Inc()
	metrics.SyncDuration.Observe(report.Elapsed.Seconds())

	log.Error("Sync failed",
		zap.String("state", string(report.State)),
		zap.Int("indexed", tally.Indexed),
		zap.Int("failed", tally.Failed),
		zap.Error(err),
	)
	return report
}

// SyncOne fetches one tender by id and upserts it.
// A tender absent from the source yields an error matching domain.ErrTenderNotFound.
// Other failures return an error result for the id together with the cause.
func (s *Service) SyncOne(ctx context.Context, id string) (OneResult, error) {
	log := logpkg.FromContext(ctx, s.logger)

	rec, ok, err := s.source.FetchOne(ctx, id)
	if err != nil {
		log.Warn("Failed to fetch tender", zap.String("tender_id", id), zap.Error(err))
		return oneFailed(id, err), fmt.Errorf("fetch tender %s: %w", id, err)
	}
	if !ok {
		return OneResult{}, domain.NewNotFound(id)
	}

	if err := s.writeRecord(ctx, rec); err != nil {
		log.Warn("Failed to index tender", zap.String("tender_id", id), zap.Error(err))
		return oneFailed(id, err), err
	}

	log.Info("Tender indexed", zap.String("tender_id", id))
	return OneResult{
		Status:   syncrun.StatusSuccess,
		TenderID: id,
		Message:  "Tender indexed successfully",
	}, nil
}

// oneFailed builds the error result for id. Record errors describe the data and
// are reported in full; infrastructure errors name the failing store only.
func oneFailed(id string, err error) OneResult {
	msg := "Failed to index tender"
	switch {
	case errors.Is(err, domain.ErrInvalidRecord), errors.Is(err, domain.ErrVectorDimMismatch):
		msg = "Tender record is invalid: " + err.Error()
	case errors.Is(err, domain.ErrSourceUnavailable):
		msg = "Failed to fetch tender: " + domain.ErrSourceUnavailable.Error()
	case errors.Is(err, domain.ErrTransientIndex):
		msg = "Failed to index tender: " + domain.ErrTransientIndex.Error()
	}
	return OneResult{Status: syncrun.StatusError, TenderID: id, Message: msg}
}

// Status counts documents on both sides in parallel. InSync compares counts only.
func (s *Service) Status(ctx context.Context) (StatusReport, error) {
	var sourceCount, indexCount int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.source.Count(gctx)
		if err != nil {
			return fmt.Errorf("count source: %w", err)
		}
		sourceCount = n
		return nil
	})
	g.Go(func() error {
		n, err := s.index.Count(gctx)
		if err != nil {
			return fmt.Errorf("count index: %w", err)
		}
		indexCount = n
		return nil
	})
	if err := g.Wait(); err != nil {
		return StatusReport{}, err
	}

	metrics.IndexDrift.Set(float64(sourceCount - indexCount))

	report := StatusReport{
		SourceCount: sourceCount,
		IndexCount:  indexCount,
		InSync:      sourceCount == indexCount,
	}
	if s.health != nil {
		report.Health = s.health.Check(ctx)
	}
	return report, nil
}

// Wipe drops the index and its documents. Dropping an absent index succeeds.
func (s *Service) Wipe(ctx context.Context) error {
	if err := s.index.DeleteIndex(ctx); err != nil {
		return fmt.Errorf("wipe index: %w", err)
	}
	s.logger.Info("Index wiped")
	return nil
}

// CreateIndex creates the index if it does not exist.
func (s *Service) CreateIndex(ctx context.Context) error {
	if err := s.index.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	s.logger.Info("Index ready")
	return nil
}
