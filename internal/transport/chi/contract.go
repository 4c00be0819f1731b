package chi

import (
	"context"

	"github.com/mapletenders/tenderindex/internal/domain/search/request"
	"github.com/mapletenders/tenderindex/internal/domain/search/result"
	"github.com/mapletenders/tenderindex/internal/domain/syncrun"
	"github.com/mapletenders/tenderindex/internal/domain/tender"
	embeddinguc "github.com/mapletenders/tenderindex/internal/usecase/embedding"
	healthuc "github.com/mapletenders/tenderindex/internal/usecase/health"
	reconcileuc "github.com/mapletenders/tenderindex/internal/usecase/reconcile"
)

// Searcher runs hybrid tender search.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) []result.Result
}

// Reconciler drives source-to-index synchronization and index lifecycle.
type Reconciler interface {
	SyncAll(ctx context.Context) syncrun.Report
	SyncOne(ctx context.Context, id string) (reconcileuc.OneResult, error)
	Status(ctx context.Context) (reconcileuc.StatusReport, error)
	Wipe(ctx context.Context) error
	CreateIndex(ctx context.Context) error
}

// HealthChecker reports index store health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Embeddings serves query and tender vectors to upstream collaborators.
type Embeddings interface {
	QueryVector(ctx context.Context, q string) ([]float32, error)
	TenderVectors(ctx context.Context, recs []tender.Record) (embeddinguc.TenderVectors, error)
}
