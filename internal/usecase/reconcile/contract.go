package reconcile

import (
	"context"

	"github.com/mapletenders/tenderindex/internal/domain/tender"
	"github.com/mapletenders/tenderindex/internal/usecase/health"
)

// Source reads tender records from the authoritative store.
type Source interface {
	FetchAll(ctx context.Context) ([]tender.Record, error)
	FetchOne(ctx context.Context, id string) (tender.Record, bool, error)
	Count(ctx context.Context) (int, error)
}

// Index writes canonical documents to the search index.
type Index interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, doc tender.Document) error
	DeleteIndex(ctx context.Context) error
	Count(ctx context.Context) (int, error)
}

// HealthChecker reports index store health.
type HealthChecker interface {
	Check(ctx context.Context) health.Report
}
