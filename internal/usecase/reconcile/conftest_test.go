package reconcile

import (
	"context"
	"fmt"
	"sync"

	"github.com/mapletenders/tenderindex/internal/domain/tender"
	"github.com/mapletenders/tenderindex/internal/usecase/health"
)

type mockSource struct {
	records  []tender.Record
	fetchErr error
	countErr error
	count    int
}

func (m *mockSource) FetchAll(_ context.Context) ([]tender.Record, error) {
	return m.records, m.fetchErr
}

func (m *mockSource) FetchOne(_ context.Context, id string) (tender.Record, bool, error) {
	if m.fetchErr != nil {
		return nil, false, m.fetchErr
	}
	for _, r := range m.records {
		if r.ID() == id {
			return r, true, nil
		}
	}
	return nil, false, nil
}

func (m *mockSource) Count(_ context.Context) (int, error) { return m.count, m.countErr }

type mockIndex struct {
	mu        sync.Mutex
	docs      map[string]tender.Document
	failIDs   map[string]bool
	upsertErr error
	ensureErr error
	deleteErr error
	countErr  error
	count     int
	ensured   int
	deleted   int
}

func newMockIndex() *mockIndex {
	return &mockIndex{docs: map[string]tender.Document{}, failIDs: map[string]bool{}}
}

func (m *mockIndex) EnsureSchema(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ensured++
	return m.ensureErr
}

func (m *mockIndex) Upsert(_ context.Context, doc tender.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failIDs[doc.ID] {
		return fmt.Errorf("upsert %s: refused", doc.ID)
	}
	if m.upsertErr != nil {
		return m.upsertErr
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockIndex) DeleteIndex(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted++
	return m.deleteErr
}

func (m *mockIndex) Count(_ context.Context) (int, error) { return m.count, m.countErr }

type mockHealth struct {
	report health.Report
}

func (m *mockHealth) Check(_ context.Context) health.Report { return m.report }

func records(ids ...string) []tender.Record {
	out := make([]tender.Record, len(ids))
	for i, id := range ids {
		out[i] = tender.Record{"id": id, "title": "Tender " + id}
	}
	return out
}
