package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/search/request"
	"github.com/mapletenders/tenderindex/internal/domain/search/result"
	"github.com/mapletenders/tenderindex/internal/domain/syncrun"
	"github.com/mapletenders/tenderindex/internal/domain/tender"
	embeddinguc "github.com/mapletenders/tenderindex/internal/usecase/embedding"
	healthuc "github.com/mapletenders/tenderindex/internal/usecase/health"
	reconcileuc "github.com/mapletenders/tenderindex/internal/usecase/reconcile"
)

type mockSearcher struct {
	results []result.Result
	got     *request.Request
	panics  bool
}

func (m *mockSearcher) Search(_ context.Context, req *request.Request) []result.Result {
	if m.panics {
		panic("boom")
	}
	cp := *req
	m.got = &cp
	if m.results == nil {
		return []result.Result{}
	}
	return m.results
}

type mockReconciler struct {
	report    syncrun.Report
	one       reconcileuc.OneResult
	oneErr    error
	oneID     string
	status    reconcileuc.StatusReport
	statusErr error
	wipeErr   error
	createErr error
	wiped     bool
	created   bool
}

func (m *mockReconciler) SyncAll(_ context.Context) syncrun.Report { return m.report }

func (m *mockReconciler) SyncOne(_ context.Context, id string) (reconcileuc.OneResult, error) {
	m.oneID = id
	return m.one, m.oneErr
}

func (m *mockReconciler) Status(_ context.Context) (reconcileuc.StatusReport, error) {
	return m.status, m.statusErr
}

func (m *mockReconciler) Wipe(_ context.Context) error {
	m.wiped = true
	return m.wipeErr
}

func (m *mockReconciler) CreateIndex(_ context.Context) error {
	m.created = true
	return m.createErr
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

type mockEmbeddings struct {
	vec     []float32
	tokens  int
	vecErr  error
	tenders embeddinguc.TenderVectors
	tErr    error
	gotRecs []tender.Record
}

func (m *mockEmbeddings) QueryVector(ctx context.Context, _ string) ([]float32, error) {
	if m.vecErr != nil {
		return nil, m.vecErr
	}
	domain.UsageFromContext(ctx).AddTokens(m.tokens)
	return m.vec, nil
}

func (m *mockEmbeddings) TenderVectors(_ context.Context, recs []tender.Record) (embeddinguc.TenderVectors, error) {
	m.gotRecs = recs
	return m.tenders, m.tErr
}

type testEnv struct {
	search     *mockSearcher
	sync       *mockReconciler
	health     *mockHealth
	embeddings *mockEmbeddings
	router     http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		search: &mockSearcher{},
		sync:   &mockReconciler{},
		health: &mockHealth{report: healthuc.Report{
			Color:  healthuc.Green,
			Status: healthuc.Healthy,
		}},
		embeddings: &mockEmbeddings{},
	}
	srv := NewServer(env.search, env.sync, env.health, env.embeddings, Limits{Default: 20, Max: 50}, zap.NewNop())
	env.router = NewRouter(srv, zap.NewNop())
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		if err := json.NewEncoder(&buf).Encode(b); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return resp
}

func strPtr(s string) *string { return &s }
