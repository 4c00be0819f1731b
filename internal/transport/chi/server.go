// Package chi exposes the tender index over JSON HTTP endpoints.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/tender"
	logpkg "github.com/mapletenders/tenderindex/internal/logger"
	healthuc "github.com/mapletenders/tenderindex/internal/usecase/health"
)

// maxTenderBatch caps POST /embeddings/generate/data.
const maxTenderBatch = 256

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers.
type Server struct {
	search        Searcher
	sync          Reconciler
	health        HealthChecker
	embeddings    Embeddings
	limits        Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. embeddings may be nil, which disables /embeddings.
func NewServer(
	search Searcher,
	sync Reconciler,
	health HealthChecker,
	embeddings Embeddings,
	limits Limits,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		search:     search,
		sync:       sync,
		health:     health,
		embeddings: embeddings,
		limits:     limits,
		logger:     logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrTenderNotFound, http.StatusNotFound, ErrorCodeTenderNotFound),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrVectorDimMismatch, http.StatusBadRequest, ErrorCodeVectorDimMismatch),
		sentinelHandler(domain.ErrEmbeddingProviderError,
			http.StatusBadGateway, ErrorCodeEmbeddingProviderError),
	}
	return s
}

// Routes registers every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.Search)

	r.Post("/sync", s.SyncAll)
	r.Get("/sync/status", s.SyncStatus)
	r.Post("/sync/{id}", s.SyncOne)

	r.Post("/index", s.CreateIndex)
	r.Delete("/index", s.WipeIndex)

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	if s.embeddings != nil {
		r.Route("/embeddings", func(r chi.Router) {
			r.Post("/generate/query", s.EmbedQuery)
			r.Post("/generate/data", s.EmbedTenders)
			// Short aliases.
			r.Post("/query", s.EmbedQuery)
			r.Post("/tenders", s.EmbedTenders)
		})
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorCodeMethodNotAllowed, "method not allowed")
	})
}

// Search handles POST /search. Search never fails once the request is valid:
// a degraded index yields an empty list.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	var body SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	req, err := body.toDomain(s.limits)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	results := s.search.Search(ctx, &req)

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToDTO(&results[i])
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, items)
}

// SyncAll handles POST /sync. Whole-run failures are reported in the body with status "error".
func (s *Server) SyncAll(w http.ResponseWriter, r *http.Request) {
	report := s.sync.SyncAll(r.Context())
	writeJSON(w, http.StatusOK, syncReportToDTO(report))
}

// SyncOne handles POST /sync/{id}. A tender that fails to fetch or index is
// reported as an error result carrying its id.
func (s *Server) SyncOne(w http.ResponseWriter, r *http.Request) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid format for parameter id: "+err.Error())
		return
	}

	res, err := s.sync.SyncOne(r.Context(), id)
	if err != nil && res.TenderID == "" {
		s.handleDomainError(w, r, err)
		return
	}
	status := http.StatusOK
	if err != nil {
		status = syncFailureStatus(err)
		logpkg.FromContext(r.Context(), s.logger).Warn("tender sync failed",
			zap.String("tender_id", id),
			zap.Int("status", status),
			zap.Error(err),
		)
	}

	writeJSON(w, status, SyncOneResponse{
		Status:   res.Status,
		TenderID: res.TenderID,
		Message:  res.Message,
	})
}

// SyncStatus handles GET /sync/status.
func (s *Server) SyncStatus(w http.ResponseWriter, r *http.Request) {
	report, err := s.sync.Status(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, syncStatusToDTO(report))
}

// CreateIndex handles POST /index.
func (s *Server) CreateIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.CreateIndex(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Tenders index created successfully"})
}

// WipeIndex handles DELETE /index. Wiping an absent index succeeds.
func (s *Server) WipeIndex(w http.ResponseWriter, r *http.Request) {
	if err := s.sync.Wipe(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Tenders index deleted successfully"})
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthToDTO(report))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// EmbedQuery handles POST /embeddings/generate/query.
func (s *Server) EmbedQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryEmbeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	vec, err := s.embeddings.QueryVector(ctx, req.Q)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, QueryEmbeddingResponse{EmbeddedQuery: vec})
}

// EmbedTenders handles POST /embeddings/generate/data. The body is a JSON array of tender records.
func (s *Server) EmbedTenders(w http.ResponseWriter, r *http.Request) {
	var recs []tender.Record
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&recs); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(recs) > maxTenderBatch {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed,
			"too many tenders in one request")
		return
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.embeddings.TenderVectors(ctx, recs)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, TenderEmbeddingsResponse{
		Embeddings:      res.Embeddings,
		EmbeddingInputs: res.Inputs,
	})
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Not-found and validation messages only carry caller input, so they are returned whole.
func safeDomainMessage(err error) string {
	var nf *domain.NotFoundError
	if errors.As(err, &nf) {
		return nf.Error()
	}
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrTenderNotFound,
		domain.ErrVectorDimMismatch,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// syncFailureStatus maps a single-tender sync failure to an HTTP status:
// bad records are the caller's data, unreachable stores are retryable.
func syncFailureStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidRecord), errors.Is(err, domain.ErrVectorDimMismatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrSourceUnavailable), errors.Is(err, domain.ErrTransientIndex):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context(), s.logger)
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
