package chi

import (
	"fmt"
	"time"

	"github.com/mapletenders/tenderindex/internal/domain/search/request"
	"github.com/mapletenders/tenderindex/internal/domain/search/result"
	"github.com/mapletenders/tenderindex/internal/domain/syncrun"
	"github.com/mapletenders/tenderindex/internal/domain/tender"
	healthuc "github.com/mapletenders/tenderindex/internal/usecase/health"
	reconcileuc "github.com/mapletenders/tenderindex/internal/usecase/reconcile"
)

// ErrorCode is a machine-readable error code returned in ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest             ErrorCode = "bad_request"
	ErrorCodeValidationFailed       ErrorCode = "validation_failed"
	ErrorCodeTenderNotFound         ErrorCode = "tender_not_found"
	ErrorCodeVectorDimMismatch      ErrorCode = "vector_dim_mismatch"
	ErrorCodeEmbeddingProviderError ErrorCode = "embedding_provider_error"
	ErrorCodeNotFound               ErrorCode = "not_found"
	ErrorCodeMethodNotAllowed       ErrorCode = "method_not_allowed"
	ErrorCodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

// SearchRequest is the POST /search body. Dates are ISO-8601 strings.
type SearchRequest struct {
	Query                 string   `json:"query"`
	Regions               []string `json:"regions,omitempty"`
	ProcurementMethod     string   `json:"procurement_method,omitempty"`
	ProcurementCategory   []string `json:"procurement_category,omitempty"`
	NoticeType            []string `json:"notice_type,omitempty"`
	Status                []string `json:"status,omitempty"`
	TenderStatus          []string `json:"tender_status,omitempty"`
	ContractingEntityName []string `json:"contracting_entity_name,omitempty"`
	ClosingDateAfter      *string  `json:"closing_date_after,omitempty"`
	ClosingDateBefore     *string  `json:"closing_date_before,omitempty"`
	PublicationDateAfter  *string  `json:"publication_date_after,omitempty"`
	PublicationDateBefore *string  `json:"publication_date_before,omitempty"`
	Limit                 *int     `json:"limit,omitempty"`
}

// SearchResultItem is one ranked hit in the POST /search response.
type SearchResultItem struct {
	ID                string  `json:"id"`
	SearchScore       float64 `json:"search_score"`
	MatchExplanation  string  `json:"match_explanation"`
	Title             string  `json:"title,omitempty"`
	TenderClosingDate string  `json:"tender_closing_date,omitempty"`
}

// SyncReportResponse is the POST /sync response.
type SyncReportResponse struct {
	Status         syncrun.Status `json:"status"`
	RunID          string         `json:"run_id"`
	TotalTenders   int            `json:"total_tenders"`
	Indexed        int            `json:"indexed"`
	Failed         int            `json:"failed"`
	FailedIDs      []string       `json:"failed_ids"`
	ElapsedSeconds float64        `json:"elapsed_seconds"`
	Error          string         `json:"error,omitempty"`
}

// SyncOneResponse is the POST /sync/{id} response.
type SyncOneResponse struct {
	Status   syncrun.Status `json:"status"`
	TenderID string         `json:"tender_id"`
	Message  string         `json:"message"`
}

// HealthResponse is the GET /health response.
type HealthResponse struct {
	Elasticsearch healthuc.Color                  `json:"elasticsearch"`
	Status        healthuc.Status                 `json:"status"`
	Checks        map[string]healthuc.CheckResult `json:"checks,omitempty"`
	Error         string                          `json:"error,omitempty"`
}

// SyncStatusResponse is the GET /sync/status response.
type SyncStatusResponse struct {
	SupabaseTenders      int            `json:"supabase_tenders"`
	ElasticsearchTenders int            `json:"elasticsearch_tenders"`
	InSync               bool           `json:"in_sync"`
	ElasticsearchHealth  HealthResponse `json:"elasticsearch_health"`
}

// QueryEmbeddingRequest is the POST /embeddings/generate/query body.
type QueryEmbeddingRequest struct {
	Q string `json:"q"`
}

// QueryEmbeddingResponse is the POST /embeddings/generate/query response.
type QueryEmbeddingResponse struct {
	EmbeddedQuery []float32 `json:"embedded_query"`
}

// TenderEmbeddingsResponse is the POST /embeddings/generate/data response.
type TenderEmbeddingsResponse struct {
	Embeddings      [][]float32 `json:"embeddings"`
	EmbeddingInputs []string    `json:"embedding_inputs"`
}

// Limits bounds the result count of a search request.
type Limits struct {
	Default int
	Max     int
}

// toDomain validates the request and applies the server limits.
func (req SearchRequest) toDomain(limits Limits) (request.Request, error) {
	filters := request.Filters{
		Regions:               req.Regions,
		ProcurementMethod:     req.ProcurementMethod,
		ProcurementCategories: req.ProcurementCategory,
		NoticeTypes:           req.NoticeType,
		Statuses:              append(append([]string(nil), req.Status...), req.TenderStatus...),
		ContractingEntities:   req.ContractingEntityName,
	}

	dates := []struct {
		name string
		raw  *string
		dst  **time.Time
	}{
		{"closing_date_after", req.ClosingDateAfter, &filters.ClosingAfter},
		{"closing_date_before", req.ClosingDateBefore, &filters.ClosingBefore},
		{"publication_date_after", req.PublicationDateAfter, &filters.PublicationAfter},
		{"publication_date_before", req.PublicationDateBefore, &filters.PublicationBefore},
	}
	for _, d := range dates {
		if d.raw == nil || *d.raw == "" {
			continue
		}
		t, ok := tender.ParseDate(*d.raw)
		if !ok {
			return request.Request{}, fmt.Errorf("%s: invalid date %q", d.name, *d.raw)
		}
		*d.dst = &t
	}

	limit := limits.Default
	if req.Limit != nil {
		limit = *req.Limit
		if limit <= 0 {
			return request.Request{}, fmt.Errorf("limit must be positive")
		}
	}
	if limits.Max > 0 && limit > limits.Max {
		limit = limits.Max
	}

	return request.New(req.Query, filters, limit)
}

func searchResultToDTO(r *result.Result) SearchResultItem {
	return SearchResultItem{
		ID:                r.ID(),
		SearchScore:       r.Score(),
		MatchExplanation:  r.Explanation(),
		Title:             r.Title(),
		TenderClosingDate: r.ClosingDate(),
	}
}

func syncReportToDTO(r syncrun.Report) SyncReportResponse {
	failedIDs := r.Tally.FailedIDs
	if failedIDs == nil {
		failedIDs = []string{}
	}
	resp := SyncReportResponse{
		Status:         r.Status,
		RunID:          r.RunID,
		TotalTenders:   r.Total,
		Indexed:        r.Tally.Indexed,
		Failed:         r.Tally.Failed,
		FailedIDs:      failedIDs,
		ElapsedSeconds: r.Elapsed.Seconds(),
	}
	if r.Err != nil {
		resp.Error = r.Err.Error()
	}
	return resp
}

func healthToDTO(r healthuc.Report) HealthResponse {
	return HealthResponse{
		Elasticsearch: r.Color,
		Status:        r.Status,
		Checks:        r.Checks,
		Error:         r.Error,
	}
}

func syncStatusToDTO(r reconcileuc.StatusReport) SyncStatusResponse {
	return SyncStatusResponse{
		SupabaseTenders:      r.SourceCount,
		ElasticsearchTenders: r.IndexCount,
		InSync:               r.InSync,
		ElasticsearchHealth:  healthToDTO(r.Health),
	}
}
