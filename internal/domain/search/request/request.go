package request

import (
	"fmt"
	"strings"
	"time"
)

// Search parameter limits.
const (
	// MaxQueryLength is the maximum allowed search query length.
	MaxQueryLength = 4096
	DefaultLimit   = 20
	MaxLimit       = 100
	// MaxFilterValues caps each any-of filter list.
	MaxFilterValues = 32
)

// Filters is the fixed set of structured tender filters. Zero values mean "not set".
type Filters struct {
	Regions               []string
	ProcurementMethod     string
	ProcurementCategories []string
	NoticeTypes           []string
	Statuses              []string
	ContractingEntities   []string
	ClosingAfter          *time.Time
	ClosingBefore         *time.Time
	PublicationAfter      *time.Time
	PublicationBefore     *time.Time
}

// Request is a validated tender search query.
type Request struct {
	query   string
	filters Filters
	limit   int
}

// New validates and normalizes search parameters.
// Blank filter values are dropped; limit defaults to DefaultLimit and is clamped to MaxLimit.
func New(query string, filters Filters, limit int) (Request, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Request{}, fmt.Errorf("query is required")
	}
	if len(query) > MaxQueryLength {
		return Request{}, fmt.Errorf("query too long (max %d chars)", MaxQueryLength)
	}

	f := Filters{
		Regions:               compact(filters.Regions),
		ProcurementMethod:     strings.TrimSpace(filters.ProcurementMethod),
		ProcurementCategories: compact(filters.ProcurementCategories),
		NoticeTypes:           compact(filters.NoticeTypes),
		Statuses:              compact(filters.Statuses),
		ContractingEntities:   compact(filters.ContractingEntities),
		ClosingAfter:          filters.ClosingAfter,
		ClosingBefore:         filters.ClosingBefore,
		PublicationAfter:      filters.PublicationAfter,
		PublicationBefore:     filters.PublicationBefore,
	}

	lists := map[string][]string{
		"regions":                 f.Regions,
		"procurement_category":    f.ProcurementCategories,
		"notice_type":             f.NoticeTypes,
		"status":                  f.Statuses,
		"contracting_entity_name": f.ContractingEntities,
	}
	for name, values := range lists {
		if len(values) > MaxFilterValues {
			return Request{}, fmt.Errorf("too many %s values (max %d)", name, MaxFilterValues)
		}
	}

	if err := checkWindow("closing_date", f.ClosingAfter, f.ClosingBefore); err != nil {
		return Request{}, err
	}
	if err := checkWindow("publication_date", f.PublicationAfter, f.PublicationBefore); err != nil {
		return Request{}, err
	}

	if limit < 0 {
		return Request{}, fmt.Errorf("limit must not be negative")
	}
	if limit == 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Request{query: query, filters: f, limit: limit}, nil
}

// Query returns the search query text.
func (r *Request) Query() string { return r.query }

// Filters returns the normalized structured filters.
func (r *Request) Filters() Filters { return r.filters }

// Limit returns the maximum results to return.
func (r *Request) Limit() int { return r.limit }

// HasStatusFilter reports whether the caller restricted status explicitly.
func (f Filters) HasStatusFilter() bool { return len(f.Statuses) > 0 }

func checkWindow(name string, after, before *time.Time) error {
	if after != nil && before != nil && after.After(*before) {
		return fmt.Errorf("%s_after must not be later than %s_before", name, name)
	}
	return nil
}

func compact(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
