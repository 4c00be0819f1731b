package db

import "github.com/mapletenders/tenderindex/internal/domain/search/filter"

// VectorScoreField is the attribute the KNN distance is returned under.
const VectorScoreField = "__vector_score"

// KNNQuery is the input for vector similarity search. Entry scores are the raw
// distances reported by the index, smallest first.
type KNNQuery struct {
	IndexName    string
	VectorField  string
	Filters      filter.Expression
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 text search.
type TextQuery struct {
	IndexName string
	Query     string
	// Fields restricts matching to these TEXT attributes; empty searches all TEXT fields
	// with their schema weights.
	Fields []string
	// MatchAny ORs the query terms instead of the default AND.
	MatchAny     bool
	Scorer       string
	Filters      filter.Expression
	TopK         int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}
