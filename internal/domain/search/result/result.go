package result

// Explanation labels attached to each hit.
const (
	ExplainTitle       = "title match"
	ExplainDescription = "description match"
	ExplainSemantic    = "semantic similarity"
)

// Result is a single ranked tender hit.
type Result struct {
	id          string
	score       float64
	explanation string
	title       string
	closingDate string
	closingTS   *int64
}

// New creates a search result.
func New(id string, score float64, explanation, title, closingDate string, closingTS *int64) Result {
	return Result{
		id: id, score: score, explanation: explanation,
		title: title, closingDate: closingDate, closingTS: closingTS,
	}
}

// ID returns the tender id.
func (r *Result) ID() string { return r.id }

// Score returns the raw blended relevance score (not normalized).
func (r *Result) Score() float64 { return r.score }

// Explanation returns the approximate match explanation.
func (r *Result) Explanation() string { return r.explanation }

// Title returns the tender title, if it was returned by the index.
func (r *Result) Title() string { return r.title }

// ClosingDate returns the tender closing date string, if present.
func (r *Result) ClosingDate() string { return r.closingDate }

// ClosingTS returns the closing date as epoch seconds; nil when absent.
func (r *Result) ClosingTS() *int64 { return r.closingTS }

// Candidate is one retrieval-branch hit before blending.
// For the semantic branch Score is the raw cosine distance; for the lexical branch it is BM25.
type Candidate struct {
	ID          string
	Score       float64
	Title       string
	Description string
	ClosingDate string
	ClosingTS   *int64
	// Embedding is the stored tender vector, set on lexical hits only.
	Embedding []float32
}
