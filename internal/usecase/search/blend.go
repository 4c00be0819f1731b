package search

import (
	"math"
	"sort"
	"strings"

	"github.com/mapletenders/tenderindex/internal/domain/search/result"
)

// Blend weights. Semantic similarity is shifted from [-1,1] to [0,2] before weighting.
const (
	semanticWeight = 0.6
	lexicalWeight  = 0.4
)

type blended struct {
	id          string
	score       float64
	title       string
	description string
	closingDate string
	closingTS   *int64
}

// blend sums the weighted branch scores per tender id.
// knn scores are cosine distances, bm25 scores are raw BM25. A lexical hit the
// KNN branch did not return gets its semantic share from its stored embedding.
func blend(query []float32, knn, bm25 []result.Candidate) []*blended {
	merged := make(map[string]*blended, len(knn)+len(bm25))
	order := make([]*blended, 0, len(knn)+len(bm25))

	add := func(c result.Candidate, score float64) {
		b, ok := merged[c.ID]
		if !ok {
			b = &blended{id: c.ID}
			merged[c.ID] = b
			order = append(order, b)
		}
		b.score += score
		if b.title == "" {
			b.title = c.Title
		}
		if b.description == "" {
			b.description = c.Description
		}
		if b.closingDate == "" {
			b.closingDate = c.ClosingDate
		}
		if b.closingTS == nil {
			b.closingTS = c.ClosingTS
		}
	}

	for _, c := range knn {
		add(c, semanticWeight*((1-c.Score)+1))
	}
	for _, c := range bm25 {
		score := lexicalWeight * c.Score
		if _, seen := merged[c.ID]; !seen {
			if cos, ok := cosine(query, c.Embedding); ok {
				score += semanticWeight * (cos + 1)
			}
		}
		add(c, score)
	}
	return order
}

// cosine returns the cosine similarity of a and b. ok is false when the vectors
// differ in length or either has zero norm.
func cosine(a, b []float32) (float64, bool) {
	if len(a) == 0 || len(a) != len(b) {
		return 0, false
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0, false
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb)), true
}

// rank orders hits by score desc, then closing date asc with missing last, then id.
func rank(hits []*blended) {
	sort.SliceStable(hits, func(i, j int) bool {
		a, b := hits[i], hits[j]
		if a.score != b.score {
			return a.score > b.score
		}
		switch {
		case a.closingTS != nil && b.closingTS != nil:
			if *a.closingTS != *b.closingTS {
				return *a.closingTS < *b.closingTS
			}
		case a.closingTS != nil:
			return true
		case b.closingTS != nil:
			return false
		}
		return a.id < b.id
	})
}

// explain labels a hit by where the raw query appears, case-insensitively.
func explain(query, title, description string) string {
	q := strings.ToLower(query)
	var reasons []string
	if title != "" && strings.Contains(strings.ToLower(title), q) {
		reasons = append(reasons, result.ExplainTitle)
	}
	if description != "" && strings.Contains(strings.ToLower(description), q) {
		reasons = append(reasons, result.ExplainDescription)
	}
	if len(reasons) == 0 {
		return result.ExplainSemantic
	}
	return strings.Join(reasons, ", ")
}
