package mapper

import "github.com/mapletenders/tenderindex/internal/domain/tender"

// Shape selects the record layout Render produces.
type Shape int

const (
	// ShapeFlat writes every attribute under its canonical prefixed column name.
	ShapeFlat Shape = iota
	// ShapeNested groups organisation, contact and classification attributes into objects.
	ShapeNested
)

// Render writes doc back into a source record of the given shape.
// Derived epoch fields are not rendered; Map recomputes them from the date strings.
func Render(doc tender.Document, shape Shape) tender.Record {
	rec := tender.Record{fieldID: doc.ID}

	for i := range attributes {
		a := &attributes[i]
		v := *a.ref(&doc)
		if v == "" {
			continue
		}
		if shape == ShapeNested && len(a.nested) > 0 {
			put(rec, a.nested[0], v)
			continue
		}
		rec[a.field] = v
	}

	if doc.HasEmbedding() {
		emb := make([]float32, len(doc.Embedding))
		copy(emb, doc.Embedding)
		rec[fieldEmbedding] = emb
	}
	if doc.EmbeddingInput != "" {
		rec[fieldEmbeddingInput] = doc.EmbeddingInput
	}

	return rec
}

func put(rec tender.Record, p path, v string) {
	cur := map[string]any(rec)
	for _, key := range p[:len(p)-1] {
		next, ok := cur[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			cur[key] = next
		}
		cur = next
	}
	cur[p[len(p)-1]] = v
}
