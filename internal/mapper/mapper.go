// Package mapper turns heterogeneous source records into canonical index documents.
//
// Source rows arrive in two shapes: newer rows group organisation, contact and
// classification data into nested objects, older rows carry flat prefixed columns.
// Map resolves every attribute nested-first, then flat, then absent.
package mapper

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/tender"
)

// Map converts a raw source record into a canonical document.
// It fails only when the id is missing or the embedding payload cannot be decoded;
// both errors wrap domain.ErrInvalidRecord.
func Map(rec tender.Record) (tender.Document, error) {
	id := rec.ID()
	if id == "" {
		return tender.Document{}, fmt.Errorf("%w: missing id", domain.ErrInvalidRecord)
	}

	doc := Project(rec)

	emb, err := decodeEmbedding(rec[fieldEmbedding])
	if err != nil {
		return tender.Document{}, fmt.Errorf("%w: tender %s: %w", domain.ErrInvalidRecord, id, err)
	}
	doc.Embedding = emb

	if s, ok := rec[fieldEmbeddingInput].(string); ok {
		doc.EmbeddingInput = s
	} else if s, ok := tender.Scalar(rec[fieldEmbeddingInput]); ok {
		doc.EmbeddingInput = s
	}

	doc.PublicationTS = tender.Epoch(doc.PublicationDate)
	doc.ClosingTS = tender.Epoch(doc.TenderClosingDate)

	return doc, nil
}

// Project resolves the descriptive attributes of rec without requiring an id.
// The embedding payload is left alone.
func Project(rec tender.Record) tender.Document {
	doc := tender.Document{ID: rec.ID()}
	for i := range attributes {
		a := &attributes[i]
		if v, ok := resolve(rec, a); ok {
			*a.ref(&doc) = v
		}
	}
	return doc
}

func resolve(rec tender.Record, a *attribute) (string, bool) {
	for _, p := range a.nested {
		if v, ok := lookup(rec, p); ok {
			return v, true
		}
	}
	for _, key := range a.flat {
		if v, ok := tender.Scalar(rec[key]); ok {
			return v, true
		}
	}
	return "", false
}

// lookup walks p through nested objects and returns the scalar at its end.
func lookup(rec tender.Record, p path) (string, bool) {
	var cur any = map[string]any(rec)
	for _, key := range p {
		obj, ok := asObject(cur)
		if !ok {
			return "", false
		}
		cur = obj[key]
	}
	return tender.Scalar(cur)
}

// asObject accepts a decoded object, a serialized JSON object, or a list whose
// first element is an object.
func asObject(v any) (map[string]any, bool) {
	switch x := v.(type) {
	case map[string]any:
		return x, len(x) > 0
	case tender.Record:
		return x, len(x) > 0
	case string:
		return decodeObject([]byte(x))
	case []byte:
		return decodeObject(x)
	case []any:
		if len(x) == 0 {
			return nil, false
		}
		return asObject(x[0])
	case []map[string]any:
		if len(x) == 0 {
			return nil, false
		}
		return x[0], len(x[0]) > 0
	}
	return nil, false
}

func decodeObject(b []byte) (map[string]any, bool) {
	s := strings.TrimSpace(string(b))
	if !strings.HasPrefix(s, "{") {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, false
	}
	return m, len(m) > 0
}

// decodeEmbedding accepts float slices, lists of numbers, or a serialized
// "[0.1,0.2,...]" payload (JSON or pgvector text). Absent or empty yields nil.
func decodeEmbedding(v any) ([]float32, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case []float32:
		if len(x) == 0 {
			return nil, nil
		}
		out := make([]float32, len(x))
		copy(out, x)
		return out, nil
	case []float64:
		if len(x) == 0 {
			return nil, nil
		}
		out := make([]float32, len(x))
		for i, f := range x {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		if len(x) == 0 {
			return nil, nil
		}
		out := make([]float32, len(x))
		for i, e := range x {
			f, err := toFloat(e)
			if err != nil {
				return nil, fmt.Errorf("embedding[%d]: %w", i, err)
			}
			out[i] = float32(f)
		}
		return out, nil
	case string:
		return parseEmbeddingText(x)
	case []byte:
		return parseEmbeddingText(string(x))
	}
	return nil, fmt.Errorf("unsupported embedding type %T", v)
}

func parseEmbeddingText(s string) ([]float32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if !strings.HasPrefix(s, "[") {
		return nil, fmt.Errorf("embedding is not a list")
	}
	var floats []float64
	if err := json.Unmarshal([]byte(s), &floats); err != nil {
		return nil, fmt.Errorf("decode embedding: %w", err)
	}
	return decodeEmbedding(floats)
}

func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case json.Number:
		return x.Float64()
	case string:
		return strconv.ParseFloat(strings.TrimSpace(x), 64)
	}
	return 0, fmt.Errorf("not a number: %T", v)
}
