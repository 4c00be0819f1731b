package db

import (
	"errors"
	"fmt"
	"strings"
)

// DistanceMetric used by FT.SEARCH vector similarity queries.
type DistanceMetric string

const (
	// DistanceCosine is cosine distance: 0 for identical direction, 2 for opposite.
	DistanceCosine DistanceMetric = "COSINE"
	// DistanceIP is inner product distance.
	DistanceIP DistanceMetric = "IP"
)

// FieldKind enumerates the FT field types a JSON index can declare.
type FieldKind int

const (
	// FieldNumeric is a NUMERIC field.
	FieldNumeric FieldKind = iota
	// FieldTag is a TAG field.
	FieldTag
	// FieldText is a full-text TEXT field.
	FieldText
	// FieldVector is an HNSW VECTOR field.
	FieldVector
)

func (k FieldKind) String() string {
	switch k {
	case FieldNumeric:
		return "NUMERIC"
	case FieldTag:
		return "TAG"
	case FieldText:
		return "TEXT"
	case FieldVector:
		return "VECTOR"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// HNSW holds the parameters of an HNSW vector field. Vectors are FLOAT32.
type HNSW struct {
	Dim            int
	Distance       DistanceMetric // defaults to COSINE
	M              int            // max edges per node; 0 leaves the server default
	EFConstruction int            // build-time candidate list size; 0 leaves the server default
}

// Field is one attribute of a JSON index: a JSON path exposed under an alias.
// Queries always address fields by alias.
type Field struct {
	Path  string // e.g. "$.title"
	Alias string
	Kind  FieldKind

	Weight        float64 // TEXT only; 0 leaves the server default (1.0)
	Separator     string  // TAG only
	CaseSensitive bool    // TAG only
	IndexMissing  bool    // allow ismissing(@alias) queries
	Sortable      bool    // ignored for vectors

	Vector *HNSW // VECTOR only
}

// IndexDefinition is a search index over the JSON documents under one key prefix.
type IndexDefinition struct {
	Name   string
	Prefix string
	Fields []Field
}

// Validate checks that the definition can be sent to FT.CREATE.
func (idx *IndexDefinition) Validate() error {
	if idx.Name == "" {
		return errors.New("index name is required")
	}
	if strings.ContainsAny(idx.Name, " \t\r\n") {
		return fmt.Errorf("index name %q contains whitespace", idx.Name)
	}
	if len(idx.Fields) == 0 {
		return errors.New("at least one field is required")
	}

	seen := make(map[string]bool, len(idx.Fields))
	for i := range idx.Fields {
		if err := idx.Fields[i].validate(); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		alias := idx.Fields[i].Alias
		if seen[alias] {
			return fmt.Errorf("duplicate field alias %q", alias)
		}
		seen[alias] = true
	}
	return nil
}

func (f *Field) validate() error {
	switch {
	case !strings.HasPrefix(f.Path, "$"):
		return fmt.Errorf("path %q is not a JSON path", f.Path)
	case f.Alias == "":
		return fmt.Errorf("path %s has no alias", f.Path)
	case f.Weight < 0:
		return fmt.Errorf("negative weight on %s", f.Alias)
	case f.Weight > 0 && f.Kind != FieldText:
		return fmt.Errorf("weight on %s field %s", f.Kind, f.Alias)
	case f.Separator != "" && f.Kind != FieldTag:
		return fmt.Errorf("separator on %s field %s", f.Kind, f.Alias)
	}
	if f.Kind == FieldVector && (f.Vector == nil || f.Vector.Dim <= 0) {
		return fmt.Errorf("vector field %s requires a positive dimension", f.Alias)
	}
	if f.Kind != FieldVector && f.Vector != nil {
		return fmt.Errorf("HNSW parameters on %s field %s", f.Kind, f.Alias)
	}
	return nil
}
