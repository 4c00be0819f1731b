package db

import "slices"

// TagOptions configures a TAG field.
type TagOptions struct {
	Separator     string
	CaseSensitive bool
	IndexMissing  bool
}

// SchemaBuilder assembles a JSON index definition. Field methods take the
// alias; the JSON path is "$.<alias>" unless given explicitly.
type SchemaBuilder struct {
	def IndexDefinition
}

// NewJSONIndex starts a definition for the JSON documents stored under prefix.
func NewJSONIndex(name, prefix string) *SchemaBuilder {
	return &SchemaBuilder{def: IndexDefinition{Name: name, Prefix: prefix}}
}

// Text adds a weighted TEXT field.
func (b *SchemaBuilder) Text(alias string, weight float64) *SchemaBuilder {
	return b.add(Field{Path: rootPath(alias), Alias: alias, Kind: FieldText, Weight: weight})
}

// Tag adds a TAG field.
func (b *SchemaBuilder) Tag(alias string, opts TagOptions) *SchemaBuilder {
	return b.TagAt(rootPath(alias), alias, opts)
}

// TagAt adds a TAG field over an explicit path, for indexing one JSON value twice.
func (b *SchemaBuilder) TagAt(path, alias string, opts TagOptions) *SchemaBuilder {
	return b.add(Field{
		Path:          path,
		Alias:         alias,
		Kind:          FieldTag,
		Separator:     opts.Separator,
		CaseSensitive: opts.CaseSensitive,
		IndexMissing:  opts.IndexMissing,
	})
}

// SortableNumeric adds a NUMERIC SORTABLE field.
func (b *SchemaBuilder) SortableNumeric(alias string) *SchemaBuilder {
	return b.add(Field{Path: rootPath(alias), Alias: alias, Kind: FieldNumeric, Sortable: true})
}

// Vector adds an HNSW vector field.
func (b *SchemaBuilder) Vector(alias string, params HNSW) *SchemaBuilder {
	if params.Distance == "" {
		params.Distance = DistanceCosine
	}
	return b.add(Field{Path: rootPath(alias), Alias: alias, Kind: FieldVector, Vector: &params})
}

// Build validates and returns the definition.
func (b *SchemaBuilder) Build() (*IndexDefinition, error) {
	if err := b.def.Validate(); err != nil {
		return nil, err
	}
	def := b.def
	def.Fields = slices.Clone(b.def.Fields)
	return &def, nil
}

func (b *SchemaBuilder) add(f Field) *SchemaBuilder {
	b.def.Fields = append(b.def.Fields, f)
	return b
}

func rootPath(alias string) string { return "$." + alias }
