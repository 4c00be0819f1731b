package index

import (
	"github.com/mapletenders/tenderindex/internal/db"
)

// Searchable field names (aliases) shared with the query side.
const (
	FieldTitle                = "title"
	FieldDescription          = "tender_description"
	FieldSummary              = "precomputed_summary"
	FieldGSINDescription      = "gsin_description"
	FieldUNSPSCDescription    = "unspsc_description"
	FieldEntityName           = "contracting_entity_name"
	FieldSelectionCriteria    = "selection_criteria"
	FieldStatus               = "tender_status"
	FieldNoticeType           = "notice_type"
	FieldProcurementMethod    = "procurement_method"
	FieldCategory             = "procurement_category"
	FieldRegionsOfDelivery    = "regions_of_delivery"
	FieldRegionsOfOpportunity = "regions_of_opportunity"
	FieldEntityProvince       = "contracting_entity_province"
	FieldEntityTag            = "contracting_entity_tag"
	FieldPublicationTS        = "publication_ts"
	FieldClosingTS            = "closing_ts"
	FieldClosingDate          = "tender_closing_date"
	FieldEmbedding            = "embedding"
	tagSeparator              = ","
	entityTagSeparator        = "|"
)

// textWeights are the relative BM25 weights of the full-text fields.
// BM25 over @title|description|... sums the matching fields' contributions,
// which approximates a best-fields match rather than reproducing it.
var textWeights = []struct {
	field  string
	weight float64
}{
	{FieldTitle, 3},
	{FieldDescription, 2},
	{FieldSummary, 2},
	{FieldGSINDescription, 1.5},
	{FieldUNSPSCDescription, 1.5},
	{FieldEntityName, 1},
	{FieldSelectionCriteria, 1},
}

// TextFields returns the full-text field names in weight order.
func TextFields() []string {
	out := make([]string, len(textWeights))
	for i, tw := range textWeights {
		out[i] = tw.field
	}
	return out
}

var tagFields = []string{
	FieldNoticeType,
	FieldProcurementMethod,
	FieldCategory,
	FieldRegionsOfDelivery,
	FieldRegionsOfOpportunity,
	FieldEntityProvince,
	"contracting_entity_city",
	"contracting_entity_country",
	"end_user_entities_province",
	"gsin",
	"unspsc",
}

// buildIndex creates the tender index definition: weighted TEXT fields, TAG filters,
// sortable epoch dates and the HNSW cosine vector field.
func buildIndex(name, prefix string, vectorDim int, hnsw HNSWConfig) (*db.IndexDefinition, error) {
	b := db.NewJSONIndex(name, prefix)

	for _, tw := range textWeights {
		b.Text(tw.field, tw.weight)
	}

	b.Tag(FieldStatus, db.TagOptions{Separator: tagSeparator, IndexMissing: true})
	for _, f := range tagFields {
		b.Tag(f, db.TagOptions{Separator: tagSeparator})
	}
	// Whole-name tag for exact entity filters; names may contain commas.
	b.TagAt("$."+FieldEntityName, FieldEntityTag, db.TagOptions{Separator: entityTagSeparator})

	b.SortableNumeric(FieldPublicationTS)
	b.SortableNumeric(FieldClosingTS)

	b.Vector(FieldEmbedding, db.HNSW{
		Dim:            vectorDim,
		Distance:       db.DistanceCosine,
		M:              hnsw.M,
		EFConstruction: hnsw.EFConstruct,
	})

	return b.Build()
}
