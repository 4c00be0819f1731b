package mapper

import (
	"errors"
	"reflect"
	"slices"
	"testing"

	"github.com/mapletenders/tenderindex/internal/domain"
	"github.com/mapletenders/tenderindex/internal/domain/tender"
)

type fieldCheck struct {
	name, got, want string
}

func checkFields(t *testing.T, checks []fieldCheck) {
	t.Helper()
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %q, want %q", c.name, c.got, c.want)
		}
	}
}

func mustMap(t *testing.T, rec tender.Record) tender.Document {
	t.Helper()
	doc, err := Map(rec)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	return doc
}

func TestMap_FlatRecord(t *testing.T) {
	// legacy flat row
	rec := tender.Record{
		"id":                          "T-1",
		"title":                       "  Snow removal services  ",
		"tender_description":          "Winter maintenance of parking lots",
		"tender_status":               "Open",
		"tender_closing_date":         "2025-03-01T14:00:00Z",
		"publication_date":            "2025-01-15",
		"regions_of_delivery":         []any{"Ontario", "Quebec"},
		"contracting_entity_name":     "Public Works",
		"contracting_entity_province": "Ontario",
		"gsin":                        "S206",
		"gsin_description":            "Snow removal",
	}

	doc := mustMap(t, rec)

	checkFields(t, []fieldCheck{
		{"ID", doc.ID, "T-1"},
		{"Title", doc.Title, "Snow removal services"},
		{"TenderStatus", doc.TenderStatus, "Open"},
		{"RegionsOfDelivery", doc.RegionsOfDelivery, "Ontario, Quebec"},
		{"ContractingEntityName", doc.ContractingEntityName, "Public Works"},
		{"GSIN", doc.GSIN, "S206"},
	})
	if doc.ClosingTS == nil || *doc.ClosingTS != 1740837600 {
		t.Errorf("ClosingTS = %v, want 1740837600", doc.ClosingTS)
	}
	if doc.PublicationTS == nil || *doc.PublicationTS != 1736899200 {
		t.Errorf("PublicationTS = %v, want 1736899200", doc.PublicationTS)
	}
}

func TestMap_NestedWinsOverFlat(t *testing.T) {
	// both shapes with conflicting values
	rec := tender.Record{
		"id": "T-2",
		"contracting_entity": map[string]any{
			"name":     "Nested Entity",
			"province": "Alberta",
		},
		"contracting_entity_name": "Flat Entity",
		"contracting_entity_city": "Calgary",
	}

	doc := mustMap(t, rec)

	checkFields(t, []fieldCheck{
		{"ContractingEntityName", doc.ContractingEntityName, "Nested Entity"},
		{"ContractingEntityProvince", doc.ContractingEntityProvince, "Alberta"},
		// absent from the nested object, so the flat column fills in
		{"ContractingEntityCity", doc.ContractingEntityCity, "Calgary"},
	})
}

func TestMap_EmptyNestedFallsBackToFlat(t *testing.T) {
	rec := tender.Record{
		"id":                      "T-3",
		"contracting_entity":      map[string]any{},
		"contracting_entity_name": "Flat Entity",
		"contact":                 map[string]any{"name": "   "},
		"contact_name":            "Jane Roe",
	}

	doc := mustMap(t, rec)

	checkFields(t, []fieldCheck{
		{"ContractingEntityName", doc.ContractingEntityName, "Flat Entity"},
		{"ContactName", doc.ContactName, "Jane Roe"},
	})
}

func TestMap_NestedFallbackOrder(t *testing.T) {
	tests := []struct {
		name string
		rec  tender.Record
		want func(d tender.Document) []fieldCheck
	}{
		{
			name: "end_user_entities after end_user_entity",
			rec: tender.Record{
				"id":                "a",
				"end_user_entities": []any{map[string]any{"name": "Health Canada", "city": "Ottawa"}},
			},
			want: func(d tender.Document) []fieldCheck {
				return []fieldCheck{
					{"EndUserEntitiesName", d.EndUserEntitiesName, "Health Canada"},
					{"EndUserEntitiesCity", d.EndUserEntitiesCity, "Ottawa"},
				}
			},
		},
		{
			name: "primary_contact after contact",
			rec: tender.Record{
				"id":              "b",
				"primary_contact": map[string]any{"email": "buyer@example.ca"},
			},
			want: func(d tender.Document) []fieldCheck {
				return []fieldCheck{{"ContactEmail", d.ContactEmail, "buyer@example.ca"}}
			},
		},
		{
			name: "classification gsin and unspsc",
			rec: tender.Record{
				"id": "c",
				"classification": map[string]any{
					"gsin":   map[string]any{"code": "N7010", "description": "ADP systems"},
					"unspsc": map[string]any{"code": 43211500, "description": "Computers"},
				},
			},
			want: func(d tender.Document) []fieldCheck {
				return []fieldCheck{
					{"GSIN", d.GSIN, "N7010"},
					{"GSINDescription", d.GSINDescription, "ADP systems"},
					{"UNSPSC", d.UNSPSC, "43211500"},
					{"UNSPSCDescription", d.UNSPSCDescription, "Computers"},
				}
			},
		},
		{
			name: "nested object serialized as JSON text",
			rec: tender.Record{
				"id":                 "d",
				"contracting_entity": `{"name": "Shared Services", "country": "Canada"}`,
			},
			want: func(d tender.Document) []fieldCheck {
				return []fieldCheck{
					{"ContractingEntityName", d.ContractingEntityName, "Shared Services"},
					{"ContractingEntityCountry", d.ContractingEntityCountry, "Canada"},
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustMap(t, tc.rec)
			checkFields(t, tc.want(doc))
		})
	}
}

func TestMap_FlatAliases(t *testing.T) {
	rec := tender.Record{
		"id":                  "T-4",
		"description":         "Older description column",
		"summary":             "Short summary",
		"status":              "active",
		"published_date":      "2025-02-01",
		"closing_date":        "2025-02-20",
		"contract_start_date": "2025-04-01",
		"delivery_location":   "British Columbia",
		"category_primary":    "SRV",
		"procurement_type":    "RFP",
		"source_reference":    "PW-25-001",
		"source_url":          "https://buyandsell.example/T-4",
	}

	doc := mustMap(t, rec)

	checkFields(t, []fieldCheck{
		{"TenderDescription", doc.TenderDescription, "Older description column"},
		{"PrecomputedSummary", doc.PrecomputedSummary, "Short summary"},
		{"TenderStatus", doc.TenderStatus, "active"},
		{"PublicationDate", doc.PublicationDate, "2025-02-01"},
		{"TenderClosingDate", doc.TenderClosingDate, "2025-02-20"},
		{"ExpectedContractStartDate", doc.ExpectedContractStartDate, "2025-04-01"},
		{"RegionsOfDelivery", doc.RegionsOfDelivery, "British Columbia"},
		{"ProcurementCategory", doc.ProcurementCategory, "SRV"},
		{"NoticeType", doc.NoticeType, "RFP"},
		{"ReferenceNumber", doc.ReferenceNumber, "PW-25-001"},
		{"NoticeURL", doc.NoticeURL, "https://buyandsell.example/T-4"},
	})
}

func TestMap_CanonicalBeatsAlias(t *testing.T) {
	doc := mustMap(t, tender.Record{
		"id":                 "T-5",
		"tender_description": "Canonical",
		"description":        "Alias",
	})

	if doc.TenderDescription != "Canonical" {
		t.Errorf("TenderDescription = %q, want Canonical", doc.TenderDescription)
	}
}

func TestMap_EmptyDatesAreAbsent(t *testing.T) {
	doc := mustMap(t, tender.Record{
		"id":                  "T-6",
		"tender_closing_date": "",
		"publication_date":    "   ",
		"amendment_date":      nil,
	})

	checkFields(t, []fieldCheck{
		{"TenderClosingDate", doc.TenderClosingDate, ""},
		{"PublicationDate", doc.PublicationDate, ""},
		{"AmendmentDate", doc.AmendmentDate, ""},
	})
	if doc.ClosingTS != nil || doc.PublicationTS != nil {
		t.Errorf("expected no epoch keys, got %v %v", doc.ClosingTS, doc.PublicationTS)
	}
}

func TestMap_ScalarCoercion(t *testing.T) {
	doc := mustMap(t, tender.Record{
		"id":               42,
		"amendment_number": 3,
		"trade_agreements": []string{"CFTA", "CETA"},
		"attachments":      true,
		"selection_criteria": map[string]any{
			"ignored": "objects are not scalars",
		},
	})

	checkFields(t, []fieldCheck{
		{"ID", doc.ID, "42"},
		{"AmendmentNumber", doc.AmendmentNumber, "3"},
		{"TradeAgreements", doc.TradeAgreements, "CFTA, CETA"},
		{"Attachments", doc.Attachments, "true"},
		{"SelectionCriteria", doc.SelectionCriteria, ""},
	})
}

func TestMap_MissingID(t *testing.T) {
	for _, rec := range []tender.Record{
		{"title": "no id"},
		{"id": "   "},
		{"id": nil},
	} {
		if _, err := Map(rec); !errors.Is(err, domain.ErrInvalidRecord) {
			t.Errorf("Map(%v): err = %v, want ErrInvalidRecord", rec, err)
		}
	}
}

func TestMap_Embedding(t *testing.T) {
	want := []float32{0.5, -0.25, 1}
	tests := []struct {
		name    string
		payload any
	}{
		{"float32 slice", []float32{0.5, -0.25, 1}},
		{"float64 slice", []float64{0.5, -0.25, 1}},
		{"any slice", []any{0.5, -0.25, 1}},
		{"json text", "[0.5, -0.25, 1]"},
		{"pgvector text", []byte("[0.5,-0.25,1]")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustMap(t, tender.Record{"id": "e", "embedding": tc.payload})
			if !slices.Equal(doc.Embedding, want) {
				t.Errorf("Embedding = %v, want %v", doc.Embedding, want)
			}
		})
	}
}

func TestMap_EmbeddingAbsent(t *testing.T) {
	for _, payload := range []any{nil, "", []float64{}} {
		doc := mustMap(t, tender.Record{"id": "e", "embedding": payload})
		if doc.HasEmbedding() {
			t.Errorf("payload %#v: expected no embedding, got %v", payload, doc.Embedding)
		}
	}
}

func TestMap_EmbeddingUndecodable(t *testing.T) {
	for _, payload := range []any{"not a vector", "[1, 2,", []any{1.0, "x"}, map[string]any{"a": 1}} {
		if _, err := Map(tender.Record{"id": "e", "embedding": payload}); !errors.Is(err, domain.ErrInvalidRecord) {
			t.Errorf("payload %#v: err = %v, want ErrInvalidRecord", payload, err)
		}
	}
}

func TestMap_EmbeddingInputCarriedUnchanged(t *testing.T) {
	input := "Title: Snow removal\nDescription: Parking lots\n"

	doc := mustMap(t, tender.Record{"id": "e", "embedding_input": input})

	if doc.EmbeddingInput != input {
		t.Errorf("EmbeddingInput = %q, want %q", doc.EmbeddingInput, input)
	}
}

func TestRender_RoundTrip(t *testing.T) {
	rec := tender.Record{
		"id":                  "T-9",
		"title":               "Bridge inspection",
		"description":         "Annual inspection of municipal bridges",
		"status":              "open",
		"closing_date":        "2025-06-30T12:00:00Z",
		"regions_of_delivery": []any{"Nova Scotia"},
		"contracting_entity": map[string]any{
			"name": "Transport Canada",
			"city": "Halifax",
		},
		"primary_contact": map[string]any{"phone": "555-0100"},
		"classification": map[string]any{
			"gsin": map[string]any{"code": "H399", "description": "Inspection"},
		},
		"embedding":       []float64{0.1, 0.2, 0.3},
		"embedding_input": "Title: Bridge inspection",
	}

	doc := mustMap(t, rec)

	for _, shape := range []Shape{ShapeFlat, ShapeNested} {
		again := mustMap(t, Render(doc, shape))
		if !reflect.DeepEqual(doc, again) {
			t.Errorf("shape %d: round trip changed the document:\n got %+v\nwant %+v", shape, again, doc)
		}
	}
}

func TestRender_Shapes(t *testing.T) {
	doc := tender.Document{
		ID:                    "T-10",
		Title:                 "Janitorial",
		ContractingEntityName: "Parks Canada",
		GSIN:                  "S201",
	}

	flat := Render(doc, ShapeFlat)
	if flat["contracting_entity_name"] != "Parks Canada" || flat["gsin"] != "S201" {
		t.Errorf("flat shape = %v", flat)
	}
	if _, ok := flat["contracting_entity"]; ok {
		t.Error("flat shape should not carry nested objects")
	}

	nested := Render(doc, ShapeNested)
	if !reflect.DeepEqual(nested["contracting_entity"], map[string]any{"name": "Parks Canada"}) {
		t.Errorf("contracting_entity = %v", nested["contracting_entity"])
	}
	if !reflect.DeepEqual(nested["gsin"], map[string]any{"code": "S201"}) {
		t.Errorf("gsin = %v", nested["gsin"])
	}
	if nested["title"] != "Janitorial" {
		t.Errorf("title = %v", nested["title"])
	}
	if _, ok := nested["contracting_entity_name"]; ok {
		t.Error("nested shape should not carry flat entity columns")
	}
}

func TestProject_NoIDRequired(t *testing.T) {
	doc := Project(tender.Record{
		"title":           "Snow removal",
		"description":     "Winter roads",
		"end_user_entity": map[string]any{"name": "Public Works"},
		"embedding":       "not a vector",
	})

	checkFields(t, []fieldCheck{
		{"ID", doc.ID, ""},
		{"Title", doc.Title, "Snow removal"},
		{"TenderDescription", doc.TenderDescription, "Winter roads"},
		{"EndUserEntitiesName", doc.EndUserEntitiesName, "Public Works"},
	})
	if doc.Embedding != nil {
		t.Errorf("Embedding = %v, want nil", doc.Embedding)
	}
}
