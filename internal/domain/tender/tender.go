// Package tender holds the procurement tender record and its canonical index projection.
package tender

import "strings"

// Record is one raw row from the source store: opaque keys, loosely typed values.
type Record map[string]any

// ID returns the record id, trimmed, or "" when absent or not a string-like value.
func (r Record) ID() string {
	switch v := r["id"].(type) {
	case string:
		return strings.TrimSpace(v)
	case []byte:
		return strings.TrimSpace(string(v))
	case nil:
		return ""
	default:
		s, _ := Scalar(v)
		return s
	}
}

// Document is the flattened, schema-normalized tender stored in the search index.
// Every field except ID is optional; empty values are omitted from the stored JSON.
type Document struct {
	ID                 string `json:"id"`
	ReferenceNumber    string `json:"reference_number,omitempty"`
	SolicitationNumber string `json:"solicitation_number,omitempty"`

	Title              string `json:"title,omitempty"`
	TenderDescription  string `json:"tender_description,omitempty"`
	PrecomputedSummary string `json:"precomputed_summary,omitempty"`

	PublicationDate           string `json:"publication_date,omitempty"`
	TenderClosingDate         string `json:"tender_closing_date,omitempty"`
	ExpectedContractStartDate string `json:"expected_contract_start_date,omitempty"`
	ExpectedContractEndDate   string `json:"expected_contract_end_date,omitempty"`
	AmendmentDate             string `json:"amendment_date,omitempty"`

	// Epoch seconds derived from the date strings; used for range filters and sorting.
	PublicationTS *int64 `json:"publication_ts,omitempty"`
	ClosingTS     *int64 `json:"closing_ts,omitempty"`

	TenderStatus        string `json:"tender_status,omitempty"`
	NoticeType          string `json:"notice_type,omitempty"`
	ProcurementMethod   string `json:"procurement_method,omitempty"`
	ProcurementCategory string `json:"procurement_category,omitempty"`

	RegionsOfDelivery         string `json:"regions_of_delivery,omitempty"`
	RegionsOfOpportunity      string `json:"regions_of_opportunity,omitempty"`
	ContractingEntityProvince string `json:"contracting_entity_province,omitempty"`
	ContractingEntityCity     string `json:"contracting_entity_city,omitempty"`
	ContractingEntityCountry  string `json:"contracting_entity_country,omitempty"`

	ContractingEntityName  string `json:"contracting_entity_name,omitempty"`
	ContractingEntityEmail string `json:"contracting_entity_email,omitempty"`
	ContractingEntityPhone string `json:"contracting_entity_phone,omitempty"`

	EndUserEntitiesName     string `json:"end_user_entities_name,omitempty"`
	EndUserEntitiesCity     string `json:"end_user_entities_city,omitempty"`
	EndUserEntitiesProvince string `json:"end_user_entities_province,omitempty"`

	ContactName     string `json:"contact_name,omitempty"`
	ContactEmail    string `json:"contact_email,omitempty"`
	ContactPhone    string `json:"contact_phone,omitempty"`
	ContactProvince string `json:"contact_province,omitempty"`
	ContactCity     string `json:"contact_city,omitempty"`

	GSIN              string `json:"gsin,omitempty"`
	GSINDescription   string `json:"gsin_description,omitempty"`
	UNSPSC            string `json:"unspsc,omitempty"`
	UNSPSCDescription string `json:"unspsc_description,omitempty"`

	TradeAgreements        string `json:"trade_agreements,omitempty"`
	SelectionCriteria      string `json:"selection_criteria,omitempty"`
	LimitedTenderingReason string `json:"limited_tendering_reason,omitempty"`
	AmendmentNumber        string `json:"amendment_number,omitempty"`
	Attachments            string `json:"attachments,omitempty"`
	NoticeURL              string `json:"notice_url,omitempty"`

	Embedding      []float32 `json:"embedding,omitempty"`
	EmbeddingInput string    `json:"embedding_input,omitempty"`
}

// DateFields returns pointers to every date-typed field, keyed by index field name.
func (d *Document) DateFields() map[string]*string {
	return map[string]*string{
		"publication_date":             &d.PublicationDate,
		"tender_closing_date":          &d.TenderClosingDate,
		"expected_contract_start_date": &d.ExpectedContractStartDate,
		"expected_contract_end_date":   &d.ExpectedContractEndDate,
		"amendment_date":               &d.AmendmentDate,
	}
}

// HasEmbedding reports whether the document carries a vector.
func (d *Document) HasEmbedding() bool { return len(d.Embedding) > 0 }
