package mapper

import "github.com/mapletenders/tenderindex/internal/domain/tender"

// attribute describes how one canonical document field is resolved from a source record.
// Nested paths are tried first, in order, then flat keys, in order.
type attribute struct {
	field  string
	nested []path
	flat   []string
	ref    func(d *tender.Document) *string
}

// path addresses a value inside nested objects: path{"classification", "gsin", "code"}.
type path []string

// attributes is the resolution table. The first flat key is the canonical index field name
// and is what Render writes in the flat shape; the first nested path is what it writes in the
// nested shape.
var attributes = []attribute{
	{field: "reference_number", flat: []string{"reference_number", "source_reference"},
		ref: func(d *tender.Document) *string { return &d.ReferenceNumber }},
	{field: "solicitation_number", flat: []string{"solicitation_number"},
		ref: func(d *tender.Document) *string { return &d.SolicitationNumber }},

	{field: "title", flat: []string{"title"},
		ref: func(d *tender.Document) *string { return &d.Title }},
	{field: "tender_description", flat: []string{"tender_description", "description"},
		ref: func(d *tender.Document) *string { return &d.TenderDescription }},
	{field: "precomputed_summary", flat: []string{"precomputed_summary", "summary"},
		ref: func(d *tender.Document) *string { return &d.PrecomputedSummary }},

	{field: "publication_date", flat: []string{"publication_date", "published_date"},
		ref: func(d *tender.Document) *string { return &d.PublicationDate }},
	{field: "tender_closing_date", flat: []string{"tender_closing_date", "closing_date"},
		ref: func(d *tender.Document) *string { return &d.TenderClosingDate }},
	{field: "expected_contract_start_date", flat: []string{"expected_contract_start_date", "contract_start_date"},
		ref: func(d *tender.Document) *string { return &d.ExpectedContractStartDate }},
	{field: "expected_contract_end_date", flat: []string{"expected_contract_end_date", "contract_end_date"},
		ref: func(d *tender.Document) *string { return &d.ExpectedContractEndDate }},
	{field: "amendment_date", flat: []string{"amendment_date"},
		ref: func(d *tender.Document) *string { return &d.AmendmentDate }},

	{field: "tender_status", flat: []string{"tender_status", "status"},
		ref: func(d *tender.Document) *string { return &d.TenderStatus }},
	{field: "notice_type", flat: []string{"notice_type", "procurement_type"},
		ref: func(d *tender.Document) *string { return &d.NoticeType }},
	{field: "procurement_method", flat: []string{"procurement_method"},
		ref: func(d *tender.Document) *string { return &d.ProcurementMethod }},
	{field: "procurement_category", flat: []string{"procurement_category", "category_primary"},
		ref: func(d *tender.Document) *string { return &d.ProcurementCategory }},

	{field: "regions_of_delivery", flat: []string{"regions_of_delivery", "delivery_location"},
		ref: func(d *tender.Document) *string { return &d.RegionsOfDelivery }},
	{field: "regions_of_opportunity", flat: []string{"regions_of_opportunity"},
		ref: func(d *tender.Document) *string { return &d.RegionsOfOpportunity }},

	{field: "contracting_entity_name", nested: []path{{"contracting_entity", "name"}},
		flat: []string{"contracting_entity_name"},
		ref:  func(d *tender.Document) *string { return &d.ContractingEntityName }},
	{field: "contracting_entity_city", nested: []path{{"contracting_entity", "city"}},
		flat: []string{"contracting_entity_city"},
		ref:  func(d *tender.Document) *string { return &d.ContractingEntityCity }},
	{field: "contracting_entity_province", nested: []path{{"contracting_entity", "province"}},
		flat: []string{"contracting_entity_province"},
		ref:  func(d *tender.Document) *string { return &d.ContractingEntityProvince }},
	{field: "contracting_entity_country", nested: []path{{"contracting_entity", "country"}},
		flat: []string{"contracting_entity_country"},
		ref:  func(d *tender.Document) *string { return &d.ContractingEntityCountry }},
	{field: "contracting_entity_email", nested: []path{{"contracting_entity", "email"}},
		flat: []string{"contracting_entity_email"},
		ref:  func(d *tender.Document) *string { return &d.ContractingEntityEmail }},
	{field: "contracting_entity_phone", nested: []path{{"contracting_entity", "phone"}},
		flat: []string{"contracting_entity_phone"},
		ref:  func(d *tender.Document) *string { return &d.ContractingEntityPhone }},

	{field: "end_user_entities_name",
		nested: []path{{"end_user_entity", "name"}, {"end_user_entities", "name"}},
		flat:   []string{"end_user_entities_name"},
		ref:    func(d *tender.Document) *string { return &d.EndUserEntitiesName }},
	{field: "end_user_entities_city",
		nested: []path{{"end_user_entity", "city"}, {"end_user_entities", "city"}},
		flat:   []string{"end_user_entities_city"},
		ref:    func(d *tender.Document) *string { return &d.EndUserEntitiesCity }},
	{field: "end_user_entities_province",
		nested: []path{{"end_user_entity", "province"}, {"end_user_entities", "province"}},
		flat:   []string{"end_user_entities_province"},
		ref:    func(d *tender.Document) *string { return &d.EndUserEntitiesProvince }},

	{field: "contact_name", nested: []path{{"contact", "name"}, {"primary_contact", "name"}},
		flat: []string{"contact_name"},
		ref:  func(d *tender.Document) *string { return &d.ContactName }},
	{field: "contact_email", nested: []path{{"contact", "email"}, {"primary_contact", "email"}},
		flat: []string{"contact_email"},
		ref:  func(d *tender.Document) *string { return &d.ContactEmail }},
	{field: "contact_phone", nested: []path{{"contact", "phone"}, {"primary_contact", "phone"}},
		flat: []string{"contact_phone"},
		ref:  func(d *tender.Document) *string { return &d.ContactPhone }},
	{field: "contact_province", nested: []path{{"contact", "province"}, {"primary_contact", "province"}},
		flat: []string{"contact_province"},
		ref:  func(d *tender.Document) *string { return &d.ContactProvince }},
	{field: "contact_city", nested: []path{{"contact", "city"}, {"primary_contact", "city"}},
		flat: []string{"contact_city"},
		ref:  func(d *tender.Document) *string { return &d.ContactCity }},

	{field: "gsin", nested: []path{{"gsin", "code"}, {"classification", "gsin", "code"}},
		flat: []string{"gsin"},
		ref:  func(d *tender.Document) *string { return &d.GSIN }},
	{field: "gsin_description",
		nested: []path{{"gsin", "description"}, {"classification", "gsin", "description"}},
		flat:   []string{"gsin_description"},
		ref:    func(d *tender.Document) *string { return &d.GSINDescription }},
	{field: "unspsc", nested: []path{{"unspsc", "code"}, {"classification", "unspsc", "code"}},
		flat: []string{"unspsc"},
		ref:  func(d *tender.Document) *string { return &d.UNSPSC }},
	{field: "unspsc_description",
		nested: []path{{"unspsc", "description"}, {"classification", "unspsc", "description"}},
		flat:   []string{"unspsc_description"},
		ref:    func(d *tender.Document) *string { return &d.UNSPSCDescription }},

	{field: "trade_agreements", flat: []string{"trade_agreements"},
		ref: func(d *tender.Document) *string { return &d.TradeAgreements }},
	{field: "selection_criteria", flat: []string{"selection_criteria"},
		ref: func(d *tender.Document) *string { return &d.SelectionCriteria }},
	{field: "limited_tendering_reason", flat: []string{"limited_tendering_reason"},
		ref: func(d *tender.Document) *string { return &d.LimitedTenderingReason }},
	{field: "amendment_number", flat: []string{"amendment_number"},
		ref: func(d *tender.Document) *string { return &d.AmendmentNumber }},
	{field: "attachments", flat: []string{"attachments"},
		ref: func(d *tender.Document) *string { return &d.Attachments }},
	{field: "notice_url", flat: []string{"notice_url", "source_url"},
		ref: func(d *tender.Document) *string { return &d.NoticeURL }},
}

const (
	fieldID             = "id"
	fieldEmbedding      = "embedding"
	fieldEmbeddingInput = "embedding_input"
)
