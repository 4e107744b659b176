package record

import "time"

// Contact is one row of the contacts source after normalization and decode.
type Contact struct {
	ID        int64
	PlaceID   string
	Emails    string
	Title     string
	CreatedAt *time.Time // nil when the source timestamp is unparsable
}

// Place is one row of the entities (places) source.
type Place struct {
	PlaceID         string
	DisplayName     string
	PopEstimate2022 *float64
	Lat             *float64
	Long            *float64
}

// TechTag is one technology-stack tag attached to a place.
// Zero or more tags exist per place.
type TechTag struct {
	PlaceID string
	Name    string
}

// MappingVariant identifies which external customer-ID feed a mapping
// row came from.
type MappingVariant string

const (
	VariantSFDC    MappingVariant = "sfdc"
	VariantHubSpot MappingVariant = "hubspot"
)

// Mapping links a place to an external customer ID in one CRM variant.
type Mapping struct {
	ExternalID string
	PlaceID    string
}

// Merged is the join output for one contact: contact fields, optional place
// fields, the place's tag names in insertion order, and at most one external
// ID per mapping variant. One Merged row exists per normalized contact,
// regardless of tag or mapping cardinality.
type Merged struct {
	Contact   Contact
	Place     *Place // nil when the contact's place_id has no entity row
	TagNames  []string
	SFDCID    *string
	HubspotID *string
}

// FlattenedRecord is one row of the materialized flattened_data set.
// Place-derived fields are nil for contacts without a matching entity.
type FlattenedRecord struct {
	ContactID       int64
	Emails          string
	Title           string
	DisplayName     *string
	PopEstimate2022 *float64
	Lat             *float64
	Long            *float64
	TechNames       string
	SFDCID          *string
	HubspotID       *string
	Document        string
}

// FlattenedTable is the name of the materialized record set.
const FlattenedTable = "flattened_data"

// FlattenedFTSTable is the SQLite FTS5 shadow table indexing document text.
// Its rowids align with flattened_data rowids. Postgres uses an expression
// index on the data table instead and has no shadow table.
const FlattenedFTSTable = FlattenedTable + "_fts"

// FlattenedColumns lists flattened_data columns in storage order.
var FlattenedColumns = []string{
	"contact_id",
	"emails",
	"title",
	"display_name",
	"pop_estimate_2022",
	"lat",
	"long",
	"tech_names",
	"sfdc_id",
	"hubspot_id",
	"document",
}

// flattenedColumnSet is used for field validation in the query layer.
var flattenedColumnSet = func() map[string]struct{} {
	s := make(map[string]struct{}, len(FlattenedColumns))
	for _, c := range FlattenedColumns {
		s[c] = struct{}{}
	}
	return s
}()

// IsFlattenedColumn reports whether name is a column of flattened_data.
// The check is exact: callers lower-case first.
func IsFlattenedColumn(name string) bool {
	_, ok := flattenedColumnSet[name]
	return ok
}
