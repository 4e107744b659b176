package record

import (
	"strconv"
	"time"

	"github.com/kreespyn/flatdata/internal/tabular"
)

// timestampLayouts are tried in order when decoding created_at text.
// The timezone annotation has already been stripped by the normalizer.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"1/2/2006 15:04",
	"1/2/2006",
}

// DecodeContacts converts a canonical contacts table into typed rows.
// Rows without a usable id or place_id are skipped; unparsable timestamps
// become nil CreatedAt. Decode never fails for a bad cell.
func DecodeContacts(t tabular.Table) []Contact {
	out := make([]Contact, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		id, err := strconv.ParseInt(t.Cell(i, "id"), 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Contact{
			ID:        id,
			PlaceID:   t.Cell(i, "place_id"),
			Emails:    t.Cell(i, "emails"),
			Title:     t.Cell(i, "title"),
			CreatedAt: parseTimestamp(t.Cell(i, "created_at")),
		})
	}
	return out
}

// DecodePlaces converts a canonical entities table into typed rows.
// Rows without a place_id are skipped: place_id is never null for a valid
// entity and is the join key for everything downstream.
func DecodePlaces(t tabular.Table) []Place {
	out := make([]Place, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		pid := t.Cell(i, "place_id")
		if pid == "" {
			continue
		}
		out = append(out, Place{
			PlaceID:         pid,
			DisplayName:     t.Cell(i, "display_name"),
			PopEstimate2022: parseFloat(t.Cell(i, "pop_estimate_2022")),
			Lat:             parseFloat(t.Cell(i, "lat")),
			Long:            parseFloat(t.Cell(i, "long")),
		})
	}
	return out
}

// DecodeTags converts a canonical techstacks table into typed rows.
// Rows missing either key field are skipped.
func DecodeTags(t tabular.Table) []TechTag {
	out := make([]TechTag, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		pid, name := t.Cell(i, "place_id"), t.Cell(i, "name")
		if pid == "" || name == "" {
			continue
		}
		out = append(out, TechTag{PlaceID: pid, Name: name})
	}
	return out
}

// DecodeMappings converts a canonical customer-mapping table into typed
// rows. idColumn names the external-ID column for the variant ("sfdc_id"
// or "hubspot_id").
func DecodeMappings(t tabular.Table, idColumn string) []Mapping {
	out := make([]Mapping, 0, t.Len())
	for i := 0; i < t.Len(); i++ {
		ext, pid := t.Cell(i, idColumn), t.Cell(i, "place_id")
		if ext == "" || pid == "" {
			continue
		}
		out = append(out, Mapping{ExternalID: ext, PlaceID: pid})
	}
	return out
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return &ts
		}
	}
	return nil
}

func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &f
}
