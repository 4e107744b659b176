// Package merge joins the normalized, typed tables into one row per contact.
//
// Fanout avoidance is the core invariant here: tags are pre-aggregated per
// place BEFORE any join, so every join is one-to-one on the contact side.
// Joining raw tag rows against contacts would multiply each contact by its
// place's tag count, which must never happen.
package merge

import (
	"fmt"
	"log/slog"

	"github.com/kreespyn/flatdata/internal/record"
)

// Merge left-joins contacts to places, pre-aggregated tags, and both
// customer-ID mapping variants on place_id.
//
// Guarantees:
//   - result row count == len(contacts), regardless of tag or mapping
//     cardinality
//   - contacts without a matching place are kept with nil place fields
//   - at most one external ID per variant per place (keep-first policy;
//     duplicates are logged and dropped)
//
// Empty contacts or places make flattening impossible and return an error;
// empty tags or mappings are normal.
func Merge(
	contacts []record.Contact,
	places []record.Place,
	tags []record.TechTag,
	sfdc []record.Mapping,
	hubspot []record.Mapping,
) ([]record.Merged, error) {
	if len(contacts) == 0 {
		return nil, fmt.Errorf("no contacts to flatten")
	}
	if len(places) == 0 {
		return nil, fmt.Errorf("no places to flatten against")
	}

	placeByID := make(map[string]*record.Place, len(places))
	for i := range places {
		p := &places[i]
		if _, dup := placeByID[p.PlaceID]; dup {
			// place_id is the unique entity key; a duplicate is dirty source
			// data and the first row wins, same as the mapping policy.
			slog.Warn("duplicate place row dropped", "place_id", p.PlaceID)
			continue
		}
		placeByID[p.PlaceID] = p
	}

	tagsByPlace := aggregateTags(tags)
	sfdcByPlace := collapseMappings(sfdc, string(record.VariantSFDC))
	hubspotByPlace := collapseMappings(hubspot, string(record.VariantHubSpot))

	out := make([]record.Merged, 0, len(contacts))
	for _, c := range contacts {
		m := record.Merged{
			Contact:  c,
			Place:    placeByID[c.PlaceID],
			TagNames: tagsByPlace[c.PlaceID],
		}
		if id, ok := sfdcByPlace[c.PlaceID]; ok {
			m.SFDCID = &id
		}
		if id, ok := hubspotByPlace[c.PlaceID]; ok {
			m.HubspotID = &id
		}
		out = append(out, m)
	}
	return out, nil
}

// aggregateTags groups tag names by place in insertion order. This runs
// before any join - the fanout-avoidance step.
func aggregateTags(tags []record.TechTag) map[string][]string {
	byPlace := make(map[string][]string)
	for _, t := range tags {
		byPlace[t.PlaceID] = append(byPlace[t.PlaceID], t.Name)
	}
	return byPlace
}

// collapseMappings reduces a mapping feed to at most one external ID per
// place. The feeds promise one row per place; when they lie, keep-first
// preserves the flattened row-count invariant where keeping all would
// silently fan out.
func collapseMappings(ms []record.Mapping, variant string) map[string]string {
	byPlace := make(map[string]string, len(ms))
	for _, m := range ms {
		if first, dup := byPlace[m.PlaceID]; dup {
			slog.Warn("duplicate customer mapping dropped",
				"variant", variant,
				"place_id", m.PlaceID,
				"kept", first,
				"dropped", m.ExternalID)
			continue
		}
		byPlace[m.PlaceID] = m.ExternalID
	}
	return byPlace
}
