// Package record defines the typed row structures flowing through the
// pipeline and their decoding from canonical tables.
//
// Each source entity has an explicit struct (Contact, Place, TechTag,
// Mapping) instead of a column-name-keyed dynamic frame; the merged and
// materialized shapes are Merged and FlattenedRecord. Decoding is lenient:
// a cell that fails to parse becomes a nil field, never a failed run.
package record
