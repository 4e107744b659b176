// Package tabular provides the raw table frame and the schema normalizer
// for the ingestion side of the pipeline.
//
// A Table is a dumb rectangular frame: a header row plus string cells. No
// typing happens here - typed decoding lives in internal/record. The
// normalizer canonicalizes a frame so that downstream decoding can rely on:
//
//   - lower-cased column names
//   - whitespace-trimmed cells
//   - no exact-duplicate rows
//   - contacts: a contiguous 1-based "id" column and timezone-annotation-free
//     created_at text
//
// Normalization is idempotent: Normalize(Normalize(t)) == Normalize(t), and
// likewise for NormalizeContacts. This property is load-bearing - re-running
// the pipeline over an already-canonical export must not change anything.
package tabular
