// Package predicate defines the structured filter predicates produced by the
// shorthand translator and consumed by the query executor.
//
// Predicate is a sealed interface - only types in this package implement it.
// The marker method pattern prevents external implementations and enables
// exhaustive type switches in backend compilers. Term values live only in
// predicate fields; they are bound as parameters at compile time and are
// never concatenated into statement text.
//
// Predicate types:
//   - Contains: case-insensitive substring match on a text field
//   - Compare: numeric comparison of a field against a literal
//   - HasExternalID: presence of a CRM external ID (sfdc, hubspot, either)
//   - And: conjunction - all predicates must hold
//   - FullText: all terms match the document column
package predicate
