// Package store provides the storage backends the pipeline materializes
// into and the query executor reads from.
//
// The Backend interface is deliberately narrow - execute, bulk load, index,
// run lock - so the materializer composes primitives instead of pushing
// domain logic into the engine. Two implementations exist:
//
//   - SQLite (mattn/go-sqlite3): WAL mode, single-writer connection limits,
//     FTS5 for the full-text index. The default; good for local runs and
//     tests (":memory:").
//   - Postgres (lib/pq): tsvector GIN expression index for full text,
//     advisory locks for run exclusivity.
//
// # Run exclusivity
//
// At most one pipeline run may proceed at a time against a given target.
// AcquireRunLock enforces this: a second concurrent run fails fast with
// ErrLockHeld instead of racing the drop/rebuild of shared tables.
package store
