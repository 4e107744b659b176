package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/kreespyn/flatdata/internal/predsql"
)

// ErrLockHeld is returned by AcquireRunLock when another pipeline run holds
// the lock on this storage target.
var ErrLockHeld = errors.New("pipeline run lock is held by another run")

// Index kinds understood by CreateIndex.
const (
	// IndexFullText builds the dialect's full-text structure over a text
	// column: an FTS5 shadow table on SQLite, a tsvector GIN expression
	// index on Postgres.
	IndexFullText = "fulltext"

	// IndexPlain builds an ordinary single-column index.
	IndexPlain = "plain"
)

// Statement is one SQL statement with bound arguments, for atomic batches.
type Statement struct {
	SQL  string
	Args []any
}

// Backend is the narrow storage-engine surface the pipeline builds on.
// Implementations wrap one *sql.DB; all statement values are bound
// parameters.
type Backend interface {
	// Dialect identifies the SQL dialect for the predicate compiler.
	Dialect() predsql.Dialect

	// Exec runs a single statement.
	Exec(ctx context.Context, stmt string, args ...any) error

	// ExecTx runs statements inside one transaction, rolling back on the
	// first failure. Used for the atomic materialized-view swap.
	ExecTx(ctx context.Context, stmts []Statement) error

	// Query runs a statement and returns rows; callers close the rows.
	Query(ctx context.Context, stmt string, args ...any) (*sql.Rows, error)

	// QueryRow runs a statement expected to return at most one row.
	QueryRow(ctx context.Context, stmt string, args ...any) *sql.Row

	// BulkLoad inserts rows into table within one transaction.
	BulkLoad(ctx context.Context, table string, columns []string, rows [][]any) error

	// CreateIndex builds an index of the given kind on table.column.
	CreateIndex(ctx context.Context, table, column, kind string) error

	// AcquireRunLock takes the single-run lock, failing fast with
	// ErrLockHeld when another run holds it.
	AcquireRunLock(ctx context.Context, runID string) error

	// ReleaseRunLock releases the run lock. Safe to call when not held.
	ReleaseRunLock(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}
