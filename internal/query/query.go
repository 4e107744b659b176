// Package query executes translated predicates against the flattened_data
// set and returns bounded previews.
package query

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kreespyn/flatdata/internal/predicate"
	"github.com/kreespyn/flatdata/internal/predsql"
	"github.com/kreespyn/flatdata/internal/record"
	"github.com/kreespyn/flatdata/internal/store"
)

// DefaultPreviewLimit caps the rows returned by Execute.
const DefaultPreviewLimit = 10

// Result is the outcome of one predicate execution: at most the preview
// limit of rows, plus the true total match count.
type Result struct {
	Rows  []record.FlattenedRecord
	Total int
}

// Truncated reports whether rows beyond the preview were matched.
func (r Result) Truncated() bool {
	return r.Total > len(r.Rows)
}

// ExecutionError wraps a storage failure with the predicate that caused it,
// rendered for diagnostics.
type ExecutionError struct {
	Predicate string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Predicate, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Executor runs predicates on one storage backend.
type Executor struct {
	backend  store.Backend
	compiler *predsql.Compiler

	// PreviewLimit bounds result rows; zero means DefaultPreviewLimit.
	PreviewLimit int

	// Timeout bounds each execution; zero means no deadline beyond the
	// caller's context.
	Timeout time.Duration
}

// NewExecutor creates an Executor with the default preview limit.
func NewExecutor(b store.Backend) *Executor {
	return &Executor{
		backend:      b,
		compiler:     predsql.NewCompiler(b.Dialect()),
		PreviewLimit: DefaultPreviewLimit,
	}
}

// Execute compiles and runs the predicate, returning the preview rows and
// the total match count. The total comes from a separate count statement so
// the preview bound never hides how many rows actually matched.
func (e *Executor) Execute(ctx context.Context, p predicate.Predicate) (Result, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	limit := e.PreviewLimit
	if limit <= 0 {
		limit = DefaultPreviewLimit
	}

	countSQL, countArgs, err := e.compiler.CountSQL(p)
	if err != nil {
		return Result{}, e.wrap(p, err)
	}
	var total int
	if err := e.backend.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return Result{}, e.wrap(p, err)
	}

	previewSQL, previewArgs, err := e.compiler.PreviewSQL(p, limit)
	if err != nil {
		return Result{}, e.wrap(p, err)
	}
	rows, err := e.backend.Query(ctx, previewSQL, previewArgs...)
	if err != nil {
		return Result{}, e.wrap(p, err)
	}
	defer rows.Close()

	out := make([]record.FlattenedRecord, 0, limit)
	for rows.Next() {
		r, err := scanFlattened(rows)
		if err != nil {
			return Result{}, e.wrap(p, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return Result{}, e.wrap(p, err)
	}
	return Result{Rows: out, Total: total}, nil
}

func (e *Executor) wrap(p predicate.Predicate, err error) error {
	return &ExecutionError{Predicate: predicate.String(p), Err: err}
}

// scanFlattened reads one row in FlattenedColumns order.
func scanFlattened(rows *sql.Rows) (record.FlattenedRecord, error) {
	var (
		r           record.FlattenedRecord
		displayName sql.NullString
		pop         sql.NullFloat64
		lat         sql.NullFloat64
		long        sql.NullFloat64
		sfdcID      sql.NullString
		hubspotID   sql.NullString
	)
	if err := rows.Scan(
		&r.ContactID,
		&r.Emails,
		&r.Title,
		&displayName,
		&pop,
		&lat,
		&long,
		&r.TechNames,
		&sfdcID,
		&hubspotID,
		&r.Document,
	); err != nil {
		return record.FlattenedRecord{}, fmt.Errorf("scan row: %w", err)
	}
	if displayName.Valid {
		r.DisplayName = &displayName.String
	}
	if pop.Valid {
		r.PopEstimate2022 = &pop.Float64
	}
	if lat.Valid {
		r.Lat = &lat.Float64
	}
	if long.Valid {
		r.Long = &long.Float64
	}
	if sfdcID.Valid {
		r.SFDCID = &sfdcID.String
	}
	if hubspotID.Valid {
		r.HubspotID = &hubspotID.String
	}
	return r, nil
}
