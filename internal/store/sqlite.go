package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/kreespyn/flatdata/internal/predsql"
)

// SQLite is the default storage backend.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path
// (":memory:" for tests). Applies required pragmas.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections.
	// A single connection also keeps ":memory:" databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return &SQLite{db: db}, nil
}

// Dialect implements Backend.
func (s *SQLite) Dialect() predsql.Dialect {
	return predsql.DialectSQLite
}

// Exec implements Backend.
func (s *SQLite) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := s.db.ExecContext(ctx, stmt, args...)
	return err
}

// ExecTx implements Backend.
func (s *SQLite) ExecTx(ctx context.Context, stmts []Statement) error {
	return execTx(ctx, s.db, stmts)
}

// Query implements Backend.
func (s *SQLite) Query(ctx context.Context, stmt string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, stmt, args...)
}

// QueryRow implements Backend.
func (s *SQLite) QueryRow(ctx context.Context, stmt string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, stmt, args...)
}

// BulkLoad implements Backend with a prepared insert inside one transaction.
func (s *SQLite) BulkLoad(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("bulk load %s: begin: %w", table, err)
	}
	defer tx.Rollback()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders))
	if err != nil {
		return fmt.Errorf("bulk load %s: prepare: %w", table, err)
	}
	defer stmt.Close()

	for i, row := range rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return fmt.Errorf("bulk load %s: row %d: %w", table, i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("bulk load %s: commit: %w", table, err)
	}
	return nil
}

// CreateIndex implements Backend. Full-text builds an FTS5 shadow table
// named <table>_fts with rowids aligned to the data table, so MATCH results
// map straight back to data rows.
func (s *SQLite) CreateIndex(ctx context.Context, table, column, kind string) error {
	switch kind {
	case IndexFullText:
		fts := table + "_fts"
		stmts := []Statement{
			{SQL: fmt.Sprintf("CREATE VIRTUAL TABLE %s USING fts5(%s)", fts, column)},
			{SQL: fmt.Sprintf("INSERT INTO %s(rowid, %s) SELECT rowid, %s FROM %s",
				fts, column, column, table)},
		}
		return s.ExecTx(ctx, stmts)
	case IndexPlain:
		return s.Exec(ctx, fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_%s_idx ON %s (%s)",
			table, column, table, column))
	default:
		return fmt.Errorf("unknown index kind %q", kind)
	}
}

// AcquireRunLock implements Backend with a singleton-row lock table.
// The insert fails on the primary-key conflict when another run holds it.
func (s *SQLite) AcquireRunLock(ctx context.Context, runID string) error {
	if err := s.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS pipeline_lock (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			run_id TEXT NOT NULL,
			acquired_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`); err != nil {
		return fmt.Errorf("create lock table: %w", err)
	}

	err := s.Exec(ctx, "INSERT INTO pipeline_lock (id, run_id) VALUES (1, ?)", runID)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY KEY") {
			return ErrLockHeld
		}
		return fmt.Errorf("acquire run lock: %w", err)
	}
	return nil
}

// ReleaseRunLock implements Backend. Safe to call when the lock table was
// never created.
func (s *SQLite) ReleaseRunLock(ctx context.Context) error {
	err := s.Exec(ctx, "DELETE FROM pipeline_lock WHERE id = 1")
	if err != nil && strings.Contains(err.Error(), "no such table") {
		return nil
	}
	return err
}

// Close implements Backend.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// execTx is shared by both backends.
func execTx(ctx context.Context, db *sql.DB, stmts []Statement) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, st := range stmts {
		if _, err := tx.ExecContext(ctx, st.SQL, st.Args...); err != nil {
			return fmt.Errorf("exec %q: %w", st.SQL, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
