// Package materialize derives the computed columns and (re)builds the
// queryable flattened_data set plus its full-text index.
//
// Rebuilds are atomic relative to readers: rows load into a staging table,
// the index is built there, and one transaction swaps staging into place.
// A query in flight never observes an absent view.
package materialize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kreespyn/flatdata/internal/predsql"
	"github.com/kreespyn/flatdata/internal/record"
	"github.com/kreespyn/flatdata/internal/store"
	"github.com/kreespyn/flatdata/internal/tabular"
)

const stagingTable = record.FlattenedTable + "_staging"

// Flatten derives the computed columns for each merged row:
//   - tech_names: the place's tag names, case-folded and space-joined,
//     insertion order ("" when the place has no tags)
//   - document: fold(emails) + " " + fold(title) + " " + tech_names
//
// Both are pure functions of their inputs; recomputation is deterministic.
func Flatten(merged []record.Merged) []record.FlattenedRecord {
	out := make([]record.FlattenedRecord, 0, len(merged))
	for _, m := range merged {
		names := make([]string, len(m.TagNames))
		for i, n := range m.TagNames {
			names[i] = tabular.Fold(n)
		}
		techNames := strings.Join(names, " ")

		fr := record.FlattenedRecord{
			ContactID: m.Contact.ID,
			Emails:    m.Contact.Emails,
			Title:     m.Contact.Title,
			TechNames: techNames,
			SFDCID:    m.SFDCID,
			HubspotID: m.HubspotID,
			Document:  tabular.Fold(m.Contact.Emails) + " " + tabular.Fold(m.Contact.Title) + " " + techNames,
		}
		if m.Place != nil {
			name := m.Place.DisplayName
			fr.DisplayName = &name
			fr.PopEstimate2022 = m.Place.PopEstimate2022
			fr.Lat = m.Place.Lat
			fr.Long = m.Place.Long
		}
		out = append(out, fr)
	}
	return out
}

// Materializer rebuilds the flattened_data set on a storage backend.
type Materializer struct {
	backend store.Backend
}

// New creates a Materializer for the given backend.
func New(b store.Backend) *Materializer {
	return &Materializer{backend: b}
}

// Rebuild replaces the queryable set with rows. The prior set stays
// servable until the swap transaction commits.
func (m *Materializer) Rebuild(ctx context.Context, rows []record.FlattenedRecord) error {
	if err := m.dropStaging(ctx); err != nil {
		return fmt.Errorf("drop stale staging: %w", err)
	}
	if err := m.backend.Exec(ctx, createTableSQL(stagingTable, m.backend.Dialect())); err != nil {
		return fmt.Errorf("create staging table: %w", err)
	}
	if err := m.backend.BulkLoad(ctx, stagingTable, record.FlattenedColumns, toLoadRows(rows)); err != nil {
		return fmt.Errorf("load staging table: %w", err)
	}
	if err := m.backend.CreateIndex(ctx, stagingTable, "document", store.IndexFullText); err != nil {
		return fmt.Errorf("build full-text index: %w", err)
	}
	if err := m.backend.ExecTx(ctx, swapStatements(m.backend.Dialect())); err != nil {
		return fmt.Errorf("swap into place: %w", err)
	}
	slog.Info("materialized view rebuilt", "table", record.FlattenedTable, "rows", len(rows))
	return nil
}

func (m *Materializer) dropStaging(ctx context.Context) error {
	stmts := []store.Statement{
		{SQL: "DROP TABLE IF EXISTS " + stagingTable},
	}
	if m.backend.Dialect() == predsql.DialectSQLite {
		stmts = append([]store.Statement{
			{SQL: "DROP TABLE IF EXISTS " + stagingTable + "_fts"},
		}, stmts...)
	}
	return m.backend.ExecTx(ctx, stmts)
}

// createTableSQL renders the flattened_data DDL for a dialect.
func createTableSQL(table string, d predsql.Dialect) string {
	intType, floatType := "INTEGER", "REAL"
	if d == predsql.DialectPostgres {
		intType, floatType = "BIGINT", "DOUBLE PRECISION"
	}
	return fmt.Sprintf(`CREATE TABLE %s (
		contact_id %s NOT NULL,
		emails TEXT,
		title TEXT,
		display_name TEXT,
		pop_estimate_2022 %s,
		lat %s,
		long %s,
		tech_names TEXT NOT NULL DEFAULT '',
		sfdc_id TEXT,
		hubspot_id TEXT,
		document TEXT NOT NULL DEFAULT ''
	)`, table, intType, floatType, floatType, floatType)
}

// swapStatements renders the atomic staging-to-live swap for a dialect.
// SQLite renames the FTS shadow table alongside the data table; Postgres
// renames the expression index so a later rebuild can recreate it under the
// staging name.
func swapStatements(d predsql.Dialect) []store.Statement {
	live := record.FlattenedTable
	if d == predsql.DialectSQLite {
		return []store.Statement{
			{SQL: "DROP TABLE IF EXISTS " + record.FlattenedFTSTable},
			{SQL: "DROP TABLE IF EXISTS " + live},
			{SQL: fmt.Sprintf("ALTER TABLE %s RENAME TO %s", stagingTable, live)},
			{SQL: fmt.Sprintf("ALTER TABLE %s_fts RENAME TO %s", stagingTable, record.FlattenedFTSTable)},
		}
	}
	return []store.Statement{
		{SQL: "DROP TABLE IF EXISTS " + live + " CASCADE"},
		{SQL: fmt.Sprintf("ALTER TABLE %s RENAME TO %s", stagingTable, live)},
		{SQL: fmt.Sprintf("ALTER INDEX IF EXISTS %s_document_fts_idx RENAME TO %s_document_fts_idx",
			stagingTable, live)},
	}
}

// toLoadRows converts records to BulkLoad rows in FlattenedColumns order.
// Nil pointer fields load as SQL NULL.
func toLoadRows(rows []record.FlattenedRecord) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = []any{
			r.ContactID,
			r.Emails,
			r.Title,
			nullableString(r.DisplayName),
			nullableFloat(r.PopEstimate2022),
			nullableFloat(r.Lat),
			nullableFloat(r.Long),
			r.TechNames,
			nullableString(r.SFDCID),
			nullableString(r.HubspotID),
			r.Document,
		}
	}
	return out
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
