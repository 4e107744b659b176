// Package testutil provides shared helpers for tests that need a populated
// storage backend.
package testutil

import (
	"context"
	"testing"

	"github.com/kreespyn/flatdata/internal/materialize"
	"github.com/kreespyn/flatdata/internal/record"
	"github.com/kreespyn/flatdata/internal/store"
	"github.com/kreespyn/flatdata/internal/tabular"
)

// OpenSeededStore opens an in-memory SQLite backend and materializes the
// given flattened rows into it, full-text index included. The backend is
// closed automatically when the test finishes.
func OpenSeededStore(t *testing.T, rows []record.FlattenedRecord) store.Backend {
	t.Helper()

	backend, err := store.OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open in-memory store: %v", err)
	}
	t.Cleanup(func() { backend.Close() })

	if err := materialize.New(backend).Rebuild(context.Background(), rows); err != nil {
		t.Fatalf("materialize seed rows: %v", err)
	}
	return backend
}

// Row builds one flattened record with the optional fields set from
// non-zero arguments, keeping test tables compact.
func Row(contactID int64, emails, title, techNames string) record.FlattenedRecord {
	r := record.FlattenedRecord{
		ContactID: contactID,
		Emails:    emails,
		Title:     title,
		TechNames: techNames,
	}
	r.Document = foldJoin(emails, title, techNames)
	return r
}

// WithPlace attaches place-derived fields to a record.
func WithPlace(r record.FlattenedRecord, displayName string, pop float64) record.FlattenedRecord {
	r.DisplayName = &displayName
	r.PopEstimate2022 = &pop
	return r
}

// WithCRM attaches external IDs to a record. Empty strings stay nil.
func WithCRM(r record.FlattenedRecord, sfdcID, hubspotID string) record.FlattenedRecord {
	if sfdcID != "" {
		r.SFDCID = &sfdcID
	}
	if hubspotID != "" {
		r.HubspotID = &hubspotID
	}
	return r
}

func foldJoin(emails, title, techNames string) string {
	return tabular.Fold(emails) + " " + tabular.Fold(title) + " " + techNames
}
