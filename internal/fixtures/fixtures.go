// Package fixtures bootstraps the customer-mapping sample files so a fresh
// checkout can run the pipeline end to end without real CRM exports.
package fixtures

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/kreespyn/flatdata/internal/config"
	"github.com/kreespyn/flatdata/internal/tabular"
)

const maxSyntheticRows = 5

// EnsureMappingFiles creates or fills the two customer-mapping CSVs when
// they are missing or empty, sampling up to five place IDs from the places
// source and pairing each with a synthetic external ID. Non-empty mapping
// files are left untouched, so the bootstrap is idempotent.
func EnsureMappingFiles(cfg *config.Config) error {
	placeIDs := loadPlaceIDs(cfg.SourcePath(cfg.Sources.Places))
	n := min(maxSyntheticRows, len(placeIDs))
	if n == 0 {
		// No places to sample from, nothing worth writing.
		return nil
	}

	files := []struct {
		path   string
		idCol  string
		makeID func() string
	}{
		{cfg.SourcePath(cfg.Sources.SFDC), "sfdc_id", syntheticSFDCID},
		{cfg.SourcePath(cfg.Sources.HubSpot), "hubspot_id", syntheticHubSpotID},
	}
	for _, f := range files {
		if hasRows(f.path) {
			continue
		}
		if err := writeMappingFile(f.path, f.idCol, placeIDs[:n], f.makeID); err != nil {
			return fmt.Errorf("bootstrap %s: %w", f.path, err)
		}
		slog.Info("created synthetic customer mappings", "path", f.path, "rows", n)
	}
	return nil
}

// loadPlaceIDs reads distinct non-empty place IDs from the places CSV.
// A missing or unreadable file yields none, which just means no synthetic
// rows get written.
func loadPlaceIDs(path string) []string {
	t, err := tabular.ReadCSVFile(path)
	if err != nil {
		return nil
	}
	if t.ColumnIndex("place_id") < 0 {
		return nil
	}
	seen := make(map[string]struct{})
	var ids []string
	for i := 0; i < t.Len(); i++ {
		id := strings.TrimSpace(t.Cell(i, "place_id"))
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// hasRows reports whether the CSV at path has at least one data row.
func hasRows(path string) bool {
	t, err := tabular.ReadCSVFile(path)
	if err != nil {
		return false
	}
	return t.Len() > 0
}

func writeMappingFile(path, idColumn string, placeIDs []string, makeID func() string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{idColumn, "place_id"}); err != nil {
		return err
	}
	for _, pid := range placeIDs {
		if err := w.Write([]string{makeID(), pid}); err != nil {
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// Synthetic IDs mimic the shape of the real feeds: SFDC IDs are "00" plus
// ten upper-case alphanumerics, HubSpot IDs are eight alphanumerics. UUIDs
// supply the entropy.

func syntheticSFDCID() string {
	return "00" + randomToken(10, true)
}

func syntheticHubSpotID() string {
	return randomToken(8, false)
}

func randomToken(n int, upper bool) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	if upper {
		raw = strings.ToUpper(raw)
	}
	if len(raw) > n {
		raw = raw[:n]
	}
	return raw
}
