// Package pipeline orchestrates one ingestion run: bootstrap fixtures, read
// and clean the five sources, merge, and materialize the flattened set.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kreespyn/flatdata/internal/config"
	"github.com/kreespyn/flatdata/internal/fixtures"
	"github.com/kreespyn/flatdata/internal/materialize"
	"github.com/kreespyn/flatdata/internal/merge"
	"github.com/kreespyn/flatdata/internal/record"
	"github.com/kreespyn/flatdata/internal/store"
	"github.com/kreespyn/flatdata/internal/tabular"
)

// Summary reports what one pipeline run produced.
type Summary struct {
	RunID     string        `json:"run_id"`
	Contacts  int           `json:"contacts"`
	Places    int           `json:"places"`
	Tags      int           `json:"tags"`
	SFDC      int           `json:"sfdc_mappings"`
	HubSpot   int           `json:"hubspot_mappings"`
	Flattened int           `json:"flattened"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Run executes the full pipeline against the backend. Only one run may be
// active per storage target; concurrent runs fail fast with ErrCodeRunLocked.
//
// Per-source read failures are non-fatal: the source is logged and treated
// as empty. Absence of contacts or entities after cleaning is fatal to
// flattening and surfaces as ErrCodeMergeFailed.
func Run(ctx context.Context, cfg *config.Config, backend store.Backend) (*Summary, error) {
	runID := uuid.NewString()
	start := time.Now()
	log := slog.With("run_id", runID)

	if err := backend.AcquireRunLock(ctx, runID); err != nil {
		if errors.Is(err, store.ErrLockHeld) {
			return nil, newRunError(ErrCodeRunLocked, runID, "lock", err)
		}
		return nil, newRunError(ErrCodeIngestFailed, runID, "lock", err)
	}
	defer func() {
		if err := backend.ReleaseRunLock(context.WithoutCancel(ctx)); err != nil {
			log.Warn("failed to release run lock", "error", err)
		}
	}()

	log.Info("pipeline run started", "data_dir", cfg.DataDir)

	if err := fixtures.EnsureMappingFiles(cfg); err != nil {
		// Bootstrap failure only means the mapping feeds stay empty.
		log.Warn("fixture bootstrap failed", "error", err)
	}

	contacts := tabular.NormalizeContacts(readSource(log, cfg, cfg.Sources.Contacts))
	places := tabular.Normalize(readSource(log, cfg, cfg.Sources.Places))
	tags := tabular.Normalize(readSource(log, cfg, cfg.Sources.Tags))
	sfdc := tabular.Normalize(readSource(log, cfg, cfg.Sources.SFDC))
	hubspot := tabular.Normalize(readSource(log, cfg, cfg.Sources.HubSpot))

	typedContacts := record.DecodeContacts(contacts)
	typedPlaces := record.DecodePlaces(places)
	typedTags := record.DecodeTags(tags)
	typedSFDC := record.DecodeMappings(sfdc, "sfdc_id")
	typedHubSpot := record.DecodeMappings(hubspot, "hubspot_id")

	log.Info("sources cleaned",
		"contacts", len(typedContacts),
		"places", len(typedPlaces),
		"tags", len(typedTags),
		"sfdc", len(typedSFDC),
		"hubspot", len(typedHubSpot))

	merged, err := merge.Merge(typedContacts, typedPlaces, typedTags, typedSFDC, typedHubSpot)
	if err != nil {
		return nil, newRunError(ErrCodeMergeFailed, runID, "merge", err)
	}

	flattened := materialize.Flatten(merged)
	if err := materialize.New(backend).Rebuild(ctx, flattened); err != nil {
		return nil, newRunError(ErrCodeMaterializeFailed, runID, "materialize", err)
	}

	s := &Summary{
		RunID:     runID,
		Contacts:  len(typedContacts),
		Places:    len(typedPlaces),
		Tags:      len(typedTags),
		SFDC:      len(typedSFDC),
		HubSpot:   len(typedHubSpot),
		Flattened: len(flattened),
		Elapsed:   time.Since(start),
	}
	log.Info("pipeline run finished", "flattened", s.Flattened, "elapsed", s.Elapsed)
	return s, nil
}

// readSource loads one CSV source. Failures are non-fatal: the source is
// logged and an empty table comes back, letting the run proceed with what
// it has.
func readSource(log *slog.Logger, cfg *config.Config, name string) tabular.Table {
	path := cfg.SourcePath(name)
	t, err := tabular.ReadCSVFile(path)
	if err != nil {
		log.Warn("source unavailable, treating as empty", "path", path, "error", err)
		return tabular.Table{}
	}
	log.Debug("source loaded", "path", path, "rows", t.Len())
	return t
}
