package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreespyn/flatdata/internal/config"
	"github.com/kreespyn/flatdata/internal/tabular"
)

func setupDataDir(t *testing.T, placesCSV string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	if placesCSV != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "places.csv"), []byte(placesCSV), 0o644))
	}
	cfg := config.Default()
	cfg.DataDir = dir
	return cfg
}

func TestEnsureMappingFiles_CreatesBothFeeds(t *testing.T) {
	cfg := setupDataDir(t, "place_id,display_name\np1,A\np2,B\np3,C\n")

	require.NoError(t, EnsureMappingFiles(cfg))

	sfdc, err := tabular.ReadCSVFile(cfg.SourcePath(cfg.Sources.SFDC))
	require.NoError(t, err)
	assert.Equal(t, []string{"sfdc_id", "place_id"}, sfdc.Columns)
	assert.Equal(t, 3, sfdc.Len())
	for i := 0; i < sfdc.Len(); i++ {
		id := sfdc.Cell(i, "sfdc_id")
		assert.Len(t, id, 12)
		assert.Equal(t, "00", id[:2])
		assert.NotEmpty(t, sfdc.Cell(i, "place_id"))
	}

	hubspot, err := tabular.ReadCSVFile(cfg.SourcePath(cfg.Sources.HubSpot))
	require.NoError(t, err)
	assert.Equal(t, []string{"hubspot_id", "place_id"}, hubspot.Columns)
	assert.Equal(t, 3, hubspot.Len())
	for i := 0; i < hubspot.Len(); i++ {
		assert.Len(t, hubspot.Cell(i, "hubspot_id"), 8)
	}
}

func TestEnsureMappingFiles_CapsAtFiveRows(t *testing.T) {
	csv := "place_id\np1\np2\np3\np4\np5\np6\np7\n"
	cfg := setupDataDir(t, csv)

	require.NoError(t, EnsureMappingFiles(cfg))

	sfdc, err := tabular.ReadCSVFile(cfg.SourcePath(cfg.Sources.SFDC))
	require.NoError(t, err)
	assert.Equal(t, 5, sfdc.Len())
}

func TestEnsureMappingFiles_LeavesExistingDataAlone(t *testing.T) {
	cfg := setupDataDir(t, "place_id\np1\n")
	existing := "sfdc_id,place_id\n00HANDMADE,p1\n"
	require.NoError(t, os.WriteFile(cfg.SourcePath(cfg.Sources.SFDC), []byte(existing), 0o644))

	require.NoError(t, EnsureMappingFiles(cfg))

	got, err := os.ReadFile(cfg.SourcePath(cfg.Sources.SFDC))
	require.NoError(t, err)
	assert.Equal(t, existing, string(got), "non-empty mapping files are never rewritten")
}

func TestEnsureMappingFiles_Idempotent(t *testing.T) {
	cfg := setupDataDir(t, "place_id\np1\np2\n")

	require.NoError(t, EnsureMappingFiles(cfg))
	first, err := os.ReadFile(cfg.SourcePath(cfg.Sources.SFDC))
	require.NoError(t, err)

	require.NoError(t, EnsureMappingFiles(cfg))
	second, err := os.ReadFile(cfg.SourcePath(cfg.Sources.SFDC))
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestEnsureMappingFiles_NoPlacesWritesNothing(t *testing.T) {
	cfg := setupDataDir(t, "")

	require.NoError(t, EnsureMappingFiles(cfg))

	_, err := os.Stat(cfg.SourcePath(cfg.Sources.SFDC))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(cfg.SourcePath(cfg.Sources.HubSpot))
	assert.True(t, os.IsNotExist(err))
}
