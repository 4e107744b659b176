package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreespyn/flatdata/internal/config"
	"github.com/kreespyn/flatdata/internal/store"
)

func writeSources(t *testing.T, files map[string]string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	cfg := config.Default()
	cfg.DataDir = dir
	cfg.Storage.Path = filepath.Join(dir, "flat.db")
	return cfg
}

func openBackend(t *testing.T, cfg *config.Config) store.Backend {
	t.Helper()
	backend, err := store.OpenSQLite(cfg.Storage.Path)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return backend
}

func fullSourceSet() map[string]string {
	return map[string]string{
		"contacts.csv": "place_id,emails,title,created_at\n" +
			"p1,amy@gmail.com,Senior Engineer,2022-01-03 10:15:00 (Eastern Daylight Time)\n" +
			"p2,bob@corp.io,Plumber,2022-02-01 08:00:00\n" +
			"p1,amy@gmail.com,Senior Engineer,2022-01-03 10:15:00 (Eastern Daylight Time)\n",
		"places.csv": "place_id,display_name,pop_estimate_2022,lat,long\n" +
			"p1,Springfield,1200,40.1,-88.2\n" +
			"p2,Shelbyville,300,40.2,-88.3\n",
		"techstacks.csv": "place_id,name\np1,React\np1,Node\n",
		"customerA_mapping.csv": "sfdc_id,place_id\n00AAABBBCCC1,p1\n",
		"customerB_mapping.csv": "hubspot_id,place_id\nab12cd34,p2\n",
	}
}

func TestRun_EndToEnd(t *testing.T) {
	cfg := writeSources(t, fullSourceSet())
	backend := openBackend(t, cfg)

	summary, err := Run(context.Background(), cfg, backend)

	require.NoError(t, err)
	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, 2, summary.Contacts, "exact duplicate contact row collapses")
	assert.Equal(t, 2, summary.Places)
	assert.Equal(t, 2, summary.Tags)
	assert.Equal(t, 1, summary.SFDC)
	assert.Equal(t, 1, summary.HubSpot)
	assert.Equal(t, 2, summary.Flattened)

	var n int
	row := backend.QueryRow(context.Background(), "SELECT count(*) FROM flattened_data")
	require.NoError(t, row.Scan(&n))
	assert.Equal(t, 2, n)

	var doc string
	row = backend.QueryRow(context.Background(),
		"SELECT document FROM flattened_data WHERE contact_id = 1")
	require.NoError(t, row.Scan(&doc))
	assert.Equal(t, "amy@gmail.com senior engineer react node", doc)
}

func TestRun_Rerunnable(t *testing.T) {
	cfg := writeSources(t, fullSourceSet())
	backend := openBackend(t, cfg)

	_, err := Run(context.Background(), cfg, backend)
	require.NoError(t, err)
	summary, err := Run(context.Background(), cfg, backend)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Flattened, "second run replaces, not appends")
}

func TestRun_MissingOptionalSourcesNonFatal(t *testing.T) {
	files := fullSourceSet()
	delete(files, "techstacks.csv")
	delete(files, "customerB_mapping.csv")
	cfg := writeSources(t, files)
	backend := openBackend(t, cfg)

	summary, err := Run(context.Background(), cfg, backend)

	require.NoError(t, err)
	assert.Equal(t, 0, summary.Tags)
	assert.Equal(t, 2, summary.Flattened)
}

func TestRun_NoContactsIsMergeFailure(t *testing.T) {
	files := fullSourceSet()
	delete(files, "contacts.csv")
	cfg := writeSources(t, files)
	backend := openBackend(t, cfg)

	_, err := Run(context.Background(), cfg, backend)

	require.Error(t, err)
	assert.True(t, IsMergeFailed(err))
	var re *RunError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "merge", re.Stage)
}

func TestRun_LockedByConcurrentRun(t *testing.T) {
	cfg := writeSources(t, fullSourceSet())
	backend := openBackend(t, cfg)
	require.NoError(t, backend.AcquireRunLock(context.Background(), "other-run"))

	_, err := Run(context.Background(), cfg, backend)

	require.Error(t, err)
	assert.True(t, IsRunLocked(err))

	// Once the holder releases, a run goes through.
	require.NoError(t, backend.ReleaseRunLock(context.Background()))
	_, err = Run(context.Background(), cfg, backend)
	assert.NoError(t, err)
}
