package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kreespyn/flatdata/internal/predsql"
)

func openTestStore(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenSQLite_Dialect(t *testing.T) {
	s := openTestStore(t)
	assert.Equal(t, predsql.DialectSQLite, s.Dialect())
}

func TestBulkLoad_InsertsAllRows(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Exec(ctx, "CREATE TABLE things (id INTEGER, name TEXT)"))

	err := s.BulkLoad(ctx, "things", []string{"id", "name"}, [][]any{
		{int64(1), "one"},
		{int64(2), "two"},
		{int64(3), nil},
	})
	require.NoError(t, err)

	var n int
	require.NoError(t, s.QueryRow(ctx, "SELECT count(*) FROM things").Scan(&n))
	assert.Equal(t, 3, n)

	var nulls int
	require.NoError(t, s.QueryRow(ctx, "SELECT count(*) FROM things WHERE name IS NULL").Scan(&nulls))
	assert.Equal(t, 1, nulls)
}

func TestCreateIndex_FullTextShadowTableAligned(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Exec(ctx, "CREATE TABLE docs (body TEXT)"))
	require.NoError(t, s.BulkLoad(ctx, "docs", []string{"body"}, [][]any{
		{"senior engineer react"},
		{"plumber"},
	}))

	require.NoError(t, s.CreateIndex(ctx, "docs", "body", IndexFullText))

	var matched string
	err := s.QueryRow(ctx,
		"SELECT body FROM docs WHERE rowid IN (SELECT rowid FROM docs_fts WHERE docs_fts MATCH ?)",
		`"react"`).Scan(&matched)
	require.NoError(t, err)
	assert.Equal(t, "senior engineer react", matched)
}

func TestCreateIndex_RejectsUnknownKind(t *testing.T) {
	s := openTestStore(t)
	err := s.CreateIndex(context.Background(), "docs", "body", "spatial")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown index kind")
}

func TestExecTx_RollsBackOnFailure(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Exec(ctx, "CREATE TABLE things (id INTEGER)"))

	err := s.ExecTx(ctx, []Statement{
		{SQL: "INSERT INTO things (id) VALUES (?)", Args: []any{1}},
		{SQL: "INSERT INTO nonexistent (id) VALUES (?)", Args: []any{2}},
	})
	require.Error(t, err)

	var n int
	require.NoError(t, s.QueryRow(ctx, "SELECT count(*) FROM things").Scan(&n))
	assert.Equal(t, 0, n, "partial batch must roll back")
}

func TestRunLock_SecondAcquireFailsFast(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AcquireRunLock(ctx, "run-1"))

	err := s.AcquireRunLock(ctx, "run-2")
	assert.ErrorIs(t, err, ErrLockHeld)

	require.NoError(t, s.ReleaseRunLock(ctx))
	assert.NoError(t, s.AcquireRunLock(ctx, "run-3"))
}

func TestReleaseRunLock_SafeWhenNotHeld(t *testing.T) {
	s := openTestStore(t)
	assert.NoError(t, s.ReleaseRunLock(context.Background()))
}
