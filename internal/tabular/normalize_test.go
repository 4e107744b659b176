package tabular

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_LowercasesColumnsAndTrimsCells(t *testing.T) {
	in := Table{
		Columns: []string{" Place_ID ", "EMAILS"},
		Rows: [][]string{
			{"  p1  ", " a@x.com "},
		},
	}

	out := Normalize(in)

	assert.Equal(t, []string{"place_id", "emails"}, out.Columns)
	assert.Equal(t, [][]string{{"p1", "a@x.com"}}, out.Rows)
}

func TestNormalize_DropsExactDuplicates_FirstWins(t *testing.T) {
	in := Table{
		Columns: []string{"place_id", "emails"},
		Rows: [][]string{
			{"p1", "a@x.com"},
			{"p1", "a@x.com"},
			{"p1 ", " a@x.com"}, // duplicate after trimming
			{"p2", "b@x.com"},
		},
	}

	out := Normalize(in)

	require.Len(t, out.Rows, 2)
	assert.Equal(t, "p1", out.Rows[0][0])
	assert.Equal(t, "p2", out.Rows[1][0])
}

func TestNormalize_DoesNotConflateAdjacentCells(t *testing.T) {
	in := Table{
		Columns: []string{"a", "b"},
		Rows: [][]string{
			{"x", "yz"},
			{"xy", "z"},
		},
	}

	out := Normalize(in)
	assert.Len(t, out.Rows, 2)
}

func TestNormalize_Idempotent(t *testing.T) {
	in := Table{
		Columns: []string{"Place_ID", "Emails"},
		Rows: [][]string{
			{" p1", "a@x.com"},
			{"p1", "a@x.com"},
		},
	}

	once := Normalize(in)
	twice := Normalize(once)
	assert.Equal(t, once, twice)
}

func TestNormalizeContacts_StripsTimezoneAnnotations(t *testing.T) {
	in := Table{
		Columns: []string{"place_id", "created_at"},
		Rows: [][]string{
			{"p1", "2022-01-03 10:15:00 (Eastern Daylight Time)"},
		},
	}

	out := NormalizeContacts(in)

	require.Len(t, out.Rows, 1)
	assert.Equal(t, "2022-01-03 10:15:00", out.Cell(0, "created_at"))
}

func TestNormalizeContacts_CollapsesRowsDifferingOnlyInAnnotation(t *testing.T) {
	in := Table{
		Columns: []string{"place_id", "created_at"},
		Rows: [][]string{
			{"p1", "2022-01-03 10:15:00 (Eastern Daylight Time)"},
			{"p1", "2022-01-03 10:15:00 (Pacific Standard Time)"},
		},
	}

	out := NormalizeContacts(in)
	assert.Len(t, out.Rows, 1)
}

func TestNormalizeContacts_SynthesizesContiguousIDs(t *testing.T) {
	in := Table{
		Columns: []string{"place_id", "emails"},
		Rows: [][]string{
			{"p1", "a@x.com"},
			{"p1", "a@x.com"}, // duplicate removed before ids assigned
			{"p2", "b@x.com"},
		},
	}

	out := NormalizeContacts(in)

	require.Equal(t, "id", out.Columns[0])
	require.Len(t, out.Rows, 2)
	assert.Equal(t, "1", out.Cell(0, "id"))
	assert.Equal(t, "2", out.Cell(1, "id"))
}

func TestNormalizeContacts_KeepsExistingIDColumn(t *testing.T) {
	in := Table{
		Columns: []string{"id", "place_id"},
		Rows: [][]string{
			{"41", "p1"},
			{"42", "p2"},
		},
	}

	out := NormalizeContacts(in)

	assert.Equal(t, "41", out.Cell(0, "id"))
	assert.Equal(t, "42", out.Cell(1, "id"))
}

func TestNormalizeContacts_Idempotent(t *testing.T) {
	in := Table{
		Columns: []string{"place_id", "emails", "created_at"},
		Rows: [][]string{
			{"p1", "a@x.com", "2022-01-03 10:15:00 (EDT)"},
			{"p2", "b@x.com", "2022-02-01 08:00:00"},
		},
	}

	once := NormalizeContacts(in)
	twice := NormalizeContacts(once)
	assert.Equal(t, once, twice)
}

func TestFold_LowercasesText(t *testing.T) {
	assert.Equal(t, "senior engineer", Fold("Senior Engineer"))
}

func TestReadCSV_SkipsMisalignedRows(t *testing.T) {
	src := strings.NewReader("a,b\n1,2\n1,2,3\nonly-one\n3,4\n")

	out, err := ReadCSV(src)

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out.Columns)
	assert.Equal(t, [][]string{{"1", "2"}, {"3", "4"}}, out.Rows)
}

func TestReadCSV_EmptyInput(t *testing.T) {
	out, err := ReadCSV(strings.NewReader(""))

	require.NoError(t, err)
	assert.True(t, out.Empty())
}

func TestColumnIndex_CaseInsensitive(t *testing.T) {
	tbl := Table{Columns: []string{"Place_ID"}}
	assert.Equal(t, 0, tbl.ColumnIndex("place_id"))
	assert.Equal(t, -1, tbl.ColumnIndex("missing"))
}
