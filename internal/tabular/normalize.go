package tabular

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// tzAnnotation matches parenthetical timezone annotations embedded in
// timestamp text, e.g. "2022-01-03 10:15:00 (Eastern Daylight Time)".
var tzAnnotation = regexp.MustCompile(`\(.*?\)`)

// Normalize canonicalizes a raw table:
//   - column names lower-cased
//   - leading/trailing whitespace trimmed on every cell
//   - exact-duplicate rows dropped (first occurrence wins)
//
// The input table is not mutated. Normalize is idempotent.
func Normalize(t Table) Table {
	out := Table{Columns: make([]string, len(t.Columns))}
	for i, c := range t.Columns {
		out.Columns[i] = strings.ToLower(strings.TrimSpace(c))
	}

	seen := make(map[string]struct{}, len(t.Rows))
	for _, row := range t.Rows {
		trimmed := make([]string, len(row))
		for i, cell := range row {
			trimmed[i] = strings.TrimSpace(cell)
		}
		key := rowKey(trimmed)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out.Rows = append(out.Rows, trimmed)
	}
	return out
}

// NormalizeContacts canonicalizes the contacts table. Beyond Normalize it:
//   - strips parenthetical timezone annotations from created_at text
//   - synthesizes a contiguous 1-based "id" column (prepended) when the
//     source has none
//
// Duplicates are removed before ids are assigned; assigning first would make
// every row distinct and turn duplicate removal into a no-op. Idempotent: a
// table that already carries an id column and clean timestamps passes
// through unchanged.
func NormalizeContacts(t Table) Table {
	// Strip timezone annotations before duplicate removal so that two rows
	// differing only in annotation text collapse to one.
	if i := t.ColumnIndex("created_at"); i >= 0 {
		stripped := Table{Columns: t.Columns, Rows: make([][]string, len(t.Rows))}
		for n, row := range t.Rows {
			r := append([]string(nil), row...)
			r[i] = tzAnnotation.ReplaceAllString(r[i], "")
			stripped.Rows[n] = r
		}
		t = stripped
	}

	out := Normalize(t)

	if out.ColumnIndex("id") < 0 {
		cols := make([]string, 0, len(out.Columns)+1)
		cols = append(cols, "id")
		cols = append(cols, out.Columns...)
		rows := make([][]string, len(out.Rows))
		for n, row := range out.Rows {
			r := make([]string, 0, len(row)+1)
			r = append(r, strconv.Itoa(n+1))
			r = append(r, row...)
			rows[n] = r
		}
		out.Columns = cols
		out.Rows = rows
	}

	return out
}

// Fold canonicalizes free text for search derivation: NFC normalization at
// the boundary, then lower-casing. All document/tech_names text goes
// through here so that recomputation is deterministic.
func Fold(s string) string {
	return strings.ToLower(norm.NFC.String(s))
}

// rowKey builds a duplicate-detection key for a row. Unit separator keeps
// ("a", "bc") distinct from ("ab", "c").
func rowKey(row []string) string {
	return strings.Join(row, "\x1f")
}
