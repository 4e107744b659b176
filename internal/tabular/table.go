package tabular

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Table is a raw rectangular frame read from a tabular source.
// Columns holds the header names in source order; every row has exactly
// len(Columns) cells. All cells are strings until typed decoding.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the index of the named column, matched
// case-insensitively, or -1 if the column does not exist.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if strings.EqualFold(c, name) {
			return i
		}
	}
	return -1
}

// Cell returns the cell at (row, column name), or "" when the column is
// absent. Row index must be in range.
func (t Table) Cell(row int, name string) string {
	i := t.ColumnIndex(name)
	if i < 0 {
		return ""
	}
	return t.Rows[row][i]
}

// ReadCSV reads a CSV stream into a Table. The first record is the header.
// Rows whose field count does not match the header are skipped rather than
// failing the read - ingestion is best-effort by design.
func ReadCSV(r io.Reader) (Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // validate lengths ourselves so bad rows skip

	header, err := cr.Read()
	if err == io.EOF {
		return Table{}, nil
	}
	if err != nil {
		return Table{}, fmt.Errorf("read csv header: %w", err)
	}

	t := Table{Columns: header}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return Table{}, fmt.Errorf("read csv row: %w", err)
		}
		if len(rec) != len(header) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

// ReadCSVFile reads a CSV file into a Table.
// The caller decides whether a missing file is fatal; here it is just an error.
func ReadCSVFile(path string) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	t, err := ReadCSV(f)
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", path, err)
	}
	return t, nil
}
