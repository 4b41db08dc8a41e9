// Package table holds small columnar query results: named columns over
// row-major cells, with the reshaping helpers the reports need.
package table

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strconv"
	"time"
)

// Table is an ordered set of named columns and their rows
type Table struct {
	Columns []string
	Rows    [][]any
}

// New returns an empty table with the given column names
func New(columns ...string) *Table {
	return &Table{Columns: slices.Clone(columns)}
}

// Len returns the number of rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows
func (t *Table) Empty() bool {
	return len(t.Rows) == 0
}

// Index returns the position of column name, or -1
func (t *Table) Index(name string) int {
	return slices.Index(t.Columns, name)
}

// Append adds a row. The row must have one cell per column.
func (t *Table) Append(cells ...any) error {
	if len(cells) != len(t.Columns) {
		return fmt.Errorf("append row: got %d cells for %d columns", len(cells), len(t.Columns))
	}
	t.Rows = append(t.Rows, cells)
	return nil
}

// Column returns the values of column name, or nil if there is no such column
func (t *Table) Column(name string) []any {
	i := t.Index(name)
	if i < 0 {
		return nil
	}
	out := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out
}

// Select returns a new table with only the named columns, in the given
// order. Unknown names are an error.
func (t *Table) Select(names ...string) (*Table, error) {
	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = t.Index(name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("select: unknown column %q", name)
		}
	}

	out := New(names...)
	out.Rows = make([][]any, len(t.Rows))
	for r, row := range t.Rows {
		cells := make([]any, len(idx))
		for i, j := range idx {
			cells[i] = row[j]
		}
		out.Rows[r] = cells
	}
	return out, nil
}

// Rename relabels columns in place. Names absent from the table are ignored.
func (t *Table) Rename(labels map[string]string) *Table {
	for i, c := range t.Columns {
		if label, ok := labels[c]; ok {
			t.Columns[i] = label
		}
	}
	return t
}

// Strings returns every row with cells rendered by FormatCell
func (t *Table) Strings() [][]string {
	out := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = FormatCell(v)
		}
		out[r] = cells
	}
	return out
}

// WriteCSV writes the header and all rows as CSV
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Strings()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// FormatCell renders a cell for display. Times print as YYYY-MM-DD.
func FormatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.Format("2006-01-02")
	default:
		return fmt.Sprint(x)
	}
}
