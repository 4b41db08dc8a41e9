package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	"github.com/pbaille/hwdiag/internal/table"
)

const maxBar = 40

// renderTable prints t as aligned columns, truncating long cells to width
func renderTable(w io.Writer, t *table.Table, width int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns, "\t"))
	for _, row := range t.Strings() {
		for i := range row {
			row[i] = truncate(row[i], width)
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// renderTrend prints one line per period with a proportional bar
func renderTrend(w io.Writer, t *table.Table, layout string) {
	var peak int64
	for _, row := range t.Rows {
		if n, ok := row[1].(int64); ok && n > peak {
			peak = n
		}
	}

	for _, row := range t.Rows {
		label := table.FormatCell(row[0])
		if d, ok := row[0].(time.Time); ok {
			label = d.Format(layout)
		}
		n, _ := row[1].(int64)

		bar := 0
		if peak > 0 {
			bar = int(n * maxBar / peak)
		}
		if n > 0 && bar == 0 {
			bar = 1
		}
		fmt.Fprintf(w, "%-10s %4d %s\n", label, n, strings.Repeat("#", bar))
	}
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	n := max - 3
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "..."
}
