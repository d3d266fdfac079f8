package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

// Table holds tabular data for rendering.
type Table struct {
	Headers []string
	Rows    [][]string
}

// AddRow appends a row to the table.
func (t *Table) AddRow(cells ...string) {
	t.Rows = append(t.Rows, cells)
}

// Render writes the table with aligned columns.
func (t *Table) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	if len(t.Headers) > 0 {
		fmt.Fprintln(tw, strings.Join(t.Headers, "\t"))
	}
	for _, row := range t.Rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// TableFormatter formats data as an aligned text table. Data that is
// not a *Table is rendered as JSON.
type TableFormatter struct{}

// Format writes data as a table.
func (f *TableFormatter) Format(w io.Writer, data any) error {
	if t, ok := data.(*Table); ok {
		return t.Render(w)
	}
	return (&JSONFormatter{}).Format(w, data)
}

// FormatTime renders a timestamp for table cells, with "-" for the
// zero value.
func FormatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

// TruncateID shortens a token ID for narrow table columns.
func TruncateID(id string) string {
	if len(id) <= 16 {
		return id
	}
	return id[:13] + "..."
}
