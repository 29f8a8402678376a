// Package output provides lookup table output formatters.
package output

import (
	"bufio"
	"io"
	"strings"

	"github.com/inodb/vibe-lookup/internal/lookup"
)

// TabWriter writes lookup rows in tab-delimited format.
type TabWriter struct {
	w       *bufio.Writer
	columns []string
}

// NewTabWriter creates a new tab-delimited writer.
func NewTabWriter(w io.Writer) *TabWriter {
	return &TabWriter{
		w:       bufio.NewWriter(w),
		columns: lookup.Columns,
	}
}

// WriteHeader writes the header line.
func (tw *TabWriter) WriteHeader() error {
	_, err := tw.w.WriteString(strings.Join(tw.columns, "\t") + "\n")
	return err
}

// Write writes a single row.
func (tw *TabWriter) Write(row *lookup.Row) error {
	_, err := tw.w.WriteString(strings.Join(row.Values(), "\t") + "\n")
	return err
}

// WriteTable writes the header followed by every row of t, then flushes.
func (tw *TabWriter) WriteTable(t *lookup.Table) error {
	if err := tw.WriteHeader(); err != nil {
		return err
	}
	for i := range t.Rows {
		if err := tw.Write(&t.Rows[i]); err != nil {
			return err
		}
	}
	return tw.Flush()
}

// Flush flushes any buffered data to the underlying writer.
func (tw *TabWriter) Flush() error {
	return tw.w.Flush()
}
