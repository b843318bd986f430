// internal/output/csv.go
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/wishlane/linkmeta/internal/extractor"
)

// CSVWriter writes the batch result as one flat row per input URL.
type CSVWriter struct {
	out    io.Writer
	closer io.Closer
}

// NewCSVWriter writes to the file, or stdout when file is empty.
func NewCSVWriter(file string) (*CSVWriter, error) {
	if file == "" {
		return &CSVWriter{out: os.Stdout}, nil
	}
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	f, err := os.Create(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &CSVWriter{out: f, closer: f}, nil
}

// Write writes the header and one row per entry.
func (w *CSVWriter) Write(result *extractor.BatchResult) error {
	cw := csv.NewWriter(w.out)

	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, entry := range result.Entries {
		if err := cw.Write(entryRow(entry)); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	return nil
}

// Close closes the destination file, if any.
func (w *CSVWriter) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}

// entryRow flattens one batch entry into the shared column order.
func entryRow(entry extractor.BatchEntry) []string {
	row := make([]string, len(columns))
	row[0] = entry.URL

	if !entry.Success || entry.Metadata == nil {
		row[1] = "error"
		row[2] = entry.ErrorKind
		row[3] = entry.Error
		return row
	}

	meta := entry.Metadata
	row[1] = "ok"
	row[4] = meta.Title
	row[5] = meta.Description
	row[6] = meta.Image
	row[7] = meta.SiteName
	if meta.Price != 0 {
		row[8] = strconv.FormatFloat(meta.Price, 'f', -1, 64)
	}
	row[9] = meta.Currency
	row[10] = string(meta.Retailer)
	row[11] = meta.ProductID
	row[12] = meta.Method
	row[13] = strconv.FormatBool(meta.Cached)
	row[14] = meta.ExtractedAt.Format(time.RFC3339)
	return row
}
