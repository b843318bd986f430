// internal/output/json.go
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/wishlane/linkmeta/internal/extractor"
)

// JSONWriter writes the batch result as indented JSON.
type JSONWriter struct {
	out    io.Writer
	closer io.Closer
}

// NewJSONWriter writes to the file, or stdout when file is empty.
func NewJSONWriter(file string) (*JSONWriter, error) {
	if file == "" {
		return &JSONWriter{out: os.Stdout}, nil
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
	return &JSONWriter{out: f, closer: f}, nil
}

// Write encodes the result.
func (w *JSONWriter) Write(result *extractor.BatchResult) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(result); err != nil {
		return fmt.Errorf("failed to encode JSON output: %w", err)
	}
	return nil
}

// Close closes the destination file, if any.
func (w *JSONWriter) Close() error {
	if w.closer != nil {
		return w.closer.Close()
	}
	return nil
}
