// internal/output/manager.go
package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wishlane/linkmeta/internal/extractor"
)

// Manager selects a writer for the configured format.
type Manager struct {
	format Format
	file   string
}

// NewManager creates an output manager. An empty format is inferred from the
// file extension, defaulting to JSON.
func NewManager(format Format, file string) (*Manager, error) {
	if format == "" {
		format = formatFromExtension(file)
	}
	switch format {
	case FormatJSON, FormatCSV, FormatExcel:
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
	return &Manager{format: format, file: file}, nil
}

// GetWriter returns the writer for the configured format. An empty file
// means stdout for the text formats.
func (m *Manager) GetWriter() (Writer, error) {
	switch m.format {
	case FormatJSON:
		return NewJSONWriter(m.file)
	case FormatCSV:
		return NewCSVWriter(m.file)
	case FormatExcel:
		return NewExcelWriter(m.file)
	default:
		return nil, fmt.Errorf("unsupported output format: %s", m.format)
	}
}

// Write writes the batch result using the configured format.
func (m *Manager) Write(result *extractor.BatchResult) error {
	writer, err := m.GetWriter()
	if err != nil {
		return fmt.Errorf("failed to get writer: %w", err)
	}
	defer writer.Close()

	return writer.Write(result)
}

func formatFromExtension(file string) Format {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return FormatCSV
	case ".xlsx":
		return FormatExcel
	default:
		return FormatJSON
	}
}
