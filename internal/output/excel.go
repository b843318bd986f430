// internal/output/excel.go
package output

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/wishlane/linkmeta/internal/extractor"
)

const excelSheet = "Results"

// ExcelWriter writes the batch result as an .xlsx workbook with one row per
// input URL plus a header.
type ExcelWriter struct {
	file string
}

// NewExcelWriter prepares a writer targeting the file. Excel output always
// needs a destination file.
func NewExcelWriter(file string) (*ExcelWriter, error) {
	if file == "" {
		return nil, fmt.Errorf("excel output requires a destination file")
	}
	if dir := filepath.Dir(file); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return &ExcelWriter{file: file}, nil
}

// Write builds and saves the workbook.
func (w *ExcelWriter) Write(result *extractor.BatchResult) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet, err := f.NewSheet(excelSheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(sheet)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}

	for col, name := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to compute header cell: %w", err)
		}
		if err := f.SetCellValue(excelSheet, cell, name); err != nil {
			return fmt.Errorf("failed to write header cell: %w", err)
		}
	}

	for i, entry := range result.Entries {
		for col, value := range entryRow(entry) {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return fmt.Errorf("failed to compute cell: %w", err)
			}
			if err := f.SetCellValue(excelSheet, cell, value); err != nil {
				return fmt.Errorf("failed to write cell: %w", err)
			}
		}
	}

	if err := f.SaveAs(w.file); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

// Close is a no-op; the workbook is written in full by Write.
func (w *ExcelWriter) Close() error {
	return nil
}
