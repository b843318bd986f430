// internal/output/types.go

// Package output writes batch extraction results to JSON, CSV, or Excel
// files for downstream consumption.
package output

import (
	"github.com/wishlane/linkmeta/internal/extractor"
)

// Format identifies a supported output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatCSV   Format = "csv"
	FormatExcel Format = "excel"
)

// Writer writes one batch result to its destination.
type Writer interface {
	Write(result *extractor.BatchResult) error
	Close() error
}

// columns is the flat field order shared by the CSV and Excel writers.
var columns = []string{
	"url",
	"status",
	"error_kind",
	"error",
	"title",
	"description",
	"image",
	"site_name",
	"price",
	"currency",
	"retailer",
	"product_id",
	"method",
	"cached",
	"extracted_at",
}
