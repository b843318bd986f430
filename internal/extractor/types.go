// internal/extractor/types.go
package extractor

import (
	"time"

	"github.com/wishlane/linkmeta/internal/retailer"
)

// Extraction methods recorded on Metadata.Method.
const (
	MethodPrimary  = "primary-parse"
	MethodFallback = "fallback"
)

// DefaultTimeout bounds a single extraction end to end.
const DefaultTimeout = 10 * time.Second

// Metadata is the product metadata record produced for one URL. Fields
// without data are omitted from serialized output rather than zero-filled.
type Metadata struct {
	URL         string `json:"url"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	Locale      string `json:"locale,omitempty"`
	ContentType string `json:"content_type,omitempty"`

	Image       string `json:"image,omitempty"`
	ImageWidth  int    `json:"image_width,omitempty"`
	ImageHeight int    `json:"image_height,omitempty"`
	ImageAlt    string `json:"image_alt,omitempty"`
	ImageType   string `json:"image_type,omitempty"`

	// Price is set only when the page carried a parseable numeric price.
	Price    float64 `json:"price,omitempty"`
	RawPrice string  `json:"raw_price,omitempty"`
	Currency string  `json:"currency,omitempty"`

	Retailer  retailer.Tag `json:"retailer,omitempty"`
	ProductID string       `json:"product_id,omitempty"`

	// Detection carries the full pattern-match result when the caller asked
	// for retailer data.
	Detection *retailer.DetectionResult `json:"detection,omitempty"`

	Method      string    `json:"method"`
	Cached      bool      `json:"cached"`
	ExtractedAt time.Time `json:"extracted_at"`
}

// Options tunes a single extraction. The zero value means: use the cache,
// omit detection details, default timeout, degrade to fallback on
// recoverable failures.
type Options struct {
	// ForceRefresh bypasses the cache lookup; the fresh result still gets
	// written back.
	ForceRefresh bool

	// IncludeRetailerData attaches the full detection result to the record.
	IncludeRetailerData bool

	// Timeout bounds the whole extraction, overriding the configured
	// default in either direction. Zero means the default.
	Timeout time.Duration

	// UseFallback controls degradation to a URL-derived record when the
	// fetch or parse fails. Nil means true.
	UseFallback *bool

	// ExtractProductDetails requests deeper retailer-specific product fields
	// from the configured enricher. The baseline price pass always runs.
	ExtractProductDetails bool
}

func (o Options) useFallback() bool {
	if o.UseFallback == nil {
		return true
	}
	return *o.UseFallback
}

// BatchEntry is one per-URL outcome of a batch extraction. Success mirrors
// which of Metadata and Error is meaningful; ErrorKind keeps the typed kind
// for callers that branch on it.
type BatchEntry struct {
	URL       string    `json:"url"`
	Success   bool      `json:"success"`
	Metadata  *Metadata `json:"metadata,omitempty"`
	Error     string    `json:"error,omitempty"`
	ErrorKind string    `json:"error_kind,omitempty"`
}

// BatchResult aggregates a batch run. Entries holds exactly one entry per
// input URL, in input order.
type BatchResult struct {
	Entries   []BatchEntry  `json:"entries"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Duration  time.Duration `json:"duration"`
}
