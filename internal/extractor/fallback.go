// internal/extractor/fallback.go
package extractor

import (
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/wishlane/linkmeta/internal/retailer"
	"github.com/wishlane/linkmeta/internal/urlutil"
)

var titleCaser = cases.Title(language.AmericanEnglish)

// fallbackMetadata builds a degraded record from the URL alone, used when the
// page cannot be fetched or parsed. The title comes from the last path
// segment; every other field stays empty except the detection results, which
// are merged in so retailer and product ID survive even without a page.
func fallbackMetadata(normalizedURL string, detection retailer.DetectionResult, now time.Time) *Metadata {
	meta := &Metadata{
		URL:         normalizedURL,
		Method:      MethodFallback,
		ExtractedAt: now,
	}

	if raw := urlutil.TitleFromPath(normalizedURL); raw != "" {
		meta.Title = titleCaser.String(raw)
	}

	if detection.Retailer != retailer.TagUnknown {
		meta.Retailer = detection.Retailer
		meta.ProductID = detection.ProductID
	}
	return meta
}
