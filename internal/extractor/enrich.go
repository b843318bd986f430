// internal/extractor/enrich.go
package extractor

import (
	"context"

	"github.com/wishlane/linkmeta/internal/retailer"
)

// RetailerEnricher augments a metadata record with retailer-specific data,
// for example from a product API keyed by the detected identifier. Enrichers
// run only when the caller asked for retailer data; a failing enricher
// degrades to the unenriched record rather than failing the extraction.
type RetailerEnricher interface {
	// Supports reports whether the enricher can handle the retailer.
	Supports(tag retailer.Tag) bool

	// Enrich mutates the record in place.
	Enrich(ctx context.Context, meta *Metadata, detection retailer.DetectionResult) error
}

// NopEnricher satisfies RetailerEnricher and does nothing. Used when no
// retailer API integration is configured.
type NopEnricher struct{}

func (NopEnricher) Supports(retailer.Tag) bool { return false }

func (NopEnricher) Enrich(context.Context, *Metadata, retailer.DetectionResult) error {
	return nil
}
