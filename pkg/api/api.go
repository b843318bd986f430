// pkg/api/api.go

// Package api is the public entry point for embedding linkmeta in another
// service. It wires the validator, detector, cache, and extractor together
// from a single configuration and re-exports the types callers need.
package api

import (
	"context"
	"fmt"

	"github.com/wishlane/linkmeta/internal/cache"
	"github.com/wishlane/linkmeta/internal/config"
	"github.com/wishlane/linkmeta/internal/extractor"
	"github.com/wishlane/linkmeta/internal/retailer"
	"github.com/wishlane/linkmeta/internal/urlutil"
)

// Re-export types from internal packages for the public API.
type (
	ServiceConfig   = config.ServiceConfig
	Metadata        = extractor.Metadata
	Options         = extractor.Options
	BatchResult     = extractor.BatchResult
	BatchEntry      = extractor.BatchEntry
	DetectionResult = retailer.DetectionResult
	RetailerTag     = retailer.Tag
	ValidationRules = urlutil.Rules
)

// Client provides a high-level interface for metadata extraction.
type Client struct {
	extractor *extractor.Extractor
	store     cache.Store
	rules     urlutil.Rules
}

// NewClient builds a client from the configuration. A nil configuration
// uses defaults with an in-memory cache.
func NewClient(ctx context.Context, cfg *ServiceConfig) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	store, err := cache.Open(ctx, cfg.Cache.ToCache())
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}

	rules := cfg.Validation
	ext := extractor.New(extractor.Config{
		Fetch: extractor.FetchConfig{
			Timeout:       cfg.Extraction.Timeout.Std(),
			UserAgent:     cfg.Extraction.UserAgent,
			RateLimit:     cfg.Extraction.RateLimit,
			RateBurst:     cfg.Extraction.RateBurst,
			RetryAttempts: cfg.Extraction.RetryAttempts,
			RetryDelay:    cfg.Extraction.RetryDelay.Std(),
		},
		Rules:       &rules,
		CacheTTL:    cfg.Cache.TTL.Std(),
		Concurrency: cfg.Extraction.Concurrency,
	}, store, nil)

	return &Client{extractor: ext, store: store, rules: rules}, nil
}

// Extract produces a metadata record for one URL.
func (c *Client) Extract(ctx context.Context, url string, opts Options) (*Metadata, error) {
	return c.extractor.Extract(ctx, url, opts)
}

// ExtractBatch extracts every URL concurrently with partial-failure
// isolation; the result holds one entry per input URL in input order.
func (c *Client) ExtractBatch(ctx context.Context, urls []string, opts Options) *BatchResult {
	return c.extractor.ExtractBatch(ctx, urls, opts)
}

// Validate checks and normalizes a URL without fetching it, using the
// client's configured rules.
func (c *Client) Validate(url string) urlutil.Result {
	return urlutil.Validate(url, c.rules)
}

// Detect runs retailer pattern detection without fetching.
func (c *Client) Detect(url string) DetectionResult {
	return retailer.Detect(url)
}

// SetEnricher installs a retailer API enricher. Must be called before the
// client is shared across goroutines.
func (c *Client) SetEnricher(enricher extractor.RetailerEnricher) {
	c.extractor.SetEnricher(enricher)
}

// Close releases the cache backend.
func (c *Client) Close() error {
	return c.store.Close()
}
