// internal/extractor/extractor.go

// Package extractor runs the per-URL metadata pipeline: validate and
// normalize the input, detect the retailer, consult the cache, fetch and
// parse the page, and degrade to a URL-derived record when the caller allows
// it. Batch orchestration over the same pipeline lives in batch.go.
package extractor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/wishlane/linkmeta/internal/cache"
	"github.com/wishlane/linkmeta/internal/monitoring"
	"github.com/wishlane/linkmeta/internal/retailer"
	"github.com/wishlane/linkmeta/internal/urlutil"
	"github.com/wishlane/linkmeta/internal/utils"
)

// Config defines configuration options for the extractor.
type Config struct {
	Fetch    FetchConfig
	Rules    *urlutil.Rules
	CacheTTL time.Duration

	// Concurrency bounds batch fan-out. Zero means DefaultConcurrency.
	Concurrency int
}

// Extractor orchestrates single-URL extractions. Safe for concurrent use;
// the cache store is the only shared mutable state.
type Extractor struct {
	client         *FetchClient
	parser         *PageParser
	store          cache.Store
	rules          urlutil.Rules
	ttl            time.Duration
	defaultTimeout time.Duration
	concurrency    int
	enricher       RetailerEnricher
	metrics        *monitoring.MetricsManager
	logger         utils.Logger
}

// New creates an extractor. The store may be nil to disable caching; metrics
// may be nil to disable instrumentation.
func New(cfg Config, store cache.Store, metrics *monitoring.MetricsManager) *Extractor {
	rules := urlutil.DefaultRules()
	if cfg.Rules != nil {
		rules = *cfg.Rules
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = cache.DefaultMetadataTTL
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	defaultTimeout := cfg.Fetch.Timeout
	if defaultTimeout <= 0 {
		defaultTimeout = DefaultTimeout
	}

	return &Extractor{
		client:         NewFetchClient(cfg.Fetch),
		parser:         NewPageParser(),
		store:          store,
		rules:          rules,
		ttl:            ttl,
		defaultTimeout: defaultTimeout,
		concurrency:    concurrency,
		enricher:       NopEnricher{},
		metrics:        metrics,
		logger:         utils.NewComponentLogger("extractor"),
	}
}

// SetEnricher installs a retailer API enricher. Must be called before the
// extractor is shared across goroutines.
func (e *Extractor) SetEnricher(enricher RetailerEnricher) {
	if enricher != nil {
		e.enricher = enricher
	}
}

// Extract produces a metadata record for one URL.
//
// An invalid URL always returns an INVALID_URL error. Fetch and parse
// failures return the typed error when the caller disabled fallback,
// otherwise a degraded record with Method set to "fallback".
func (e *Extractor) Extract(ctx context.Context, rawURL string, opts Options) (*Metadata, error) {
	start := time.Now()
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	validation := urlutil.Validate(rawURL, e.rules)
	if !validation.Valid {
		e.recordError(utils.KindInvalidURL)
		return nil, utils.NewExtractionError(utils.KindInvalidURL, validation.Error, rawURL)
	}
	normalized := validation.NormalizedURL

	detection := retailer.Detect(normalized)

	// The canonical product URL keys the cache so URL variants of the same
	// product share one entry. Unrecognized URLs key by their normalized
	// form.
	cacheKey := retailer.NormalizeProductURL(normalized)

	if e.store != nil && !opts.ForceRefresh {
		if meta, ok := e.cacheLookup(ctx, cacheKey); ok {
			e.finish(ctx, meta, detection, opts)
			e.recordExtraction(detection, meta.Method, "cached", time.Since(start))
			return meta, nil
		}
	}

	meta, err := e.fetchAndParse(ctx, normalized)
	if err != nil {
		kind := utils.KindOf(err)
		e.recordError(kind)
		if kind == utils.KindInvalidURL || !opts.useFallback() {
			return nil, err
		}
		e.logger.WithField("url", normalized).
			Debugf("degrading to fallback record: %v", err)
		meta = fallbackMetadata(normalized, detection, time.Now())
	}

	e.finish(ctx, meta, detection, opts)

	if e.store != nil {
		e.cacheWrite(ctx, cacheKey, meta)
	}

	e.recordExtraction(detection, meta.Method, "fresh", time.Since(start))
	return meta, nil
}

// fetchAndParse runs the network and parse stages.
func (e *Extractor) fetchAndParse(ctx context.Context, normalized string) (*Metadata, error) {
	fetchStart := time.Now()
	res, err := e.client.Fetch(ctx, normalized)
	if err != nil {
		var exErr *utils.ExtractionError
		if e.metrics != nil && errors.As(err, &exErr) && exErr.StatusCode != 0 {
			e.metrics.RecordFetch(exErr.StatusCode, time.Since(fetchStart))
		}
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.RecordFetch(res.StatusCode, time.Since(fetchStart))
	}

	meta, err := e.parser.Parse(res.Body, normalized)
	if err != nil {
		return nil, err
	}
	meta.ExtractedAt = time.Now()
	return meta, nil
}

// finish merges detection data into the record and applies per-call options.
func (e *Extractor) finish(ctx context.Context, meta *Metadata, detection retailer.DetectionResult, opts Options) {
	if detection.Retailer != retailer.TagUnknown {
		meta.Retailer = detection.Retailer
		if meta.ProductID == "" {
			meta.ProductID = detection.ProductID
		}
	}

	if opts.IncludeRetailerData {
		d := detection
		meta.Detection = &d
	} else {
		meta.Detection = nil
	}

	if opts.IncludeRetailerData || opts.ExtractProductDetails {
		if e.enricher.Supports(detection.Retailer) {
			enrichCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := e.enricher.Enrich(enrichCtx, meta, detection); err != nil {
				e.logger.WithField("retailer", string(detection.Retailer)).
					Warnf("retailer enrichment failed: %v", err)
			}
			cancel()
		}
	}
}

// cacheLookup returns the cached record for the key, if fresh.
func (e *Extractor) cacheLookup(ctx context.Context, key string) (*Metadata, bool) {
	entry, err := e.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			// A broken cache read degrades to a miss; the extraction
			// itself must not fail on CACHE_ERROR.
			e.logger.WithField("key", key).Warnf("cache read failed: %v", err)
		}
		if e.metrics != nil {
			e.metrics.RecordCacheMiss()
		}
		return nil, false
	}
	if e.metrics != nil {
		e.metrics.RecordCacheHit()
	}

	var meta Metadata
	if err := json.Unmarshal(entry.Payload, &meta); err != nil {
		e.logger.WithField("key", key).Warnf("corrupt cache payload: %v", err)
		return nil, false
	}
	meta.Cached = true
	return &meta, true
}

// cacheWrite stores the record. Write failures are logged, never propagated.
func (e *Extractor) cacheWrite(ctx context.Context, key string, meta *Metadata) {
	// The stored form never carries the cached flag or per-call detection
	// details.
	stored := *meta
	stored.Cached = false
	stored.Detection = nil

	payload, err := json.Marshal(&stored)
	if err != nil {
		e.logger.WithField("key", key).Errorf("failed to encode cache payload: %v", err)
		return
	}
	if err := e.store.Set(ctx, key, payload, e.ttl); err != nil {
		e.logger.WithField("key", key).Warnf("cache write failed: %v", err)
	}
}

func (e *Extractor) recordExtraction(detection retailer.DetectionResult, method, outcome string, d time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordExtraction(string(detection.Retailer), method, outcome, d)
}

func (e *Extractor) recordError(kind utils.ErrorKind) {
	if e.metrics != nil {
		e.metrics.RecordExtractionError(string(kind))
	}
}
