// internal/extractor/batch.go
package extractor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wishlane/linkmeta/internal/utils"
)

// DefaultConcurrency bounds how many URLs a batch extracts at once.
const DefaultConcurrency = 5

// ExtractBatch runs the single-URL pipeline over every input concurrently,
// bounded by the configured fan-out width. The result holds exactly one
// entry per input URL, in input order; one URL's failure never aborts the
// others and never surfaces as an error from this call.
func (e *Extractor) ExtractBatch(ctx context.Context, urls []string, opts Options) *BatchResult {
	start := time.Now()
	result := &BatchResult{
		Entries: make([]BatchEntry, len(urls)),
	}

	sem := make(chan struct{}, e.concurrency)
	var wg sync.WaitGroup

	for i, rawURL := range urls {
		wg.Add(1)
		go func(i int, rawURL string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			result.Entries[i] = e.extractOne(ctx, rawURL, opts)
		}(i, rawURL)
	}
	wg.Wait()

	for _, entry := range result.Entries {
		if entry.Success {
			result.Succeeded++
		} else {
			result.Failed++
		}
	}
	result.Duration = time.Since(start)

	if e.metrics != nil {
		e.metrics.RecordBatch(len(urls), result.Duration)
	}
	e.logger.WithFields(map[string]interface{}{
		"urls":      len(urls),
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("batch extraction complete")

	return result
}

// extractOne captures a single URL's outcome, converting panics and typed
// errors into the entry rather than letting them escape the batch.
func (e *Extractor) extractOne(ctx context.Context, rawURL string, opts Options) (entry BatchEntry) {
	entry.URL = rawURL

	defer func() {
		if r := recover(); r != nil {
			e.logger.WithField("url", rawURL).Errorf("extraction panicked: %v", r)
			entry.Success = false
			entry.Metadata = nil
			entry.Error = "internal error during extraction"
			entry.ErrorKind = string(utils.KindParseFailed)
		}
	}()

	meta, err := e.Extract(ctx, rawURL, opts)
	if err != nil {
		entry.Error = err.Error()
		var exErr *utils.ExtractionError
		if errors.As(err, &exErr) {
			entry.ErrorKind = string(exErr.Kind)
		}
		return entry
	}
	entry.Success = true
	entry.Metadata = meta
	return entry
}
