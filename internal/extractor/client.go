// internal/extractor/client.go
package extractor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/wishlane/linkmeta/internal/utils"
)

// maxBodyBytes caps how much of a page we read. Product pages that matter
// carry their metadata in the head, well under this.
const maxBodyBytes = 5 << 20

// FetchClient retrieves pages with browser-like headers and a shared rate
// limiter so batch runs do not hammer a single host. Transient failures are
// retried with exponential backoff inside the request's deadline.
type FetchClient struct {
	httpClient    *http.Client
	rateLimiter   *rate.Limiter
	userAgent     string
	headers       map[string]string
	retryAttempts int
	retryDelay    time.Duration
}

// FetchConfig defines configuration options for the fetch client.
type FetchConfig struct {
	// Timeout is the default per-extraction deadline, applied by the
	// extractor when the caller's options do not set one. The client itself
	// carries no fixed deadline; the request context bounds every attempt.
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
	RateLimit float64 // requests per second
	RateBurst int

	// RetryAttempts is the number of retries after the first attempt.
	// Zero means the default; negative disables retries.
	RetryAttempts int
	RetryDelay    time.Duration
}

// NewFetchClient creates a fetch client with the specified configuration.
func NewFetchClient(config FetchConfig) *FetchClient {
	if config.UserAgent == "" {
		config.UserAgent = "linkmeta/1.0 (+https://github.com/wishlane/linkmeta)"
	}
	if config.RateLimit == 0 {
		config.RateLimit = 5.0
	}
	if config.RateBurst == 0 {
		config.RateBurst = 10
	}
	if config.RetryAttempts == 0 {
		config.RetryAttempts = 2
	}
	if config.RetryAttempts < 0 {
		config.RetryAttempts = 0
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 500 * time.Millisecond
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("too many redirects")
			}
			return nil
		},
	}

	return &FetchClient{
		httpClient:    httpClient,
		rateLimiter:   rate.NewLimiter(rate.Limit(config.RateLimit), config.RateBurst),
		userAgent:     config.UserAgent,
		headers:       config.Headers,
		retryAttempts: config.RetryAttempts,
		retryDelay:    config.RetryDelay,
	}
}

// FetchResult is the raw page plus the response details the parser needs.
type FetchResult struct {
	Body        []byte
	FinalURL    string
	StatusCode  int
	ContentType string
}

// Fetch retrieves the page body, mapping transport and status failures to
// typed extraction errors. Retryable failures (timeouts, 429, 5xx) are
// reattempted with exponential backoff until the context expires or the
// attempts are spent.
func (c *FetchClient) Fetch(ctx context.Context, targetURL string) (*FetchResult, error) {
	var lastErr error
	for attempt := 0; attempt <= c.retryAttempts; attempt++ {
		if attempt > 0 {
			if err := c.waitForRetry(ctx, attempt); err != nil {
				return nil, lastErr
			}
		}

		res, err := c.fetchOnce(ctx, targetURL)
		if err == nil {
			return res, nil
		}
		lastErr = err

		var exErr *utils.ExtractionError
		if !errors.As(err, &exErr) || !exErr.Retryable {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// waitForRetry sleeps for the backoff delay, bailing out when the context
// expires first.
func (c *FetchClient) waitForRetry(ctx context.Context, attempt int) error {
	delay := c.retryDelay * time.Duration(1<<uint(attempt-1))
	if delay > 10*time.Second {
		delay = 10 * time.Second
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (c *FetchClient) fetchOnce(ctx context.Context, targetURL string) (*FetchResult, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, utils.NewExtractionError(utils.KindTimeout,
				"timed out waiting for rate limiter", targetURL).WithCause(err)
		}
		return nil, utils.NewExtractionError(utils.KindFetchFailed,
			"rate limiter error", targetURL).WithCause(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		return nil, utils.NewExtractionError(utils.KindInvalidURL,
			"failed to build request", targetURL).WithCause(err)
	}
	c.setRequestHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || isTimeout(err) {
			return nil, utils.NewExtractionError(utils.KindTimeout,
				"request timed out", targetURL).WithCause(err)
		}
		return nil, utils.NewExtractionError(utils.KindFetchFailed,
			"request failed", targetURL).WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		kind := utils.KindForStatus(resp.StatusCode)
		return nil, utils.NewExtractionError(kind,
			fmt.Sprintf("unexpected status %d", resp.StatusCode), targetURL).
			WithStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded || isTimeout(err) {
			return nil, utils.NewExtractionError(utils.KindTimeout,
				"response body read timed out", targetURL).WithCause(err)
		}
		return nil, utils.NewExtractionError(utils.KindFetchFailed,
			"failed to read response body", targetURL).WithCause(err)
	}

	finalURL := targetURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &FetchResult{
		Body:        body,
		FinalURL:    finalURL,
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

func (c *FetchClient) setRequestHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	req.Header.Set("Connection", "keep-alive")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	for key, value := range c.headers {
		req.Header.Set(key, value)
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
