// internal/extractor/extractor_test.go
package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/wishlane/linkmeta/internal/cache"
	"github.com/wishlane/linkmeta/internal/urlutil"
	"github.com/wishlane/linkmeta/internal/utils"
)

func testRules() *urlutil.Rules {
	return &urlutil.Rules{
		AllowedSchemes: []string{"http", "https"},
		AllowLoopback:  true,
	}
}

func testExtractor(store cache.Store) *Extractor {
	return New(Config{
		Fetch: FetchConfig{RateLimit: 1000, RateBurst: 1000, RetryAttempts: -1},
		Rules: testRules(),
	}, store, nil)
}

func boolPtr(b bool) *bool { return &b }

func TestExtractPrimaryParse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	e := testExtractor(nil)
	meta, err := e.Extract(context.Background(), server.URL+"/dp/B08N5WRWNW?utm_source=share", Options{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if meta.Title != "Wireless Noise Cancelling Headphones" {
		t.Errorf("unexpected title: %q", meta.Title)
	}
	if meta.Price != 279.99 || meta.Currency != "USD" {
		t.Errorf("expected price with default options, got %v %q", meta.Price, meta.Currency)
	}
	if meta.Method != MethodPrimary {
		t.Errorf("expected primary method, got %q", meta.Method)
	}
	if meta.Cached {
		t.Error("fresh extraction must not be flagged cached")
	}
	if meta.ExtractedAt.IsZero() {
		t.Error("extraction timestamp not set")
	}
}

func TestExtractInvalidURLAlwaysPropagates(t *testing.T) {
	e := testExtractor(nil)

	for _, opts := range []Options{
		{},
		{UseFallback: boolPtr(true)},
		{UseFallback: boolPtr(false)},
	} {
		_, err := e.Extract(context.Background(), "not a url", opts)
		if !utils.IsKind(err, utils.KindInvalidURL) {
			t.Errorf("opts %+v: expected INVALID_URL, got %v", opts, err)
		}
	}
}

func TestExtractFallbackOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	e := testExtractor(nil)
	meta, err := e.Extract(context.Background(), server.URL+"/wireless-noise-cancelling-headphones", Options{})
	if err != nil {
		t.Fatalf("expected degraded success, got %v", err)
	}

	if meta.Method != MethodFallback {
		t.Errorf("expected fallback method, got %q", meta.Method)
	}
	if meta.Title != "Wireless Noise Cancelling Headphones" {
		t.Errorf("expected title derived from path, got %q", meta.Title)
	}
	if meta.Description != "" || meta.Image != "" {
		t.Error("fallback record must not carry page fields")
	}
}

func TestExtractErrorKindsWithoutFallback(t *testing.T) {
	tests := []struct {
		name   string
		status int
		kind   utils.ErrorKind
	}{
		{"rate limited", http.StatusTooManyRequests, utils.KindRateLimit},
		{"blocked", http.StatusForbidden, utils.KindBlocked},
		{"legally blocked", http.StatusUnavailableForLegalReasons, utils.KindBlocked},
		{"not found", http.StatusNotFound, utils.KindNotFound},
		{"gone", http.StatusGone, utils.KindNotFound},
		{"server error", http.StatusBadGateway, utils.KindServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			e := testExtractor(nil)
			_, err := e.Extract(context.Background(), server.URL+"/p/1", Options{UseFallback: boolPtr(false)})
			if !utils.IsKind(err, tt.kind) {
				t.Errorf("expected %s, got %v", tt.kind, err)
			}

			var exErr *utils.ExtractionError
			if !errors.As(err, &exErr) || exErr.StatusCode != tt.status {
				t.Errorf("expected status %d on error, got %+v", tt.status, err)
			}
		})
	}
}

func TestExtractTimeoutFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	e := testExtractor(nil)

	meta, err := e.Extract(context.Background(), server.URL+"/slow-product", Options{Timeout: 100 * time.Millisecond})
	if err != nil {
		t.Fatalf("expected fallback on timeout, got %v", err)
	}
	if meta.Method != MethodFallback {
		t.Errorf("expected fallback method, got %q", meta.Method)
	}
	if meta.Title != "Slow Product" {
		t.Errorf("expected title from path, got %q", meta.Title)
	}

	_, err = e.Extract(context.Background(), server.URL+"/slow-product", Options{
		Timeout:     100 * time.Millisecond,
		UseFallback: boolPtr(false),
	})
	if !utils.IsKind(err, utils.KindTimeout) {
		t.Errorf("expected TIMEOUT without fallback, got %v", err)
	}
}

func TestExtractTimeoutOptionExtendsDefault(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	e := New(Config{
		Fetch: FetchConfig{
			Timeout:       20 * time.Millisecond,
			RateLimit:     1000,
			RateBurst:     1000,
			RetryAttempts: -1,
		},
		Rules: testRules(),
	}, nil, nil)

	// The configured default is too short for this page.
	_, err := e.Extract(context.Background(), server.URL+"/p/1", Options{UseFallback: boolPtr(false)})
	if !utils.IsKind(err, utils.KindTimeout) {
		t.Fatalf("expected TIMEOUT under the default deadline, got %v", err)
	}

	// A per-call timeout above the default must be honored, not capped.
	meta, err := e.Extract(context.Background(), server.URL+"/p/1", Options{
		Timeout:     2 * time.Second,
		UseFallback: boolPtr(false),
	})
	if err != nil {
		t.Fatalf("expected extended deadline to succeed, got %v", err)
	}
	if meta.Method != MethodPrimary {
		t.Errorf("expected primary parse, got %q", meta.Method)
	}
}

func TestExtractCacheHit(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	defer store.Close()
	e := testExtractor(store)
	ctx := context.Background()

	first, err := e.Extract(ctx, server.URL+"/p/1", Options{})
	if err != nil {
		t.Fatalf("first Extract failed: %v", err)
	}
	if first.Cached {
		t.Error("first extraction must not be cached")
	}

	second, err := e.Extract(ctx, server.URL+"/p/1", Options{})
	if err != nil {
		t.Fatalf("second Extract failed: %v", err)
	}
	if !second.Cached {
		t.Error("second extraction should come from cache")
	}
	if second.Title != first.Title {
		t.Errorf("cached record differs: %q vs %q", second.Title, first.Title)
	}
	if fetches != 1 {
		t.Errorf("expected one upstream fetch, got %d", fetches)
	}
}

func TestExtractForceRefreshBypassesCache(t *testing.T) {
	fetches := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fetches++
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	store := cache.NewMemoryStore()
	defer store.Close()
	e := testExtractor(store)
	ctx := context.Background()

	if _, err := e.Extract(ctx, server.URL+"/p/1", Options{}); err != nil {
		t.Fatalf("first Extract failed: %v", err)
	}
	meta, err := e.Extract(ctx, server.URL+"/p/1", Options{ForceRefresh: true})
	if err != nil {
		t.Fatalf("forced Extract failed: %v", err)
	}
	if meta.Cached {
		t.Error("forced refresh must not return the cached record")
	}
	if fetches != 2 {
		t.Errorf("expected two upstream fetches, got %d", fetches)
	}

	// The forced result still refreshes the cache.
	meta, err = e.Extract(ctx, server.URL+"/p/1", Options{})
	if err != nil {
		t.Fatalf("third Extract failed: %v", err)
	}
	if !meta.Cached || fetches != 2 {
		t.Errorf("expected cache hit after forced refresh, cached=%v fetches=%d", meta.Cached, fetches)
	}
}

func TestExtractMergesRetailerDetection(t *testing.T) {
	e := testExtractor(nil)

	// The retailer page is unreachable from tests, so this degrades to a
	// fallback record; the detected tag and identifier must survive.
	meta, err := e.Extract(context.Background(), "https://www.amazon.com/dp/B08N5WRWNW", Options{
		Timeout: 200 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if meta.Retailer != "amazon" {
		t.Errorf("expected amazon retailer tag, got %q", meta.Retailer)
	}
	if meta.ProductID != "B08N5WRWNW" {
		t.Errorf("expected product ID merged into fallback, got %q", meta.ProductID)
	}
}

func TestExtractIncludeRetailerData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	e := testExtractor(nil)

	meta, err := e.Extract(context.Background(), server.URL+"/p/1", Options{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if meta.Detection != nil {
		t.Error("detection details attached without IncludeRetailerData")
	}

	meta, err = e.Extract(context.Background(), server.URL+"/p/1", Options{IncludeRetailerData: true})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if meta.Detection == nil {
		t.Fatal("expected detection details with IncludeRetailerData")
	}
}

func TestExtractTrimsTrackingParams(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.RequestURI()
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	e := testExtractor(nil)
	_, err := e.Extract(context.Background(), server.URL+"/p/1?utm_source=share&fbclid=abc&color=red", Options{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if strings.Contains(gotPath, "utm_source") || strings.Contains(gotPath, "fbclid") {
		t.Errorf("tracking params reached upstream: %q", gotPath)
	}
	if !strings.Contains(gotPath, "color=red") {
		t.Errorf("functional param dropped: %q", gotPath)
	}
}
