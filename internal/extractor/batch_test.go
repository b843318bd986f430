// internal/extractor/batch_test.go
package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/wishlane/linkmeta/internal/urlutil"
	"github.com/wishlane/linkmeta/internal/utils"
)

func TestExtractBatchOrderAndIsolation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `<html><head><title>Product %s</title></head></html>`, r.URL.Path)
	}))
	defer server.Close()

	e := testExtractor(nil)
	urls := []string{
		server.URL + "/p/1",
		"not a url",
		server.URL + "/broken",
		server.URL + "/p/2",
	}

	result := e.ExtractBatch(context.Background(), urls, Options{UseFallback: boolPtr(false)})

	if len(result.Entries) != len(urls) {
		t.Fatalf("expected %d entries, got %d", len(urls), len(result.Entries))
	}
	for i, entry := range result.Entries {
		if entry.URL != urls[i] {
			t.Errorf("entry %d out of order: got %q, want %q", i, entry.URL, urls[i])
		}
	}

	if !result.Entries[0].Success || result.Entries[0].Metadata == nil || result.Entries[0].Metadata.Title != "Product /p/1" {
		t.Errorf("entry 0 should succeed, got %+v", result.Entries[0])
	}
	if result.Entries[1].Success || result.Entries[1].ErrorKind != string(utils.KindInvalidURL) {
		t.Errorf("entry 1 should fail with INVALID_URL, got %+v", result.Entries[1])
	}
	if result.Entries[2].Success || result.Entries[2].ErrorKind != string(utils.KindServerError) {
		t.Errorf("entry 2 should fail with SERVER_ERROR, got %+v", result.Entries[2])
	}
	if !result.Entries[3].Success || result.Entries[3].Metadata == nil {
		t.Errorf("entry 3 should succeed, got %+v", result.Entries[3])
	}

	if result.Succeeded != 2 || result.Failed != 2 {
		t.Errorf("expected 2 succeeded / 2 failed, got %d / %d", result.Succeeded, result.Failed)
	}
}

func TestExtractBatchFallbackKeepsEntriesSuccessful(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	e := testExtractor(nil)
	result := e.ExtractBatch(context.Background(), []string{
		server.URL + "/red-mug",
		"definitely not a url",
	}, Options{})

	// Degradation applies; only the invalid URL stays an error.
	if !result.Entries[0].Success || result.Entries[0].Metadata == nil || result.Entries[0].Metadata.Method != MethodFallback {
		t.Errorf("entry 0 should degrade to fallback, got %+v", result.Entries[0])
	}
	if result.Entries[1].ErrorKind != string(utils.KindInvalidURL) {
		t.Errorf("entry 1 should fail with INVALID_URL, got %+v", result.Entries[1])
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("expected 1 succeeded / 1 failed, got %d / %d", result.Succeeded, result.Failed)
	}
}

func TestExtractBatchBoundsConcurrency(t *testing.T) {
	var inFlight, peak int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&inFlight, 1)
		for {
			p := atomic.LoadInt64(&peak)
			if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
				break
			}
		}
		defer atomic.AddInt64(&inFlight, -1)
		w.Write([]byte(`<html><head><title>x</title></head></html>`))
	}))
	defer server.Close()

	e := New(Config{
		Fetch:       FetchConfig{RateLimit: 1000, RateBurst: 1000, RetryAttempts: -1},
		Rules:       &urlutil.Rules{AllowedSchemes: []string{"http", "https"}, AllowLoopback: true},
		Concurrency: 3,
	}, nil, nil)

	urls := make([]string, 20)
	for i := range urls {
		urls[i] = fmt.Sprintf("%s/p/%d", server.URL, i)
	}

	result := e.ExtractBatch(context.Background(), urls, Options{})
	if result.Succeeded != len(urls) {
		t.Fatalf("expected all URLs to succeed, got %d/%d", result.Succeeded, len(urls))
	}
	if p := atomic.LoadInt64(&peak); p > 3 {
		t.Errorf("fan-out exceeded configured bound: peak %d", p)
	}
}

func TestExtractBatchEmptyInput(t *testing.T) {
	e := testExtractor(nil)
	result := e.ExtractBatch(context.Background(), nil, Options{})
	if len(result.Entries) != 0 || result.Succeeded != 0 || result.Failed != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}
