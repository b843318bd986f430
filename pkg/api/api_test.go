// pkg/api/api_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wishlane/linkmeta/internal/config"
	"github.com/wishlane/linkmeta/internal/extractor"
)

func testClient(t *testing.T) *Client {
	t.Helper()

	cfg := config.Default()
	cfg.Validation.AllowLoopback = true
	cfg.Extraction.RateLimit = 1000
	cfg.Extraction.RateBurst = 1000
	cfg.Extraction.RetryAttempts = -1

	client, err := NewClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

func TestClientExtract(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Desk Lamp</title></head></html>`))
	}))
	defer server.Close()

	client := testClient(t)
	meta, err := client.Extract(context.Background(), server.URL+"/p/1", Options{})
	if err != nil {
		t.Fatalf("Extract failed: %v", err)
	}
	if meta.Title != "Desk Lamp" {
		t.Errorf("unexpected title: %q", meta.Title)
	}
	if meta.Method != extractor.MethodPrimary {
		t.Errorf("unexpected method: %q", meta.Method)
	}
}

func TestClientExtractBatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><head><title>Item</title></head></html>`))
	}))
	defer server.Close()

	client := testClient(t)
	result := client.ExtractBatch(context.Background(), []string{
		server.URL + "/p/1",
		"not a url",
	}, Options{})

	if len(result.Entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(result.Entries))
	}
	if result.Succeeded != 1 || result.Failed != 1 {
		t.Errorf("expected 1/1 split, got %d/%d", result.Succeeded, result.Failed)
	}
}

func TestClientValidateAndDetect(t *testing.T) {
	client := testClient(t)

	res := client.Validate("https://www.amazon.com/dp/B08N5WRWNW?utm_source=share")
	if !res.Valid {
		t.Fatalf("expected valid URL, got %+v", res)
	}
	if res.NormalizedURL != "https://www.amazon.com/dp/B08N5WRWNW" {
		t.Errorf("unexpected normalization: %q", res.NormalizedURL)
	}

	detection := client.Detect(res.NormalizedURL)
	if detection.Retailer != RetailerTag("amazon") || detection.ProductID != "B08N5WRWNW" {
		t.Errorf("unexpected detection: %+v", detection)
	}
}

func TestNewClientDefaults(t *testing.T) {
	client, err := NewClient(context.Background(), nil)
	if err != nil {
		t.Fatalf("NewClient with nil config failed: %v", err)
	}
	defer client.Close()

	if res := client.Validate("http://localhost/p"); res.Valid {
		t.Error("default rules should block localhost")
	}
}
