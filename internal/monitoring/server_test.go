// internal/monitoring/server_test.go
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestMetricsEndpoint(t *testing.T) {
	metrics := NewMetricsManager(MetricsConfig{})
	metrics.RecordExtraction("amazon", "primary-parse", "fresh", 120*time.Millisecond)
	metrics.RecordCacheHit()
	metrics.RecordCacheMiss()
	metrics.RecordFetch(200, 80*time.Millisecond)
	metrics.RecordBatch(10, time.Second)

	srv := NewServer(ServerConfig{}, metrics, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, metric := range []string{
		"linkmeta_extractions_total",
		"linkmeta_cache_hits_total",
		"linkmeta_cache_misses_total",
		"linkmeta_fetch_responses_total",
		"linkmeta_batch_size_urls",
	} {
		if !strings.Contains(body, metric) {
			t.Errorf("metrics output missing %s", metric)
		}
	}
}

func TestHealthEndpoint(t *testing.T) {
	metrics := NewMetricsManager(MetricsConfig{})

	srv := NewServer(ServerConfig{}, metrics, map[string]HealthCheckFunc{
		"cache": func(ctx context.Context) error { return nil },
	})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from /health, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("health response is not JSON: %v", err)
	}
	if resp.Status != HealthStatusHealthy || resp.Checks["cache"] != HealthStatusHealthy {
		t.Errorf("unexpected health response: %+v", resp)
	}
}

func TestHealthEndpointUnhealthyDependency(t *testing.T) {
	metrics := NewMetricsManager(MetricsConfig{})

	srv := NewServer(ServerConfig{}, metrics, map[string]HealthCheckFunc{
		"cache": func(ctx context.Context) error { return fmt.Errorf("connection refused") },
	})
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from /health, got %d", rec.Code)
	}
	var resp healthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("health response is not JSON: %v", err)
	}
	if resp.Status != HealthStatusUnhealthy || resp.Errors["cache"] == "" {
		t.Errorf("unexpected health response: %+v", resp)
	}
}
