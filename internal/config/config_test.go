// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadFromBytes(t *testing.T) {
	yaml := `
extraction:
  timeout: 5s
  rate_limit: 2
  concurrency: 8
cache:
  backend: sqlite
  dsn: /tmp/linkmeta.db
  ttl: 24h
logging:
  level: debug
`
	cfg, err := LoadFromBytes([]byte(yaml))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if cfg.Extraction.Timeout.Std() != 5*time.Second {
		t.Errorf("unexpected timeout: %v", cfg.Extraction.Timeout)
	}
	if cfg.Extraction.Concurrency != 8 {
		t.Errorf("unexpected concurrency: %d", cfg.Extraction.Concurrency)
	}
	if cfg.Cache.Backend != "sqlite" || cfg.Cache.TTL.Std() != 24*time.Hour {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("unexpected log level: %q", cfg.Logging.Level)
	}

	// Defaults fill unset fields.
	if cfg.Extraction.RateBurst != 10 {
		t.Errorf("expected default rate burst, got %d", cfg.Extraction.RateBurst)
	}
	if cfg.Monitoring.ListenAddress != ":9090" {
		t.Errorf("expected default listen address, got %q", cfg.Monitoring.ListenAddress)
	}
}

func TestLoadFromBytesEnvExpansion(t *testing.T) {
	os.Setenv("LINKMETA_TEST_DSN", "postgres://cache:secret@db/linkmeta")
	defer os.Unsetenv("LINKMETA_TEST_DSN")

	cfg, err := LoadFromBytes([]byte(`
cache:
  backend: postgres
  dsn: ${LINKMETA_TEST_DSN}
`))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}
	if cfg.Cache.DSN != "postgres://cache:secret@db/linkmeta" {
		t.Errorf("env variable not expanded: %q", cfg.Cache.DSN)
	}
}

func TestLoadValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown backend", "cache:\n  backend: redis\n"},
		{"missing dsn", "cache:\n  backend: mysql\n"},
		{"negative timeout", "extraction:\n  timeout: -1s\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadFromBytes([]byte(tt.yaml)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadFromFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "linkmeta.yaml")

	cfg := Default()
	cfg.Logging.Level = "warn"
	if err := SaveToFile(cfg, path); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if loaded.Logging.Level != "warn" {
		t.Errorf("round trip lost log level: %q", loaded.Logging.Level)
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/linkmeta.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestGenerateTemplateParses(t *testing.T) {
	tmpl := GenerateTemplate()
	if !strings.Contains(tmpl, "extraction:") {
		t.Fatalf("template missing sections: %s", tmpl)
	}
	if _, err := LoadFromBytes([]byte(tmpl)); err != nil {
		t.Errorf("generated template does not load: %v", err)
	}
}
