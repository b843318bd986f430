// internal/config/config.go

// Package config loads and validates the service configuration from YAML,
// with environment variable substitution.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wishlane/linkmeta/internal/cache"
	"github.com/wishlane/linkmeta/internal/urlutil"
)

// ServiceConfig is the top-level configuration for the extraction service.
type ServiceConfig struct {
	Extraction ExtractionConfig `yaml:"extraction"`
	Validation urlutil.Rules    `yaml:"validation"`
	Cache      CacheConfig      `yaml:"cache"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ExtractionConfig tunes the fetch and orchestration layer.
type ExtractionConfig struct {
	Timeout        Duration `yaml:"timeout"`
	UserAgent      string   `yaml:"user_agent,omitempty"`
	RateLimit      float64  `yaml:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst"`
	RetryAttempts  int      `yaml:"retry_attempts"`
	RetryDelay     Duration `yaml:"retry_delay,omitempty"`
	Concurrency    int      `yaml:"concurrency"`
	UseFallback    *bool    `yaml:"use_fallback,omitempty"`
	ProductDetails bool     `yaml:"product_details"`
}

// MonitoringConfig controls the metrics and health listener.
type MonitoringConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address,omitempty"`
	Namespace     string `yaml:"namespace,omitempty"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*ServiceConfig, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %v", err)
	}
	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes. Environment variables
// referenced as $VAR or ${VAR} are substituted before parsing.
func LoadFromBytes(data []byte) (*ServiceConfig, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := os.ExpandEnv(string(data))

	var config ServiceConfig
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %v", err)
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}
	return &config, nil
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*ServiceConfig, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %v", err)
	}
	return LoadFromBytes(data)
}

// SaveToFile writes the configuration as YAML, creating directories as
// needed.
func SaveToFile(config *ServiceConfig, filename string) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %v", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %v", err)
	}

	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %v", dir, err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write configuration file: %v", err)
	}
	return nil
}

// Validate checks the configuration for contradictions and bad values.
func (c *ServiceConfig) Validate() error {
	if c.Extraction.Timeout < 0 {
		return fmt.Errorf("extraction.timeout cannot be negative")
	}
	if c.Extraction.RateLimit < 0 {
		return fmt.Errorf("extraction.rate_limit cannot be negative")
	}
	if c.Extraction.Concurrency < 0 {
		return fmt.Errorf("extraction.concurrency cannot be negative")
	}
	switch c.Cache.Backend {
	case "", "memory", "sqlite", "postgres", "postgresql", "mysql", "mongodb", "mongo":
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Cache.Backend != "" && c.Cache.Backend != "memory" && c.Cache.DSN == "" {
		return fmt.Errorf("cache.dsn is required for backend %q", c.Cache.Backend)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("cache.ttl cannot be negative")
	}
	return nil
}

func applyDefaults(config *ServiceConfig) {
	if config.Extraction.Timeout == 0 {
		config.Extraction.Timeout = Duration(10 * time.Second)
	}
	if config.Extraction.RateLimit == 0 {
		config.Extraction.RateLimit = 5.0
	}
	if config.Extraction.RateBurst == 0 {
		config.Extraction.RateBurst = 10
	}
	if config.Extraction.RetryAttempts == 0 {
		config.Extraction.RetryAttempts = 2
	}
	if config.Extraction.RetryDelay == 0 {
		config.Extraction.RetryDelay = Duration(500 * time.Millisecond)
	}
	if config.Extraction.Concurrency == 0 {
		config.Extraction.Concurrency = 5
	}
	if config.Validation.MaxLength == 0 {
		config.Validation.MaxLength = urlutil.DefaultMaxURLLength
	}
	if len(config.Validation.AllowedSchemes) == 0 {
		config.Validation.AllowedSchemes = []string{"http", "https"}
	}
	if config.Cache.Backend == "" {
		config.Cache.Backend = "memory"
	}
	if config.Cache.TTL == 0 {
		config.Cache.TTL = Duration(cache.DefaultMetadataTTL)
	}
	if config.Monitoring.ListenAddress == "" {
		config.Monitoring.ListenAddress = ":9090"
	}
	if config.Monitoring.Namespace == "" {
		config.Monitoring.Namespace = "linkmeta"
	}
	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
}

// Default returns the configuration used when no file is given.
func Default() *ServiceConfig {
	var config ServiceConfig
	applyDefaults(&config)
	return &config
}

// GenerateTemplate returns a commented starter configuration.
func GenerateTemplate() string {
	return `# linkmeta service configuration
extraction:
  timeout: 10s
  rate_limit: 5        # requests per second against upstream hosts
  rate_burst: 10
  retry_attempts: 2    # retries after the first attempt; -1 disables
  retry_delay: 500ms
  concurrency: 5       # batch fan-out width
  product_details: true

validation:
  max_length: 2048
  allowed_schemes: [http, https]
  # allowed_hosts: ["*.amazon.com", "*.target.com"]

cache:
  backend: memory      # memory, sqlite, postgres, mysql, mongodb
  # dsn: linkmeta-cache.db
  ttl: 168h            # one week

monitoring:
  enabled: false
  listen_address: ":9090"

logging:
  level: info
`
}
