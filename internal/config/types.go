// internal/config/types.go
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wishlane/linkmeta/internal/cache"
)

// Duration wraps time.Duration so YAML values like "10s" and "168h" parse.
type Duration time.Duration

// UnmarshalYAML accepts either a duration string or integer nanoseconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %v", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(v)
	case float64:
		*d = Duration(v)
	default:
		return fmt.Errorf("invalid duration value: %v", raw)
	}
	return nil
}

// MarshalYAML renders the duration in its string form.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// CacheConfig is the YAML shape of the cache section.
type CacheConfig struct {
	Backend    string   `yaml:"backend"`
	DSN        string   `yaml:"dsn,omitempty"`
	Database   string   `yaml:"database,omitempty"`
	Collection string   `yaml:"collection,omitempty"`
	Table      string   `yaml:"table,omitempty"`
	TTL        Duration `yaml:"ttl,omitempty"`
}

// ToCache converts the section into the cache package's config.
func (c CacheConfig) ToCache() cache.Config {
	return cache.Config{
		Backend:    c.Backend,
		DSN:        c.DSN,
		Database:   c.Database,
		Collection: c.Collection,
		Table:      c.Table,
		TTL:        c.TTL.Std(),
	}
}
