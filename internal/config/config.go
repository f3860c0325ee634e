// Package config loads widgetd configuration from a file and the environment.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dreamware/widgetboard/internal/logging"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	Listen          string        `yaml:"listen" json:"listen"`
	LogLevel        string        `yaml:"logLevel" json:"logLevel"`
	LogFormat       string        `yaml:"logFormat" json:"logFormat"`
	DefaultPageSize int           `yaml:"defaultPageSize" json:"defaultPageSize"`
	MaxPageSize     int           `yaml:"maxPageSize" json:"maxPageSize"`
	RateLimit       float64       `yaml:"rateLimit" json:"rateLimit"` // requests per second, 0 disables
	RateBurst       int           `yaml:"rateBurst" json:"rateBurst"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		Listen:          ":8080",
		LogLevel:        "info",
		LogFormat:       "text",
		DefaultPageSize: 10,
		MaxPageSize:     500,
		RateBurst:       50,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Load reads configuration from a YAML or JSON file (by extension). If path is empty, returns defaults.
// Fields absent from the file keep their defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	return cfg, nil
}

// UnmarshalJSON accepts shutdownTimeout either as a duration string ("2s"),
// matching the YAML form, or as integer nanoseconds.
func (c *Config) UnmarshalJSON(b []byte) error {
	type plain Config
	aux := struct {
		*plain
		ShutdownTimeout json.RawMessage `json:"shutdownTimeout"`
	}{plain: (*plain)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if len(aux.ShutdownTimeout) == 0 || string(aux.ShutdownTimeout) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(aux.ShutdownTimeout, &s); err == nil {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("shutdownTimeout: %w", err)
		}
		c.ShutdownTimeout = d
		return nil
	}
	var ns int64
	if err := json.Unmarshal(aux.ShutdownTimeout, &ns); err != nil {
		return fmt.Errorf("shutdownTimeout: want a duration string or nanoseconds: %w", err)
	}
	c.ShutdownTimeout = time.Duration(ns)
	return nil
}

// Validate reports the first invalid setting
func (c Config) Validate() error {
	if c.Listen == "" {
		return errors.New("config: listen address is required")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if c.MaxPageSize <= 0 {
		return fmt.Errorf("config: maxPageSize %d must be positive", c.MaxPageSize)
	}
	if c.DefaultPageSize <= 0 || c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("config: defaultPageSize %d must be in 1..%d", c.DefaultPageSize, c.MaxPageSize)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: rateLimit %v must not be negative", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst <= 0 {
		return fmt.Errorf("config: rateBurst %d must be positive when rateLimit is set", c.RateBurst)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("config: shutdownTimeout %v must be positive", c.ShutdownTimeout)
	}
	return nil
}
