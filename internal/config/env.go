package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Environment variables recognised by FromEnv
const (
	EnvConfig          = "WIDGETD_CONFIG"
	EnvListen          = "WIDGETD_LISTEN"
	EnvLogLevel        = "WIDGETD_LOG_LEVEL"
	EnvLogFormat       = "WIDGETD_LOG_FORMAT"
	EnvDefaultPageSize = "WIDGETD_DEFAULT_PAGE_SIZE"
	EnvMaxPageSize     = "WIDGETD_MAX_PAGE_SIZE"
	EnvRateLimit       = "WIDGETD_RATE_LIMIT"
	EnvRateBurst       = "WIDGETD_RATE_BURST"
	EnvShutdownTimeout = "WIDGETD_SHUTDOWN_TIMEOUT"
)

// FromEnv overlays WIDGETD_* environment variables onto cfg.
// A set but unparsable variable is an error.
func FromEnv(cfg *Config) error {
	if v := os.Getenv(EnvListen); v != "" {
		cfg.Listen = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	if err := envInt(EnvDefaultPageSize, &cfg.DefaultPageSize); err != nil {
		return err
	}
	if err := envInt(EnvMaxPageSize, &cfg.MaxPageSize); err != nil {
		return err
	}
	if err := envInt(EnvRateBurst, &cfg.RateBurst); err != nil {
		return err
	}
	if v := os.Getenv(EnvRateLimit); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRateLimit, err)
		}
		cfg.RateLimit = f
	}
	if v := os.Getenv(EnvShutdownTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvShutdownTimeout, err)
		}
		cfg.ShutdownTimeout = d
	}
	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
