package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
)

// NewLoggerFromEnv creates a logger based on environment variables
func NewLoggerFromEnv() (Logger, error) {
	cfg, err := ConfigFromEnv(nil)
	if err != nil {
		return nil, err
	}
	return NewZapLogger(cfg)
}

// ConfigFromEnv builds a LoggerConfig from a preset chosen by VANISH_ENV,
// then overrides individual fields from VANISH_LOG_* variables.
// A nil environ reads the process environment.
func ConfigFromEnv(environ map[string]string) (LoggerConfig, error) {
	lookup := os.Getenv
	if environ != nil {
		lookup = func(key string) string { return environ[key] }
	}

	cfg := DefaultConfig()
	if strings.ToLower(lookup("VANISH_ENV")) != "production" {
		cfg = DevelopmentConfig()
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: environ}); err != nil {
		return cfg, fmt.Errorf("parse logger env: %w", err)
	}
	return cfg, nil
}
