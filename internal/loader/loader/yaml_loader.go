package loader

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"vanish/internal/loader/schema"
)

type YamlLoader struct {
	File string
	// Environ replaces the process environment for overrides when non-nil.
	Environ map[string]string

	config schema.Config
}

func NewYamlLoader(fileName string) *YamlLoader {
	return &YamlLoader{
		File:   fileName,
		config: schema.Default(),
	}
}

// Load decodes the file, applies VANISH_* environment overrides and clamps
// the result. A missing file is not an error: the stock config is used.
func (l *YamlLoader) Load() error {
	var cfg schema.Config

	data, err := os.ReadFile(l.File)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		cfg = schema.Default()
	case err != nil:
		return fmt.Errorf("read config %s: %w", l.File, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			var typeErr *yaml.TypeError
			if errors.As(err, &typeErr) {
				for _, msg := range typeErr.Errors {
					if strings.HasPrefix(msg, "line") {
						return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
					}
				}
			}
			return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Environment: l.Environ}); err != nil {
		return fmt.Errorf("%w: parse env: %w", ErrInvalidConfig, err)
	}

	l.config = cfg.Normalize()
	return nil
}

func (l *YamlLoader) Path() string {
	return l.File
}

// Config returns the last successfully loaded config, or the stock one.
func (l *YamlLoader) Config() schema.Config {
	return l.config
}
