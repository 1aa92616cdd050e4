package loader

import (
	"errors"

	"vanish/internal/loader/schema"
)

// ErrInvalidConfig wraps every decode failure of a config file.
var ErrInvalidConfig = errors.New("invalid config")

// Loader reads one config file. Config keeps returning the last good
// result after a failed Load.
type Loader interface {
	Load() error
	Config() schema.Config
	Path() string
}
