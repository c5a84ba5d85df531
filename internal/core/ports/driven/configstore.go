package driven

import "github.com/custodia-labs/metasync/internal/core/domain"

// ConfigStore provides access to the process configuration.
type ConfigStore interface {
	// Load reads the settings, applying defaults for unset values.
	// A missing file yields the defaults.
	Load() (domain.Settings, error)

	// Save persists the settings.
	Save(settings domain.Settings) error

	// Path returns the configuration file path.
	Path() string
}
