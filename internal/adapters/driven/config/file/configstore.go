package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore is a file-based implementation of driven.ConfigStore using TOML.
type ConfigStore struct {
	mu       sync.Mutex
	filePath string
}

// DefaultPath returns ~/.metasync/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".metasync", "config.toml"), nil
}

// NewConfigStore creates a TOML config store.
// If path is empty, defaults to DefaultPath.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}
	return &ConfigStore{filePath: path}, nil
}

// Load reads the settings from the TOML file. Unknown keys are rejected.
func (s *ConfigStore) Load() (domain.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := domain.DefaultSettings()
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return domain.Settings{}, err
	}

	defaultHosts := settings.Index.Hosts
	settings.Index.Hosts = nil

	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&settings); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return domain.Settings{}, fmt.Errorf("%w: %s: %s", domain.ErrInvalidInput, s.filePath, strict.String())
		}
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return domain.Settings{}, fmt.Errorf("%w: %s:%d:%d: %v", domain.ErrInvalidInput, s.filePath, row, col, decodeErr)
		}
		return domain.Settings{}, fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, s.filePath, err)
	}

	if len(settings.Index.Hosts) == 0 {
		settings.Index.Hosts = defaultHosts
	}
	return settings, nil
}

// Save writes the settings, creating the directory if needed.
func (s *ConfigStore) Save(settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := toml.Marshal(settings)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.filePath), 0700); err != nil {
		return err
	}

	// Write with restricted permissions
	return os.WriteFile(s.filePath, data, 0600)
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
