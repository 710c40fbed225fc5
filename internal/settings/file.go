package settings

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// FileStore keeps settings in a YAML file
type FileStore struct {
	*viper.Viper
	path string
}

// DefaultPath returns the settings file location under the user's state
// directory
func DefaultPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "state", "jembatan", "settings.yaml")
}

// OpenFileStore loads the settings file at path. A missing file yields an
// empty store; a file that cannot be parsed is an error.
func OpenFileStore(path string) (*FileStore, error) {
	if path == "" {
		path = DefaultPath()
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if _, err := os.Stat(path); err == nil {
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat settings file %s: %w", path, err)
	}

	return &FileStore{Viper: v, path: path}, nil
}

// Path returns the settings file location
func (f *FileStore) Path() string {
	return f.path
}

// Write persists the current values
func (f *FileStore) Write() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := f.WriteConfigAs(f.path); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}
