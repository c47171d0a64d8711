package config

import (
	"encoding/json"
	"os"
)

// DefaultConfigPath is where the daemon looks for its config file
// when no --config flag is given.
const DefaultConfigPath = "/etc/workspaced/config.json"

// FileSystem abstracts file operations for testability.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// osFileReader implements FileSystem using the real OS.
type osFileReader struct{}

func (osFileReader) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Loader handles configuration loading with an injected filesystem.
type Loader struct {
	fs FileSystem
}

// NewLoader creates a production Loader using the real filesystem.
func NewLoader() *Loader {
	return &Loader{fs: osFileReader{}}
}

// NewLoaderWithFS creates a Loader with a custom filesystem (for testing).
func NewLoaderWithFS(fs FileSystem) *Loader {
	return &Loader{fs: fs}
}

// Load reads configuration from path and merges it with defaults.
// File values override defaults. Returns default config if the file
// doesn't exist. Returns an error only for parse errors, permission
// issues, or validation failures.
//
// NOTE: JSON keys are unmarshalled directly over the default configuration.
// This allows explicit zero values (e.g., 0, false, "") in the config file
// to override defaults, while missing keys leave the defaults untouched.
func (l *Loader) Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := l.fs.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is a convenience function using the default loader.
func Load(path string) (*Config, error) {
	return NewLoader().Load(path)
}
