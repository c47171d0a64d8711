// Package envfile manages the shared .env file on the workspace volume.
// Variable names are listed without their values; updates rewrite a single
// line while preserving comments, blank lines, and declaration order.
package envfile

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// -- Sentinels --

var (
	ErrNotFound    = errors.New(".env file not found")
	ErrInvalidName = errors.New("invalid environment variable name")
)

// UpdateStatus reports whether an update touched an existing variable or
// appended a new one.
type UpdateStatus string

const (
	StatusUpdated UpdateStatus = "updated"
	StatusCreated UpdateStatus = "created"
)

// fileSystem is the filesystem slice the store needs; satisfied by osFS.
type fileSystem interface {
	ReadFile(path string) ([]byte, error)
	WriteFile(path string, data []byte, perm os.FileMode) error
}

type osFS struct{}

func (osFS) ReadFile(path string) ([]byte, error) { return os.ReadFile(path) }
func (osFS) WriteFile(path string, data []byte, perm os.FileMode) error {
	return os.WriteFile(path, data, perm)
}

// Store reads and mutates one .env file.
type Store struct {
	path string
	fs   fileSystem
}

// NewStore creates a store for the .env file at path.
func NewStore(path string) *Store {
	return &Store{path: path, fs: osFS{}}
}

// NewStoreWithFS creates a store with an injected filesystem, for tests.
func NewStoreWithFS(path string, fs fileSystem) *Store {
	if fs == nil {
		panic("fs is required")
	}
	return &Store{path: path, fs: fs}
}

// Names returns declared variable names in file order, without values.
// Only lines godotenv accepts as declarations are reported, so a malformed
// line never leaks a half-parsed name.
func (s *Store) Names() ([]string, error) {
	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	parsed, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", s.path, err)
	}

	var names []string
	for _, line := range strings.Split(string(data), "\n") {
		name, ok := declaredName(line)
		if !ok {
			continue
		}
		if _, known := parsed[name]; known {
			names = append(names, name)
		}
	}
	return names, nil
}

// Set updates the variable in place or appends it when absent. All other
// lines, including comments and blanks, pass through untouched. A missing
// file is created.
func (s *Store) Set(name, value string) (UpdateStatus, error) {
	if !validName(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	var lines []string
	data, err := s.fs.ReadFile(s.path)
	switch {
	case err == nil:
		lines = strings.Split(string(data), "\n")
		// A trailing newline yields one empty trailing element; drop it so
		// the rewrite does not grow a blank line per update.
		if n := len(lines); n > 0 && lines[n-1] == "" {
			lines = lines[:n-1]
		}
	case os.IsNotExist(err):
		// start a fresh file
	default:
		return "", err
	}

	status := StatusCreated
	for i, line := range lines {
		existing, ok := declaredName(line)
		if ok && existing == name {
			lines[i] = name + "=" + value
			status = StatusUpdated
			break
		}
	}
	if status == StatusCreated {
		lines = append(lines, name+"="+value)
	}

	content := strings.Join(lines, "\n") + "\n"
	if err := s.fs.WriteFile(s.path, []byte(content), 0o644); err != nil {
		return "", err
	}
	return status, nil
}

// declaredName extracts the variable name from a declaration line, ignoring
// comments, blanks, and an optional "export " prefix.
func declaredName(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	trimmed = strings.TrimPrefix(trimmed, "export ")
	name, _, ok := strings.Cut(trimmed, "=")
	if !ok {
		return "", false
	}
	return strings.TrimSpace(name), true
}

func validName(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
