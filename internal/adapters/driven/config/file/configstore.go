package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/docintel/internal/adapters/driven/config/values"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// FileName is the config file inside the home directory.
const FileName = "config.toml"

// ConfigStore reads and writes config.toml.
type ConfigStore struct {
	mu   sync.RWMutex
	path string
	vals values.Values
}

// NewConfigStore opens the config in dir, creating dir if needed.
// An empty dir means ~/.docintel. A missing file is an empty config.
func NewConfigStore(dir string) (*ConfigStore, error) {
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("locating home directory: %w", err)
		}
		dir = filepath.Join(home, ".docintel")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	s := &ConfigStore{path: filepath.Join(dir, FileName), vals: values.Values{}}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ConfigStore) snapshot() values.Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vals
}

// Get returns the raw value at key.
func (s *ConfigStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vals[key]
	return v, ok
}

// GetString returns the string at key.
func (s *ConfigStore) GetString(key string) string { return s.snapshot().String(key) }

// GetInt returns the integer at key.
func (s *ConfigStore) GetInt(key string) int { return s.snapshot().Int(key) }

// GetFloat returns the number at key.
func (s *ConfigStore) GetFloat(key string) float64 { return s.snapshot().Float(key) }

// GetBool returns the boolean at key.
func (s *ConfigStore) GetBool(key string) bool { return s.snapshot().Bool(key) }

// GetStringSlice returns the strings at key.
func (s *ConfigStore) GetStringSlice(key string) []string { return s.snapshot().Strings(key) }

// GetDuration parses the duration at key.
func (s *ConfigStore) GetDuration(key string) (time.Duration, bool) {
	return s.snapshot().Duration(key)
}

// Set stores value and rewrites the file. The in-memory value is rolled
// back if the write fails.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.vals.Clone()
	next[key] = value
	if err := s.write(next); err != nil {
		return err
	}
	s.vals = next
	return nil
}

// Save rewrites the file from memory.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(s.vals)
}

// write replaces the file atomically so a crash never leaves half a config.
func (s *ConfigStore) write(vals values.Values) error {
	data, err := toml.Marshal(vals.Nest())
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".config-*.toml")
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("writing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Load rereads the file. A missing file yields an empty config.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.vals = values.Values{}
		return nil
	}
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}

	var tables map[string]any
	if err := toml.Unmarshal(data, &tables); err != nil {
		return fmt.Errorf("parsing %s: %w", s.path, err)
	}
	s.vals = values.Flatten(tables)
	return nil
}

// Path returns the config file path.
func (s *ConfigStore) Path() string {
	return s.path
}
