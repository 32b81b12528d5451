package memory

import (
	"sync"
	"time"

	"github.com/custodia-labs/docintel/internal/adapters/driven/config/values"
	"github.com/custodia-labs/docintel/internal/core/ports/driven"
)

var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps configuration in memory. Save and Load do nothing.
type ConfigStore struct {
	mu   sync.RWMutex
	vals values.Values
}

// NewConfigStore creates a config store, optionally seeded with values.
func NewConfigStore(seed ...map[string]any) *ConfigStore {
	s := &ConfigStore{vals: values.Values{}}
	for _, m := range seed {
		for k, v := range m {
			s.vals[k] = v
		}
	}
	return s
}

func (s *ConfigStore) read() values.Values {
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
func (s *ConfigStore) GetString(key string) string { return s.read().String(key) }

// GetInt returns the integer at key.
func (s *ConfigStore) GetInt(key string) int { return s.read().Int(key) }

// GetFloat returns the number at key.
func (s *ConfigStore) GetFloat(key string) float64 { return s.read().Float(key) }

// GetBool returns the boolean at key.
func (s *ConfigStore) GetBool(key string) bool { return s.read().Bool(key) }

// GetStringSlice returns the strings at key.
func (s *ConfigStore) GetStringSlice(key string) []string { return s.read().Strings(key) }

// GetDuration parses the duration at key.
func (s *ConfigStore) GetDuration(key string) (time.Duration, bool) { return s.read().Duration(key) }

// Set stores a value.
func (s *ConfigStore) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := s.vals.Clone()
	next[key] = value
	s.vals = next
	return nil
}

// Save is a no-op.
func (s *ConfigStore) Save() error { return nil }

// Load is a no-op.
func (s *ConfigStore) Load() error { return nil }

// Path returns "" because nothing is persisted.
func (s *ConfigStore) Path() string { return "" }
