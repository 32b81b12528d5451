package driven

import "time"

// ConfigStore holds application configuration under dotted keys such as
// "embedding.provider". Typed getters return the zero value for a missing
// key or a value of the wrong type; use Get to tell the two apart.
type ConfigStore interface {
	// Get returns the raw value and whether the key exists.
	Get(key string) (any, bool)

	GetString(key string) string

	// GetInt accepts integers and whole floats.
	GetInt(key string) int

	// GetFloat accepts floats and integers.
	GetFloat(key string) float64

	GetBool(key string) bool

	// GetStringSlice drops non-string elements.
	GetStringSlice(key string) []string

	// GetDuration parses a duration string such as "15m".
	// The boolean is false when the key is missing or unparsable.
	GetDuration(key string) (time.Duration, bool)

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load replaces the in-memory configuration with the persisted one.
	Load() error

	// Path returns the backing file, or "" for stores without one.
	Path() string
}
