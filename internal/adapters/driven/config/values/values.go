// Package values holds flattened configuration maps and the type coercion
// shared by every config store.
//
// Keys are dotted paths ("embedding.provider"). Stores decode nested TOML
// tables with Flatten and write them back with Nest.
package values

import (
	"maps"
	"math"
	"sort"
	"strings"
	"time"
)

// Values maps dotted keys to decoded scalars or slices.
type Values map[string]any

// Flatten converts nested tables into dotted keys.
func Flatten(m map[string]any) Values {
	out := make(Values, len(m))
	flattenInto(out, m, "")
	return out
}

func flattenInto(out Values, m map[string]any, prefix string) {
	for key, value := range m {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if nested, ok := value.(map[string]any); ok {
			flattenInto(out, nested, full)
			continue
		}
		out[full] = value
	}
}

// Nest converts dotted keys back into tables. A key that is both a value and
// a table prefix keeps its dotted form at the root so nothing is lost.
func (v Values) Nest() map[string]any {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	// Shorter keys first so scalars claim their slot before longer paths.
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) < len(keys[j])
		}
		return keys[i] < keys[j]
	})

	root := make(map[string]any)
	for _, key := range keys {
		if !insert(root, strings.Split(key, "."), v[key]) {
			root[key] = v[key]
		}
	}
	return root
}

func insert(table map[string]any, path []string, value any) bool {
	for _, part := range path[:len(path)-1] {
		next, exists := table[part]
		if !exists {
			child := make(map[string]any)
			table[part] = child
			table = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return false
		}
		table = child
	}
	leaf := path[len(path)-1]
	if _, exists := table[leaf]; exists {
		return false
	}
	table[leaf] = value
	return true
}

// Clone returns a shallow copy.
func (v Values) Clone() Values {
	return maps.Clone(v)
}

// String returns the string at key, or "".
func (v Values) String(key string) string {
	s, _ := v[key].(string)
	return s
}

// Int returns the integer at key. Whole floats are accepted; anything else is 0.
func (v Values) Int(key string) int {
	switch n := v[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case int32:
		return int(n)
	case float64:
		if n == math.Trunc(n) {
			return int(n)
		}
	}
	return 0
}

// Float returns the number at key, converting integers, or 0.
func (v Values) Float(key string) float64 {
	switch n := v[key].(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

// Bool returns the boolean at key, or false.
func (v Values) Bool(key string) bool {
	b, _ := v[key].(bool)
	return b
}

// Strings returns the string elements at key. Non-string elements are dropped.
func (v Values) Strings(key string) []string {
	switch s := v[key].(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			if str, ok := item.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}

// Duration parses a Go duration string at key. The boolean is false when the
// key is missing or unparsable.
func (v Values) Duration(key string) (time.Duration, bool) {
	s := v.String(key)
	if s == "" {
		return 0, false
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, false
	}
	return d, true
}
