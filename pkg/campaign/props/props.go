// Package props gives handlers typed, default-tolerant access to an
// event's property bag, and loads campaign definitions from YAML or
// JSON files.
package props

import (
	"time"
)

// Bag wraps a map[string]any for type-safe value extraction.
// All accessor methods return default values if the key is missing or
// the value cannot be converted to the requested type, so handlers
// never need to type-assert raw properties.
type Bag struct {
	data map[string]any
}

// New creates a Bag from the given map.
// If data is nil, an empty Bag is returned.
func New(data map[string]any) Bag {
	if data == nil {
		data = make(map[string]any)
	}
	return Bag{data: data}
}

// String returns the string value for key, or defaultVal if missing or
// not a string.
func (b Bag) String(key, defaultVal string) string {
	v, ok := b.data[key]
	if !ok {
		return defaultVal
	}
	if s, ok := v.(string); ok {
		return s
	}
	return defaultVal
}

// Bool returns the boolean value for key, or defaultVal if missing or
// not a bool.
func (b Bag) Bool(key string, defaultVal bool) bool {
	v, ok := b.data[key]
	if !ok {
		return defaultVal
	}
	if val, ok := v.(bool); ok {
		return val
	}
	return defaultVal
}

// Int returns the integer value for key, or defaultVal if missing or
// not convertible.
//
// Accepts:
//   - int: used directly
//   - int64: converted to int
//   - float64: converted to int (only if no fractional part)
func (b Bag) Int(key string, defaultVal int) int {
	v, ok := b.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case int:
		return val
	case int64:
		return int(val)
	case float64:
		if val == float64(int(val)) {
			return int(val)
		}
	}
	return defaultVal
}

// Float returns the float64 value for key, or defaultVal if missing or
// not convertible.
func (b Bag) Float(key string, defaultVal float64) float64 {
	v, ok := b.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case int64:
		return float64(val)
	}
	return defaultVal
}

// Duration returns the duration value for key, or defaultVal if
// missing or invalid.
//
// Accepts:
//   - string: parsed with time.ParseDuration
//   - int, int64, float64: interpreted as seconds
//   - time.Duration: used directly
func (b Bag) Duration(key string, defaultVal time.Duration) time.Duration {
	v, ok := b.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case string:
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	case float64:
		return time.Duration(val * float64(time.Second))
	case int:
		return time.Duration(val) * time.Second
	case int64:
		return time.Duration(val) * time.Second
	case time.Duration:
		return val
	}
	return defaultVal
}

// StringSlice returns the string-slice value for key, or defaultVal if
// missing or not convertible. Accepts []string directly or []any whose
// elements are all strings.
func (b Bag) StringSlice(key string, defaultVal []string) []string {
	v, ok := b.data[key]
	if !ok {
		return defaultVal
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return defaultVal
			}
			out = append(out, s)
		}
		return out
	}
	return defaultVal
}

// Map returns the nested map value for key wrapped in a Bag, or an
// empty Bag if missing or not a map.
func (b Bag) Map(key string) Bag {
	v, ok := b.data[key]
	if !ok {
		return New(nil)
	}
	if m, ok := v.(map[string]any); ok {
		return New(m)
	}
	return New(nil)
}

// Has reports whether key is present.
func (b Bag) Has(key string) bool {
	_, ok := b.data[key]
	return ok
}

// Raw returns the underlying map.
func (b Bag) Raw() map[string]any {
	return b.data
}
