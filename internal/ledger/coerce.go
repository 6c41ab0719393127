package ledger

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// Coerce converts an external value into an optional float.
// It returns def when value is nil, an empty string, unparsable, NaN or infinite.
func Coerce(value any, def *float64) *float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return def
	case *float64:
		if v == nil {
			return def
		}
		f = *v
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int32:
		f = float64(v)
	case int64:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint32:
		f = float64(v)
	case uint64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return def
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return def
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return def
		}
		f = parsed
	default:
		return def
	}
	if !isFinite(f) {
		return def
	}
	return &f
}

// IsAbsentInput reports whether value is one of the inputs Coerce treats as absent
// on purpose (nil or blank string), as opposed to input that failed to parse.
func IsAbsentInput(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case *float64:
		return v == nil
	case string:
		return strings.TrimSpace(v) == ""
	}
	return false
}

// Equal reports whether two optional floats hold the same value.
func Equal(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
