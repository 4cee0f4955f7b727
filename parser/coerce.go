package parser

import (
	"fmt"
	"math"
	"strconv"
)

// String returns m[key] as a string, or def when absent or not a string.
// Numbers and booleans are formatted rather than dropped.
func String(m map[string]any, key, def string) string {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return def
	}
}

// Float returns m[key] as a float64, accepting numeric strings, or def.
func Float(m map[string]any, key string, def float64) float64 {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case float64:
		return t
	case string:
		if f, err := strconv.ParseFloat(t, 64); err == nil {
			return f
		}
	}
	return def
}

// Int returns m[key] rounded to an int, accepting numeric strings, or def.
func Int(m map[string]any, key string, def int) int {
	v, ok := m[key]
	if !ok || v == nil {
		return def
	}
	switch t := v.(type) {
	case float64:
		return int(math.Round(t))
	case string:
		if n, err := strconv.Atoi(t); err == nil {
			return n
		}
	}
	return def
}

// Strings returns m[key] as a string slice. A scalar string becomes a
// one-element slice; non-string elements are formatted with %v. Absent or
// mistyped values yield an empty slice, never nil-pointer surprises.
func Strings(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return []string{}
	}
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else if e != nil {
				out = append(out, fmt.Sprintf("%v", e))
			}
		}
		return out
	case string:
		return []string{t}
	default:
		return []string{}
	}
}

// Objects returns m[key] as a slice of loose maps, skipping non-object
// elements. Absent or mistyped values yield an empty slice.
func Objects(m map[string]any, key string) []map[string]any {
	v, ok := m[key]
	if !ok || v == nil {
		return []map[string]any{}
	}
	arr, ok := v.([]any)
	if !ok {
		return []map[string]any{}
	}
	out := make([]map[string]any, 0, len(arr))
	for _, e := range arr {
		if obj, ok := e.(map[string]any); ok {
			out = append(out, obj)
		}
	}
	return out
}
