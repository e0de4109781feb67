package coerce

import (
	"encoding/json"
	"strconv"
	"strings"
)

// String renders a scalar as trimmed text. Objects and lists yield "".
func String(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return ""
	}
}

// Strings turns a list (or a single scalar) into non-empty trimmed strings.
// Objects inside a list are rendered from their first text-like field.
func Strings(v any) []string {
	switch x := v.(type) {
	case []any:
		out := make([]string, 0, len(x))
		for _, item := range x {
			s := String(item)
			if obj, ok := item.(map[string]any); ok {
				s = firstText(obj)
			}
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		out := make([]string, 0, len(x))
		for _, s := range x {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := String(v); s != "" {
			return []string{s}
		}
		return nil
	}
}

// Bool accepts booleans, numbers and the usual textual flags.
func Bool(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case json.Number, float64:
		return Number(x) != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "yes", "y", "1", "on", "detected", "present":
			return true
		}
	}
	return false
}

var textKeys = []string{"text", "title", "description", "name", "value"}

func firstText(obj map[string]any) string {
	for _, k := range textKeys {
		if s := String(obj[k]); s != "" {
			return s
		}
	}
	return ""
}
