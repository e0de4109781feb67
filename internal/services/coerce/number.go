package coerce

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`[-+]?\d+(\.\d+)?`)

// Number resolves any scalar to a finite float64. Anything unparseable becomes 0.
func Number(v any) float64 {
	f, _ := NumberOK(v)
	return f
}

// NumberOK is Number plus a flag telling whether a finite value was actually found.
func NumberOK(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		return finite(f)
	case string:
		return fromString(x)
	default:
		return 0, false
	}
}

// Score is Number clamped to [0,100].
func Score(v any) float64 {
	return Clamp(Number(v), 0, 100)
}

// ScoreOK is Score plus the found flag from NumberOK.
func ScoreOK(v any) (float64, bool) {
	f, ok := NumberOK(v)
	return Clamp(f, 0, 100), ok
}

// Clamp bounds f to [lo,hi]; NaN becomes lo.
func Clamp(f, lo, hi float64) float64 {
	switch {
	case math.IsNaN(f), f < lo:
		return lo
	case f > hi:
		return hi
	default:
		return f
	}
}

func fromString(s string) (float64, bool) {
	m := numberPattern.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return finite(f)
}

func finite(f float64) (float64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
