package inference

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RetryPolicy bounds how often and how long a failed generate call is retried.
type RetryPolicy struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	Multiplier     float64
}

// DefaultRetryPolicy is tuned for interactive requests: a handful of seconds, not a quota window.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:     3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     20 * time.Second,
		Multiplier:     2,
	}
}

// IsRateLimitError matches 429 / RESOURCE_EXHAUSTED / quota errors.
func IsRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "429") ||
		strings.Contains(s, "RESOURCE_EXHAUSTED") ||
		strings.Contains(strings.ToLower(s), "quota")
}

// IsTransientError matches server-side failures worth one more try.
func IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	for _, marker := range []string{"500", "502", "503", "504", "UNAVAILABLE", "INTERNAL", "DEADLINE_EXCEEDED"} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

var retryDelayRegex = regexp.MustCompile(`(?i)(?:Please retry in |retryDelay[:\s"]+)(\d+(?:\.\d+)?)\s*s`)

// ExtractRetryDelay parses the server-suggested delay ("Please retry in 12.5s"); 0 if absent.
func ExtractRetryDelay(err error) time.Duration {
	if err == nil {
		return 0
	}
	m := retryDelayRegex.FindStringSubmatch(err.Error())
	if len(m) < 2 {
		return 0
	}
	seconds, perr := strconv.ParseFloat(m[1], 64)
	if perr != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}

// Backoff returns the wait before retry number attempt (0-based). A server-suggested delay
// replaces the initial backoff as the base. The result never exceeds MaxBackoff.
func (p RetryPolicy) Backoff(attempt int, suggested time.Duration) time.Duration {
	base := p.InitialBackoff
	if suggested > 0 {
		base = suggested
	}
	mult := 1.0
	for i := 0; i < attempt; i++ {
		mult *= p.Multiplier
	}
	d := time.Duration(float64(base) * mult)
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}
