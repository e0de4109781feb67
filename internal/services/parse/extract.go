package parse

import "strings"

// Extract isolates the JSON-shaped region of raw: everything from the first '{' to the
// last '}' inclusive, or from the first '[' to the last ']' when no brace pair exists.
//
// Several independent fragments in one text yield a single span covering all of them;
// the parser is expected to reject such spans.
func Extract(raw string) (string, error) {
	if s, ok := span(raw, '{', '}'); ok {
		return s, nil
	}
	if s, ok := span(raw, '[', ']'); ok {
		return s, nil
	}
	return "", &ExtractionFailure{Raw: raw, Reason: reason(raw)}
}

func span(raw string, open, close byte) (string, bool) {
	start := strings.IndexByte(raw, open)
	end := strings.LastIndexByte(raw, close)
	if start < 0 || end < 0 || end < start {
		return "", false
	}
	return raw[start : end+1], true
}

func reason(raw string) string {
	switch {
	case strings.TrimSpace(raw) == "":
		return "empty input"
	case !strings.ContainsAny(raw, "{["):
		return "missing opening bracket"
	case !strings.ContainsAny(raw, "}]"):
		return "missing closing bracket"
	default:
		return "closing bracket precedes opening bracket"
	}
}
