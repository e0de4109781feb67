package parse

import (
	"regexp"
	"strings"
)

// Repair is one string-to-string transform tried by the parser.
type Repair struct {
	Name  string
	Apply func(string) string
}

// Strategy names, recorded on every report.
const (
	StrategyIdentity       = "identity"
	StrategyTrailingCommas = "strip_trailing_commas"
	StrategyStringNewlines = "escape_string_newlines"
	StrategyControlChars   = "flatten_control_chars"
)

// Strategies lists the repairs in escalation order. Each one is applied to the output of
// the previous one, so later steps keep the fixes of earlier ones.
var Strategies = []Repair{
	{Name: StrategyIdentity, Apply: Identity},
	{Name: StrategyTrailingCommas, Apply: StripTrailingCommas},
	{Name: StrategyStringNewlines, Apply: EscapeStringNewlines},
	{Name: StrategyControlChars, Apply: FlattenControlChars},
}

var (
	trailingComma = regexp.MustCompile(`,\s*([}\]])`)
	valueOpen     = regexp.MustCompile(`":\s*"`)
	controlChars  = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")
)

func Identity(s string) string { return s }

// StripTrailingCommas drops a comma (and any whitespace after it) that directly precedes '}' or ']'.
// It does not track strings, so a ", }" inside a string value is rewritten too.
func StripTrailingCommas(s string) string {
	return trailingComma.ReplaceAllString(s, "$1")
}

// EscapeStringNewlines escapes literal line breaks inside string values only.
// A value span starts after `":` plus optional whitespace and an opening quote, and ends
// at the next unescaped quote. Line breaks outside such spans are left untouched.
func EscapeStringNewlines(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	pos := 0
	for pos < len(s) {
		loc := valueOpen.FindStringIndex(s[pos:])
		if loc == nil {
			break
		}
		start := pos + loc[1]
		b.WriteString(s[pos:start])
		pos = escapeValue(s, start, &b)
	}
	b.WriteString(s[pos:])
	return b.String()
}

// escapeValue copies s[start:] into b up to (not including) the closing quote and
// returns the index of that quote, or len(s) when the value never closes.
func escapeValue(s string, start int, b *strings.Builder) int {
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
			b.WriteByte(c)
		case c == '\\':
			escaped = true
			b.WriteByte(c)
		case c == '"':
			return i
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		default:
			b.WriteByte(c)
		}
	}
	return len(s)
}

// FlattenControlChars replaces every literal newline, carriage return and tab with a space.
func FlattenControlChars(s string) string {
	return controlChars.Replace(s)
}
