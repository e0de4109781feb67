package parse

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"plain object", `{"a":1}`, `{"a":1}`},
		{"fenced with prose", "Here you go:\n```json\n{\"a\":1}\n```\nThanks", `{"a":1}`},
		{"array fallback", `result: [1, 2, 3] done`, `[1, 2, 3]`},
		{"over-wide span", `{"a":1} and {"b":2}`, `{"a":1} and {"b":2}`},
		{"nested", `x {"a":{"b":[1]}} y`, `{"a":{"b":[1]}}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Extract(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestExtractFailures(t *testing.T) {
	for _, raw := range []string{"", "no json here", `{"a":1`, `"a":1}`, `} backwards {`} {
		_, err := Extract(raw)
		if !errors.Is(err, ErrExtraction) {
			t.Fatalf("Extract(%q): expected ErrExtraction, got %v", raw, err)
		}
		var ef *ExtractionFailure
		if !errors.As(err, &ef) || ef.Raw != raw {
			t.Fatalf("Extract(%q): expected *ExtractionFailure carrying raw text", raw)
		}
	}
}

func TestStripTrailingCommas(t *testing.T) {
	got := StripTrailingCommas("{\"a\":[1,2, ],\n\"b\":3,\n}")
	assert.Equal(t, "{\"a\":[1,2],\n\"b\":3}", got)

	// Strings are not tracked.
	assert.Equal(t, `{"a":"x}"}`, StripTrailingCommas(`{"a":"x, }"}`))
}

func TestEscapeStringNewlines(t *testing.T) {
	in := "{\"summary\": \"line one\nline two\",\n\"note\":\"a\\\"b\r\nc\"}"
	want := "{\"summary\": \"line one\\nline two\",\n\"note\":\"a\\\"b\\r\\nc\"}"
	assert.Equal(t, want, EscapeStringNewlines(in))
}

func TestEscapeStringNewlinesLeavesStructureAlone(t *testing.T) {
	in := "{\n  \"a\": 1,\n  \"b\": [\n    2\n  ]\n}"
	assert.Equal(t, in, EscapeStringNewlines(in))
}

func TestFlattenControlChars(t *testing.T) {
	assert.Equal(t, `{"a": "x y z"}`, FlattenControlChars("{\"a\": \"x\ty\nz\"}"))
}

func TestParseStrategies(t *testing.T) {
	cases := []struct {
		name     string
		in       string
		strategy string
	}{
		{"direct", `{"a":1}`, StrategyIdentity},
		{"trailing comma", `{"a":1,}`, StrategyTrailingCommas},
		{"newline in value", "{\"a\": \"x\ny\"}", StrategyStringNewlines},
		{"tab in value", "{\"a\":\"x\ty\"}", StrategyControlChars},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p, err := Parse(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.strategy, p.Strategy)
		})
	}
}

func TestParseCombinesRepairs(t *testing.T) {
	raw := "```json\n{\"summary\": \"line one\nline two\", \"winRate\": 70,}\n```"
	obj, strategy, err := ExtractAndParse(raw)
	require.NoError(t, err)
	assert.Equal(t, StrategyStringNewlines, strategy)
	assert.Equal(t, "line one\nline two", obj["summary"])
	assert.Equal(t, json.Number("70"), obj["winRate"])

	// Trailing commas, a newline and a tab inside values all in one payload.
	p, err := Parse("{\"a\": \"x\ny\", \"b\": [\"p\tq\",],}")
	require.NoError(t, err)
	assert.Equal(t, StrategyControlChars, p.Strategy)
}

func TestFencedTrailingCommaMatchesWellFormed(t *testing.T) {
	raw := "```json\n{\"winRate\": 72.5, \"insights\": [\"a\", \"b\",],}\n```"
	got, strategy, err := ExtractAndParse(raw)
	require.NoError(t, err)
	assert.Equal(t, StrategyTrailingCommas, strategy)

	want, _, err := ExtractAndParse(`{"winRate": 72.5, "insights": ["a", "b"]}`)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParsePreservesNonASCII(t *testing.T) {
	obj, _, err := ExtractAndParse("{\"name\": \"贵州茅台\",\n\"note\": \"émoji 🚀\nok\"}")
	require.NoError(t, err)
	assert.Equal(t, "贵州茅台", obj["name"])
	assert.Equal(t, "émoji 🚀\nok", obj["note"])
}

func TestParseMalformed(t *testing.T) {
	raw := "prefix {\"a\": [1, 2} suffix"
	_, _, err := ExtractAndParse(raw)
	require.Error(t, err)
	if !errors.Is(err, ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
	var mp *MalformedPayloadError
	require.True(t, errors.As(err, &mp))
	assert.Equal(t, raw, mp.Raw)
	assert.True(t, IsAnalysisFailure(err))
}

func TestParseRejectsMultipleFragments(t *testing.T) {
	_, _, err := ExtractAndParse(`{"a":1} and {"b":2}`)
	assert.ErrorIs(t, err, ErrMalformedPayload)
}

func TestParseDeterministic(t *testing.T) {
	in := "{\"a\": \"x\ny\", \"b\": 2}"
	first, err1 := Parse(in)
	second, err2 := Parse(in)
	assert.Equal(t, err1, err2)
	assert.Equal(t, first, second)
}

func TestObjectFromArray(t *testing.T) {
	obj, _, err := ExtractAndParse(`[{"ticker":"NASDAQ:AAPL"}]`)
	require.NoError(t, err)
	assert.Equal(t, "NASDAQ:AAPL", obj["ticker"])

	_, _, err = ExtractAndParse(`[1, 2]`)
	assert.ErrorIs(t, err, ErrMalformedPayload)
	assert.ErrorIs(t, err, ErrNotObject)
}
