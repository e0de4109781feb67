package parse

import (
	"encoding/json"
	"errors"
	"io"
	"strings"
)

// Parsed is a decoded payload together with the repair that produced it.
// Numbers are kept as json.Number.
type Parsed struct {
	Value    any
	Strategy string
}

// Object returns the root object. A root array yields its first object element.
func (p Parsed) Object() (map[string]any, error) {
	switch v := p.Value.(type) {
	case map[string]any:
		return v, nil
	case []any:
		for _, item := range v {
			if obj, ok := item.(map[string]any); ok {
				return obj, nil
			}
		}
	}
	return nil, ErrNotObject
}

// Parse applies the repair strategies cumulatively, in order, and returns the first successful
// decode together with the name of the step that produced it.
func Parse(candidate string) (Parsed, error) {
	var lastErr error
	repaired := candidate
	for _, r := range Strategies {
		repaired = r.Apply(repaired)
		v, err := decode(repaired)
		if err == nil {
			return Parsed{Value: v, Strategy: r.Name}, nil
		}
		lastErr = err
	}
	return Parsed{}, &MalformedPayloadError{Raw: candidate, Err: lastErr}
}

// ExtractAndParse runs Extract then Parse and resolves the root object.
// Failures carry the full raw text, not just the candidate span.
func ExtractAndParse(raw string) (map[string]any, string, error) {
	candidate, err := Extract(raw)
	if err != nil {
		return nil, "", err
	}
	parsed, err := Parse(candidate)
	if err != nil {
		var mp *MalformedPayloadError
		if errors.As(err, &mp) {
			mp.Raw = raw
		}
		return nil, "", err
	}
	obj, err := parsed.Object()
	if err != nil {
		return nil, "", &MalformedPayloadError{Raw: raw, Err: err}
	}
	return obj, parsed.Strategy, nil
}

func decode(s string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}
