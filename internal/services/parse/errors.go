package parse

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction matches every *ExtractionFailure via errors.Is.
	ErrExtraction = errors.New("parse: no JSON region found")
	// ErrMalformedPayload matches every *MalformedPayloadError via errors.Is.
	ErrMalformedPayload = errors.New("parse: malformed payload")
	// ErrNotObject is wrapped when the payload parses but carries no object.
	ErrNotObject = errors.New("parse: payload is not an object")
)

// ExtractionFailure reports that no bracketed region could be located in the raw text.
type ExtractionFailure struct {
	Raw    string
	Reason string
}

func (e *ExtractionFailure) Error() string {
	return fmt.Sprintf("%s: %s", ErrExtraction.Error(), e.Reason)
}

func (e *ExtractionFailure) Is(target error) bool { return target == ErrExtraction }

// MalformedPayloadError reports that every repair strategy was exhausted.
// Raw is kept for internal diagnostics only and must never reach an end user.
type MalformedPayloadError struct {
	Raw string
	Err error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrMalformedPayload.Error(), e.Err)
	}
	return ErrMalformedPayload.Error()
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

func (e *MalformedPayloadError) Is(target error) bool { return target == ErrMalformedPayload }

// IsAnalysisFailure reports whether err is one of the two failures the pipeline may surface.
func IsAnalysisFailure(err error) bool {
	return errors.Is(err, ErrExtraction) || errors.Is(err, ErrMalformedPayload)
}
