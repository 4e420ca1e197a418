package record

import (
	"errors"
	"fmt"
)

// ExtractErrorKind classifies timestamp extraction failures.
type ExtractErrorKind int

const (
	// ExtractMissingField indicates the timestamp field is absent or not a string.
	ExtractMissingField ExtractErrorKind = iota
	// ExtractNotAnObject indicates the decoded value is not a key-value structure.
	ExtractNotAnObject
	// ExtractBadFormat indicates the field value does not match TimestampLayout.
	ExtractBadFormat
)

// String returns the snake_case name of the kind, used both in log output
// and as the per-reason divert key in metrics.
func (k ExtractErrorKind) String() string {
	switch k {
	case ExtractMissingField:
		return "missing_field"
	case ExtractNotAnObject:
		return "not_an_object"
	case ExtractBadFormat:
		return "bad_format"
	default:
		return "unknown"
	}
}

// DecodeError indicates a line that is not well-formed JSON.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode line: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ExtractError indicates a decoded line whose timestamp could not be
// extracted.
type ExtractError struct {
	Kind ExtractErrorKind
	Msg  string
	Err  error
}

func (e *ExtractError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ExtractError) Unwrap() error {
	return e.Err
}

// DivertReason maps a per-line error to the reason key recorded when the
// line is diverted to the error sink. Returns "" for errors that are not
// per-line record failures.
func DivertReason(err error) string {
	var decodeErr *DecodeError
	if errors.As(err, &decodeErr) {
		return "decode"
	}
	var extractErr *ExtractError
	if errors.As(err, &extractErr) {
		return extractErr.Kind.String()
	}
	return ""
}
