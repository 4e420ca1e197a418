// Package record implements per-line decoding and timestamp extraction.
//
// A Record is any well-formed JSON value decoded from one input line. The
// routing date is carried in a string field named by TimestampField, in the
// fixed TimestampLayout format. Extraction distinguishes a non-object line,
// an absent (or non-string) field, and a malformed timestamp value, so the
// engine can report and count each case separately.
package record

import (
	"fmt"
	"time"

	"github.com/segmentio/encoding/json"
)

// TimestampField is the record field carrying the routing timestamp.
const TimestampField = "asctime"

// TimestampLayout is the fixed timestamp format: calendar date, space,
// wall-clock time, comma, exactly three fractional-second digits.
// Parsing is strict; any deviation is a failure.
const TimestampLayout = "2006-01-02 15:04:05,000"

// DateKeyLayout is the date-component format used in shard target names.
const DateKeyLayout = "2006-01-02"

// Record is one decoded input line. It may hold any JSON value; field
// lookup distinguishes "not an object" from "field absent".
type Record struct {
	value any
}

// Decode parses one raw line as JSON.
// Fails with *DecodeError when the line is not well-formed. A valid
// non-object line (array, string, number) decodes successfully; its
// object-ness is judged at extraction time.
func Decode(line []byte) (Record, error) {
	var v any
	if err := json.Unmarshal(line, &v); err != nil {
		return Record{}, &DecodeError{Err: err}
	}
	return Record{value: v}, nil
}

// Object reports whether the record is a key-value structure.
func (r Record) Object() bool {
	_, ok := r.value.(map[string]any)
	return ok
}

// Field returns the named field when the record is an object and the field
// is present.
func (r Record) Field(name string) (any, bool) {
	obj, ok := r.value.(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := obj[name]
	return v, ok
}

// ExtractTimestamp returns the record's timestamp parsed from
// TimestampField.
// Fails with *ExtractError: ExtractNotAnObject when the record is not an
// object, ExtractMissingField when the field is absent or not a string,
// ExtractBadFormat when the value does not match TimestampLayout.
func ExtractTimestamp(r Record) (Timestamp, error) {
	obj, ok := r.value.(map[string]any)
	if !ok {
		return Timestamp{}, &ExtractError{
			Kind: ExtractNotAnObject,
			Msg:  "record is not an object",
		}
	}

	v, ok := obj[TimestampField]
	if !ok {
		return Timestamp{}, &ExtractError{
			Kind: ExtractMissingField,
			Msg:  fmt.Sprintf("record has no %q field", TimestampField),
		}
	}

	s, ok := v.(string)
	if !ok {
		// A non-string value cannot carry a timestamp; treated the same
		// as an absent field.
		return Timestamp{}, &ExtractError{
			Kind: ExtractMissingField,
			Msg:  fmt.Sprintf("record field %q is not a string", TimestampField),
		}
	}

	ts, err := ParseTimestamp(s)
	if err != nil {
		return Timestamp{}, &ExtractError{
			Kind: ExtractBadFormat,
			Msg:  fmt.Sprintf("record field %q does not match %q", TimestampField, TimestampLayout),
			Err:  err,
		}
	}
	return ts, nil
}

// Timestamp is a parsed TimestampField value.
type Timestamp struct {
	t time.Time
}

// ParseTimestamp parses s strictly against TimestampLayout.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return Timestamp{}, err
	}
	// time.Parse accepts a period as the fractional-second separator; the
	// format requires the comma. A successful parse guarantees the fixed
	// field widths, so the separator sits right after the seconds field.
	if s[len("2006-01-02 15:04:05")] != ',' {
		return Timestamp{}, fmt.Errorf("parsing time %q: fractional separator must be ','", s)
	}
	return Timestamp{t: t}, nil
}

// Format renders the timestamp back in TimestampLayout. Parsing then
// formatting a valid input reproduces it exactly.
func (ts Timestamp) Format() string {
	return ts.t.Format(TimestampLayout)
}

// Time returns the underlying wall-clock time.
func (ts Timestamp) Time() time.Time {
	return ts.t
}

// DateKey returns the calendar-date routing key, taken verbatim from the
// timestamp's date component. No timezone conversion is applied.
func (ts Timestamp) DateKey() DateKey {
	y, m, d := ts.t.Date()
	return DateKey{Year: y, Month: m, Day: d}
}

// DateKey is a calendar date used as the shard routing key. Comparable and
// usable as a map key; the zero value means "no date".
type DateKey struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDateKey parses a YYYY-MM-DD string into a DateKey.
func ParseDateKey(s string) (DateKey, error) {
	t, err := time.Parse(DateKeyLayout, s)
	if err != nil {
		return DateKey{}, fmt.Errorf("invalid day %q (want YYYY-MM-DD): %w", s, err)
	}
	y, m, d := t.Date()
	k := DateKey{Year: y, Month: m, Day: d}
	// time.Parse accepts unpadded components; the key format does not.
	if k.String() != s {
		return DateKey{}, fmt.Errorf("invalid day %q (want YYYY-MM-DD)", s)
	}
	return k, nil
}

// String renders the key as YYYY-MM-DD, the form used in target names,
// progress messages and manifest entries.
func (k DateKey) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", k.Year, int(k.Month), k.Day)
}

// IsZero reports whether the key is the "no date" zero value.
func (k DateKey) IsZero() bool {
	return k == DateKey{}
}
