package record

import (
	"errors"
	"testing"
	"time"
)

func TestDecode_ValidObject(t *testing.T) {
	r, err := Decode([]byte(`{"asctime": "2021-03-01 00:00:00,000", "name": "app", "levelname": "INFO"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	if !r.Object() {
		t.Error("Object() = false, want true")
	}
	v, ok := r.Field("name")
	if !ok {
		t.Fatal("Field(name) not found")
	}
	if v != "app" {
		t.Errorf("Field(name) = %v, want %q", v, "app")
	}
	if _, ok := r.Field("absent"); ok {
		t.Error("Field(absent) found, want missing")
	}
}

func TestDecode_MalformedLine(t *testing.T) {
	_, err := Decode([]byte(`{"asctime": "2021-03-01 00:00:00,000"`))
	if err == nil {
		t.Fatal("Decode succeeded on truncated JSON")
	}

	var decodeErr *DecodeError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("error type = %T, want *DecodeError", err)
	}
	if got := DivertReason(err); got != "decode" {
		t.Errorf("DivertReason = %q, want %q", got, "decode")
	}
}

func TestDecode_NonObjectValue(t *testing.T) {
	// Valid JSON that is not an object decodes fine; object-ness is
	// judged at extraction.
	for _, line := range []string{`[1, 2, 3]`, `"just a string"`, `42`, `null`, `true`} {
		r, err := Decode([]byte(line))
		if err != nil {
			t.Errorf("Decode(%s) failed: %v", line, err)
			continue
		}
		if r.Object() {
			t.Errorf("Decode(%s).Object() = true, want false", line)
		}
	}
}

func TestExtractTimestamp_Valid(t *testing.T) {
	r, err := Decode([]byte(`{"asctime": "2021-03-01 12:34:56,789", "message": "hello"}`))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	ts, err := ExtractTimestamp(r)
	if err != nil {
		t.Fatalf("ExtractTimestamp failed: %v", err)
	}

	want := DateKey{Year: 2021, Month: time.March, Day: 1}
	if got := ts.DateKey(); got != want {
		t.Errorf("DateKey = %v, want %v", got, want)
	}
	if got := ts.Format(); got != "2021-03-01 12:34:56,789" {
		t.Errorf("Format = %q, want original string back", got)
	}
}

func TestExtractTimestamp_Failures(t *testing.T) {
	tests := []struct {
		name string
		line string
		kind ExtractErrorKind
	}{
		{"missing field", `{"message": "no timestamp here"}`, ExtractMissingField},
		{"non-string field", `{"asctime": 1614556800}`, ExtractMissingField},
		{"null field", `{"asctime": null}`, ExtractMissingField},
		{"array line", `["2021-03-01 00:00:00,000"]`, ExtractNotAnObject},
		{"string line", `"2021-03-01 00:00:00,000"`, ExtractNotAnObject},
		{"number line", `17`, ExtractNotAnObject},
		{"date only", `{"asctime": "2021-03-01"}`, ExtractBadFormat},
		{"period separator", `{"asctime": "2021-03-01 00:00:00.000"}`, ExtractBadFormat},
		{"two millis digits", `{"asctime": "2021-03-01 00:00:00,00"}`, ExtractBadFormat},
		{"four millis digits", `{"asctime": "2021-03-01 00:00:00,0000"}`, ExtractBadFormat},
		{"no millis", `{"asctime": "2021-03-01 00:00:00"}`, ExtractBadFormat},
		{"trailing text", `{"asctime": "2021-03-01 00:00:00,000 UTC"}`, ExtractBadFormat},
		{"unpadded month", `{"asctime": "2021-3-01 00:00:00,000"}`, ExtractBadFormat},
		{"day out of range", `{"asctime": "2021-02-30 00:00:00,000"}`, ExtractBadFormat},
		{"iso T separator", `{"asctime": "2021-03-01T00:00:00,000"}`, ExtractBadFormat},
		{"empty string", `{"asctime": ""}`, ExtractBadFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := Decode([]byte(tt.line))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}

			_, err = ExtractTimestamp(r)
			if err == nil {
				t.Fatal("ExtractTimestamp succeeded, want error")
			}

			var extractErr *ExtractError
			if !errors.As(err, &extractErr) {
				t.Fatalf("error type = %T, want *ExtractError", err)
			}
			if extractErr.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", extractErr.Kind, tt.kind)
			}
			if got := DivertReason(err); got != tt.kind.String() {
				t.Errorf("DivertReason = %q, want %q", got, tt.kind.String())
			}
		})
	}
}

func TestParseTimestamp_RoundTrip(t *testing.T) {
	const in = "2021-03-01 00:00:00,000"

	ts, err := ParseTimestamp(in)
	if err != nil {
		t.Fatalf("ParseTimestamp failed: %v", err)
	}
	if got := ts.Format(); got != in {
		t.Errorf("Format = %q, want %q", got, in)
	}
}

func TestParseTimestamp_DateMatchesIndependentParse(t *testing.T) {
	const in = "2023-11-30 23:59:59,999"

	ts, err := ParseTimestamp(in)
	if err != nil {
		t.Fatalf("ParseTimestamp failed: %v", err)
	}

	// The date component must equal the date parsed on its own.
	independent, err := time.Parse(DateKeyLayout, in[:len(DateKeyLayout)])
	if err != nil {
		t.Fatalf("independent date parse failed: %v", err)
	}
	y, m, d := independent.Date()
	want := DateKey{Year: y, Month: m, Day: d}
	if got := ts.DateKey(); got != want {
		t.Errorf("DateKey = %v, want %v", got, want)
	}
}

func TestDateKey_String(t *testing.T) {
	k := DateKey{Year: 2021, Month: time.March, Day: 1}
	if got := k.String(); got != "2021-03-01" {
		t.Errorf("String = %q, want %q", got, "2021-03-01")
	}

	if k.IsZero() {
		t.Error("IsZero = true for populated key")
	}
	if !(DateKey{}).IsZero() {
		t.Error("IsZero = false for zero key")
	}
}

func TestParseDateKey(t *testing.T) {
	k, err := ParseDateKey("2021-03-01")
	if err != nil {
		t.Fatalf("ParseDateKey failed: %v", err)
	}
	if k != (DateKey{Year: 2021, Month: time.March, Day: 1}) {
		t.Errorf("ParseDateKey = %+v", k)
	}

	for _, s := range []string{"2021-3-1", "2021/03/01", "20210301", "not-a-date", ""} {
		if _, err := ParseDateKey(s); err == nil {
			t.Errorf("ParseDateKey(%q) accepted", s)
		}
	}
}

func TestDivertReason_UnrelatedError(t *testing.T) {
	if got := DivertReason(errors.New("disk full")); got != "" {
		t.Errorf("DivertReason = %q, want empty for non-record error", got)
	}
}
