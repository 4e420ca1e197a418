package frame

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
)

func TestWriter_AppendProducesIndependentMembers(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, DefaultLevel)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	lines := []string{
		`{"asctime": "2021-03-01 00:00:00,000", "n": 1}`,
		`{"asctime": "2021-03-01 00:00:01,000", "n": 2}`,
		`{"asctime": "2021-03-01 00:00:02,000", "n": 3}`,
	}
	for _, line := range lines {
		if err := w.Append([]byte(line)); err != nil {
			t.Fatalf("Append(%q): %v", line, err)
		}
	}

	// The first member alone must decompress to exactly the first line.
	gz, err := gzip.NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	gz.Multistream(false)
	first, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("reading first member: %v", err)
	}
	if got, want := string(first), lines[0]+"\n"; got != want {
		t.Errorf("first member = %q, want %q", got, want)
	}

	// The full target decompresses to the concatenation of all lines.
	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()
	all, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading all members: %v", err)
	}
	want := lines[0] + "\n" + lines[1] + "\n" + lines[2] + "\n"
	if string(all) != want {
		t.Errorf("full content = %q, want %q", string(all), want)
	}
}

func TestWriter_AppendAcrossSessions(t *testing.T) {
	// Two writer lifetimes appending to the same buffer model a target
	// reopened in append mode by a later run.
	var buf bytes.Buffer

	w1, err := NewWriter(&buf, DefaultLevel)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w1.Append([]byte("first run")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	w2, err := NewWriter(&buf, DefaultLevel)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w2.Append([]byte("second run")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()
	all, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if got, want := string(all), "first run\nsecond run\n"; got != want {
		t.Errorf("content = %q, want %q", got, want)
	}
}

func TestWriter_EmptyLine(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, DefaultLevel)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}
	if err := w.Append(nil); err != nil {
		t.Fatalf("Append(nil): %v", err)
	}

	r, err := NewReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer r.Close()
	all, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if string(all) != "\n" {
		t.Errorf("content = %q, want %q", string(all), "\n")
	}
}

func TestNewWriter_InvalidLevel(t *testing.T) {
	if _, err := NewWriter(io.Discard, 99); err == nil {
		t.Fatal("NewWriter accepted level 99")
	}
}
