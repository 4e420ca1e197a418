package shard

import (
	"os"
	"testing"
)

func TestErrorSink_EagerCreation(t *testing.T) {
	cfg := testConfig(t)
	s, err := NewErrorSink(cfg)
	if err != nil {
		t.Fatalf("NewErrorSink failed: %v", err)
	}

	// The target exists, empty, before any line is recorded.
	info, err := os.Stat(cfg.Prefix + ".error.gz")
	if err != nil {
		t.Fatalf("error target not created eagerly: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("fresh error target size = %d, want 0", info.Size())
	}
	if s.Records() != 0 {
		t.Errorf("fresh Records = %d, want 0", s.Records())
	}

	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	// Still present and still empty after a run with no diverted lines.
	info, err = os.Stat(s.Path())
	if err != nil {
		t.Fatalf("error target missing after close: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("untouched error target size = %d, want 0", info.Size())
	}
}

func TestErrorSink_RecordAndReadBack(t *testing.T) {
	s, err := NewErrorSink(testConfig(t))
	if err != nil {
		t.Fatalf("NewErrorSink failed: %v", err)
	}

	// Diverted lines are raw input, not necessarily JSON.
	lines := []string{`{"broken":`, `no json at all`}
	for _, line := range lines {
		if err := s.Record([]byte(line)); err != nil {
			t.Fatalf("Record(%q): %v", line, err)
		}
	}
	if s.Records() != 2 {
		t.Errorf("Records = %d, want 2", s.Records())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if s.Bytes() <= 0 {
		t.Errorf("Bytes = %d, want > 0", s.Bytes())
	}

	got := readTarget(t, s.Path())
	if len(got) != len(lines) {
		t.Fatalf("error target has %d lines, want %d: %v", len(got), len(lines), got)
	}
	for i := range lines {
		if got[i] != lines[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], lines[i])
		}
	}
}
