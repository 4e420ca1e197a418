package shard

import (
	"testing"

	"github.com/logshard/logshard/record"
)

func TestDefaultPrefix(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"app.json.1", "app"},
		{"/var/log/app.json.1", "/var/log/app"},
		{"app.log", "app.log"},
		{"app.json.1.backup", "app.backup"},
		{"a.json.1b.json.1", "ab"},
	}
	for _, tc := range cases {
		if got := DefaultPrefix(tc.input); got != tc.want {
			t.Errorf("DefaultPrefix(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestTargetPath(t *testing.T) {
	key := record.DateKey{Year: 2021, Month: 3, Day: 1}
	if got := TargetPath("out/app", key); got != "out/app.2021-03-01.jsonl.gz" {
		t.Errorf("TargetPath = %q", got)
	}
}

func TestErrorPath(t *testing.T) {
	if got := ErrorPath("out/app"); got != "out/app.error.gz" {
		t.Errorf("ErrorPath = %q", got)
	}
}
