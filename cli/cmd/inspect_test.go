package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/logshard/logshard/frame"
	"github.com/logshard/logshard/shard"
)

func writeTarget(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	w, err := frame.NewWriter(f, frame.DefaultLevel)
	if err != nil {
		t.Fatalf("frame.NewWriter: %v", err)
	}
	for _, line := range lines {
		if err := w.Append([]byte(line)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
}

func TestInspectDay_DumpsLines(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "app")
	writeTarget(t, prefix+".2021-03-01.jsonl.gz", `{"a":1}`, `{"a":2}`)

	var out bytes.Buffer
	app := newTestApp(&out)
	err := app.Run([]string{"logshard", "inspect", "day", "--prefix", prefix, "2021-03-01"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	want := "{\"a\":1}\n{\"a\":2}\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestInspectDay_Limit(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "app")
	writeTarget(t, prefix+".2021-03-01.jsonl.gz", `{"a":1}`, `{"a":2}`, `{"a":3}`)

	var out bytes.Buffer
	app := newTestApp(&out)
	err := app.Run([]string{"logshard", "inspect", "day", "--prefix", prefix, "--limit", "2", "2021-03-01"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if got := strings.Count(out.String(), "\n"); got != 2 {
		t.Errorf("dumped %d lines, want 2:\n%s", got, out.String())
	}
}

func TestInspectDay_RequiresDayArg(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(&out)

	err := app.Run([]string{"logshard", "inspect", "day", "--prefix", "app"})
	if err == nil {
		t.Fatal("missing day argument should fail")
	}
	if !strings.Contains(err.Error(), "day required") {
		t.Errorf("error = %v", err)
	}
}

func TestInspectDay_RejectsBadDay(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(&out)

	err := app.Run([]string{"logshard", "inspect", "day", "--prefix", "app", "2021-3-1"})
	if err == nil {
		t.Fatal("unpadded day should fail")
	}
	if !strings.Contains(err.Error(), "invalid day") {
		t.Errorf("error = %v", err)
	}
}

func TestInspectDay_MissingTarget(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(&out)

	prefix := filepath.Join(t.TempDir(), "app")
	err := app.Run([]string{"logshard", "inspect", "day", "--prefix", prefix, "2021-03-01"})
	if err == nil {
		t.Fatal("missing target should fail")
	}
}

func TestInspectErrors_DumpsErrorTarget(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "app")
	writeTarget(t, shard.ErrorPath(prefix), "not json at all")

	var out bytes.Buffer
	app := newTestApp(&out)
	err := app.Run([]string{"logshard", "inspect", "errors", "--prefix", prefix})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if out.String() != "not json at all\n" {
		t.Errorf("output = %q", out.String())
	}
}

func TestInspectErrors_EmptyTarget(t *testing.T) {
	dir := t.TempDir()
	prefix := filepath.Join(dir, "app")
	if err := os.WriteFile(shard.ErrorPath(prefix), nil, 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	app := newTestApp(&out)
	err := app.Run([]string{"logshard", "inspect", "errors", "--prefix", prefix})
	if err != nil {
		t.Fatalf("an empty error target is a clean run, not a failure: %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("output = %q, want empty", out.String())
	}
}
