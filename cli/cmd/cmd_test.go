package cmd

import (
	"testing"
)

func TestReadOnlyFlags_IncludesTUI(t *testing.T) {
	flags := ReadOnlyFlags()

	hasTUI := false
	for _, f := range flags {
		if f.Names()[0] == "tui" {
			hasTUI = true
			break
		}
	}

	if !hasTUI {
		t.Error("ReadOnlyFlags should include --tui flag for explicit error handling")
	}
}

func TestTUIReadOnlyFlags_IncludesTUI(t *testing.T) {
	flags := TUIReadOnlyFlags()

	hasTUI := false
	for _, f := range flags {
		if f.Names()[0] == "tui" {
			hasTUI = true
			break
		}
	}

	if !hasTUI {
		t.Error("TUIReadOnlyFlags should include --tui flag")
	}
}

func TestPrefixFlag_Required(t *testing.T) {
	if !PrefixFlag.Required {
		t.Error("PrefixFlag should be required: read-only commands cannot derive a prefix")
	}
	if PrefixFlag.Names()[0] != "prefix" {
		t.Errorf("PrefixFlag name = %q, want prefix", PrefixFlag.Names()[0])
	}
}

func TestShardCommand_FlagSurface(t *testing.T) {
	cmd := ShardCommand()

	want := []string{
		"input", "output", "locale", "compression-level", "max-line-size",
		"manifest", "no-manifest",
		"archive", "archive-region", "archive-endpoint", "archive-path-style",
		"adapter", "adapter-url", "adapter-channel", "adapter-header",
		"adapter-timeout", "adapter-retries",
		"config",
	}

	have := make(map[string]bool, len(cmd.Flags))
	for _, f := range cmd.Flags {
		have[f.Names()[0]] = true
	}

	for _, name := range want {
		if !have[name] {
			t.Errorf("shard command is missing flag --%s", name)
		}
	}
}

func TestIsStderrTTY(_ *testing.T) {
	// This test documents the function exists and can be called.
	// Actual TTY behavior depends on runtime environment.
	_ = isStderrTTY()
}
