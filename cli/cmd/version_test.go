package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/segmentio/encoding/json"

	"github.com/logshard/logshard/types"
)

func TestVersionCommand_RendersJSON(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(&out)

	if err := app.Run([]string{"logshard", "version", "--format", "json"}); err != nil {
		t.Fatalf("run: %v", err)
	}

	var resp VersionResponse
	if err := json.Unmarshal(out.Bytes(), &resp); err != nil {
		t.Fatalf("decode version output: %v\n%s", err, out.String())
	}
	if resp.Version != types.Version {
		t.Errorf("version = %q, want %q", resp.Version, types.Version)
	}
	if resp.Commit != "test" {
		t.Errorf("commit = %q, want test", resp.Commit)
	}
}

func TestVersionCommand_TUIRejected(t *testing.T) {
	var out bytes.Buffer
	app := newTestApp(&out)

	err := app.Run([]string{"logshard", "version", "--tui"})
	if err == nil {
		t.Fatal("--tui should be rejected for version")
	}
	if !strings.Contains(err.Error(), "--tui is not supported for version command") {
		t.Errorf("error = %v", err)
	}
}
