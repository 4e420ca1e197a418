package main

import (
	"errors"
	"testing"

	"github.com/urfave/cli/v2"
)

func TestExitErrHandler_NilError(t *testing.T) {
	// Should not panic or exit on nil error
	exitErrHandler(nil, nil)
}

func TestExitErrHandler_ExitCoder(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantMsg  string
	}{
		{
			name:     "exit code 0 no message",
			err:      cli.Exit("", 0),
			wantCode: 0,
			wantMsg:  "",
		},
		{
			name:     "exit code 1 with message",
			err:      cli.Exit("cannot open input: no such file", 1),
			wantCode: 1,
			wantMsg:  "cannot open input: no such file",
		},
		{
			name:     "exit code 2 canceled",
			err:      cli.Exit("run canceled", 2),
			wantCode: 2,
			wantMsg:  "run canceled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// We can't easily test os.Exit without subprocess, but we can
			// verify the error is recognized as ExitCoder
			var exitCoder cli.ExitCoder
			if !errors.As(tt.err, &exitCoder) {
				t.Fatalf("error should be cli.ExitCoder")
			}

			if exitCoder.ExitCode() != tt.wantCode {
				t.Errorf("exit code = %d, want %d", exitCoder.ExitCode(), tt.wantCode)
			}
			if tt.wantMsg != "" && exitCoder.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", exitCoder.Error(), tt.wantMsg)
			}
		})
	}
}

func TestExitErrHandler_WrappedExitCoder(t *testing.T) {
	// Test that wrapped errors still extract the exit code
	wrapped := errors.Join(errors.New("context"), cli.Exit("inner error", 42))

	var exitCoder cli.ExitCoder
	if !errors.As(wrapped, &exitCoder) {
		t.Fatal("wrapped error should still match cli.ExitCoder")
	}

	if exitCoder.ExitCode() != 42 {
		t.Errorf("exit code = %d, want 42", exitCoder.ExitCode())
	}
}

func TestExitErrHandler_RegularError(t *testing.T) {
	// Regular errors should result in exit code 1 (tested via behavior)
	err := errors.New("regular error")

	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		t.Fatal("regular error should not be cli.ExitCoder")
	}
}

// TestShardExitCodes documents the exit code contract of the shard
// command: 0 completed, 1 fatal error, 2 canceled by signal. Diverted
// lines do not affect the exit code.
func TestShardExitCodes_Documentation(t *testing.T) {
	codes := map[int]string{
		0: "run completed",
		1: "fatal stream or environment error",
		2: "canceled by signal",
	}

	for _, code := range []int{0, 1, 2} {
		if _, ok := codes[code]; !ok {
			t.Errorf("exit code %d is not documented", code)
		}
	}
}

// TestExitErrHandler_PreservesExitCode verifies that cli.Exit codes pass
// through unchanged, so scripts can tell a canceled run from a failed one.
func TestExitErrHandler_PreservesExitCode(t *testing.T) {
	testCases := []struct {
		name string
		code int
	}{
		{"completed", 0},
		{"fatal", 1},
		{"canceled", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := cli.Exit("", tc.code)

			var exitCoder cli.ExitCoder
			if !errors.As(err, &exitCoder) {
				t.Fatalf("cli.Exit should return ExitCoder")
			}

			if exitCoder.ExitCode() != tc.code {
				t.Errorf("ExitCode() = %d, want %d", exitCoder.ExitCode(), tc.code)
			}
		})
	}
}

// TestExitErrHandler_MessageSuppression verifies empty messages don't print.
func TestExitErrHandler_MessageSuppression(t *testing.T) {
	// cli.Exit("", N) with empty message should not print anything meaningful
	err := cli.Exit("", 0)
	msg := err.Error()

	// Empty message cli.Exit returns empty string or "exit status N"
	// Our handler should NOT print these to stderr
	if msg != "" && msg != "exit status 0" {
		t.Errorf("Expected empty or 'exit status 0', got %q", msg)
	}
}
