// Package shard owns the date-partitioned output targets of a run: the
// per-date shard handles, the single-slot registry that enforces their
// lifecycle, and the always-open error sink. Targets are append-mode files
// holding a concatenation of per-line gzip members (see package frame), so
// a later run can extend them without rewriting earlier content.
//
// The registry is the sole owner of shard handles. Open and directory
// failures are environment errors and abort the run; append failures are
// per-line and recoverable by the router.
package shard

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/logshard/logshard/frame"
	"github.com/logshard/logshard/iox"
	"github.com/logshard/logshard/record"
)

// DefaultBufferSize is the in-memory buffer between the frame writer and
// the file. Frames are finalized per line into this buffer; bytes reach
// the file when the buffer fills and, definitively, at eviction.
const DefaultBufferSize = 64 * 1024

// Config configures target creation for a run.
type Config struct {
	// Prefix is the output prefix all targets derive from.
	Prefix string
	// Level is the gzip compression level for appended frames. Zero is
	// gzip NoCompression; use frame.DefaultLevel for the standard level.
	Level int
	// BufferSize is the buffered-writer size between frames and the file.
	// Zero selects DefaultBufferSize.
	BufferSize int
}

// DefaultPrefix derives the output prefix from the input path by removing
// every ".json.1" fragment, so "app.json.1" shards into "app.*". An input
// without the fragment keeps its full path as the prefix.
func DefaultPrefix(input string) string {
	return strings.ReplaceAll(input, ".json.1", "")
}

// TargetPath returns the shard target path for a date key:
// {prefix}.{YYYY-MM-DD}.jsonl.gz.
func TargetPath(prefix string, key record.DateKey) string {
	return fmt.Sprintf("%s.%s.jsonl.gz", prefix, key)
}

// ErrorPath returns the error target path: {prefix}.error.gz.
func ErrorPath(prefix string) string {
	return prefix + ".error.gz"
}

// target is an open append-mode file with buffered per-line gzip framing.
type target struct {
	path    string
	file    *os.File
	buf     *bufio.Writer
	count   *iox.CountingWriter
	frames  *frame.Writer
	records int64
	opened  time.Time
}

// openTarget creates the containing directory, opens path for append and
// stacks the buffered frame writer. Failures are open-classified storage
// errors; callers treat them as fatal environment errors.
func openTarget(path string, cfg Config) (*target, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, WrapOpenError(err, path)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, WrapOpenError(err, path)
	}

	size := cfg.BufferSize
	if size <= 0 {
		size = DefaultBufferSize
	}
	buf := bufio.NewWriterSize(f, size)
	count := &iox.CountingWriter{W: buf}
	fw, err := frame.NewWriter(count, cfg.Level)
	if err != nil {
		iox.DiscardClose(f)
		return nil, WrapOpenError(err, path)
	}

	return &target{
		path:   path,
		file:   f,
		buf:    buf,
		count:  count,
		frames: fw,
		opened: time.Now(),
	}, nil
}

// append writes one line as a finalized frame.
func (t *target) append(line []byte) error {
	if err := t.frames.Append(line); err != nil {
		return WrapWriteError(err, t.path)
	}
	t.records++
	return nil
}

// close flushes buffered frames to the file and closes it.
func (t *target) close() error {
	flushErr := t.buf.Flush()
	closeErr := t.file.Close()
	if flushErr != nil {
		return WrapWriteError(flushErr, t.path)
	}
	if closeErr != nil {
		return WrapWriteError(closeErr, t.path)
	}
	return nil
}
