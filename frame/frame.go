// Package frame implements the on-disk framing of shard targets: a target
// is a concatenation of independently valid gzip members, one per appended
// line. Because every member is finalized as it is written, a target stays
// decompressible at every line boundary and an interrupted run can reopen
// it in append mode without corrupting earlier content.
package frame

import (
	"io"

	"github.com/klauspost/compress/gzip"
)

// DefaultLevel is the default compression level for shard targets.
const DefaultLevel = gzip.DefaultCompression

// ValidLevel reports whether level is a supported compression level
// (gzip.HuffmanOnly through gzip.BestCompression).
func ValidLevel(level int) bool {
	return level >= gzip.HuffmanOnly && level <= gzip.BestCompression
}

var newline = []byte{'\n'}

// Writer appends self-contained gzip members to an underlying writer.
// Each Append emits one complete member holding the line plus terminator.
// The gzip state is reset and reused across appends.
type Writer struct {
	dst io.Writer
	gz  *gzip.Writer
}

// NewWriter creates a member writer at the given gzip level.
// The level is validated the same way gzip.NewWriterLevel validates it.
func NewWriter(dst io.Writer, level int) (*Writer, error) {
	gz, err := gzip.NewWriterLevel(dst, level)
	if err != nil {
		return nil, err
	}
	return &Writer{dst: dst, gz: gz}, nil
}

// Append writes one line (with terminator) as a complete gzip member.
// The member is fully flushed into dst before Append returns; durability
// beyond dst is the caller's concern.
func (w *Writer) Append(line []byte) error {
	w.gz.Reset(w.dst)
	if _, err := w.gz.Write(line); err != nil {
		return err
	}
	if _, err := w.gz.Write(newline); err != nil {
		return err
	}
	return w.gz.Close()
}

// NewReader returns a reader that decompresses a concatenation of gzip
// members as one continuous stream. Multistream handling is the gzip
// reader's default, which matches the append-of-members target format.
func NewReader(r io.Reader) (io.ReadCloser, error) {
	return gzip.NewReader(r)
}
