package engine

import (
	"fmt"
	"io"
)

// Passthrough copies the raw input stream to dst without sharding: no
// targets are created, no progress is reported. This is the whole
// behavior behind the "-" output token. A read failure is fatal, not
// filtered.
func Passthrough(dst io.Writer, src io.Reader) error {
	if _, err := io.Copy(dst, src); err != nil {
		return &RunError{
			Kind: RunErrorStream,
			Err:  fmt.Errorf("passthrough: %w", err),
		}
	}
	return nil
}
