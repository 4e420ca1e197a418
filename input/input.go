// Package input opens the run input stream, transparently decompressing
// gzip and zstd content detected by magic bytes. Plain text passes
// through untouched.
package input

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	gzip "github.com/klauspost/pgzip"
)

const sniffBufferSize = 64 * 1024

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Open opens the input file at path for streaming. Compressed inputs are
// detected by their leading magic bytes and wrapped in the matching
// decompressor; gzip inputs with multiple concatenated members, such as
// shard targets produced by an earlier run, decode in full. Closing the
// returned reader releases the decompressor and the file.
func Open(path string) (io.ReadCloser, error) {
	if path == "-" {
		return nil, fmt.Errorf("stdin is not a valid input, pass a file path")
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	br := bufio.NewReaderSize(f, sniffBufferSize)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF {
		f.Close()
		return nil, fmt.Errorf("sniff %s: %w", path, err)
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		g, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open gzip input %s: %w", path, err)
		}
		return &readCloser{r: g, f: f}, nil
	case bytes.HasPrefix(magic, zstdMagic):
		d, err := zstd.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("open zstd input %s: %w", path, err)
		}
		return &readCloser{r: d.IOReadCloser(), f: f}, nil
	}
	return &readCloser{r: br, f: f}, nil
}

// readCloser pairs a decoding reader with the file underneath it and
// closes both, reader first.
type readCloser struct {
	r io.Reader
	f *os.File
}

func (rc *readCloser) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

func (rc *readCloser) Close() error {
	var err error
	if c, ok := rc.r.(io.Closer); ok {
		err = c.Close()
	}
	if e := rc.f.Close(); e != nil && err == nil {
		err = e
	}
	return err
}
