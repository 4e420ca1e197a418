// Package manifest implements the advisory sidecar journal of a run:
// length-prefixed msgpack entries, one per finalized write burst. The
// journal lets stats be answered without decompressing shard targets and
// records burst history across resumed runs. It is advisory: a run never
// fails because the journal could not be written.
package manifest

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/logshard/logshard/types"
)

// Entry size constants.
const (
	// MaxEntrySize is the maximum entry size (64 KiB), including length prefix.
	MaxEntrySize = 64 * 1024
	// MaxPayloadSize is the maximum payload size (MaxEntrySize - 4 bytes).
	MaxPayloadSize = MaxEntrySize - LengthPrefixSize
	// LengthPrefixSize is the size of the length prefix in bytes.
	LengthPrefixSize = 4
)

// ErrorDay is the Day value recorded for the error target's entry.
const ErrorDay = "error"

// Path returns the journal path for an output prefix.
func Path(prefix string) string {
	return prefix + ".manifest"
}

// Entry records one finalized write burst: a shard handle evicted at a
// date boundary or at drain, or the error sink closed at run end.
type Entry struct {
	// SchemaVersion is types.EventSchemaVersion at write time.
	SchemaVersion string `msgpack:"schema_version"`
	// Day is the burst's date key as YYYY-MM-DD, or ErrorDay.
	Day string `msgpack:"day"`
	// Records is the number of lines appended during the burst.
	Records int64 `msgpack:"records"`
	// Bytes is the compressed bytes produced during the burst.
	Bytes int64 `msgpack:"bytes"`
	// CompletedAt is the finalization time, RFC3339Nano.
	CompletedAt string `msgpack:"completed_at"`
}

// EntryErrorKind classifies journal decoding errors.
type EntryErrorKind int

const (
	// EntryErrorPartial indicates a truncated or incomplete entry.
	EntryErrorPartial EntryErrorKind = iota
	// EntryErrorTooLarge indicates an entry exceeding MaxEntrySize.
	EntryErrorTooLarge
	// EntryErrorDecode indicates a msgpack decoding error.
	EntryErrorDecode
)

// EntryError represents a journal decoding error.
type EntryError struct {
	Kind EntryErrorKind
	Msg  string
	Err  error
}

func (e *EntryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Journal appends entries to the sidecar file, creating it lazily on the
// first append so that a run with journaling disabled or no bursts leaves
// no stray file. Each append writes one complete length-prefixed entry.
type Journal struct {
	path string
	f    *os.File
}

// NewJournal creates a journal bound to path. The file is not touched
// until the first Append.
func NewJournal(path string) *Journal {
	return &Journal{path: path}
}

// Path returns the journal's file path.
func (j *Journal) Path() string { return j.path }

// Append serializes e and appends it as one length-prefixed entry.
func (j *Journal) Append(e *Entry) error {
	if e.SchemaVersion == "" {
		e.SchemaVersion = types.EventSchemaVersion
	}

	payload, err := msgpack.Marshal(e)
	if err != nil {
		return fmt.Errorf("manifest entry encode: %w", err)
	}
	if len(payload) > MaxPayloadSize {
		return &EntryError{
			Kind: EntryErrorTooLarge,
			Msg:  fmt.Sprintf("entry size %d exceeds maximum %d", len(payload), MaxPayloadSize),
		}
	}

	if j.f == nil {
		f, err := os.OpenFile(j.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("manifest open %s: %w", j.path, err)
		}
		j.f = f
	}

	// Single write keeps prefix and payload together.
	buf := make([]byte, LengthPrefixSize+len(payload))
	binary.BigEndian.PutUint32(buf[:LengthPrefixSize], uint32(len(payload)))
	copy(buf[LengthPrefixSize:], payload)
	if _, err := j.f.Write(buf); err != nil {
		return fmt.Errorf("manifest append %s: %w", j.path, err)
	}
	return nil
}

// Close closes the journal file if any entry was written.
func (j *Journal) Close() error {
	if j.f == nil {
		return nil
	}
	f := j.f
	j.f = nil
	return f.Close()
}

// Decoder streams entries from a journal.
type Decoder struct {
	reader io.Reader
}

// NewDecoder creates a new journal decoder.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{reader: r}
}

// Next reads a single entry from the stream.
//
// Errors:
//   - io.EOF: stream ended cleanly (no more entries)
//   - *EntryError with Kind=EntryErrorPartial: incomplete entry
//   - *EntryError with Kind=EntryErrorTooLarge: entry exceeds limit
//   - *EntryError with Kind=EntryErrorDecode: payload is not a valid entry
func (d *Decoder) Next() (*Entry, error) {
	var lengthBuf [LengthPrefixSize]byte
	_, err := io.ReadFull(d.reader, lengthBuf[:])
	if err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}
		return nil, &EntryError{
			Kind: EntryErrorPartial,
			Msg:  "failed to read length prefix",
			Err:  err,
		}
	}

	payloadSize := binary.BigEndian.Uint32(lengthBuf[:])
	if payloadSize > MaxPayloadSize {
		return nil, &EntryError{
			Kind: EntryErrorTooLarge,
			Msg:  fmt.Sprintf("payload size %d exceeds maximum %d", payloadSize, MaxPayloadSize),
		}
	}

	payload := make([]byte, payloadSize)
	if _, err := io.ReadFull(d.reader, payload); err != nil {
		return nil, &EntryError{
			Kind: EntryErrorPartial,
			Msg:  "failed to read payload",
			Err:  err,
		}
	}

	var entry Entry
	if err := msgpack.Unmarshal(payload, &entry); err != nil {
		return nil, &EntryError{
			Kind: EntryErrorDecode,
			Msg:  "failed to decode entry",
			Err:  err,
		}
	}
	return &entry, nil
}

// ReadFile loads all entries from a journal file.
// A missing file is reported with os.ErrNotExist in the chain so callers
// can fall back to scanning targets directly.
func ReadFile(path string) ([]*Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var entries []*Entry
	dec := NewDecoder(f)
	for {
		e, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return entries, err
		}
		entries = append(entries, e)
	}
}
