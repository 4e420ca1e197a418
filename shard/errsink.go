package shard

// ErrorSink is the single always-open target for lines the router could
// not place in a shard. It is created eagerly at run start, before the
// first line is read, and finalized only at run end.
type ErrorSink struct {
	t *target
}

// NewErrorSink eagerly creates {prefix}.error.gz with the same
// directory-creation and append-open semantics as shard targets.
func NewErrorSink(cfg Config) (*ErrorSink, error) {
	t, err := openTarget(ErrorPath(cfg.Prefix), cfg)
	if err != nil {
		return nil, err
	}
	return &ErrorSink{t: t}, nil
}

// Record appends one raw line (plus terminator) as a finalized frame.
// A failure here is fatal to the run: there is no secondary sink behind
// the error sink.
func (s *ErrorSink) Record(line []byte) error { return s.t.append(line) }

// Records returns the number of diverted lines recorded so far.
func (s *ErrorSink) Records() int64 { return s.t.records }

// Bytes returns the compressed bytes produced so far.
func (s *ErrorSink) Bytes() int64 { return s.t.count.N }

// Path returns the error target path.
func (s *ErrorSink) Path() string { return s.t.path }

// Close flushes and closes the error target.
func (s *ErrorSink) Close() error { return s.t.close() }
