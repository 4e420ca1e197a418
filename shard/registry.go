package shard

import (
	"errors"
	"fmt"
	"time"

	"github.com/logshard/logshard/frame"
	"github.com/logshard/logshard/record"
)

// Registry owns shard handles for a run. It is a single-slot arena: at
// most one handle, the current date's, is open at any instant. The router
// evicts the previous date's handle before asking for a new date, so the
// slot never holds a stale entry.
type Registry struct {
	cfg     Config
	current *Handle
}

// Handle is an open shard target bound to one date key. Handles are
// created and finalized by the Registry only.
type Handle struct {
	key record.DateKey
	t   *target
}

// Key returns the date key the handle is bound to.
func (h *Handle) Key() record.DateKey { return h.key }

// Path returns the handle's target path.
func (h *Handle) Path() string { return h.t.path }

// Records returns the lines appended in this handle's lifetime. A handle
// re-created for a recurring date starts at zero; prior target content is
// untouched.
func (h *Handle) Records() int64 { return h.t.records }

// Bytes returns the compressed bytes produced in this handle's lifetime.
func (h *Handle) Bytes() int64 { return h.t.count.N }

// Append writes one line (plus terminator) as a finalized frame.
func (h *Handle) Append(line []byte) error { return h.t.append(line) }

// Finalized describes an evicted handle after its target was flushed.
type Finalized struct {
	Key      record.DateKey
	Path     string
	Records  int64
	Bytes    int64
	OpenedAt time.Time
}

// NewRegistry validates cfg and creates an empty registry.
func NewRegistry(cfg Config) (*Registry, error) {
	if cfg.Prefix == "" {
		return nil, errors.New("shard: config.Prefix is required")
	}
	if !frame.ValidLevel(cfg.Level) {
		return nil, fmt.Errorf("shard: invalid compression level %d", cfg.Level)
	}
	return &Registry{cfg: cfg}, nil
}

// GetOrCreate returns the open handle for key, creating it when the slot
// is empty. The boolean reports whether a new handle was created. Creation
// synthesizes the target path, makes the containing directory, and opens
// the target for append; those failures are fatal environment errors.
//
// A slot already holding a different date is a router bug: it fails
// loudly rather than silently leaking the open handle.
func (r *Registry) GetOrCreate(key record.DateKey) (*Handle, bool, error) {
	if r.current != nil {
		if r.current.key == key {
			return r.current, false, nil
		}
		return nil, false, fmt.Errorf("shard: registry holds %s, evict it before opening %s", r.current.key, key)
	}

	t, err := openTarget(TargetPath(r.cfg.Prefix, key), r.cfg)
	if err != nil {
		return nil, false, err
	}
	r.current = &Handle{key: key, t: t}
	return r.current, true, nil
}

// Evict finalizes and removes the handle for key, flushing the compression
// stream so the target is independently decompressible before any later
// process reopens it. A key with no open handle is a no-op returning
// (nil, nil). A flush failure here means accepted lines were lost and is
// fatal to the run.
func (r *Registry) Evict(key record.DateKey) (*Finalized, error) {
	if r.current == nil || r.current.key != key {
		return nil, nil
	}

	h := r.current
	r.current = nil
	if err := h.t.close(); err != nil {
		return nil, err
	}
	return &Finalized{
		Key:      h.key,
		Path:     h.t.path,
		Records:  h.t.records,
		Bytes:    h.t.count.N,
		OpenedAt: h.t.opened,
	}, nil
}

// Current returns the open handle, or nil when the slot is empty.
func (r *Registry) Current() *Handle { return r.current }

// Close evicts whatever handle remains open. It is a no-op after normal
// eviction and serves as the safety net on abnormal exits.
func (r *Registry) Close() error {
	if r.current == nil {
		return nil
	}
	h := r.current
	r.current = nil
	return h.t.close()
}
