// Package metrics provides per-run metrics collection.
//
// The Collector accumulates counters during a single sharding run. It is a
// leaf package with no internal dependencies. The engine increments counters
// live; the CLI logs a Snapshot after the run completes.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all run metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Stream
	LinesRead        int64
	RecordsRouted    int64
	RecordsDiverted  int64
	DivertedByReason map[string]int64

	// Per-line failures
	DecodeErrors  int64
	ExtractErrors int64
	WriteErrors   int64

	// Shard lifecycle
	ShardsOpened    int64
	ShardsFinalized int64
	ManifestAppends int64

	// Post-run delivery
	UploadsSucceeded   int64
	UploadsFailed      int64
	PublishesSucceeded int64
	PublishesFailed    int64

	// Dimensions (informational, set at construction)
	Input  string
	Prefix string
}

// Collector accumulates metrics during a single run.
// Thread-safe via sync.Mutex. All increment methods are nil-receiver safe,
// so callers never need to guard against a disabled collector.
type Collector struct {
	mu sync.Mutex

	// Stream
	linesRead        int64
	recordsRouted    int64
	recordsDiverted  int64
	divertedByReason map[string]int64

	// Per-line failures
	decodeErrors  int64
	extractErrors int64
	writeErrors   int64

	// Shard lifecycle
	shardsOpened    int64
	shardsFinalized int64
	manifestAppends int64

	// Post-run delivery
	uploadsSucceeded   int64
	uploadsFailed      int64
	publishesSucceeded int64
	publishesFailed    int64

	// Dimensions
	input  string
	prefix string
}

// NewCollector creates a Collector with dimension labels.
func NewCollector(input, prefix string) *Collector {
	return &Collector{
		divertedByReason: make(map[string]int64),
		input:            input,
		prefix:           prefix,
	}
}

// --- Stream ---

// IncLineRead records one line consumed from the input stream.
func (c *Collector) IncLineRead() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.linesRead++
	c.mu.Unlock()
}

// IncRecordRouted records one line appended to a shard target.
func (c *Collector) IncRecordRouted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsRouted++
	c.mu.Unlock()
}

// IncRecordDiverted records one line handed to the error sink.
// The reason keys the per-reason breakdown (e.g. "decode", "missing_field").
func (c *Collector) IncRecordDiverted(reason string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.recordsDiverted++
	c.divertedByReason[reason]++
	c.mu.Unlock()
}

// --- Per-line failures ---

// IncDecodeError records a line that was not well-formed JSON.
func (c *Collector) IncDecodeError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.decodeErrors++
	c.mu.Unlock()
}

// IncExtractError records a line whose timestamp could not be extracted.
func (c *Collector) IncExtractError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.extractErrors++
	c.mu.Unlock()
}

// IncWriteError records a decoded line whose shard append failed.
func (c *Collector) IncWriteError() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.writeErrors++
	c.mu.Unlock()
}

// --- Shard lifecycle ---

// IncShardOpened records a shard handle created by the registry.
func (c *Collector) IncShardOpened() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.shardsOpened++
	c.mu.Unlock()
}

// IncShardFinalized records a shard handle evicted and flushed.
func (c *Collector) IncShardFinalized() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.shardsFinalized++
	c.mu.Unlock()
}

// IncManifestAppend records a manifest journal entry written.
func (c *Collector) IncManifestAppend() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.manifestAppends++
	c.mu.Unlock()
}

// --- Post-run delivery ---

// IncUploadSuccess records a finalized target uploaded to the archive store.
func (c *Collector) IncUploadSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.uploadsSucceeded++
	c.mu.Unlock()
}

// IncUploadFailure records a failed archive upload.
func (c *Collector) IncUploadFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.uploadsFailed++
	c.mu.Unlock()
}

// IncPublishSuccess records a day-completed event accepted by an adapter.
func (c *Collector) IncPublishSuccess() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.publishesSucceeded++
	c.mu.Unlock()
}

// IncPublishFailure records a day-completed event an adapter could not deliver.
func (c *Collector) IncPublishFailure() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.publishesFailed++
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	diverted := make(map[string]int64, len(c.divertedByReason))
	for k, v := range c.divertedByReason {
		diverted[k] = v
	}

	return Snapshot{
		LinesRead:        c.linesRead,
		RecordsRouted:    c.recordsRouted,
		RecordsDiverted:  c.recordsDiverted,
		DivertedByReason: diverted,

		DecodeErrors:  c.decodeErrors,
		ExtractErrors: c.extractErrors,
		WriteErrors:   c.writeErrors,

		ShardsOpened:    c.shardsOpened,
		ShardsFinalized: c.shardsFinalized,
		ManifestAppends: c.manifestAppends,

		UploadsSucceeded:   c.uploadsSucceeded,
		UploadsFailed:      c.uploadsFailed,
		PublishesSucceeded: c.publishesSucceeded,
		PublishesFailed:    c.publishesFailed,

		Input:  c.input,
		Prefix: c.prefix,
	}
}
