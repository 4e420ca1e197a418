// Package engine implements the shard router: the single-threaded line
// processor that decodes each input line, routes it to its day's shard
// target or to the error sink, and reports progress as date boundaries
// are crossed.
package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/logshard/logshard/adapter"
	"github.com/logshard/logshard/log"
	"github.com/logshard/logshard/manifest"
	"github.com/logshard/logshard/metrics"
	"github.com/logshard/logshard/progress"
	"github.com/logshard/logshard/record"
	"github.com/logshard/logshard/shard"
	"github.com/logshard/logshard/types"
)

// DefaultMaxLineSize bounds a single input line.
const DefaultMaxLineSize = 16 * 1024 * 1024

// cancelGraceTimeout bounds the final eviction when the run is canceled.
const cancelGraceTimeout = 10 * time.Second

// State tracks the router's position in the run lifecycle.
type State int

const (
	// StateIdle means Run has not been called.
	StateIdle State = iota
	// StateStreaming means lines are being consumed.
	StateStreaming
	// StateDraining means the stream is exhausted and open resources are
	// being finalized.
	StateDraining
	// StateDone means the run finished, successfully or not.
	StateDone
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Config configures a single sharding run.
type Config struct {
	// Input is the input path, used in diagnostics and published events.
	Input string
	// Prefix is the output prefix, used in published events.
	Prefix string
	// Source is the line stream being sharded.
	Source io.Reader
	// Registry owns the per-date shard handles.
	Registry *shard.Registry
	// Errors receives lines that could not be routed.
	Errors *shard.ErrorSink
	// Reporter emits boundary and summary messages.
	Reporter *progress.Reporter
	// Journal records finalized bursts. Nil disables journaling.
	Journal *manifest.Journal
	// Adapter publishes day completion events. Nil disables publishing.
	Adapter adapter.Adapter
	// Logger receives per-line diagnostics.
	Logger *log.Logger
	// Collector accumulates run counters. All methods are nil-safe.
	Collector *metrics.Collector
	// MaxLineSize bounds a single input line. Zero selects
	// DefaultMaxLineSize; a longer line aborts the run as a stream error.
	MaxLineSize int
}

// Target identifies one file the run produced, for post-run steps such
// as archive uploads. Day is a calendar date or manifest.ErrorDay.
type Target struct {
	Day  string
	Path string
}

// Summary describes a completed run.
type Summary struct {
	// Lines is the number of lines that reached routing, the count the
	// final summary message reports. Diverted lines are not included.
	Lines int64
	// Diverted is the number of lines recorded in the error target.
	Diverted int64
	// Bursts is the number of finalized write bursts.
	Bursts int64
	// Elapsed is the whole-run duration.
	Elapsed time.Duration
	// Targets lists the produced files, each once, the error target
	// last.
	Targets []Target
}

// Router is the per-run line processor.
//
// Lifecycle: Idle until Run is called, Streaming while lines flow,
// Draining once the stream is exhausted, Done after the summary. Per
// line:
//   - decode the line and extract its timestamp; a failure diverts the
//     raw line to the error sink and leaves the run counters untouched
//   - on a date change, report progress for the previous day and evict
//     its handle before the new day's line is routed
//   - append the line to the current day's handle; an append failure
//     diverts the raw line but still advances the counters
//
// Each eviction, at a boundary or at drain, journals the burst and
// publishes a day completion event when those are configured.
type Router struct {
	cfg   Config
	state State

	lineno     int64
	lines      int64
	perDay     int64
	diverted   int64
	bursts     int64
	currentDay record.DateKey
	runStart   time.Time
	dayStart   time.Time
	targets    []Target
}

// New validates cfg and creates an idle router.
func New(cfg Config) (*Router, error) {
	if cfg.Source == nil {
		return nil, errors.New("engine: config.Source is required")
	}
	if cfg.Registry == nil {
		return nil, errors.New("engine: config.Registry is required")
	}
	if cfg.Errors == nil {
		return nil, errors.New("engine: config.Errors is required")
	}
	if cfg.Reporter == nil {
		return nil, errors.New("engine: config.Reporter is required")
	}
	if cfg.Logger == nil {
		return nil, errors.New("engine: config.Logger is required")
	}
	if cfg.MaxLineSize <= 0 {
		cfg.MaxLineSize = DefaultMaxLineSize
	}
	return &Router{cfg: cfg}, nil
}

// State returns the router's lifecycle state.
func (r *Router) State() State {
	return r.state
}

// Run consumes the stream until EOF, cancellation or a fatal error.
// Returns:
//   - *Summary, nil: the stream ended cleanly
//   - *RunError with Kind=RunErrorStream: the input failed mid-read
//   - *RunError with Kind=RunErrorEnvironment: a target could not be
//     opened, an eviction lost data, or the error sink failed
//   - *RunError with Kind=RunErrorCanceled: the context was canceled
func (r *Router) Run(ctx context.Context) (*Summary, error) {
	r.state = StateStreaming
	r.runStart = time.Now()
	r.dayStart = r.runStart

	scanner := bufio.NewScanner(r.cfg.Source)
	scanner.Buffer(make([]byte, 0, 64*1024), r.cfg.MaxLineSize)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			// Evict with a detached context so the journal append and
			// final publish get a bounded chance to complete.
			evictCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cancelGraceTimeout)
			if err := r.finalizeCurrent(evictCtx); err != nil {
				r.cfg.Logger.Error("eviction failed during cancellation", map[string]any{
					"error": err.Error(),
				})
			}
			cancel()
			r.state = StateDone
			return nil, &RunError{Kind: RunErrorCanceled, Err: ctx.Err()}
		default:
		}

		r.lineno++
		r.cfg.Collector.IncLineRead()
		if err := r.processLine(ctx, scanner.Bytes()); err != nil {
			r.state = StateDone
			return nil, err
		}
	}

	if err := scanner.Err(); err != nil {
		r.state = StateDone
		return nil, &RunError{
			Kind: RunErrorStream,
			Err:  fmt.Errorf("read line %d: %w", r.lineno+1, err),
		}
	}

	return r.drain(ctx)
}

// processLine runs the per-line algorithm. A non-nil return is fatal.
func (r *Router) processLine(ctx context.Context, line []byte) error {
	rec, err := record.Decode(line)
	if err != nil {
		r.cfg.Collector.IncDecodeError()
		r.cfg.Logger.Error("line diverted", map[string]any{
			"line":   r.lineno,
			"reason": record.DivertReason(err),
			"error":  err.Error(),
			"raw":    string(line),
		})
		return r.divert(line, record.DivertReason(err))
	}

	ts, err := record.ExtractTimestamp(rec)
	if err != nil {
		r.cfg.Collector.IncExtractError()
		r.cfg.Logger.Error("line diverted", map[string]any{
			"line":   r.lineno,
			"reason": record.DivertReason(err),
			"error":  err.Error(),
			"raw":    string(line),
		})
		return r.divert(line, record.DivertReason(err))
	}

	day := ts.DateKey()

	// Boundary crossing: the previous day's progress message goes out
	// before this line is routed anywhere.
	if !r.currentDay.IsZero() && day != r.currentDay {
		r.cfg.Reporter.Boundary(r.currentDay, r.perDay, time.Since(r.dayStart))
		if err := r.finalizeCurrent(ctx); err != nil {
			return err
		}
		r.perDay = 0
		r.dayStart = time.Now()
	}

	h, created, err := r.cfg.Registry.GetOrCreate(day)
	if err != nil {
		return &RunError{Kind: RunErrorEnvironment, Err: err}
	}
	if created {
		r.cfg.Collector.IncShardOpened()
		r.cfg.Logger.Debug("shard target opened", map[string]any{
			"day":  day.String(),
			"path": h.Path(),
		})
	}

	if err := h.Append(line); err != nil {
		r.cfg.Collector.IncWriteError()
		r.cfg.Logger.Error("append failed, line diverted", map[string]any{
			"line":  r.lineno,
			"day":   day.String(),
			"path":  h.Path(),
			"error": err.Error(),
		})
		if derr := r.divert(line, "write"); derr != nil {
			return derr
		}
	} else {
		r.cfg.Collector.IncRecordRouted()
	}

	// Counters advance even when the append failed; only decode and
	// extract failures leave them untouched.
	r.currentDay = day
	r.lines++
	r.perDay++
	return nil
}

// divert hands the raw line to the error sink. A sink failure is fatal:
// there is no secondary sink behind it.
func (r *Router) divert(line []byte, reason string) error {
	r.cfg.Collector.IncRecordDiverted(reason)
	r.diverted++
	if err := r.cfg.Errors.Record(line); err != nil {
		return &RunError{Kind: RunErrorEnvironment, Err: fmt.Errorf("error sink: %w", err)}
	}
	return nil
}

// finalizeCurrent evicts the open handle, journals the burst and
// publishes the day completion event. A no-op when no handle is open.
func (r *Router) finalizeCurrent(ctx context.Context) error {
	h := r.cfg.Registry.Current()
	if h == nil {
		return nil
	}

	fin, err := r.cfg.Registry.Evict(h.Key())
	if err != nil {
		return &RunError{Kind: RunErrorEnvironment, Err: err}
	}
	r.cfg.Collector.IncShardFinalized()
	r.bursts++
	r.cfg.Logger.Debug("shard target finalized", map[string]any{
		"day":     fin.Key.String(),
		"path":    fin.Path,
		"records": fin.Records,
		"bytes":   fin.Bytes,
	})

	r.recordTarget(fin.Key.String(), fin.Path)
	r.journalBurst(fin.Key.String(), fin.Records, fin.Bytes)
	r.publish(ctx, fin)
	return nil
}

// recordTarget remembers a produced file once. A recurring date
// finalizes the same path repeatedly; only the first burst registers it.
func (r *Router) recordTarget(day, path string) {
	for _, t := range r.targets {
		if t.Path == path {
			return
		}
	}
	r.targets = append(r.targets, Target{Day: day, Path: path})
}

// journalBurst appends one manifest entry. The journal is advisory:
// failures are logged, never fatal.
func (r *Router) journalBurst(day string, records, bytes int64) {
	if r.cfg.Journal == nil {
		return
	}
	entry := &manifest.Entry{
		Day:         day,
		Records:     records,
		Bytes:       bytes,
		CompletedAt: time.Now().UTC().Format(time.RFC3339Nano),
	}
	if err := r.cfg.Journal.Append(entry); err != nil {
		r.cfg.Logger.Warn("manifest append failed", map[string]any{
			"day":   day,
			"error": err.Error(),
		})
		return
	}
	r.cfg.Collector.IncManifestAppend()
}

// publish sends the day completion event. Failures are logged and
// counted, never fatal.
func (r *Router) publish(ctx context.Context, fin *shard.Finalized) {
	if r.cfg.Adapter == nil {
		return
	}
	event := &adapter.DayCompletedEvent{
		SchemaVersion: types.EventSchemaVersion,
		EventType:     adapter.EventTypeDayCompleted,
		Day:           fin.Key.String(),
		Records:       fin.Records,
		Bytes:         fin.Bytes,
		Input:         r.cfg.Input,
		Prefix:        r.cfg.Prefix,
		CompletedAt:   time.Now().UTC().Format(time.RFC3339Nano),
		DurationMs:    time.Since(fin.OpenedAt).Milliseconds(),
	}
	if err := r.cfg.Adapter.Publish(ctx, event); err != nil {
		r.cfg.Collector.IncPublishFailure()
		r.cfg.Logger.Warn("publish failed", map[string]any{
			"adapter": r.cfg.Adapter.Name(),
			"day":     event.Day,
			"error":   err.Error(),
		})
		return
	}
	r.cfg.Collector.IncPublishSuccess()
}

// drain finalizes the run after a cleanly exhausted stream. The final
// date gets no boundary message, only the summary.
func (r *Router) drain(ctx context.Context) (*Summary, error) {
	r.state = StateDraining

	if err := r.finalizeCurrent(ctx); err != nil {
		r.state = StateDone
		return nil, err
	}

	if r.cfg.Errors.Records() > 0 {
		r.journalBurst(manifest.ErrorDay, r.cfg.Errors.Records(), r.cfg.Errors.Bytes())
	}
	r.recordTarget(manifest.ErrorDay, r.cfg.Errors.Path())

	elapsed := time.Since(r.runStart)
	r.cfg.Reporter.Summary(r.lines, elapsed)
	r.state = StateDone

	return &Summary{
		Lines:    r.lines,
		Diverted: r.diverted,
		Bursts:   r.bursts,
		Elapsed:  elapsed,
		Targets:  r.targets,
	}, nil
}
