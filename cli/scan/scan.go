// Package scan reads back what a run produced: per-day summaries for the
// stats command and decompressed target lines for inspect. Summaries
// prefer the manifest journal and fall back to scanning the targets
// themselves when no usable journal exists.
package scan

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/logshard/logshard/engine"
	"github.com/logshard/logshard/frame"
	"github.com/logshard/logshard/manifest"
	"github.com/logshard/logshard/record"
	"github.com/logshard/logshard/shard"
)

// Summary sources.
const (
	// SourceManifest means the summary was read from the manifest journal.
	SourceManifest = "manifest"
	// SourceScan means the summary was rebuilt by scanning the targets.
	SourceScan = "scan"
)

// DaySummary aggregates one day's output. Bursts is zero when the
// summary was rebuilt by scanning (burst boundaries are not recoverable
// from a flat target).
type DaySummary struct {
	Day         string `json:"day" yaml:"day"`
	Records     int64  `json:"records" yaml:"records"`
	Bytes       int64  `json:"bytes" yaml:"bytes"`
	Bursts      int64  `json:"bursts" yaml:"bursts"`
	CompletedAt string `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Summary is the stats payload for one output prefix.
type Summary struct {
	Prefix string       `json:"prefix" yaml:"prefix"`
	Source string       `json:"source" yaml:"source"`
	Days   []DaySummary `json:"days" yaml:"days"`
}

// Summarize builds per-day stats for a prefix. The manifest journal is
// authoritative when it reads back cleanly; otherwise the targets are
// scanned directly.
func Summarize(prefix string) (*Summary, error) {
	entries, err := manifest.ReadFile(manifest.Path(prefix))
	if err == nil && len(entries) > 0 {
		return fromJournal(prefix, entries), nil
	}
	return fromScan(prefix)
}

// fromJournal aggregates journal entries by day. Days sort ascending;
// the error pseudo day sorts after every calendar date.
func fromJournal(prefix string, entries []*manifest.Entry) *Summary {
	byDay := make(map[string]*DaySummary)
	var days []string
	for _, e := range entries {
		ds, ok := byDay[e.Day]
		if !ok {
			ds = &DaySummary{Day: e.Day}
			byDay[e.Day] = ds
			days = append(days, e.Day)
		}
		ds.Records += e.Records
		ds.Bytes += e.Bytes
		ds.Bursts++
		ds.CompletedAt = e.CompletedAt
	}
	sort.Strings(days)

	sum := &Summary{Prefix: prefix, Source: SourceManifest}
	for _, day := range days {
		sum.Days = append(sum.Days, *byDay[day])
	}
	return sum
}

// fromScan rebuilds summaries from the target files on disk.
func fromScan(prefix string) (*Summary, error) {
	paths, err := filepath.Glob(prefix + ".*.jsonl.gz")
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	sum := &Summary{Prefix: prefix, Source: SourceScan}
	for _, path := range paths {
		day, ok := dayFromPath(prefix, path)
		if !ok {
			continue
		}
		ds, err := scanTarget(day, path)
		if err != nil {
			return nil, err
		}
		sum.Days = append(sum.Days, *ds)
	}

	errPath := shard.ErrorPath(prefix)
	if _, err := os.Stat(errPath); err == nil {
		ds, err := scanTarget(manifest.ErrorDay, errPath)
		if err != nil {
			return nil, err
		}
		if ds.Records > 0 {
			sum.Days = append(sum.Days, *ds)
		}
	}
	return sum, nil
}

// dayFromPath extracts and validates the date component of a target name.
func dayFromPath(prefix, path string) (string, bool) {
	day := strings.TrimSuffix(strings.TrimPrefix(path, prefix+"."), ".jsonl.gz")
	if _, err := record.ParseDateKey(day); err != nil {
		return "", false
	}
	return day, true
}

// scanTarget counts decompressed lines and takes the compressed size,
// matching what the journal records for a burst.
func scanTarget(day, path string) (*DaySummary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, shard.WrapReadError(err, path)
	}

	var records int64
	err = Lines(path, 0, func(int, string) error {
		records++
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &DaySummary{Day: day, Records: records, Bytes: info.Size()}, nil
}

// TargetForDay returns the shard target path for one day under a prefix.
func TargetForDay(prefix, day string) (string, error) {
	key, err := record.ParseDateKey(day)
	if err != nil {
		return "", err
	}
	return shard.TargetPath(prefix, key), nil
}

// Lines streams the decompressed lines of one target through fn with
// 1-based line numbers. A positive limit stops after that many lines.
// An error from fn aborts the stream and is returned as is.
func Lines(path string, limit int, fn func(n int, line string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return shard.WrapReadError(err, path)
	}
	defer f.Close()

	r, err := frame.NewReader(f)
	if err != nil {
		// A freshly created error target has no members yet.
		if errors.Is(err, io.EOF) {
			return nil
		}
		return shard.WrapReadError(err, path)
	}
	defer r.Close()

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), engine.DefaultMaxLineSize)
	n := 0
	for sc.Scan() {
		n++
		if err := fn(n, sc.Text()); err != nil {
			return err
		}
		if limit > 0 && n >= limit {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return shard.WrapReadError(err, path)
	}
	return nil
}

// Inspection holds the decompressed lines of one target for display.
type Inspection struct {
	Day       string   `json:"day" yaml:"day"`
	Target    string   `json:"target" yaml:"target"`
	Lines     []string `json:"lines" yaml:"lines"`
	Truncated bool     `json:"truncated,omitempty" yaml:"truncated,omitempty"`
}

// Inspect collects up to limit lines of one target. limit <= 0 collects
// everything. Truncated is set only when lines beyond the limit exist,
// so a target of exactly limit lines reads as complete.
func Inspect(day, path string, limit int) (*Inspection, error) {
	ins := &Inspection{Day: day, Target: path}

	scanLimit := 0
	if limit > 0 {
		scanLimit = limit + 1
	}
	err := Lines(path, scanLimit, func(_ int, line string) error {
		ins.Lines = append(ins.Lines, line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(ins.Lines) > limit {
		ins.Lines = ins.Lines[:limit]
		ins.Truncated = true
	}
	return ins, nil
}
