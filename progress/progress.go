// Package progress formats the human-readable status messages of a run:
// the per-date message emitted at each boundary crossing and the final
// end-of-stream summary. Counts are rendered with locale-aware digit
// grouping; a locale that cannot be resolved degrades to ungrouped digits
// instead of failing the run.
package progress

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/logshard/logshard/record"
)

// ResolveLocale resolves the digit-grouping locale: an explicit BCP 47
// tag when given, otherwise the first of LC_ALL, LC_NUMERIC, LANG set in
// the environment. The error reports an unresolvable locale; callers are
// expected to log it and continue with NewFallbackReporter.
func ResolveLocale(tag string) (language.Tag, error) {
	if tag == "" {
		v, ok := localeFromEnv()
		if !ok {
			return language.Und, fmt.Errorf("no locale in LC_ALL, LC_NUMERIC or LANG")
		}
		tag = v
	}

	parsed, err := language.Parse(normalizeLocale(tag))
	if err != nil {
		return language.Und, fmt.Errorf("parse locale %q: %w", tag, err)
	}
	return parsed, nil
}

func localeFromEnv() (string, bool) {
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		v := os.Getenv(key)
		if v == "" || v == "C" || v == "POSIX" {
			continue
		}
		return v, true
	}
	return "", false
}

// normalizeLocale converts POSIX locale syntax (en_US.UTF-8@euro) to a
// BCP 47 tag (en-US).
func normalizeLocale(v string) string {
	if i := strings.IndexByte(v, '.'); i >= 0 {
		v = v[:i]
	}
	if i := strings.IndexByte(v, '@'); i >= 0 {
		v = v[:i]
	}
	return strings.ReplaceAll(v, "_", "-")
}

// Reporter writes boundary and summary messages to a status stream,
// stdout in the CLI. Construct with NewReporter or NewFallbackReporter.
type Reporter struct {
	out     io.Writer
	printer *message.Printer
}

// NewReporter creates a reporter grouping digits per tag.
func NewReporter(out io.Writer, tag language.Tag) *Reporter {
	return &Reporter{out: out, printer: message.NewPrinter(tag)}
}

// NewFallbackReporter creates a reporter with ungrouped digits, used when
// no locale could be resolved.
func NewFallbackReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Count renders n with the configured digit grouping.
func (r *Reporter) Count(n int64) string {
	if r.printer == nil {
		return strconv.FormatInt(n, 10)
	}
	return r.printer.Sprintf("%d", n)
}

// Boundary writes the per-date progress message emitted when the stream
// advances past day: the records routed to it and the elapsed time since
// the day started.
func (r *Reporter) Boundary(day record.DateKey, records int64, took time.Duration) {
	fmt.Fprintf(r.out, "Completed processing %s.  %s records. [Took: %s]\n",
		day, r.Count(records), FormatDuration(took))
}

// Summary writes the end-of-stream summary: total lines and whole-run
// elapsed time.
func (r *Reporter) Summary(lines int64, took time.Duration) {
	fmt.Fprintf(r.out, "Finished processing %s lines in %s.\n",
		r.Count(lines), FormatDuration(took))
}

// FormatDuration renders d in coarse human units: sub-second durations in
// milliseconds, longer ones as nonzero day/hour/minute/second components
// ("2m 32s", "1d 1h", "150ms").
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}

	secs := int64(d / time.Second)
	parts := make([]string, 0, 4)
	for _, unit := range []struct {
		suffix string
		size   int64
	}{
		{"d", 86400},
		{"h", 3600},
		{"m", 60},
		{"s", 1},
	} {
		if n := secs / unit.size; n > 0 {
			parts = append(parts, fmt.Sprintf("%d%s", n, unit.suffix))
			secs -= n * unit.size
		}
	}
	return strings.Join(parts, " ")
}
