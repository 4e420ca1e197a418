package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/logshard/logshard/adapter"
	"github.com/logshard/logshard/adapter/redis"
	"github.com/logshard/logshard/adapter/webhook"
	"github.com/logshard/logshard/archive"
	"github.com/logshard/logshard/cli/config"
	"github.com/logshard/logshard/engine"
	"github.com/logshard/logshard/frame"
	"github.com/logshard/logshard/input"
	"github.com/logshard/logshard/log"
	"github.com/logshard/logshard/manifest"
	"github.com/logshard/logshard/metrics"
	"github.com/logshard/logshard/progress"
	"github.com/logshard/logshard/shard"
)

// Exit codes.
const (
	exitSuccess  = 0
	exitFatal    = 1
	exitCanceled = 2
)

// ShardCommand returns the shard command.
// This is the only command that writes targets; everything else is read-only.
func ShardCommand() *cli.Command {
	return &cli.Command{
		Name:  "shard",
		Usage: "Split a log stream into per-day gzip shard targets",
		Flags: []cli.Flag{
			// Stream flags
			&cli.StringFlag{
				Name:  "input",
				Usage: "Path to the input log stream (plain, gzip or zstd)",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output prefix for shard targets, or - for passthrough to stdout",
			},
			&cli.StringFlag{
				Name:  "locale",
				Usage: "BCP 47 locale for progress digit grouping (default: environment)",
			},
			&cli.IntFlag{
				Name:  "compression-level",
				Usage: "gzip level for shard targets: -2 (huffman only) through 9 (best)",
			},
			&cli.IntFlag{
				Name:  "max-line-size",
				Usage: "Maximum input line size in bytes",
			},
			&cli.BoolFlag{
				Name:  "manifest",
				Usage: "Write the manifest journal (the default)",
			},
			&cli.BoolFlag{
				Name:  "no-manifest",
				Usage: "Skip the manifest journal",
			},
			// Archive flags
			&cli.StringFlag{
				Name:  "archive",
				Usage: "Archive destination as s3://bucket/prefix (uploads after the run)",
			},
			&cli.StringFlag{
				Name:  "archive-region",
				Usage: "AWS region for archive uploads (optional, uses default chain)",
			},
			&cli.StringFlag{
				Name:  "archive-endpoint",
				Usage: "Custom S3 endpoint for S3-compatible stores",
			},
			&cli.BoolFlag{
				Name:  "archive-path-style",
				Usage: "Use path-style S3 addressing (MinIO, some R2 setups)",
			},
			// Adapter flags
			&cli.StringFlag{
				Name:  "adapter",
				Usage: "Day completion adapter: redis, webhook or none",
			},
			&cli.StringFlag{
				Name:  "adapter-url",
				Usage: "Adapter endpoint (redis:// URL or webhook http(s):// URL)",
			},
			&cli.StringFlag{
				Name:  "adapter-channel",
				Usage: "Redis pub/sub channel for day completion events",
			},
			&cli.StringSliceFlag{
				Name:  "adapter-header",
				Usage: "Webhook header as 'Name: value' (repeatable)",
			},
			&cli.DurationFlag{
				Name:  "adapter-timeout",
				Usage: "Per-publish adapter timeout",
			},
			&cli.IntFlag{
				Name:  "adapter-retries",
				Usage: "Adapter retry attempts on failure",
			},
			// Config file
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a logshard.yaml config file",
			},
		},
		Action: shardAction,
	}
}

// shardOptions is the merged flag/config view of one invocation.
type shardOptions struct {
	input    string
	output   string
	locale   string
	level    int
	maxLine  int
	manifest bool
	archive  config.ArchiveConfig
	adapter  config.AdapterConfig
}

func shardAction(c *cli.Context) error {
	opts, err := resolveOptions(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFatal)
	}

	src, err := input.Open(opts.input)
	if err != nil {
		return cli.Exit(fmt.Sprintf("cannot open input: %v", err), exitFatal)
	}
	defer src.Close()

	// Passthrough mode: raw lines to stdout, no sharding.
	if opts.output == "-" {
		if err := engine.Passthrough(c.App.Writer, src); err != nil {
			return cli.Exit(err.Error(), exitFatal)
		}
		return nil
	}

	prefix := opts.output
	if prefix == "" {
		prefix = shard.DefaultPrefix(opts.input)
	}

	logger := log.NewLogger(log.Meta{Input: opts.input, Prefix: prefix})
	collector := metrics.NewCollector(opts.input, prefix)
	reporter := buildReporter(c.App.Writer, opts.locale, logger)

	adp, err := buildAdapter(opts.adapter)
	if err != nil {
		return cli.Exit(fmt.Sprintf("invalid adapter config: %v", err), exitFatal)
	}
	if adp != nil {
		defer func() { _ = adp.Close() }()
	}

	scfg := shard.Config{Prefix: prefix, Level: opts.level}
	registry, err := shard.NewRegistry(scfg)
	if err != nil {
		return cli.Exit(err.Error(), exitFatal)
	}
	sink, err := shard.NewErrorSink(scfg)
	if err != nil {
		return cli.Exit(err.Error(), exitFatal)
	}

	var journal *manifest.Journal
	if opts.manifest {
		journal = manifest.NewJournal(manifest.Path(prefix))
	}

	router, err := engine.New(engine.Config{
		Input:       opts.input,
		Prefix:      prefix,
		Source:      src,
		Registry:    registry,
		Errors:      sink,
		Reporter:    reporter,
		Journal:     journal,
		Adapter:     adp,
		Logger:      logger,
		Collector:   collector,
		MaxLineSize: opts.maxLine,
	})
	if err != nil {
		return cli.Exit(err.Error(), exitFatal)
	}

	// Set up context with signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	summary, runErr := router.Run(ctx)
	closeErr := closeOutputs(registry, sink, journal, logger)

	var archiveErr error
	uploadsFailed := 0
	if runErr == nil && closeErr == nil && opts.archive.Enabled() {
		up, err := buildUploader(ctx, opts.archive)
		if err != nil {
			archiveErr = err
		} else {
			uploadsFailed = uploadTargets(ctx, up, summary.Targets, collector, logger)
			if cerr := up.Close(); cerr != nil {
				logger.Warn("closing uploader failed", map[string]any{"error": cerr.Error()})
			}
		}
	}

	logSnapshot(logger, collector.Snapshot())

	switch {
	case engine.IsCanceledError(runErr):
		return cli.Exit("run canceled", exitCanceled)
	case runErr != nil:
		return cli.Exit(runErr.Error(), exitFatal)
	case closeErr != nil:
		return cli.Exit(closeErr.Error(), exitFatal)
	case archiveErr != nil:
		return cli.Exit(fmt.Sprintf("archive setup failed: %v", archiveErr), exitFatal)
	case ctx.Err() != nil:
		// Canceled after the stream completed, during uploads.
		return cli.Exit("run canceled", exitCanceled)
	case uploadsFailed > 0:
		return cli.Exit(fmt.Sprintf("%d archive uploads failed", uploadsFailed), exitFatal)
	}
	return nil
}

// resolveOptions merges the config file and flags. Flags always win;
// file values fill the gaps; hard defaults apply last.
func resolveOptions(c *cli.Context) (*shardOptions, error) {
	var cfg *config.Config
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	opts := &shardOptions{
		input:    resolveString(c, "input", configVal(cfg, func(c *config.Config) string { return c.Input })),
		output:   resolveString(c, "output", configVal(cfg, func(c *config.Config) string { return c.Output })),
		locale:   resolveString(c, "locale", configVal(cfg, func(c *config.Config) string { return c.Locale })),
		level:    resolveLevel(c, configVal(cfg, func(c *config.Config) *int { return c.CompressionLevel })),
		maxLine:  resolveInt(c, "max-line-size", configVal(cfg, func(c *config.Config) int { return c.MaxLineSize })),
		manifest: resolveManifest(c, configVal(cfg, func(c *config.Config) *bool { return c.Manifest })),
		archive:  configVal(cfg, func(c *config.Config) config.ArchiveConfig { return c.Archive }),
		adapter:  configVal(cfg, func(c *config.Config) config.AdapterConfig { return c.Adapter }),
	}

	opts.archive.Destination = resolveString(c, "archive", opts.archive.Destination)
	opts.archive.Region = resolveString(c, "archive-region", opts.archive.Region)
	opts.archive.Endpoint = resolveString(c, "archive-endpoint", opts.archive.Endpoint)
	opts.archive.S3PathStyle = resolveBool(c, "archive-path-style", opts.archive.S3PathStyle)

	opts.adapter.Type = resolveString(c, "adapter", opts.adapter.Type)
	opts.adapter.URL = resolveString(c, "adapter-url", opts.adapter.URL)
	opts.adapter.Channel = resolveString(c, "adapter-channel", opts.adapter.Channel)
	opts.adapter.Timeout = config.Duration{Duration: resolveDuration(c, "adapter-timeout", opts.adapter.Timeout.Duration)}
	if c.IsSet("adapter-retries") {
		n := c.Int("adapter-retries")
		opts.adapter.Retries = &n
	}
	if headers := c.StringSlice("adapter-header"); len(headers) > 0 {
		parsed, err := parseHeaders(headers)
		if err != nil {
			return nil, err
		}
		opts.adapter.Headers = parsed
	}

	if opts.input == "" {
		return nil, errors.New("--input is required (flag or config file)")
	}
	if !frame.ValidLevel(opts.level) {
		return nil, fmt.Errorf("invalid --compression-level %d (must be -2 through 9)", opts.level)
	}
	return opts, nil
}

// configVal reads one field from cfg, of which there may be none.
func configVal[T any](cfg *config.Config, get func(*config.Config) T) T {
	var zero T
	if cfg == nil {
		return zero
	}
	return get(cfg)
}

// resolveString merges one string setting: an explicitly set flag wins,
// then a non-empty config value, then the flag default.
func resolveString(c *cli.Context, name, fromConfig string) string {
	if c.IsSet(name) {
		return c.String(name)
	}
	if fromConfig != "" {
		return fromConfig
	}
	return c.String(name)
}

func resolveInt(c *cli.Context, name string, fromConfig int) int {
	if c.IsSet(name) {
		return c.Int(name)
	}
	if fromConfig != 0 {
		return fromConfig
	}
	return c.Int(name)
}

func resolveBool(c *cli.Context, name string, fromConfig bool) bool {
	if c.IsSet(name) {
		return c.Bool(name)
	}
	return fromConfig || c.Bool(name)
}

func resolveDuration(c *cli.Context, name string, fromConfig time.Duration) time.Duration {
	if c.IsSet(name) {
		return c.Duration(name)
	}
	if fromConfig > 0 {
		return fromConfig
	}
	return c.Duration(name)
}

// resolveLevel picks the target compression level. Zero is a real level
// (store only), so the config side stays a pointer and the standard
// level applies only when both sources are silent.
func resolveLevel(c *cli.Context, fromConfig *int) int {
	if c.IsSet("compression-level") {
		return c.Int("compression-level")
	}
	if fromConfig != nil {
		return *fromConfig
	}
	return frame.DefaultLevel
}

// resolveManifest merges the journal toggle: --no-manifest beats
// --manifest, both beat the config file, and the journal defaults on.
func resolveManifest(c *cli.Context, fromConfig *bool) bool {
	switch {
	case c.Bool("no-manifest"):
		return false
	case c.Bool("manifest"):
		return true
	case fromConfig != nil:
		return *fromConfig
	}
	return true
}

// parseHeaders parses repeated "Name: value" webhook header flags.
func parseHeaders(raw []string) (map[string]string, error) {
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		name, value, ok := strings.Cut(h, ":")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid --adapter-header %q (want 'Name: value')", h)
		}
		headers[name] = strings.TrimSpace(value)
	}
	return headers, nil
}

// buildReporter resolves the digit-grouping locale. An unresolvable
// locale degrades to ungrouped digits, never a failed run.
func buildReporter(out io.Writer, locale string, logger *log.Logger) *progress.Reporter {
	tag, err := progress.ResolveLocale(locale)
	if err != nil {
		logger.Warn("locale unavailable, digits will not be grouped", map[string]any{
			"error": err.Error(),
		})
		return progress.NewFallbackReporter(out)
	}
	return progress.NewReporter(out, tag)
}

// buildAdapter constructs the configured completion adapter. A nil
// adapter with a nil error means publishing is disabled.
func buildAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil

	case "redis":
		rcfg := redis.Config{
			URL:     cfg.URL,
			Channel: cfg.Channel,
			Timeout: cfg.Timeout.Duration,
			Retries: redis.DefaultRetries,
		}
		if cfg.Retries != nil {
			rcfg.Retries = *cfg.Retries
		}
		return redis.New(rcfg)

	case "webhook":
		wcfg := webhook.Config{
			URL:     cfg.URL,
			Headers: cfg.Headers,
			Timeout: cfg.Timeout.Duration,
			Retries: webhook.DefaultRetries,
		}
		if cfg.Retries != nil {
			wcfg.Retries = *cfg.Retries
		}
		return webhook.New(wcfg)

	default:
		return nil, fmt.Errorf("unknown adapter type %q (must be redis, webhook or none)", cfg.Type)
	}
}

// buildUploader creates the S3 uploader from an s3://bucket/prefix
// destination.
func buildUploader(ctx context.Context, cfg config.ArchiveConfig) (archive.Uploader, error) {
	bucket, keyPrefix, err := archive.ParseS3Path(cfg.Destination)
	if err != nil {
		return nil, err
	}
	return archive.NewS3Uploader(ctx, archive.S3Config{
		Bucket:       bucket,
		Prefix:       keyPrefix,
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		UsePathStyle: cfg.S3PathStyle,
	})
}

// uploadTargets ships each produced target once. Failures are logged
// and counted; remaining targets still upload.
func uploadTargets(ctx context.Context, up archive.Uploader, targets []engine.Target, collector *metrics.Collector, logger *log.Logger) int {
	failed := 0
	for _, t := range targets {
		if err := up.Upload(ctx, t.Day, t.Path); err != nil {
			collector.IncUploadFailure()
			logger.Error("archive upload failed", map[string]any{
				"day":   t.Day,
				"path":  t.Path,
				"error": err.Error(),
			})
			failed++
			continue
		}
		collector.IncUploadSuccess()
		logger.Info("target archived", map[string]any{
			"day":  t.Day,
			"path": t.Path,
		})
	}
	return failed
}

// closeOutputs flushes and closes the run's output resources. Registry
// and sink failures mean buffered frames were lost; the journal is
// advisory and only logs.
func closeOutputs(registry *shard.Registry, sink *shard.ErrorSink, journal *manifest.Journal, logger *log.Logger) error {
	var firstErr error
	if err := registry.Close(); err != nil {
		logger.Error("closing shard target failed", map[string]any{"error": err.Error()})
		firstErr = err
	}
	if err := sink.Close(); err != nil {
		logger.Error("closing error target failed", map[string]any{"error": err.Error()})
		if firstErr == nil {
			firstErr = err
		}
	}
	if journal != nil {
		if err := journal.Close(); err != nil {
			logger.Warn("closing manifest journal failed", map[string]any{"error": err.Error()})
		}
	}
	return firstErr
}

// logSnapshot records the run counters as one structured entry.
func logSnapshot(logger *log.Logger, snap metrics.Snapshot) {
	logger.Info("run metrics", map[string]any{
		"lines_read":          snap.LinesRead,
		"records_routed":      snap.RecordsRouted,
		"records_diverted":    snap.RecordsDiverted,
		"diverted_by_reason":  snap.DivertedByReason,
		"decode_errors":       snap.DecodeErrors,
		"extract_errors":      snap.ExtractErrors,
		"write_errors":        snap.WriteErrors,
		"shards_opened":       snap.ShardsOpened,
		"shards_finalized":    snap.ShardsFinalized,
		"manifest_appends":    snap.ManifestAppends,
		"uploads_succeeded":   snap.UploadsSucceeded,
		"uploads_failed":      snap.UploadsFailed,
		"publishes_succeeded": snap.PublishesSucceeded,
		"publishes_failed":    snap.PublishesFailed,
	})
}
