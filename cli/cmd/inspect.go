package cmd

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/logshard/logshard/cli/render"
	"github.com/logshard/logshard/cli/scan"
	"github.com/logshard/logshard/manifest"
	"github.com/logshard/logshard/shard"
)

// inspectWarningThreshold is the number of dumped lines above which we
// suggest --limit.
const inspectWarningThreshold = 10000

// isStderrTTY returns true if stderr is a TTY.
func isStderrTTY() bool {
	info, err := os.Stderr.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}

// InspectCommand returns the inspect command with subcommands.
// Inspect dumps the decompressed lines of a single target.
func InspectCommand() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Dump decompressed lines of one target (day, errors)",
		Subcommands: []*cli.Command{
			inspectDayCommand(),
			inspectErrorsCommand(),
		},
	}
}

func inspectDayCommand() *cli.Command {
	return &cli.Command{
		Name:      "day",
		Usage:     "Dump one day's shard target",
		ArgsUsage: "<YYYY-MM-DD>",
		Flags: append(TUIReadOnlyFlags(),
			PrefixFlag,
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of lines to dump (0 = no limit)",
			},
		),
		Action: inspectDayAction,
	}
}

func inspectDayAction(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("day required (YYYY-MM-DD)", 1)
	}
	day := c.Args().First()

	path, err := scan.TargetForDay(c.String("prefix"), day)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	return inspectTarget(c, "inspect_day", day, path)
}

func inspectErrorsCommand() *cli.Command {
	return &cli.Command{
		Name:  "errors",
		Usage: "Dump the error target",
		Flags: append(TUIReadOnlyFlags(),
			PrefixFlag,
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of lines to dump (0 = no limit)",
			},
		),
		Action: inspectErrorsAction,
	}
}

func inspectErrorsAction(c *cli.Context) error {
	return inspectTarget(c, "inspect_errors", manifest.ErrorDay, shard.ErrorPath(c.String("prefix")))
}

// inspectTarget dumps one target: raw lines in plain mode, a scrollable
// viewport in TUI mode.
func inspectTarget(c *cli.Context, viewType, day, path string) error {
	limit := c.Int("limit")

	if c.Bool("tui") {
		r, err := render.NewRenderer(c)
		if err != nil {
			return err
		}
		ins, err := scan.Inspect(day, path, limit)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		return r.RenderTUI(viewType, ins)
	}

	printed := 0
	err := scan.Lines(path, limit, func(_ int, line string) error {
		printed++
		_, werr := fmt.Fprintln(c.App.Writer, line)
		return werr
	})
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	// Warn if output is large and --limit was not specified (TTY only to avoid noise in pipelines)
	if printed > inspectWarningThreshold && limit == 0 && isStderrTTY() {
		fmt.Fprintf(os.Stderr, "Warning: dumped %d lines. Consider using --limit to reduce output.\n", printed)
	}

	return nil
}
