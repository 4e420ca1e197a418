package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/logshard/logshard/cli/render"
	"github.com/logshard/logshard/cli/scan"
)

// StatsCommand returns the stats command.
// Stats aggregates per-day record, byte and burst counts for a prefix,
// preferring the manifest journal over a target scan.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show per-day record, byte and burst counts for a prefix",
		Flags:  append(TUIReadOnlyFlags(), PrefixFlag),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	r, err := render.NewRenderer(c)
	if err != nil {
		return err
	}

	sum, err := scan.Summarize(c.String("prefix"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	if c.Bool("tui") {
		return r.RenderTUI("stats_days", sum)
	}

	// Tables render the day rows; json and yaml carry the full summary
	// envelope including the source.
	if r.Format() == render.FormatTable {
		return r.Render(sum.Days)
	}
	return r.Render(sum)
}
