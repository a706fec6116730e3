package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/subcommands"

	"github.com/bobmcallan/folio/internal/services/portfolio"
)

type chartCmd struct {
	out string
}

func (*chartCmd) Name() string     { return "chart" }
func (*chartCmd) Synopsis() string { return "render the weekly series as a PNG chart" }
func (*chartCmd) Usage() string {
	return `folio chart [-out file.png]
`
}

func (c *chartCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.out, "out", "folio-history.png", "Output PNG path")
}

func (c *chartCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, ok := openApp()
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	positions, err := a.LoadPositions(ctx, false)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	series := a.Aggregator.WeeklySeries(ctx, positions, time.Now(), a.Config.Refresh.GetSeriesPoints())
	last, err := a.Balances.Last(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to read last balance")
	}

	png, err := portfolio.RenderSeriesChart(series, last, a.Config.DisplayCurrency)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := os.WriteFile(c.out, png, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Wrote %s (%d points)\n", c.out, len(series.Points))
	return subcommands.ExitSuccess
}
