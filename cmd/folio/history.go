package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/subcommands"

	"github.com/bobmcallan/folio/internal/app"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/portfolio"
)

type historyCmd struct {
	date       string
	securities bool
}

func (*historyCmd) Name() string     { return "history" }
func (*historyCmd) Synopsis() string { return "print historic portfolio values" }
func (*historyCmd) Usage() string {
	return `folio history [-date YYYY-MM-DD] [-securities]

  With -date, prints the portfolio value on that day. Without it, prints the
  weekly series.
`
}

func (c *historyCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Value the portfolio on this date (YYYY-MM-DD)")
	f.BoolVar(&c.securities, "securities", false, "Exclude cash positions")
}

func (c *historyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var day time.Time
	if c.date != "" {
		d, err := time.Parse(models.DateLayout, strings.TrimSpace(c.date))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid date %q (expected YYYY-MM-DD)\n", c.date)
			return subcommands.ExitUsageError
		}
		day = d
	}

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
	currency := a.Config.DisplayCurrency

	if !day.IsZero() {
		total, err := a.Aggregator.HistoricTotalValue(ctx, positions, day, c.securities)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
		fmt.Printf("%s  %s\n", day.Format(models.DateLayout), portfolio.FormatMoney(total, currency))
		return subcommands.ExitSuccess
	}

	if c.securities {
		positions = app.SecuritiesOnly(positions)
	}
	series := a.Aggregator.WeeklySeries(ctx, positions, time.Now(), a.Config.Refresh.GetSeriesPoints())
	printMarkdown(os.Stdout, seriesMarkdown(series, currency))
	return subcommands.ExitSuccess
}
