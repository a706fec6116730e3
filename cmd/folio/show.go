package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/bobmcallan/folio/internal/models"
)

type showCmd struct {
	format     string
	securities bool
}

func (*showCmd) Name() string     { return "show" }
func (*showCmd) Synopsis() string { return "value every position once and print the portfolio" }
func (*showCmd) Usage() string {
	return `folio show [-format table|markdown|json] [-securities]

  Resolves live quotes for every position, prints balances, totals and
  allocation, then records the total in the balance log.
`
}

func (c *showCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.format, "format", "table", "Output format: table, markdown or json")
	f.BoolVar(&c.securities, "securities", false, "Exclude cash positions")
}

func (c *showCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	switch c.format {
	case "table", "markdown", "json":
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", c.format)
		return subcommands.ExitUsageError
	}

	a, ok := openApp()
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	vp, err := a.Snapshot(ctx, c.securities)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	currency := a.Config.DisplayCurrency

	last, err := a.Balances.Last(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to read last balance")
	}

	switch c.format {
	case "json":
		if err := writeJSON(os.Stdout, vp); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}
	case "markdown":
		printMarkdown(os.Stdout, portfolioMarkdown(vp, currency)+"\n"+changeLine(last, vp.TotalValue, currency)+"\n")
	default:
		renderTable(os.Stdout, vp, currency)
		fmt.Println(changeLine(last, vp.TotalValue, currency))
	}

	// Securities-only totals are partial views and are not recorded
	if !c.securities && vp.Complete() {
		if err := a.Balances.Append(ctx, vp.UpdatedAt, vp.TotalValue); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to record balance")
		}
	}

	if vp.Status == models.StatusDisconnected {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
