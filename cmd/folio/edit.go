package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/google/subcommands"

	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/storage/positions"
)

// parseIndex validates a 0-based position index argument.
func parseIndex(arg string) (int, error) {
	idx, err := strconv.Atoi(arg)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid position index %q", arg)
	}
	return idx, nil
}

func reportEditError(err error) subcommands.ExitStatus {
	if errors.Is(err, positions.ErrReadOnlySource) {
		fmt.Fprintln(os.Stderr, "Error: positions file is read through a filter and cannot be edited")
		return subcommands.ExitFailure
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}

type setAmountCmd struct{}

func (*setAmountCmd) Name() string     { return "set-amount" }
func (*setAmountCmd) Synopsis() string { return "set the amount held for a position" }
func (*setAmountCmd) Usage() string {
	return `folio set-amount <index> <amount>

  Positions with purchase lots derive their amount from the lots; use
  add-purchase for those instead.
`
}

func (*setAmountCmd) SetFlags(*flag.FlagSet) {}

func (*setAmountCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	idx, err := parseIndex(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	amount, err := models.ValidateAmountInput(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, ok := openApp()
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.Positions.SetAmount(ctx, idx, amount); err != nil {
		return reportEditError(err)
	}
	fmt.Printf("Position %d amount set to %s\n", idx, strconv.FormatFloat(amount, 'f', -1, 64))
	return subcommands.ExitSuccess
}

type addPurchaseCmd struct {
	date     string
	quantity string
	price    string
	fees     string
	lot      int
}

func (*addPurchaseCmd) Name() string     { return "add-purchase" }
func (*addPurchaseCmd) Synopsis() string { return "record a purchase lot against a position" }
func (*addPurchaseCmd) Usage() string {
	return `folio add-purchase -date YYYY-MM-DD -qty N [-price P] [-fees F] [-lot J] <index>

  With -lot, replaces existing lot J instead of appending.
`
}

func (c *addPurchaseCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.date, "date", "", "Purchase date (YYYY-MM-DD)")
	f.StringVar(&c.quantity, "qty", "", "Quantity purchased")
	f.StringVar(&c.price, "price", "", "Price per unit")
	f.StringVar(&c.fees, "fees", "", "Fees paid")
	f.IntVar(&c.lot, "lot", -1, "Replace this existing lot (0-based)")
}

func (c *addPurchaseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	idx, err := parseIndex(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	lot, err := models.ValidatePurchaseInput(c.date, c.quantity, c.price, c.fees)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, ok := openApp()
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	if c.lot >= 0 {
		if err := a.Positions.EditPurchase(ctx, idx, c.lot, lot); err != nil {
			return reportEditError(err)
		}
		fmt.Printf("Lot %d of position %d updated\n", c.lot, idx)
		return subcommands.ExitSuccess
	}
	if err := a.Positions.AddPurchase(ctx, idx, lot); err != nil {
		return reportEditError(err)
	}
	fmt.Printf("Purchase recorded for position %d\n", idx)
	return subcommands.ExitSuccess
}

type removePurchaseCmd struct{}

func (*removePurchaseCmd) Name() string     { return "remove-purchase" }
func (*removePurchaseCmd) Synopsis() string { return "delete a purchase lot from a position" }
func (*removePurchaseCmd) Usage() string {
	return `folio remove-purchase <index> <lot>
`
}

func (*removePurchaseCmd) SetFlags(*flag.FlagSet) {}

func (*removePurchaseCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 2 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	idx, err := parseIndex(f.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}
	j, err := parseIndex(f.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	a, ok := openApp()
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	if err := a.Positions.RemovePurchase(ctx, idx, j); err != nil {
		return reportEditError(err)
	}
	fmt.Printf("Lot %d removed from position %d\n", j, idx)
	return subcommands.ExitSuccess
}
