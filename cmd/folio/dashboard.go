package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/subcommands"

	"github.com/bobmcallan/folio/internal/app"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/tui"
)

type dashboardCmd struct{}

func (*dashboardCmd) Name() string     { return "dashboard" }
func (*dashboardCmd) Synopsis() string { return "open the live terminal dashboard" }
func (*dashboardCmd) Usage() string {
	return `folio dashboard

  Full-screen dashboard refreshed in the background. Logs go to the
  configured log file.
`
}

func (*dashboardCmd) SetFlags(*flag.FlagSet) {}

func (*dashboardCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, ok := openApp(app.WithFileLogging())
	if !ok {
		return subcommands.ExitFailure
	}
	defer a.Close()

	last, err := a.Balances.Last(ctx)
	if err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to read last balance")
	}

	var editor interfaces.PositionsEditor
	if !a.Positions.ReadOnly() {
		editor = a.Positions
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := a.StartRefresh(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	m := tui.NewModel(a.Orchestrator, a.Scheduler, editor, tui.Options{
		Currency:     a.Config.DisplayCurrency,
		Provider:     a.Config.Provider.Name,
		BalanceLog:   a.Config.BalanceLog.Backend,
		LastRecorded: last,
	})

	if _, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
