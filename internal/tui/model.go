// Package tui is the interactive terminal dashboard.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/refresh"
)

// Tab identifies a dashboard page
type Tab int

const (
	TabOverview Tab = iota
	TabBalances
	TabAllocation
	TabPerformance
)

var allTabs = []Tab{TabOverview, TabBalances, TabAllocation, TabPerformance}

func (t Tab) Title() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabBalances:
		return "Balances"
	case TabAllocation:
		return "Allocation"
	case TabPerformance:
		return "Performance"
	}
	return ""
}

// Feed is the subscription side of the refresh orchestrator
type Feed interface {
	Portfolio() <-chan refresh.Snapshot
	Series() <-chan models.WeeklySeries
}

// Refresher forces a position cycle
type Refresher interface {
	TriggerNow()
}

// Options configures the dashboard
type Options struct {
	Currency     string
	Provider     string
	BalanceLog   string
	LastRecorded float64 // balance log value from before this session
	Now          func() time.Time
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	feed      Feed
	refresher Refresher
	editor    interfaces.PositionsEditor
	opts      Options

	// Data
	portfolio *models.ValuedPortfolio
	series    *models.WeeklySeries
	perf      models.PerformanceData
	rows      []balanceRow

	// UI state
	tab      Tab
	width    int
	height   int
	errorMsg string
	status   string
	form     *form

	// Components
	table   table.Model
	spinner spinner.Model
	help    help.Model
}

// balanceRow is one line of the balances table, valued or failed
type balanceRow struct {
	index   int
	ticker  string
	hasLots bool
	cells   table.Row
}

// Messages

type snapshotMsg refresh.Snapshot

type seriesMsg models.WeeklySeries

type editDoneMsg struct {
	what string
	err  error
}

// NewModel creates a dashboard reading from feed. editor may be nil to disable edits.
func NewModel(feed Feed, refresher Refresher, editor interfaces.PositionsEditor, opts Options) Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Currency == "" {
		opts.Currency = "USD"
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = labelStyle

	t := table.New(
		table.WithColumns(balanceColumns(80)),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.BorderForeground(theme.Border).Foreground(theme.Warning).Bold(true)
	styles.Selected = styles.Selected.Foreground(theme.Base).Background(theme.Info)
	t.SetStyles(styles)

	return Model{
		feed:      feed,
		refresher: refresher,
		editor:    editor,
		opts:      opts,
		table:     t,
		spinner:   sp,
		help:      help.New(),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitPortfolio(m.feed),
		waitSeries(m.feed),
		m.spinner.Tick,
	)
}

// Commands

func waitPortfolio(f Feed) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(<-f.Portfolio())
	}
}

func waitSeries(f Feed) tea.Cmd {
	return func() tea.Msg {
		return seriesMsg(<-f.Series())
	}
}

func applyAmount(editor interfaces.PositionsEditor, index int, amount float64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return editDoneMsg{what: "Amount updated", err: editor.SetAmount(ctx, index, amount)}
	}
}

func applyPurchase(editor interfaces.PositionsEditor, index int, lot models.Purchase) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return editDoneMsg{what: "Purchase added", err: editor.AddPurchase(ctx, index, lot)}
	}
}
