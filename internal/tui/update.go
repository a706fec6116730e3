package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/portfolio"
	"github.com/bobmcallan/folio/internal/storage/positions"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layoutTable()

	case tea.KeyMsg:
		return m.handleKey(msg)

	case snapshotMsg:
		if msg.Err != nil {
			m.errorMsg = msg.Err.Error()
		} else {
			vp := msg.Portfolio
			m.portfolio = &vp
			m.rebuildRows()
			m.recomputePerformance()
		}
		cmds = append(cmds, waitPortfolio(m.feed))

	case seriesMsg:
		s := models.WeeklySeries(msg)
		m.series = &s
		m.recomputePerformance()
		cmds = append(cmds, waitSeries(m.feed))

	case editDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, positions.ErrReadOnlySource) {
				m.errorMsg = "The positions file is filtered and cannot be edited from the dashboard"
			} else {
				m.errorMsg = msg.err.Error()
			}
			break
		}
		m.status = msg.what
		if m.refresher != nil {
			m.refresher.TriggerNow()
		}

	case spinner.TickMsg:
		if m.portfolio == nil {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	default:
		if m.form != nil {
			var cmd tea.Cmd
			m.form.inputs[m.form.focus], cmd = m.form.inputs[m.form.focus].Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	return m, tea.Batch(cmds...)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// Any key dismisses the error popup
	if m.errorMsg != "" {
		m.errorMsg = ""
		return m, nil
	}

	if m.form != nil {
		return m.handleFormKey(msg)
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.NextTab):
		m.tab = allTabs[(int(m.tab)+1)%len(allTabs)]
	case key.Matches(msg, keys.PrevTab):
		m.tab = allTabs[(int(m.tab)+len(allTabs)-1)%len(allTabs)]
	case key.Matches(msg, keys.Tab1):
		m.tab = TabOverview
	case key.Matches(msg, keys.Tab2):
		m.tab = TabBalances
	case key.Matches(msg, keys.Tab3):
		m.tab = TabAllocation
	case key.Matches(msg, keys.Tab4):
		m.tab = TabPerformance
	case key.Matches(msg, keys.Refresh):
		if m.refresher != nil {
			m.refresher.TriggerNow()
			m.status = "Refreshing..."
		}
	case key.Matches(msg, keys.Edit):
		return m.openForm(formAmount)
	case key.Matches(msg, keys.Purchase):
		return m.openForm(formPurchase)
	default:
		if m.tab == TabBalances {
			var cmd tea.Cmd
			m.table, cmd = m.table.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m Model) openForm(kind formKind) (tea.Model, tea.Cmd) {
	if m.tab != TabBalances {
		m.status = "Select a position on the Balances tab first"
		return m, nil
	}
	if m.editor == nil {
		m.errorMsg = "Editing is not available for this positions source"
		return m, nil
	}
	row, ok := m.selectedRow()
	if !ok {
		return m, nil
	}

	name := row.cells[0]
	switch kind {
	case formAmount:
		if row.hasLots {
			m.errorMsg = "Amount of " + name + " is the sum of its purchases; add a purchase instead"
			return m, nil
		}
		m.form = newAmountForm(row.index, name)
	case formPurchase:
		if row.ticker == "" {
			m.errorMsg = "Purchases can only be added to ticker positions"
			return m, nil
		}
		m.form = newPurchaseForm(row.index, name, m.opts.Now().Format(models.DateLayout))
	}
	m.status = ""
	return m, m.form.setFocus(0)
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	cmd, submitted, cancelled := m.form.update(msg)
	if cancelled {
		m.form = nil
		return m, nil
	}
	if !submitted {
		return m, cmd
	}

	f := m.form
	m.form = nil
	switch f.kind {
	case formAmount:
		v, _ := f.amount()
		return m, applyAmount(m.editor, f.index, v)
	case formPurchase:
		lot, _ := f.purchase()
		return m, applyPurchase(m.editor, f.index, lot)
	}
	return m, nil
}

func (m Model) selectedRow() (balanceRow, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.rows) {
		return balanceRow{}, false
	}
	return m.rows[i], true
}

func (m *Model) recomputePerformance() {
	if m.portfolio == nil {
		return
	}
	var series models.WeeklySeries
	if m.series != nil {
		series = *m.series
	}
	m.perf = portfolio.Performance(series, m.portfolio.TotalValue, m.opts.LastRecorded, m.opts.Now())
}
