package tui

import (
	"sort"

	"github.com/charmbracelet/bubbles/table"

	"github.com/bobmcallan/folio/internal/services/portfolio"
)

func balanceColumns(width int) []table.Column {
	// Name gets what is left after the fixed numeric columns
	name := width - 11 - 12 - 14 - 12 - 14 - 9 - 14
	if name < 12 {
		name = 12
	}
	return []table.Column{
		{Title: "Name", Width: name},
		{Title: "Class", Width: 11},
		{Title: "Amount", Width: 12},
		{Title: "Balance", Width: 14},
		{Title: "Avg cost", Width: 12},
		{Title: "PnL", Width: 14},
		{Title: "Daily", Width: 9},
	}
}

func (m *Model) layoutTable() {
	if m.width == 0 {
		return
	}
	m.table.SetColumns(balanceColumns(m.width - 4))
	h := m.height - 8
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
}

// rebuildRows merges valued and failed positions in document order
func (m *Model) rebuildRows() {
	vp := m.portfolio
	cur := m.opts.Currency
	rows := make([]balanceRow, 0, len(vp.Positions)+len(vp.Failures))

	for _, p := range vp.Positions {
		r := balanceRow{
			index:   p.Index,
			ticker:  p.Position.Ticker,
			hasLots: len(p.Position.Purchases) > 0,
			cells: table.Row{
				p.Position.DisplayName(),
				p.Position.AssetClass,
				portfolio.FormatQuantity(p.Position.Amount),
				portfolio.FormatMoneyOpt(p.Balance, cur),
				portfolio.FormatMoneyOpt(p.AverageCost, cur),
				portfolio.FormatMoneyOpt(p.PnL, cur),
				portfolio.FormatPercentOpt(p.DailyVariationPct),
			},
		}
		rows = append(rows, r)
	}
	for _, f := range vp.Failures {
		rows = append(rows, balanceRow{
			index:  f.Index,
			ticker: f.Ticker,
			cells: table.Row{
				f.Name + " (unavailable)",
				"",
				portfolio.Placeholder,
				portfolio.Placeholder,
				portfolio.Placeholder,
				portfolio.Placeholder,
				portfolio.Placeholder,
			},
		})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].index < rows[j].index })

	cells := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		cells = append(cells, r.cells)
	}
	m.rows = rows
	m.table.SetRows(cells)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}
