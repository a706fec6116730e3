package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	figure "github.com/common-nighthawk/go-figure"

	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/portfolio"
)

func (m Model) View() string {
	var body string
	if m.portfolio == nil {
		body = m.viewLoading()
	} else {
		switch m.tab {
		case TabOverview:
			body = m.viewOverview()
		case TabBalances:
			body = m.viewBalances()
		case TabAllocation:
			body = m.viewAllocation()
		case TabPerformance:
			body = m.viewPerformance()
		}
	}

	footer := m.help.View(keys)
	if m.status != "" {
		footer = mutedStyle.Render(m.status) + "  " + footer
	}

	page := lipgloss.JoinVertical(lipgloss.Left, m.viewTabs(), body, footer)

	switch {
	case m.errorMsg != "":
		return m.overlay(errorStyle.Width(m.popupWidth()).Render("Error\n\n" + m.errorMsg + "\n\n(press any key)"))
	case m.form != nil:
		return m.overlay(m.form.view(m.help.View(formKeys)))
	}
	return page
}

func (m Model) overlay(box string) string {
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) popupWidth() int {
	w := m.width * 6 / 10
	if w < 30 {
		w = 30
	}
	return w
}

func (m Model) viewTabs() string {
	parts := make([]string, 0, len(allTabs)+1)
	parts = append(parts, titleStyle.Render("Folio "))
	for i, t := range allTabs {
		label := fmt.Sprintf("%d %s", i+1, t.Title())
		if t == m.tab {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, tabStyle.Render(label))
		}
	}
	if m.portfolio != nil {
		parts = append(parts, "  "+m.viewStatus(*m.portfolio))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...) + "\n"
}

func (m Model) viewStatus(vp models.ValuedPortfolio) string {
	var c lipgloss.Color
	switch vp.Status {
	case models.StatusConnected:
		c = theme.Success
	case models.StatusPartial:
		c = theme.Warning
	default:
		c = theme.Error
	}
	return lipgloss.NewStyle().Foreground(c).Render("● "+vp.Status.String()) +
		mutedStyle.Render("  updated "+vp.UpdatedAt.Format("15:04:05"))
}

func (m Model) viewLoading() string {
	return panelStyle.Render(m.spinner.View() + " Loading portfolio data...")
}

// renderFiglet renders text in the standard figlet font.
func renderFiglet(text string) string {
	fig := figure.NewFigure(text, "", false)
	return strings.TrimRight(strings.Join(fig.Slicify(), "\n"), "\n ")
}

func (m Model) viewOverview() string {
	vp := m.portfolio
	total := portfolio.FormatMoney(vp.TotalValue, m.opts.Currency)

	hero := gradientText(renderFiglet(total), theme.Primary, theme.Accent)
	heroPanel := panelStyle.Render(titleStyle.Render("Total Portfolio Value") + "\n\n" + hero)

	var top strings.Builder
	top.WriteString(titleStyle.Render("Top Asset Classes"))
	top.WriteString("\n")
	for i, share := range portfolio.SortedAllocation(vp.Allocation) {
		if i == 5 {
			break
		}
		top.WriteString(fmt.Sprintf("%s %s\n",
			labelStyle.Render(fmt.Sprintf("%-15s", share.Class)),
			valueStyle.Render(fmt.Sprintf("%8.2f%%", share.Percent))))
	}
	if len(vp.Failures) > 0 {
		top.WriteString("\n")
		top.WriteString(lipgloss.NewStyle().Foreground(theme.Error).
			Render(fmt.Sprintf("%d position(s) unavailable this cycle", len(vp.Failures))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, heroPanel, panelStyle.Render(strings.TrimRight(top.String(), "\n")))
}

func (m Model) viewBalances() string {
	total := lipgloss.NewStyle().Foreground(theme.Success).Bold(true).
		Render("TOTAL  " + portfolio.FormatMoney(m.portfolio.TotalValue, m.opts.Currency))
	return panelStyle.Render(titleStyle.Render("Portfolio Balances") + "\n" + m.table.View() + "\n" + total)
}

func (m Model) viewAllocation() string {
	shares := portfolio.SortedAllocation(m.portfolio.Allocation)
	if len(shares) == 0 {
		return panelStyle.Render(mutedStyle.Render("No allocation (total value is zero)"))
	}

	barMax := m.width - 34
	if barMax < 10 {
		barMax = 10
	}
	bar := lipgloss.NewStyle().Foreground(theme.Warning)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Asset Allocation"))
	b.WriteString("\n\n")
	for _, s := range shares {
		n := int(s.Percent / 100 * float64(barMax))
		if n < 0 {
			n = 0
		}
		b.WriteString(fmt.Sprintf("%s %s %s\n",
			labelStyle.Render(fmt.Sprintf("%-15s", s.Class)),
			bar.Render(strings.Repeat("█", n)),
			valueStyle.Render(fmt.Sprintf("%.2f%%", s.Percent))))
	}
	return panelStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m Model) viewPerformance() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Performance Metrics"))
	b.WriteString("\n\n")

	metric := func(label string, v *float64) {
		b.WriteString(fmt.Sprintf("%-22s", label))
		if v == nil {
			b.WriteString(mutedStyle.Render(portfolio.Placeholder))
		} else {
			b.WriteString(signStyle(*v).Render(fmt.Sprintf("%.2f%%", *v)))
		}
		b.WriteString("\n")
	}
	metric("YTD Performance:", m.perf.YTD)
	metric("Monthly Performance:", m.perf.Monthly)
	metric("Recent Performance:", m.perf.Recent)

	b.WriteString(fmt.Sprintf("%-22s", "Weekly volatility:"))
	if m.perf.WeeklyVolatility == nil {
		b.WriteString(mutedStyle.Render(portfolio.Placeholder))
	} else {
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.2f%%", *m.perf.WeeklyVolatility)))
	}
	b.WriteString("\n")

	info := "Loading historic series..."
	if m.series != nil {
		info = fmt.Sprintf("%d weekly points, %d unavailable, generated %s",
			len(m.series.Points), len(m.series.Warnings), m.series.GeneratedAt.Format("2006-01-02 15:04"))
	}
	data := fmt.Sprintf("%s\nQuotes from %s. Balance history kept in %s.",
		info, m.opts.Provider, m.opts.BalanceLog)

	return lipgloss.JoinVertical(lipgloss.Left,
		panelStyle.Render(strings.TrimRight(b.String(), "\n")),
		panelStyle.Render(titleStyle.Render("Data Information")+"\n"+mutedStyle.Render(data)))
}
