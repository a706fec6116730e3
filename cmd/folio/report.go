package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/portfolio"
)

var positionHeaders = []string{"Name", "Class", "Amount", "Balance", "Avg cost", "PnL", "Hist %", "Daily %"}

func positionCells(p models.ValuedPosition, currency string) []string {
	return []string{
		p.Position.DisplayName(),
		p.Position.AssetClass,
		portfolio.FormatQuantity(p.Position.Amount),
		portfolio.FormatMoneyOpt(p.Balance, currency),
		portfolio.FormatMoneyOpt(p.AverageCost, currency),
		portfolio.FormatMoneyOpt(p.PnL, currency),
		portfolio.FormatPercentOpt(p.HistoricVariationPct),
		portfolio.FormatPercentOpt(p.DailyVariationPct),
	}
}

// renderTable draws the portfolio as terminal tables
func renderTable(w io.Writer, vp models.ValuedPortfolio, currency string) {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFD300"))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#4D4C57"))).
		Headers(positionHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return header.Padding(0, 1)
			}
			if col >= 2 {
				s = s.Align(lipgloss.Right)
			}
			return s
		})
	for _, p := range vp.Positions {
		t.Row(positionCells(p, currency)...)
	}
	fmt.Fprintln(w, t.Render())

	alloc := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Asset class", "Share")
	for _, s := range portfolio.SortedAllocation(vp.Allocation) {
		alloc.Row(s.Class, fmt.Sprintf("%.2f%%", s.Percent))
	}
	fmt.Fprintln(w, alloc.Render())

	fmt.Fprintf(w, "Total: %s  (%s)\n", portfolio.FormatMoney(vp.TotalValue, currency), vp.Status)
	for _, f := range vp.Failures {
		fmt.Fprintf(w, "  unavailable: %s: %s\n", f.Name, f.Error)
	}
}

// portfolioMarkdown builds the markdown report
func portfolioMarkdown(vp models.ValuedPortfolio, currency string) string {
	var b strings.Builder
	b.WriteString("# Portfolio\n\n")
	fmt.Fprintf(&b, "**Total:** %s  \n**Status:** %s  \n**Updated:** %s\n\n",
		portfolio.FormatMoney(vp.TotalValue, currency), vp.Status, vp.UpdatedAt.Format("2006-01-02 15:04"))

	b.WriteString("## Positions\n\n")
	b.WriteString("| " + strings.Join(positionHeaders, " | ") + " |\n")
	b.WriteString("|" + strings.Repeat("---|", len(positionHeaders)) + "\n")
	for _, p := range vp.Positions {
		b.WriteString("| " + strings.Join(positionCells(p, currency), " | ") + " |\n")
	}

	b.WriteString("\n## Allocation\n\n| Asset class | Share |\n|---|---:|\n")
	for _, s := range portfolio.SortedAllocation(vp.Allocation) {
		fmt.Fprintf(&b, "| %s | %.2f%% |\n", s.Class, s.Percent)
	}

	if len(vp.Failures) > 0 {
		b.WriteString("\n## Unavailable\n\n")
		for _, f := range vp.Failures {
			fmt.Fprintf(&b, "- **%s**: %s\n", f.Name, f.Error)
		}
	}
	return b.String()
}

// printMarkdown renders markdown for the terminal, falling back to raw text.
func printMarkdown(w io.Writer, md string) {
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(120))
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	out, err := r.Render(md)
	if err != nil {
		fmt.Fprint(w, md)
		return
	}
	fmt.Fprint(w, out)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// changeLine describes the move from the last recorded total
func changeLine(last, current float64, currency string) string {
	if last <= 0 {
		return "No previous balance recorded"
	}
	diff := current - last
	pct := diff / last * 100
	sign := "+"
	if diff < 0 {
		sign = "-"
		diff = -diff
	}
	return fmt.Sprintf("Change since last run: %s%s (%+.2f%%)", sign, portfolio.FormatMoney(diff, currency), pct)
}

func seriesMarkdown(series models.WeeklySeries, currency string) string {
	var b strings.Builder
	b.WriteString("# Weekly history\n\n| Week of | Weeks ago | Value |\n|---|---:|---:|\n")
	for _, p := range series.Points {
		fmt.Fprintf(&b, "| %s | %d | %s |\n", p.Date.Format(models.DateLayout), p.WeeksAgo, portfolio.FormatMoney(p.Value, currency))
	}
	if len(series.Warnings) > 0 {
		b.WriteString("\n## Unavailable points\n\n")
		for _, w := range series.Warnings {
			fmt.Fprintf(&b, "- %s\n", w)
		}
	}
	return b.String()
}
