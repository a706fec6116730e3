package portfolio

import (
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/folio/internal/models"
)

func changePct(from, to float64) *float64 {
	if from <= 0 {
		return nil
	}
	v := (to - from) / from * 100
	return &v
}

// Performance derives change percentages for the current total:
// year to date against the first series point of this year, monthly against
// the last point at least four weeks old, and recent against the last value
// in the balance log. Weekly volatility is the standard deviation of
// week-over-week returns, in percent.
func Performance(series models.WeeklySeries, current, lastRecorded float64, now time.Time) models.PerformanceData {
	var perf models.PerformanceData

	for _, p := range series.Points {
		if p.Date.Year() == now.Year() {
			perf.YTD = changePct(p.Value, current)
			break
		}
	}

	monthAgo := now.AddDate(0, 0, -28)
	for i := len(series.Points) - 1; i >= 0; i-- {
		if !series.Points[i].Date.After(monthAgo) {
			perf.Monthly = changePct(series.Points[i].Value, current)
			break
		}
	}

	perf.Recent = changePct(lastRecorded, current)

	var returns []float64
	for i := 1; i < len(series.Points); i++ {
		prev := series.Points[i-1].Value
		if prev <= 0 {
			continue
		}
		returns = append(returns, (series.Points[i].Value-prev)/prev*100)
	}
	if len(returns) >= 2 {
		v := stat.StdDev(returns, nil)
		perf.WeeklyVolatility = &v
	}

	return perf
}
