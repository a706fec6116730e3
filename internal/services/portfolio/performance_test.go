package portfolio

import (
	"math"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

func point(weeksAgo int, date time.Time, v float64) models.SeriesPoint {
	return models.SeriesPoint{WeeksAgo: weeksAgo, Date: date, Value: v}
}

func TestPerformance(t *testing.T) {
	now := time.Date(2024, 2, 14, 12, 0, 0, 0, time.UTC)
	series := models.WeeklySeries{Points: []models.SeriesPoint{
		point(7, time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC), 800),
		point(6, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 1000),
		point(5, time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), 1000),
		point(4, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 1100),
		point(0, time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC), 1200),
	}}

	perf := Performance(series, 1210, 1100, now)

	if perf.YTD == nil || math.Abs(*perf.YTD-21) > 1e-9 {
		t.Errorf("YTD = %v, want 21", perf.YTD)
	}
	if perf.Monthly == nil || math.Abs(*perf.Monthly-10) > 1e-9 {
		t.Errorf("Monthly = %v, want 10 (vs 2024-01-15)", perf.Monthly)
	}
	if perf.Recent == nil || math.Abs(*perf.Recent-10) > 1e-9 {
		t.Errorf("Recent = %v, want 10", perf.Recent)
	}
	if perf.WeeklyVolatility == nil || *perf.WeeklyVolatility <= 0 {
		t.Errorf("WeeklyVolatility = %v, want positive", perf.WeeklyVolatility)
	}
}

func TestPerformance_MissingInputsStayNil(t *testing.T) {
	perf := Performance(models.WeeklySeries{}, 500, 0, time.Now())
	if perf.YTD != nil || perf.Monthly != nil || perf.Recent != nil || perf.WeeklyVolatility != nil {
		t.Errorf("expected all nil, got %+v", perf)
	}
}
