package portfolio

import (
	"bytes"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

func TestRenderSeriesChart(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := models.WeeklySeries{}
	for i := 0; i < 10; i++ {
		series.Points = append(series.Points, models.SeriesPoint{
			WeeksAgo: 9 - i,
			Date:     start.AddDate(0, 0, 7*i),
			Value:    10000 + float64(i)*150,
		})
	}

	png, err := RenderSeriesChart(series, 11000, "USD")
	if err != nil {
		t.Fatalf("RenderSeriesChart: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("output is not a PNG")
	}
}

func TestRenderSeriesChart_TooFewPoints(t *testing.T) {
	series := models.WeeklySeries{Points: []models.SeriesPoint{{Value: 1}}}
	if _, err := RenderSeriesChart(series, 0, "USD"); err == nil {
		t.Error("expected error for a single point")
	}
}

func TestSeriesChart_RangeIncludesRecordedBalance(t *testing.T) {
	series := models.WeeklySeries{Points: []models.SeriesPoint{
		{WeeksAgo: 1, Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 100},
		{WeeksAgo: 0, Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Value: 200},
	}}

	graph, err := seriesChart(series, 500, "USD")
	if err != nil {
		t.Fatalf("seriesChart: %v", err)
	}
	r := graph.YAxis.Range
	if r.GetMin() > 100 || r.GetMax() < 500 {
		t.Errorf("range [%v, %v] does not cover the data", r.GetMin(), r.GetMax())
	}
	// value line, recorded line, annotation
	if len(graph.Series) != 3 {
		t.Errorf("got %d series, want 3", len(graph.Series))
	}
}

func TestSeriesChart_TitleCountsMissingPoints(t *testing.T) {
	series := models.WeeklySeries{
		Points: []models.SeriesPoint{
			{Date: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), Value: 100},
			{Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Value: 100},
		},
		Warnings: []string{"2023-12-25: timeout"},
	}

	graph, err := seriesChart(series, 0, "USD")
	if err != nil {
		t.Fatalf("seriesChart: %v", err)
	}
	if graph.Title != "Portfolio value, last 2 weeks (1 missing)" {
		t.Errorf("title = %q", graph.Title)
	}
	if len(graph.Series) != 2 {
		t.Errorf("got %d series, want 2", len(graph.Series))
	}
}
