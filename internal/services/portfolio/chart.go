package portfolio

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/folio/internal/models"
)

var (
	seriesColor   = drawing.ColorFromHex("2563eb")
	recordedColor = drawing.ColorFromHex("9ca3af")
)

// RenderSeriesChart draws the weekly series as a PNG. A positive
// lastRecorded adds a dashed reference line at that balance.
func RenderSeriesChart(series models.WeeklySeries, lastRecorded float64, currency string) ([]byte, error) {
	graph, err := seriesChart(series, lastRecorded, currency)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

func seriesChart(series models.WeeklySeries, lastRecorded float64, currency string) (*chart.Chart, error) {
	n := len(series.Points)
	if n < 2 {
		return nil, fmt.Errorf("need at least 2 weekly points, got %d", n)
	}

	weeks := make([]time.Time, n)
	values := make([]float64, n)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, p := range series.Points {
		weeks[i] = p.Date
		values[i] = p.Value
		lo, hi = math.Min(lo, p.Value), math.Max(hi, p.Value)
	}

	lines := []chart.Series{
		chart.TimeSeries{
			Name:    "Weekly value",
			Style:   chart.Style{StrokeColor: seriesColor, StrokeWidth: 2.5},
			XValues: weeks,
			YValues: values,
		},
	}
	if lastRecorded > 0 {
		lo, hi = math.Min(lo, lastRecorded), math.Max(hi, lastRecorded)
		lines = append(lines, chart.TimeSeries{
			Name: "Last recorded",
			Style: chart.Style{
				StrokeColor:     recordedColor,
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: []time.Time{weeks[0], weeks[n-1]},
			YValues: []float64{lastRecorded, lastRecorded},
		})
	}

	last := series.Points[n-1]
	lines = append(lines, chart.AnnotationSeries{
		Annotations: []chart.Value2{{
			XValue: chart.TimeToFloat64(last.Date),
			YValue: last.Value,
			Label:  FormatMoney(last.Value, currency),
		}},
	})

	// 5% headroom keeps flat series off the frame
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.05, 1)
	}

	title := fmt.Sprintf("Portfolio value, last %d weeks", n)
	if len(series.Warnings) > 0 {
		title += fmt.Sprintf(" (%d missing)", len(series.Warnings))
	}

	graph := &chart.Chart{
		Title:  title,
		Width:  900,
		Height: 400,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("02 Jan 06"),
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return FormatMoney(f, currency)
				}
				return ""
			},
		},
		Series: lines,
	}
	graph.Elements = []chart.Renderable{chart.LegendLeft(graph)}
	return graph, nil
}
