package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/models"
)

func samplePortfolio() models.ValuedPortfolio {
	return models.ValuedPortfolio{
		Positions: []models.ValuedPosition{
			{
				Index:    0,
				Position: models.Position{Name: "Savings", AssetClass: "cash", Amount: 1000},
				Balance:  models.Float(1000),
			},
			{
				Index:    1,
				Position: models.Position{Ticker: "AAPL", AssetClass: "stock", Amount: 10},
				Balance:  models.Float(1500),
				PnL:      models.Float(250),
			},
		},
		Failures: []models.PositionFailure{
			{Index: 2, Name: "BTC-USD", Ticker: "BTC-USD", Error: "quote not found"},
		},
		TotalValue: 2500,
		Allocation: map[string]float64{"cash": 40, "stock": 60},
		Status:     models.StatusPartial,
		UpdatedAt:  time.Date(2026, 3, 2, 10, 30, 0, 0, time.UTC),
	}
}

func TestPortfolioMarkdown(t *testing.T) {
	md := portfolioMarkdown(samplePortfolio(), "USD")

	assert.Contains(t, md, "# Portfolio")
	assert.Contains(t, md, "| Savings | cash |")
	assert.Contains(t, md, "| AAPL | stock |")
	assert.Contains(t, md, "| stock | 60.00% |")
	assert.Contains(t, md, "**BTC-USD**: quote not found")

	// Allocation rows are sorted by share descending
	assert.Less(t, bytes.Index([]byte(md), []byte("| stock | 60.00%")), bytes.Index([]byte(md), []byte("| cash | 40.00%")))
}

func TestPortfolioMarkdown_NoFailuresSection(t *testing.T) {
	vp := samplePortfolio()
	vp.Failures = nil
	assert.NotContains(t, portfolioMarkdown(vp, "USD"), "Unavailable")
}

func TestChangeLine(t *testing.T) {
	assert.Equal(t, "No previous balance recorded", changeLine(0, 100, "USD"))

	up := changeLine(100, 110, "USD")
	assert.Contains(t, up, "+")
	assert.Contains(t, up, "(+10.00%)")

	down := changeLine(200, 150, "USD")
	assert.Contains(t, down, "(-25.00%)")
}

func TestSeriesMarkdown(t *testing.T) {
	series := models.WeeklySeries{
		Points: []models.SeriesPoint{
			{WeeksAgo: 1, Date: time.Date(2026, 2, 23, 0, 0, 0, 0, time.UTC), Value: 900},
			{WeeksAgo: 0, Date: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), Value: 1000},
		},
		Warnings: []string{"2026-02-16: timeout"},
	}

	md := seriesMarkdown(series, "USD")
	assert.Contains(t, md, "| 2026-02-23 | 1 |")
	assert.Contains(t, md, "| 2026-03-02 | 0 |")
	assert.Contains(t, md, "- 2026-02-16: timeout")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, samplePortfolio()))
	assert.Contains(t, buf.String(), `"total_value": 2500`)
	assert.Contains(t, buf.String(), `"status": "partial"`)
}

func TestParseIndex(t *testing.T) {
	idx, err := parseIndex("3")
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	_, err = parseIndex("-1")
	assert.Error(t, err)
	_, err = parseIndex("x")
	assert.Error(t, err)
}
