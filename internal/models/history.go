package models

import "time"

// SeriesPoint is one weekly total in the historic series
type SeriesPoint struct {
	WeeksAgo int       `json:"weeks_ago"`
	Date     time.Time `json:"date"`
	Value    float64   `json:"value"`
}

// WeeklySeries is the published result of one series cycle, oldest point first.
// Failed points are omitted; their errors are kept in Warnings.
type WeeklySeries struct {
	Points      []SeriesPoint `json:"points"`
	Warnings    []string      `json:"warnings,omitempty"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// BalanceEntry is one row of the balance log
type BalanceEntry struct {
	At    time.Time `json:"at"`
	Value float64   `json:"value"`
}

// PerformanceData holds change percentages; nil means not computable
type PerformanceData struct {
	YTD              *float64 `json:"ytd,omitempty"`
	Monthly          *float64 `json:"monthly,omitempty"`
	Recent           *float64 `json:"recent,omitempty"`
	WeeklyVolatility *float64 `json:"weekly_volatility,omitempty"`
}
