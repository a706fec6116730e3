package models

import "time"

// ValuedPosition is a resolved position with its derived figures.
// Nil pointers mean "not computable" and are never rendered as zero.
type ValuedPosition struct {
	Index                int      `json:"index"` // position index in the source document
	Position             Position `json:"position"`
	Balance              *float64 `json:"balance,omitempty"`
	AverageCost          *float64 `json:"average_cost,omitempty"`
	TotalInvested        *float64 `json:"total_invested,omitempty"`
	PnL                  *float64 `json:"pnl,omitempty"`
	HistoricVariationPct *float64 `json:"historic_variation_pct,omitempty"`
	DailyVariationPct    *float64 `json:"daily_variation_pct,omitempty"`
	Spot                 *float64 `json:"spot,omitempty"`
	PreviousClose        *float64 `json:"previous_close,omitempty"`
}

// PositionFailure records a position that could not be resolved in a cycle
type PositionFailure struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Ticker string `json:"ticker"`
	Error  string `json:"error"`
}

// ValuedPortfolio is the published result of one position cycle.
// Positions keep the canonical order of the positions source.
type ValuedPortfolio struct {
	CycleID    string             `json:"cycle_id"`
	Positions  []ValuedPosition   `json:"positions"`
	Failures   []PositionFailure  `json:"failures,omitempty"`
	TotalValue float64            `json:"total_value"`
	Allocation map[string]float64 `json:"allocation"`
	Status     ConnectivityStatus `json:"status"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

// Complete reports whether every position was valued. Only complete totals
// are written to the balance log; a partial total would skew the next
// "change since last run".
func (p ValuedPortfolio) Complete() bool {
	return p.Status == StatusConnected && len(p.Failures) == 0
}
