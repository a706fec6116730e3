// Package portfolio values resolved positions and aggregates historic totals.
package portfolio

import (
	"sort"

	"github.com/bobmcallan/folio/internal/models"
)

// Balance is Amount for cash and spot × effective quantity for tickers.
// Undefined for a ticker without a spot price.
func Balance(p models.Position) (float64, bool) {
	if p.IsCash() {
		return p.Amount, true
	}
	if p.LastSpot == nil {
		return 0, false
	}
	return *p.LastSpot * p.EffectiveQuantity(), true
}

// costBasis sums quantity and q×p+fees over lots with a positive price
func costBasis(p models.Position) (qty, invested float64, ok bool) {
	for _, lot := range p.Purchases {
		if !lot.HasPrice() {
			continue
		}
		qty += lot.Quantity
		invested += lot.Quantity*(*lot.Price) + lot.FeesOrZero()
		ok = true
	}
	return qty, invested, ok
}

// AverageCost is the fee-inclusive cost per unit over priced lots
func AverageCost(p models.Position) (float64, bool) {
	qty, invested, ok := costBasis(p)
	if !ok || qty == 0 {
		return 0, false
	}
	return invested / qty, true
}

// TotalInvested is Σ(q×p + fees) over priced lots
func TotalInvested(p models.Position) (float64, bool) {
	_, invested, ok := costBasis(p)
	return invested, ok
}

// PnL is balance minus total invested
func PnL(p models.Position) (float64, bool) {
	invested, ok := TotalInvested(p)
	if !ok {
		return 0, false
	}
	balance, ok := Balance(p)
	if !ok {
		return 0, false
	}
	return balance - invested, true
}

// HistoricVariationPercent is PnL as a percentage of total invested
func HistoricVariationPercent(p models.Position) (float64, bool) {
	pnl, ok := PnL(p)
	if !ok {
		return 0, false
	}
	invested, _ := TotalInvested(p)
	if invested == 0 {
		return 0, false
	}
	return pnl / invested * 100, true
}

// DailyVariationPercent compares spot with the previous close
func DailyVariationPercent(p models.Position) (float64, bool) {
	if p.LastSpot == nil || p.PreviousClose == nil || *p.PreviousClose <= 0 {
		return 0, false
	}
	return (*p.LastSpot - *p.PreviousClose) / *p.PreviousClose * 100, true
}

// TotalValue sums every defined balance
func TotalValue(positions []models.Position) float64 {
	var total float64
	for _, p := range positions {
		if b, ok := Balance(p); ok {
			total += b
		}
	}
	return total
}

// Allocation maps asset class to percentage of the total. Each position's
// share is computed separately and then summed per class.
func Allocation(positions []models.Position) map[string]float64 {
	alloc := make(map[string]float64)
	total := TotalValue(positions)
	if total == 0 {
		return alloc
	}
	for _, p := range positions {
		b, ok := Balance(p)
		if !ok {
			continue
		}
		alloc[p.AssetClass] += b / total * 100
	}
	return alloc
}

func opt(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

// ValuePosition computes every derived figure for one resolved position
func ValuePosition(index int, p models.Position) models.ValuedPosition {
	vp := models.ValuedPosition{
		Index:                index,
		Position:             p,
		Balance:              opt(Balance(p)),
		AverageCost:          opt(AverageCost(p)),
		TotalInvested:        opt(TotalInvested(p)),
		PnL:                  opt(PnL(p)),
		HistoricVariationPct: opt(HistoricVariationPercent(p)),
		DailyVariationPct:    opt(DailyVariationPercent(p)),
	}
	if p.LastSpot != nil {
		vp.Spot = models.Float(*p.LastSpot)
	}
	if p.PreviousClose != nil {
		vp.PreviousClose = models.Float(*p.PreviousClose)
	}
	return vp
}

// Summarize fills the portfolio totals from its valued positions
func Summarize(vp *models.ValuedPortfolio) {
	positions := make([]models.Position, len(vp.Positions))
	for i, p := range vp.Positions {
		positions[i] = p.Position
	}
	vp.TotalValue = TotalValue(positions)
	vp.Allocation = Allocation(positions)
}

// ByBalance returns a copy of positions ordered by descending balance.
// Positions without a balance sort last; ties keep canonical order.
func ByBalance(positions []models.ValuedPosition) []models.ValuedPosition {
	out := make([]models.ValuedPosition, len(positions))
	copy(out, positions)
	sort.SliceStable(out, func(i, j int) bool {
		bi, bj := out[i].Balance, out[j].Balance
		switch {
		case bi == nil:
			return false
		case bj == nil:
			return true
		default:
			return *bi > *bj
		}
	})
	return out
}

// ClassShare is one asset class of the allocation
type ClassShare struct {
	Class   string  `json:"class"`
	Percent float64 `json:"percent"`
}

// SortedAllocation returns the allocation ordered by descending share
func SortedAllocation(alloc map[string]float64) []ClassShare {
	out := make([]ClassShare, 0, len(alloc))
	for class, pct := range alloc {
		out = append(out, ClassShare{Class: class, Percent: pct})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Percent == out[j].Percent {
			return out[i].Class < out[j].Class
		}
		return out[i].Percent > out[j].Percent
	})
	return out
}
