// Package models defines data structures for Folio
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// DateLayout is the calendar date format used in positions documents and cache keys
const DateLayout = "2006-01-02"

// Purchase is a single acquisition lot of a position.
// A lot whose Price is nil or not positive is incomplete until backfilled.
type Purchase struct {
	Date     string   `json:"Date,omitempty"`
	Quantity float64  `json:"Quantity"`
	Price    *float64 `json:"Price,omitempty"`
	Fees     *float64 `json:"Fees,omitempty"`
}

// HasPrice reports whether the lot can contribute to cost basis
func (p Purchase) HasPrice() bool {
	return p.Price != nil && *p.Price > 0
}

// ParsedDate returns the lot date, or false when it is missing or malformed
func (p Purchase) ParsedDate() (time.Time, bool) {
	if strings.TrimSpace(p.Date) == "" {
		return time.Time{}, false
	}
	d, err := time.Parse(DateLayout, strings.TrimSpace(p.Date))
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// FeesOrZero returns the lot fees, treating a missing value as zero
func (p Purchase) FeesOrZero() float64 {
	if p.Fees == nil {
		return 0
	}
	return *p.Fees
}

// Position is one line of the portfolio: either cash (no ticker) or a
// ticker-backed holding with optional purchase lots.
type Position struct {
	Name       string     `json:"Name,omitempty"`
	Ticker     string     `json:"Ticker,omitempty"`
	AssetClass string     `json:"AssetClass"`
	Amount     float64    `json:"Amount"`
	Purchases  []Purchase `json:"Purchases,omitempty"`

	// Resolver-owned market data; absent until resolution succeeds.
	LastSpot      *float64 `json:"-"`
	PreviousClose *float64 `json:"-"`

	// DecodeErr is set on a placeholder for an entry that could not be
	// decoded. It keeps the entry's slot so later indexes stay canonical.
	DecodeErr error `json:"-"`
}

// UnmarshalJSON decodes a position and normalises Amount to the sum of
// purchase quantities when lots are present.
func (p *Position) UnmarshalJSON(data []byte) error {
	type alias Position
	var raw alias
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Position(raw)
	if len(p.Purchases) > 0 {
		p.Amount = p.EffectiveQuantity()
	}
	return nil
}

// Malformed reports whether the entry failed to decode
func (p Position) Malformed() bool {
	return p.DecodeErr != nil
}

// IsCash reports whether the position has no ticker
func (p Position) IsCash() bool {
	return strings.TrimSpace(p.Ticker) == ""
}

// EffectiveQuantity is the sum of lot quantities, or Amount when there are no lots
func (p Position) EffectiveQuantity() float64 {
	if len(p.Purchases) == 0 {
		return p.Amount
	}
	var total float64
	for _, lot := range p.Purchases {
		total += lot.Quantity
	}
	return total
}

// DisplayName returns Name, then Ticker, then "Unknown"
func (p Position) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Ticker != "" {
		return p.Ticker
	}
	return "Unknown"
}

// IncompleteLots returns the indexes of lots that still need a price
func (p Position) IncompleteLots() []int {
	var idx []int
	for i, lot := range p.Purchases {
		if !lot.HasPrice() {
			idx = append(idx, i)
		}
	}
	return idx
}

// Clone returns a deep copy so resolver output never aliases its input
func (p Position) Clone() Position {
	c := p
	if p.Purchases != nil {
		c.Purchases = make([]Purchase, len(p.Purchases))
		for i, lot := range p.Purchases {
			c.Purchases[i] = lot
			c.Purchases[i].Price = copyFloat(lot.Price)
			c.Purchases[i].Fees = copyFloat(lot.Fees)
		}
	}
	c.LastSpot = copyFloat(p.LastSpot)
	c.PreviousClose = copyFloat(p.PreviousClose)
	return c
}

// Float returns a pointer to v
func Float(v float64) *float64 {
	return &v
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
