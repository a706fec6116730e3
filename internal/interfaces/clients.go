// Package interfaces defines service contracts for Folio
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// QuoteSource is the remote market data provider.
// Errors carry a models.Err* kind (match with errors.Is).
type QuoteSource interface {
	// LatestPrice retrieves the most recent quote for a ticker
	LatestPrice(ctx context.Context, ticker string) (*models.QuoteResponse, error)

	// PriceHistory retrieves daily closes in [start, end], oldest first
	PriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]models.Quote, error)

	// SearchName returns the short display name of the first search result
	SearchName(ctx context.Context, ticker string) (string, error)
}

// EODOption configures EOD data requests
type EODOption func(*EODParams)

// EODParams holds EOD query parameters
type EODParams struct {
	From   time.Time
	To     time.Time
	Period string // d=daily, w=weekly, m=monthly
	Order  string // a=ascending, d=descending
}

// WithDateRange sets the date range for EOD query
func WithDateRange(from, to time.Time) EODOption {
	return func(p *EODParams) {
		p.From = from
		p.To = to
	}
}

// WithPeriod sets the period for EOD query
func WithPeriod(period string) EODOption {
	return func(p *EODParams) {
		p.Period = period
	}
}
