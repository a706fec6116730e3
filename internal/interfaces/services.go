package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// PositionResolver enriches a single position with market data
type PositionResolver interface {
	Resolve(ctx context.Context, pos models.Position) (models.Position, error)
}

// HistoricAggregator values a set of positions at a past date
type HistoricAggregator interface {
	HistoricTotalValue(ctx context.Context, positions []models.Position, at time.Time, securitiesOnly bool) (float64, error)
	WeeklySeries(ctx context.Context, positions []models.Position, now time.Time, points int) models.WeeklySeries
}

// PortfolioFeed exposes the latest published cycle results to consumers
// that poll rather than subscribe (HTTP API).
type PortfolioFeed interface {
	LatestPortfolio() (models.ValuedPortfolio, bool)
	LatestSeries() (models.WeeklySeries, bool)
}
