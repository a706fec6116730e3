package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/folio/internal/models"
)

// PositionsSource yields the declared positions, decoded fresh on every call
type PositionsSource interface {
	Load(ctx context.Context) ([]models.Position, error)
}

// PositionsEditor applies user edits to the positions document.
// Indexes refer to the canonical order returned by Load.
type PositionsEditor interface {
	SetAmount(ctx context.Context, index int, amount float64) error
	AddPurchase(ctx context.Context, index int, lot models.Purchase) error
}

// BalanceLog is the append-only record of historical portfolio totals
type BalanceLog interface {
	// Append records total at the given time
	Append(ctx context.Context, at time.Time, total float64) error

	// Last returns the most recent value, or 0 when the log is empty or unreadable
	Last(ctx context.Context) (float64, error)

	// Entries returns every row, oldest first
	Entries(ctx context.Context) ([]models.BalanceEntry, error)

	Close() error
}
