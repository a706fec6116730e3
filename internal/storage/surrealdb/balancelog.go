// Package surrealdb stores the balance log in SurrealDB.
package surrealdb

import (
	"context"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/storage/balance"
)

const table = "balance"

type balanceRow struct {
	TS    string `json:"ts"`
	Value string `json:"value"`
}

// BalanceLog implements interfaces.BalanceLog using SurrealDB.
type BalanceLog struct {
	db     *surrealdb.DB
	logger *common.Logger
}

var _ interfaces.BalanceLog = (*BalanceLog)(nil)

// Connect signs in, selects the namespace and database, and defines the table.
func Connect(ctx context.Context, cfg common.BalanceLogConfig, logger *common.Logger) (*BalanceLog, error) {
	db, err := surrealdb.New(cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": cfg.Username,
		"pass": cfg.Password,
	}); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		db.Close(ctx)
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	log, err := NewBalanceLog(ctx, db, logger)
	if err != nil {
		db.Close(ctx)
		return nil, err
	}

	logger.Info().
		Str("address", cfg.Address).
		Str("namespace", cfg.Namespace).
		Str("database", cfg.Database).
		Msg("SurrealDB balance log connected")

	return log, nil
}

// NewBalanceLog wraps an open connection. SurrealDB v3 errors when querying
// a table that was never defined, so the table is defined up front.
func NewBalanceLog(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*BalanceLog, error) {
	sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
	if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
		return nil, fmt.Errorf("failed to define table %s: %w", table, err)
	}
	return &BalanceLog{db: db, logger: logger}, nil
}

// Append upserts the record keyed by the second of at
func (b *BalanceLog) Append(ctx context.Context, at time.Time, total float64) error {
	ts := balance.FormatTime(at)
	sql := "UPSERT $rid SET ts = $ts, value = $value"
	vars := map[string]any{
		"rid":   surrealmodels.NewRecordID(table, ts),
		"ts":    ts,
		"value": balance.FormatValue(total),
	}
	if _, err := surrealdb.Query[any](ctx, b.db, sql, vars); err != nil {
		return fmt.Errorf("failed to append balance: %w", err)
	}
	return nil
}

// Last returns the most recent total, or 0 when the log is empty
func (b *BalanceLog) Last(ctx context.Context) (float64, error) {
	results, err := surrealdb.Query[[]balanceRow](ctx, b.db,
		"SELECT ts, value FROM balance ORDER BY ts DESC LIMIT 1", nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read last balance: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return balance.ParseValue((*results)[0].Result[0].Value), nil
}

// Entries returns every entry in time order
func (b *BalanceLog) Entries(ctx context.Context) ([]models.BalanceEntry, error) {
	results, err := surrealdb.Query[[]balanceRow](ctx, b.db,
		"SELECT ts, value FROM balance ORDER BY ts ASC", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}

	entries := make([]models.BalanceEntry, 0)
	if results == nil || len(*results) == 0 {
		return entries, nil
	}
	for _, row := range (*results)[0].Result {
		at, err := time.Parse(balance.TimeLayout, row.TS)
		if err != nil {
			b.logger.Warn().Str("ts", row.TS).Msg("Skipping balance row with bad timestamp")
			continue
		}
		entries = append(entries, models.BalanceEntry{At: at, Value: balance.ParseValue(row.Value)})
	}
	return entries, nil
}

// Close closes the connection
func (b *BalanceLog) Close() error {
	b.db.Close(context.Background())
	return nil
}
