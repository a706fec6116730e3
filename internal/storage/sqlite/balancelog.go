// Package sqlite stores the balance log in an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/storage/balance"
)

const schema = `CREATE TABLE IF NOT EXISTS balances (
	ts    TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// BalanceLog implements interfaces.BalanceLog on SQLite
type BalanceLog struct {
	db     *sql.DB
	logger *common.Logger
}

var _ interfaces.BalanceLog = (*BalanceLog)(nil)

// Open creates the database file and schema when missing
func Open(ctx context.Context, path string, logger *common.Logger) (*BalanceLog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create balance log directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open balance log %s: %w", path, err)
	}
	// modernc serialises writes per connection
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create balances table: %w", err)
	}

	logger.Info().Str("path", path).Msg("SQLite balance log opened")
	return &BalanceLog{db: db, logger: logger}, nil
}

// Append records total at the second of at, replacing any entry already there
func (b *BalanceLog) Append(ctx context.Context, at time.Time, total float64) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO balances (ts, value) VALUES (?, ?)`,
		balance.FormatTime(at), balance.FormatValue(total))
	if err != nil {
		return fmt.Errorf("failed to append balance: %w", err)
	}
	return nil
}

// Last returns the most recent total, or 0 when the log is empty
func (b *BalanceLog) Last(ctx context.Context) (float64, error) {
	var value string
	err := b.db.QueryRowContext(ctx, `SELECT value FROM balances ORDER BY ts DESC LIMIT 1`).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read last balance: %w", err)
	}
	return balance.ParseValue(value), nil
}

// Entries returns every entry in time order. Rows with an unparseable
// timestamp are skipped.
func (b *BalanceLog) Entries(ctx context.Context) ([]models.BalanceEntry, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT ts, value FROM balances ORDER BY ts ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list balances: %w", err)
	}
	defer rows.Close()

	var entries []models.BalanceEntry
	for rows.Next() {
		var ts, value string
		if err := rows.Scan(&ts, &value); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		at, err := time.Parse(balance.TimeLayout, ts)
		if err != nil {
			b.logger.Warn().Str("ts", ts).Msg("Skipping balance row with bad timestamp")
			continue
		}
		entries = append(entries, models.BalanceEntry{At: at, Value: balance.ParseValue(value)})
	}
	return entries, rows.Err()
}

// Close closes the database
func (b *BalanceLog) Close() error {
	return b.db.Close()
}
