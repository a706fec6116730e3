// Package storage opens the persistence backends named in the configuration.
package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/storage/balance"
	"github.com/bobmcallan/folio/internal/storage/positions"
	"github.com/bobmcallan/folio/internal/storage/sqlite"
	"github.com/bobmcallan/folio/internal/storage/surrealdb"
)

// Backend names accepted in [balance_log].backend
const (
	BackendSQLite    = "sqlite"
	BackendSurrealDB = "surrealdb"
	BackendMemory    = "memory"
)

// NewBalanceLog opens the configured balance log backend.
func NewBalanceLog(ctx context.Context, cfg common.BalanceLogConfig, logger *common.Logger) (interfaces.BalanceLog, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", BackendSQLite:
		log, err := sqlite.Open(ctx, cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return log, nil
	case BackendSurrealDB:
		log, err := surrealdb.Connect(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return log, nil
	case BackendMemory:
		logger.Info().Msg("In-memory balance log (not persisted)")
		return balance.NewMemoryLog(), nil
	default:
		return nil, fmt.Errorf("unknown balance log backend %q", cfg.Backend)
	}
}

// NewPositionsSource returns the file-backed positions source
func NewPositionsSource(cfg common.PositionsConfig, logger *common.Logger) *positions.FileSource {
	return positions.NewFileSource(cfg.Path, cfg.Filter, logger)
}
