// Package app wires configuration, clients, caches, storage and the refresh
// pipeline into one value shared by every folio command.
package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bobmcallan/folio/internal/cache"
	"github.com/bobmcallan/folio/internal/clients/eodhd"
	"github.com/bobmcallan/folio/internal/clients/yahoo"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/portfolio"
	"github.com/bobmcallan/folio/internal/services/quote"
	"github.com/bobmcallan/folio/internal/services/refresh"
	"github.com/bobmcallan/folio/internal/storage"
	"github.com/bobmcallan/folio/internal/storage/positions"
)

// App holds every initialized component.
type App struct {
	Config       *common.Config
	Logger       *common.Logger
	Quotes       interfaces.QuoteSource
	Caches       *cache.Bundle
	Resolver     *quote.Service
	Aggregator   *portfolio.Aggregator
	Positions    *positions.FileSource
	Balances     interfaces.BalanceLog
	Orchestrator *refresh.Orchestrator
	Scheduler    *refresh.Scheduler
	StartupTime  time.Time
}

type options struct {
	logToFile bool
	quotes    interfaces.QuoteSource
	balances  interfaces.BalanceLog
}

// Option customises NewApp
type Option func(*options)

// WithFileLogging sends logs to logging.file_path instead of the terminal
func WithFileLogging() Option {
	return func(o *options) { o.logToFile = true }
}

// WithQuoteSource overrides the configured provider
func WithQuoteSource(src interfaces.QuoteSource) Option {
	return func(o *options) { o.quotes = src }
}

// WithBalanceLog overrides the configured balance log backend
func WithBalanceLog(log interfaces.BalanceLog) Option {
	return func(o *options) { o.balances = log }
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: explicit path, FOLIO_CONFIG,
// folio.toml next to the binary, then config/folio.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("FOLIO_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "folio.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/folio.toml"
		}
	}
	return configPath
}

// NewApp loads configuration and initializes all components. Nothing runs
// in the background until StartRefresh is called.
func NewApp(configPath string, opts ...Option) (*App, error) {
	startupStart := time.Now()

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	common.LoadVersionFromFile()

	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if config.Logging.FilePath != "" && !filepath.IsAbs(config.Logging.FilePath) {
		config.Logging.FilePath = filepath.Join(getBinaryDir(), config.Logging.FilePath)
	}

	logger, err := common.NewLoggerFromConfig(config.Logging, o.logToFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	quotes := o.quotes
	if quotes == nil {
		quotes, err = NewQuoteSource(config, logger)
		if err != nil {
			logger.Close()
			return nil, err
		}
	}

	ctx := context.Background()
	balances := o.balances
	if balances == nil {
		balances, err = storage.NewBalanceLog(ctx, config.BalanceLog, logger)
		if err != nil {
			logger.Close()
			return nil, fmt.Errorf("failed to open balance log: %w", err)
		}
	}

	caches := cache.NewBundle()
	resolver := quote.NewService(quotes, caches, logger.Component("quote"))
	aggregator := portfolio.NewAggregator(resolver, logger.Component("historic"),
		config.Refresh.MaxConcurrency, config.Refresh.GetFetchTimeout())
	source := storage.NewPositionsSource(config.Positions, logger)

	orch := refresh.NewOrchestrator(source, resolver, aggregator, balances, refresh.Config{
		MaxConcurrency: config.Refresh.MaxConcurrency,
		SeriesPoints:   config.Refresh.GetSeriesPoints(),
		RecordEvery:    config.BalanceLog.GetMinInterval(),
	}, logger.Component("refresh"))

	a := &App{
		Config:       config,
		Logger:       logger,
		Quotes:       quotes,
		Caches:       caches,
		Resolver:     resolver,
		Aggregator:   aggregator,
		Positions:    source,
		Balances:     balances,
		Orchestrator: orch,
		Scheduler:    refresh.NewScheduler(orch, config.Refresh.GetInterval(), config.Refresh.GetSeriesInterval(), logger),
		StartupTime:  startupStart,
	}

	logger.Info().
		Str("provider", config.Provider.Name).
		Str("positions", config.Positions.Path).
		Dur("startup", time.Since(startupStart)).
		Msg("App initialized")

	return a, nil
}

// NewQuoteSource builds the client named by provider.name
func NewQuoteSource(config *common.Config, logger *common.Logger) (interfaces.QuoteSource, error) {
	switch strings.ToLower(config.Provider.Name) {
	case "", "yahoo":
		return yahoo.NewClient(
			yahoo.WithLogger(logger),
			yahoo.WithRateLimit(config.Provider.RateLimit),
			yahoo.WithTimeout(config.Provider.GetTimeout()),
		), nil
	case "eodhd":
		if config.Clients.EODHD.APIKey == "" {
			return nil, errors.New("EODHD provider selected but no API key configured (set EODHD_API_KEY)")
		}
		return eodhd.NewClient(config.Clients.EODHD.APIKey,
			eodhd.WithBaseURL(config.Clients.EODHD.BaseURL),
			eodhd.WithLogger(logger),
			eodhd.WithRateLimit(config.Clients.EODHD.RateLimit),
			eodhd.WithTimeout(config.Clients.EODHD.GetTimeout()),
		), nil
	default:
		return nil, fmt.Errorf("unknown quote provider %q", config.Provider.Name)
	}
}

// StartRefresh starts the background position and series cycles
func (a *App) StartRefresh(ctx context.Context) error {
	return a.Scheduler.Start(ctx)
}

// Snapshot runs one resolution pass over the positions without publishing it
func (a *App) Snapshot(ctx context.Context, securitiesOnly bool) (models.ValuedPortfolio, error) {
	list, err := a.Positions.Load(ctx)
	if err != nil {
		return models.ValuedPortfolio{}, fmt.Errorf("failed to read positions: %w", err)
	}
	if securitiesOnly {
		list = SecuritiesOnly(list)
	}
	vp, _ := a.Orchestrator.ResolveAll(ctx, list)
	return vp, nil
}

// LoadPositions reads the positions document, optionally without cash
func (a *App) LoadPositions(ctx context.Context, securitiesOnly bool) ([]models.Position, error) {
	list, err := a.Positions.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read positions: %w", err)
	}
	if securitiesOnly {
		list = SecuritiesOnly(list)
	}
	return list, nil
}

// SecuritiesOnly drops cash positions
func SecuritiesOnly(list []models.Position) []models.Position {
	out := make([]models.Position, 0, len(list))
	for _, p := range list {
		if !p.IsCash() {
			out = append(out, p)
		}
	}
	return out
}

// Close releases all resources held by the App.
// Shutdown order: stop the scheduler, close the balance log, close the log file.
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Caches != nil {
		for name, st := range a.Caches.Stats() {
			a.Logger.Debug().
				Str("cache", name).
				Int("entries", st.Entries).
				Int64("fresh", st.Fresh).
				Int64("fallback", st.Fallback).
				Int64("misses", st.Misses).
				Msg("Cache usage")
		}
	}
	if a.Balances != nil {
		if err := a.Balances.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close balance log")
		}
		a.Balances = nil
	}
	if a.Logger != nil {
		a.Logger.Close()
	}
}
