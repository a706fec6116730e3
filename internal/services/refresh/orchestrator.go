// Package refresh runs the periodic position and series cycles and
// publishes their results to consumers.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/portfolio"
)

// ErrCycleRunning is returned when a cycle of the same kind is in progress
var ErrCycleRunning = errors.New("cycle already running")

// CycleState is the lifecycle position of the position cycle
type CycleState int32

const (
	StateIdle CycleState = iota
	StateResolving
	StateAggregated
	StatePublished
)

func (s CycleState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateResolving:
		return "resolving"
	case StateAggregated:
		return "aggregated"
	case StatePublished:
		return "published"
	default:
		return "unknown"
	}
}

// Snapshot is one publication of the position cycle. Err is set when the
// positions source could not be read; Portfolio is then empty.
type Snapshot struct {
	Portfolio models.ValuedPortfolio
	Err       error
}

// Config tunes the orchestrator
type Config struct {
	MaxConcurrency int
	SeriesPoints   int
	RecordEvery    time.Duration // balance log spacing; 0 disables background appends
}

// Orchestrator implements interfaces.PortfolioFeed
type Orchestrator struct {
	source     interfaces.PositionsSource
	resolver   interfaces.PositionResolver
	aggregator interfaces.HistoricAggregator
	balances   interfaces.BalanceLog
	logger     *common.Logger
	cfg        Config
	now        func() time.Time

	positionMu sync.Mutex
	seriesMu   sync.Mutex
	state      atomic.Int32

	portfolioSlot *Slot[Snapshot]
	seriesSlot    *Slot[models.WeeklySeries]

	latest       atomic.Pointer[models.ValuedPortfolio]
	latestSeries atomic.Pointer[models.WeeklySeries]
	lastRecorded time.Time
}

var _ interfaces.PortfolioFeed = (*Orchestrator)(nil)

// NewOrchestrator wires a refresh pipeline. balances may be nil.
func NewOrchestrator(source interfaces.PositionsSource, resolver interfaces.PositionResolver, aggregator interfaces.HistoricAggregator, balances interfaces.BalanceLog, cfg Config, logger *common.Logger) *Orchestrator {
	return &Orchestrator{
		source:        source,
		resolver:      resolver,
		aggregator:    aggregator,
		balances:      balances,
		logger:        logger,
		cfg:           cfg,
		now:           time.Now,
		portfolioSlot: NewSlot[Snapshot](),
		seriesSlot:    NewSlot[models.WeeklySeries](),
	}
}

// Portfolio returns the subscription channel for position cycles
func (o *Orchestrator) Portfolio() <-chan Snapshot {
	return o.portfolioSlot.C()
}

// Series returns the subscription channel for series cycles
func (o *Orchestrator) Series() <-chan models.WeeklySeries {
	return o.seriesSlot.C()
}

// State returns the current position cycle state
func (o *Orchestrator) State() CycleState {
	return CycleState(o.state.Load())
}

// LatestPortfolio returns the most recently published portfolio
func (o *Orchestrator) LatestPortfolio() (models.ValuedPortfolio, bool) {
	p := o.latest.Load()
	if p == nil {
		return models.ValuedPortfolio{}, false
	}
	return *p, true
}

// LatestSeries returns the most recently published weekly series
func (o *Orchestrator) LatestSeries() (models.WeeklySeries, bool) {
	s := o.latestSeries.Load()
	if s == nil {
		return models.WeeklySeries{}, false
	}
	return *s, true
}

type resolveResult struct {
	pos models.Position
	err error
}

// ResolveAll resolves every position concurrently and values the ones that
// succeeded. A failure never cancels the other positions. Output keeps the
// input order. Connectivity counts ticker positions only; malformed entries
// are reported as failures but do not affect it.
func (o *Orchestrator) ResolveAll(ctx context.Context, positions []models.Position) (models.ValuedPortfolio, models.ConnectivityStatus) {
	results := make([]resolveResult, len(positions))

	var g errgroup.Group
	if o.cfg.MaxConcurrency > 0 {
		g.SetLimit(o.cfg.MaxConcurrency)
	}
	for i, pos := range positions {
		if pos.Malformed() {
			results[i] = resolveResult{err: pos.DecodeErr}
			continue
		}
		g.Go(func() error {
			results[i] = o.resolveOne(ctx, pos)
			return nil
		})
	}
	_ = g.Wait()

	vp := models.ValuedPortfolio{
		CycleID:   uuid.NewString(),
		UpdatedAt: o.now(),
	}

	var succeeded, failed int
	for i, r := range results {
		isTicker := !positions[i].IsCash()
		if r.err != nil {
			// A document error is not a connectivity failure
			if !positions[i].Malformed() {
				failed++
			}
			vp.Failures = append(vp.Failures, models.PositionFailure{
				Index:  i,
				Name:   positions[i].DisplayName(),
				Ticker: positions[i].Ticker,
				Error:  r.err.Error(),
			})
			continue
		}
		if isTicker {
			succeeded++
		}
		vp.Positions = append(vp.Positions, portfolio.ValuePosition(i, r.pos))
	}

	portfolio.Summarize(&vp)
	vp.Status = models.ConnectivityFromCounts(succeeded, failed)
	return vp, vp.Status
}

// resolveOne shields the cycle from a panicking resolver
func (o *Orchestrator) resolveOne(ctx context.Context, pos models.Position) (res resolveResult) {
	defer func() {
		if r := recover(); r != nil {
			res = resolveResult{err: fmt.Errorf("resolve %s: panic: %v", pos.DisplayName(), r)}
		}
	}()
	p, err := o.resolver.Resolve(ctx, pos)
	if err != nil {
		o.logger.Warn().Str("ticker", pos.Ticker).Err(err).Msg("Position resolution failed")
	}
	return resolveResult{pos: p, err: err}
}

// RunPositionCycle reads the positions, resolves and values them and
// publishes the result. Returns ErrCycleRunning if a position cycle is
// already in progress.
func (o *Orchestrator) RunPositionCycle(ctx context.Context) error {
	if !o.positionMu.TryLock() {
		return ErrCycleRunning
	}
	defer o.positionMu.Unlock()
	defer o.state.Store(int32(StateIdle))

	start := o.now()
	o.state.Store(int32(StateResolving))

	positions, err := o.source.Load(ctx)
	if err != nil {
		err = fmt.Errorf("failed to read positions: %w", err)
		o.logger.Error().Err(err).Msg("Position cycle: positions unavailable")
		o.portfolioSlot.Publish(Snapshot{Err: err})
		return err
	}

	vp, status := o.ResolveAll(ctx, positions)
	o.state.Store(int32(StateAggregated))

	o.latest.Store(&vp)
	o.portfolioSlot.Publish(Snapshot{Portfolio: vp})
	o.state.Store(int32(StatePublished))

	o.logger.Info().
		Str("cycle", vp.CycleID).
		Str("status", status.String()).
		Int("positions", len(vp.Positions)).
		Int("failures", len(vp.Failures)).
		Float64("total", vp.TotalValue).
		Dur("elapsed", o.now().Sub(start)).
		Msg("Position cycle: published")

	o.record(ctx, vp)
	return nil
}

// record appends the total to the balance log after a complete cycle, at
// most once per RecordEvery.
func (o *Orchestrator) record(ctx context.Context, vp models.ValuedPortfolio) {
	if o.balances == nil || o.cfg.RecordEvery <= 0 || !vp.Complete() {
		return
	}
	if !o.lastRecorded.IsZero() && vp.UpdatedAt.Sub(o.lastRecorded) < o.cfg.RecordEvery {
		return
	}
	if err := o.balances.Append(ctx, vp.UpdatedAt, vp.TotalValue); err != nil {
		o.logger.Warn().Err(err).Msg("Balance log append failed")
		return
	}
	o.lastRecorded = vp.UpdatedAt
}

// RunSeriesCycle computes and publishes the weekly historic series.
// Returns ErrCycleRunning if a series cycle is already in progress.
func (o *Orchestrator) RunSeriesCycle(ctx context.Context) error {
	if !o.seriesMu.TryLock() {
		return ErrCycleRunning
	}
	defer o.seriesMu.Unlock()

	start := o.now()
	positions, err := o.source.Load(ctx)
	if err != nil {
		err = fmt.Errorf("failed to read positions: %w", err)
		o.logger.Error().Err(err).Msg("Series cycle: positions unavailable")
		return err
	}

	series := o.aggregator.WeeklySeries(ctx, positions, o.now(), o.cfg.SeriesPoints)
	o.latestSeries.Store(&series)
	o.seriesSlot.Publish(series)

	o.logger.Info().
		Int("points", len(series.Points)).
		Int("warnings", len(series.Warnings)).
		Dur("elapsed", o.now().Sub(start)).
		Msg("Series cycle: published")
	return nil
}
