package portfolio

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

// HistoricQuoter looks up the close of a ticker on a past day
type HistoricQuoter interface {
	HistoricQuote(ctx context.Context, ticker string, day time.Time) (models.Quote, error)
}

// Aggregator implements interfaces.HistoricAggregator
type Aggregator struct {
	quotes         HistoricQuoter
	logger         *common.Logger
	maxConcurrency int
	fetchTimeout   time.Duration
}

var _ interfaces.HistoricAggregator = (*Aggregator)(nil)

// NewAggregator creates an aggregator. maxConcurrency <= 0 means unbounded;
// fetchTimeout <= 0 disables the per-ticker timeout.
func NewAggregator(quotes HistoricQuoter, logger *common.Logger, maxConcurrency int, fetchTimeout time.Duration) *Aggregator {
	return &Aggregator{
		quotes:         quotes,
		logger:         logger,
		maxConcurrency: maxConcurrency,
		fetchTimeout:   fetchTimeout,
	}
}

type historicResult struct {
	value   float64
	ok      bool
	warning error
}

// HistoricTotalValue values positions at a past date. Cash counts at its
// amount unless securitiesOnly is set. Unknown tickers and rejected requests
// are skipped silently; other failures are skipped with a warning. An error
// is returned only when the total is not positive and warnings exist.
func (a *Aggregator) HistoricTotalValue(ctx context.Context, positions []models.Position, at time.Time, securitiesOnly bool) (float64, error) {
	results := make([]historicResult, len(positions))

	g, gctx := errgroup.WithContext(ctx)
	if a.maxConcurrency > 0 {
		g.SetLimit(a.maxConcurrency)
	}

	for i, pos := range positions {
		if pos.Malformed() {
			continue
		}
		if pos.IsCash() {
			if !securitiesOnly {
				results[i] = historicResult{value: pos.Amount, ok: true}
			}
			continue
		}

		g.Go(func() error {
			results[i] = a.valueAt(gctx, pos, at)
			return nil
		})
	}
	_ = g.Wait()

	var sum float64
	var warnings []error
	for _, r := range results {
		if r.ok {
			sum += r.value
		}
		if r.warning != nil {
			warnings = append(warnings, r.warning)
		}
	}

	if len(warnings) > 0 {
		a.logger.Debug().
			Str("date", at.Format(models.DateLayout)).
			Int("warnings", len(warnings)).
			Float64("sum", sum).
			Msg("Historic total computed with warnings")
	}

	if sum <= 0 && len(warnings) > 0 {
		return 0, fmt.Errorf("historic value at %s: %w", at.Format(models.DateLayout), errors.Join(warnings...))
	}
	return sum, nil
}

// valueAt fetches one ticker under its own timeout and recovers panics
func (a *Aggregator) valueAt(ctx context.Context, pos models.Position, at time.Time) (res historicResult) {
	defer func() {
		if r := recover(); r != nil {
			res = historicResult{warning: fmt.Errorf("%s: panic: %v", pos.Ticker, r)}
		}
	}()

	if a.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.fetchTimeout)
		defer cancel()
	}

	q, err := a.quotes.HistoricQuote(ctx, pos.Ticker, at)
	if err != nil {
		if models.IsSkippable(err) {
			return historicResult{}
		}
		return historicResult{warning: fmt.Errorf("%s: %w", pos.Ticker, err)}
	}
	return historicResult{value: q.Close * pos.Amount, ok: true}
}

// WeeklySeries values the portfolio at the start of each of the last n
// weeks, oldest first. Points that fail are omitted and their errors kept
// as warnings.
func (a *Aggregator) WeeklySeries(ctx context.Context, positions []models.Position, now time.Time, points int) models.WeeklySeries {
	series := models.WeeklySeries{GeneratedAt: now}
	if points <= 0 {
		return series
	}

	week := common.WeekStart(now)
	for w := points - 1; w >= 0; w-- {
		if ctx.Err() != nil {
			series.Warnings = append(series.Warnings, ctx.Err().Error())
			break
		}

		date := week.AddDate(0, 0, -7*w)
		total, err := a.HistoricTotalValue(ctx, positions, date, false)
		if err != nil {
			series.Warnings = append(series.Warnings, err.Error())
			continue
		}
		series.Points = append(series.Points, models.SeriesPoint{WeeksAgo: w, Date: date, Value: total})
	}

	return series
}
