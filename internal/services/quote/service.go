// Package quote resolves positions against a quote source, serving the
// last good value from the shared caches whenever the source fails.
package quote

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/bobmcallan/folio/internal/cache"
	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	// PreviousCloseWindow is how far back the previous close lookup reaches
	PreviousCloseWindow = 7 * 24 * time.Hour

	// HistoricWindow is the buffer after a wanted date, covering weekends and holidays
	HistoricWindow = 3 * 24 * time.Hour
)

// Service implements interfaces.PositionResolver
type Service struct {
	source interfaces.QuoteSource
	caches *cache.Bundle
	logger *common.Logger
	now    func() time.Time // injectable clock for testing
}

var _ interfaces.PositionResolver = (*Service)(nil)

// NewService creates a resolver sharing the given cache bundle
func NewService(source interfaces.QuoteSource, caches *cache.Bundle, logger *common.Logger) *Service {
	return &Service{
		source: source,
		caches: caches,
		logger: logger,
		now:    time.Now,
	}
}

// Resolve returns a copy of pos enriched with spot price, previous close,
// backfilled lot prices and display name. Only the spot price is required;
// the remaining steps are best effort. Cash positions are returned unchanged.
func (s *Service) Resolve(ctx context.Context, pos models.Position) (resolved models.Position, err error) {
	if pos.IsCash() {
		return pos, nil
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().
				Str("ticker", pos.Ticker).
				Str("panic", fmt.Sprintf("%v", r)).
				Str("stack", string(debug.Stack())).
				Msg("Panic while resolving position")
			resolved = pos
			err = fmt.Errorf("resolve %s: panic: %v", pos.Ticker, r)
		}
	}()

	out := pos.Clone()

	spot, err := s.LatestQuote(ctx, pos.Ticker)
	if err != nil {
		return pos, fmt.Errorf("resolve %s: %w", pos.Ticker, err)
	}
	out.LastSpot = models.Float(spot.Close)

	if prev, err := s.PreviousClose(ctx, pos.Ticker); err != nil {
		s.logger.Warn().Str("ticker", pos.Ticker).Err(err).Msg("Previous close unavailable")
	} else {
		out.PreviousClose = models.Float(prev)
	}

	s.backfillLots(ctx, &out)

	if out.Name == "" {
		name, err := s.caches.Names.GetOrFetch(pos.Ticker, func() (string, error) {
			return s.source.SearchName(ctx, pos.Ticker)
		})
		if err != nil {
			s.logger.Debug().Str("ticker", pos.Ticker).Err(err).Msg("Name lookup failed")
		} else {
			out.Name = name
		}
	}

	return out, nil
}

// LatestQuote returns the live quote for a ticker through the latest-quote cache.
// A response without a latest quote falls back to the final entry of its list.
func (s *Service) LatestQuote(ctx context.Context, ticker string) (models.Quote, error) {
	q, stale, err := s.caches.Latest.GetOrFetchStale(ticker, func() (models.Quote, error) {
		resp, err := s.source.LatestPrice(ctx, ticker)
		if err != nil {
			return models.Quote{}, err
		}
		q, ok := resp.Last()
		if !ok {
			return models.Quote{}, models.NewQuoteError(models.ErrNoResult, "latest", ticker, nil)
		}
		return q, nil
	})
	if stale {
		s.logger.Info().Str("ticker", ticker).Float64("close", q.Close).Msg("Serving cached latest quote")
	}
	return q, err
}

// PreviousClose returns the close before the most recent one within the last
// seven days, or the only close when there is just one.
func (s *Service) PreviousClose(ctx context.Context, ticker string) (float64, error) {
	return s.caches.PreviousClose.GetOrFetch(ticker, func() (float64, error) {
		now := s.now()
		quotes, err := s.source.PriceHistory(ctx, ticker, now.Add(-PreviousCloseWindow), now)
		if err != nil {
			return 0, err
		}
		switch len(quotes) {
		case 0:
			return 0, models.NewQuoteError(models.ErrNoResult, "history", ticker, nil)
		case 1:
			return quotes[0].Close, nil
		default:
			return quotes[len(quotes)-2].Close, nil
		}
	})
}

// HistoricQuote returns the close for a ticker on a given day through the
// historic cache. The last quote of [day, day+3d] is used so that weekends
// and holidays still resolve.
func (s *Service) HistoricQuote(ctx context.Context, ticker string, day time.Time) (models.Quote, error) {
	key := models.NewHistoricKey(ticker, day)
	return s.caches.Historic.GetOrFetch(key, func() (models.Quote, error) {
		start, _ := time.Parse(models.DateLayout, key.Date)
		quotes, err := s.source.PriceHistory(ctx, ticker, start, start.Add(HistoricWindow))
		if err != nil {
			return models.Quote{}, err
		}
		if len(quotes) == 0 {
			return models.Quote{}, models.NewQuoteError(models.ErrNoResult, "history", ticker, nil)
		}
		return quotes[len(quotes)-1], nil
	})
}

// backfillLots prices incomplete lots from their purchase date.
// Lots with a missing or malformed date stay incomplete.
func (s *Service) backfillLots(ctx context.Context, pos *models.Position) {
	for _, i := range pos.IncompleteLots() {
		lot := &pos.Purchases[i]
		date, ok := lot.ParsedDate()
		if !ok {
			continue
		}

		q, err := s.HistoricQuote(ctx, pos.Ticker, date)
		if err != nil {
			s.logger.Warn().
				Str("ticker", pos.Ticker).
				Str("date", lot.Date).
				Err(err).
				Msg("Purchase price backfill failed")
			continue
		}

		price := q.Close
		if price < 0 {
			price = 0
		}
		lot.Price = models.Float(price)
	}
}
