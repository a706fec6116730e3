// Package yahoo provides a quote source backed by Yahoo Finance
package yahoo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
)

// backend is the blocking Yahoo API surface the client needs
type backend interface {
	latest(symbol string) (float64, error)
	history(symbol, period string) ([]models.Quote, error)
	name(symbol string) (string, error)
}

// Client implements interfaces.QuoteSource
type Client struct {
	api     backend
	logger  *common.Logger
	limiter *rate.Limiter
	timeout time.Duration
	now     func() time.Time
}

var _ interfaces.QuoteSource = (*Client)(nil)

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout bounds each library call
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// NewClient creates a Yahoo client using go-yfinance
func NewClient(opts ...ClientOption) *Client {
	return newClient(yfinanceBackend{}, opts...)
}

func newClient(api backend, opts ...ClientOption) *Client {
	c := &Client{
		api:     api,
		logger:  common.NewSilentLogger(),
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		timeout: DefaultTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// call runs a blocking library call under the rate limiter, returning early
// when ctx is cancelled or the client timeout elapses.
func call[T any](ctx context.Context, c *Client, fn func() (T, error)) (T, error) {
	var zero T
	if err := c.limiter.Wait(ctx); err != nil {
		return zero, fmt.Errorf("rate limit wait: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		// The caller's recover cannot see a panic on this goroutine
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("yahoo panic: %v", r)}
			}
		}()
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

// LatestPrice retrieves the regular market price for a ticker
func (c *Client) LatestPrice(ctx context.Context, ticker string) (*models.QuoteResponse, error) {
	price, err := call(ctx, c, func() (float64, error) { return c.api.latest(ticker) })
	if err != nil {
		return nil, classify("latest", ticker, err)
	}
	if price <= 0 {
		return &models.QuoteResponse{}, nil
	}
	c.logger.Debug().Str("ticker", ticker).Float64("price", price).Msg("Yahoo latest price")
	return &models.QuoteResponse{Latest: &models.Quote{Close: price, Date: c.now().UTC()}}, nil
}

// PriceHistory retrieves daily closes in [start, end], oldest first.
// Yahoo only serves fixed ranges ending today, so the smallest range that
// reaches back to start is requested and trimmed.
func (c *Client) PriceHistory(ctx context.Context, ticker string, start, end time.Time) ([]models.Quote, error) {
	period := periodCovering(c.now(), start)
	bars, err := call(ctx, c, func() ([]models.Quote, error) { return c.api.history(ticker, period) })
	if err != nil {
		return nil, classify("history", ticker, err)
	}

	// Bars of exchanges east of UTC can carry a UTC stamp on the previous
	// calendar day, so the lower bound gets a day of slack.
	from := dayStart(start).AddDate(0, 0, -1)
	to := dayStart(end).AddDate(0, 0, 1)
	quotes := make([]models.Quote, 0, len(bars))
	for _, q := range bars {
		d := tradingDay(q.Date)
		if q.Close <= 0 || d.Before(from) || !d.Before(to) {
			continue
		}
		quotes = append(quotes, q)
	}
	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].Date.Before(quotes[j].Date) })

	c.logger.Debug().Str("ticker", ticker).Str("period", period).Int("quotes", len(quotes)).Msg("Yahoo price history")
	return quotes, nil
}

// SearchName returns the short name Yahoo reports for a ticker
func (c *Client) SearchName(ctx context.Context, ticker string) (string, error) {
	name, err := call(ctx, c, func() (string, error) { return c.api.name(ticker) })
	if err != nil {
		return "", classify("search", ticker, err)
	}
	if strings.TrimSpace(name) == "" {
		return "", models.NewQuoteError(models.ErrNoResult, "search", ticker, nil)
	}
	return name, nil
}

// Yahoo range values, smallest first
var periods = []struct {
	name string
	span time.Duration
}{
	{"5d", 5 * 24 * time.Hour},
	{"1mo", 31 * 24 * time.Hour},
	{"3mo", 92 * 24 * time.Hour},
	{"6mo", 183 * 24 * time.Hour},
	{"1y", 366 * 24 * time.Hour},
	{"2y", 2 * 366 * 24 * time.Hour},
	{"5y", 5 * 366 * 24 * time.Hour},
	{"10y", 10 * 366 * 24 * time.Hour},
}

// periodCovering returns the smallest Yahoo range reaching back to start
func periodCovering(now, start time.Time) string {
	// Weekends and holidays shift the first bar, so keep two days of slack.
	need := now.Sub(dayStart(start)) + 48*time.Hour
	for _, p := range periods {
		if need <= p.span {
			return p.name
		}
	}
	return "max"
}

// tradingDay is the calendar date of t in its own location, as UTC midnight
func tradingDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// classify maps library failures onto quote error kinds. go-yfinance
// reports HTTP failures as plain errors, so the message is inspected.
func classify(op, ticker string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.NewQuoteError(models.ErrNetwork, op, ticker, err)
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "404"),
		strings.Contains(msg, "not found"),
		strings.Contains(msg, "no data found"),
		strings.Contains(msg, "delisted"):
		return models.NewQuoteError(models.ErrNotFound, op, ticker, err)
	case strings.Contains(msg, "400"),
		strings.Contains(msg, "bad request"),
		strings.Contains(msg, "invalid"):
		return models.NewQuoteError(models.ErrBadRequest, op, ticker, err)
	case strings.Contains(msg, "unmarshal"),
		strings.Contains(msg, "decode"),
		strings.Contains(msg, "parse"):
		return models.NewQuoteError(models.ErrParse, op, ticker, err)
	default:
		return models.NewQuoteError(models.ErrNetwork, op, ticker, err)
	}
}
