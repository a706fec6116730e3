package portfolio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

type stubQuoter struct {
	mu     sync.Mutex
	closes map[string]float64
	errs   map[string]error
	slow   map[string]bool
	calls  []string
}

func (s *stubQuoter) HistoricQuote(ctx context.Context, ticker string, day time.Time) (models.Quote, error) {
	s.mu.Lock()
	s.calls = append(s.calls, ticker+"@"+day.Format(models.DateLayout))
	slow := s.slow[ticker]
	err := s.errs[ticker]
	c, ok := s.closes[ticker]
	s.mu.Unlock()

	if slow {
		<-ctx.Done()
		return models.Quote{}, models.NewQuoteError(models.ErrNetwork, "history", ticker, ctx.Err())
	}
	if ticker == "PANIC" {
		panic("bad quote")
	}
	if err != nil {
		return models.Quote{}, err
	}
	if !ok {
		return models.Quote{}, models.NewQuoteError(models.ErrNoResult, "history", ticker, nil)
	}
	return models.Quote{Close: c, Date: day}, nil
}

func newTestAggregator(q HistoricQuoter) *Aggregator {
	return NewAggregator(q, common.NewSilentLogger(), 4, 50*time.Millisecond)
}

var at = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

func TestHistoricTotalValue_SumsCashAndTickers(t *testing.T) {
	q := &stubQuoter{closes: map[string]float64{"A": 10, "B": 2}}
	positions := []models.Position{
		{AssetClass: "Cash", Amount: 100},
		{Ticker: "A", Amount: 3},
		{Ticker: "B", Amount: 5},
	}

	got, err := newTestAggregator(q).HistoricTotalValue(context.Background(), positions, at, false)
	if err != nil {
		t.Fatalf("HistoricTotalValue: %v", err)
	}
	if got != 140 {
		t.Errorf("total = %v, want 140", got)
	}

	got, err = newTestAggregator(q).HistoricTotalValue(context.Background(), positions, at, true)
	if err != nil || got != 40 {
		t.Errorf("securities only = %v, %v; want 40", got, err)
	}
}

func TestHistoricTotalValue_IgnoresMalformedEntries(t *testing.T) {
	q := &stubQuoter{closes: map[string]float64{"A": 10}}
	positions := []models.Position{
		{AssetClass: "Cash", Amount: 100},
		{Ticker: "BAD", DecodeErr: models.NewQuoteError(models.ErrParse, "decode", "BAD", nil)},
		{Ticker: "A", Amount: 2},
	}

	got, err := newTestAggregator(q).HistoricTotalValue(context.Background(), positions, at, false)
	if err != nil || got != 120 {
		t.Errorf("total = %v, %v; want 120", got, err)
	}
	for _, c := range q.calls {
		if strings.HasPrefix(c, "BAD@") {
			t.Errorf("malformed entry was fetched: %s", c)
		}
	}
}

func TestHistoricTotalValue_SkipsNotFoundAndBadRequestSilently(t *testing.T) {
	q := &stubQuoter{
		closes: map[string]float64{"A": 10},
		errs: map[string]error{
			"GONE": models.NewQuoteError(models.ErrNotFound, "history", "GONE", nil),
			"ODD":  models.NewQuoteError(models.ErrBadRequest, "history", "ODD", nil),
		},
	}
	positions := []models.Position{
		{Ticker: "A", Amount: 1},
		{Ticker: "GONE", Amount: 1},
		{Ticker: "ODD", Amount: 1},
	}
	got, err := newTestAggregator(q).HistoricTotalValue(context.Background(), positions, at, false)
	if err != nil || got != 10 {
		t.Errorf("total = %v, %v; want 10, nil", got, err)
	}
}

func TestHistoricTotalValue_AllSkippableIsZeroNotError(t *testing.T) {
	q := &stubQuoter{errs: map[string]error{"GONE": models.NewQuoteError(models.ErrNotFound, "history", "GONE", nil)}}
	got, err := newTestAggregator(q).HistoricTotalValue(context.Background(), []models.Position{{Ticker: "GONE", Amount: 1}}, at, false)
	if err != nil || got != 0 {
		t.Errorf("total = %v, %v; want 0, nil", got, err)
	}
}

func TestHistoricTotalValue_WarningsOnlyFailWhenNothingValued(t *testing.T) {
	netErr := models.NewQuoteError(models.ErrNetwork, "history", "DOWN", errors.New("timeout"))
	q := &stubQuoter{closes: map[string]float64{"A": 10}, errs: map[string]error{"DOWN": netErr}}

	got, err := newTestAggregator(q).HistoricTotalValue(context.Background(),
		[]models.Position{{Ticker: "A", Amount: 1}, {Ticker: "DOWN", Amount: 1}}, at, false)
	if err != nil || got != 10 {
		t.Errorf("partial failure = %v, %v; want 10, nil", got, err)
	}

	_, err = newTestAggregator(q).HistoricTotalValue(context.Background(),
		[]models.Position{{Ticker: "DOWN", Amount: 1}}, at, false)
	if err == nil {
		t.Fatal("expected error when total is zero with warnings")
	}
	if !errors.Is(err, models.ErrNetwork) || !strings.Contains(err.Error(), "DOWN") {
		t.Errorf("error should join the warnings: %v", err)
	}
}

func TestHistoricTotalValue_PerFetchTimeoutAndPanic(t *testing.T) {
	q := &stubQuoter{closes: map[string]float64{"A": 5}, slow: map[string]bool{"SLOW": true}}
	positions := []models.Position{
		{Ticker: "SLOW", Amount: 1},
		{Ticker: "PANIC", Amount: 1},
		{Ticker: "A", Amount: 2},
	}

	start := time.Now()
	got, err := newTestAggregator(q).HistoricTotalValue(context.Background(), positions, at, false)
	if err != nil || got != 10 {
		t.Errorf("total = %v, %v; want 10, nil", got, err)
	}
	if time.Since(start) > 2*time.Second {
		t.Error("slow fetch was not bounded by the per-fetch timeout")
	}
}

func TestWeeklySeries(t *testing.T) {
	q := &stubQuoter{closes: map[string]float64{"A": 2}}
	now := time.Date(2024, 3, 6, 15, 0, 0, 0, time.UTC) // Wednesday
	positions := []models.Position{{AssetClass: "Cash", Amount: 1}, {Ticker: "A", Amount: 4}}

	series := newTestAggregator(q).WeeklySeries(context.Background(), positions, now, 3)
	if len(series.Points) != 3 {
		t.Fatalf("got %d points, want 3", len(series.Points))
	}
	wantDates := []string{"2024-02-19", "2024-02-26", "2024-03-04"}
	for i, p := range series.Points {
		if p.Date.Format(models.DateLayout) != wantDates[i] {
			t.Errorf("point %d date = %s, want %s", i, p.Date.Format(models.DateLayout), wantDates[i])
		}
		if p.Value != 9 {
			t.Errorf("point %d value = %v, want 9", i, p.Value)
		}
	}
	if series.Points[0].WeeksAgo != 2 || series.Points[2].WeeksAgo != 0 {
		t.Errorf("WeeksAgo not descending: %+v", series.Points)
	}
}

func TestWeeklySeries_OmitsFailedPoints(t *testing.T) {
	netErr := models.NewQuoteError(models.ErrNetwork, "history", "A", errors.New("down"))
	q := &stubQuoter{errs: map[string]error{"A": netErr}}

	series := newTestAggregator(q).WeeklySeries(context.Background(), []models.Position{{Ticker: "A", Amount: 1}}, at, 2)
	if len(series.Points) != 0 {
		t.Errorf("expected no points, got %+v", series.Points)
	}
	if len(series.Warnings) != 2 {
		t.Errorf("expected 2 warnings, got %v", series.Warnings)
	}
}
