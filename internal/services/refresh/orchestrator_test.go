package refresh

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/models"
)

// --- Fakes ---

type fakeSource struct {
	positions []models.Position
	err       error
	loads     atomic.Int32
}

func (f *fakeSource) Load(context.Context) ([]models.Position, error) {
	f.loads.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.Position, len(f.positions))
	copy(out, f.positions)
	return out, nil
}

type fakeResolver struct {
	spots   map[string]float64
	panicOn string
	delay   time.Duration
	gate    chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeResolver) Resolve(ctx context.Context, pos models.Position) (models.Position, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}
	if f.gate != nil {
		<-f.gate
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if pos.IsCash() {
		return pos, nil
	}
	if pos.Ticker == f.panicOn {
		panic("resolver exploded")
	}
	spot, ok := f.spots[pos.Ticker]
	if !ok {
		return pos, models.NewQuoteError(models.ErrNetwork, "latest", pos.Ticker, errors.New("down"))
	}
	pos.LastSpot = models.Float(spot)
	return pos, nil
}

type fakeAggregator struct {
	calls atomic.Int32
}

func (f *fakeAggregator) HistoricTotalValue(context.Context, []models.Position, time.Time, bool) (float64, error) {
	return 0, nil
}

func (f *fakeAggregator) WeeklySeries(_ context.Context, positions []models.Position, now time.Time, points int) models.WeeklySeries {
	f.calls.Add(1)
	s := models.WeeklySeries{GeneratedAt: now}
	for i := 0; i < points; i++ {
		s.Points = append(s.Points, models.SeriesPoint{WeeksAgo: points - 1 - i, Value: float64(len(positions))})
	}
	return s
}

type memBalances struct {
	mu      sync.Mutex
	entries []models.BalanceEntry
}

func (m *memBalances) Append(_ context.Context, at time.Time, total float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, models.BalanceEntry{At: at, Value: total})
	return nil
}
func (m *memBalances) Last(context.Context) (float64, error) { return 0, nil }
func (m *memBalances) Entries(context.Context) ([]models.BalanceEntry, error) {
	return m.entries, nil
}
func (m *memBalances) Close() error { return nil }

func newTestOrchestrator(src *fakeSource, res *fakeResolver, cfg Config) *Orchestrator {
	return NewOrchestrator(src, res, &fakeAggregator{}, nil, cfg, common.NewSilentLogger())
}

func samplePositions() []models.Position {
	return []models.Position{
		{Name: "Cash", AssetClass: "Cash", Amount: 100},
		{Ticker: "A", AssetClass: "Equity", Amount: 2},
		{Ticker: "B", AssetClass: "Equity", Amount: 1},
		{Ticker: "C", AssetClass: "Bond", Amount: 4},
	}
}

// --- Tests ---

func TestResolveAll_PreservesOrderAndValues(t *testing.T) {
	res := &fakeResolver{spots: map[string]float64{"A": 50, "B": 100, "C": 25}}
	o := newTestOrchestrator(&fakeSource{}, res, Config{MaxConcurrency: 2})

	vp, status := o.ResolveAll(context.Background(), samplePositions())

	assert.Equal(t, models.StatusConnected, status)
	require.Len(t, vp.Positions, 4)
	for i, p := range vp.Positions {
		assert.Equal(t, i, p.Index)
	}
	assert.Equal(t, 400.0, vp.TotalValue)
	assert.InDelta(t, 50.0, vp.Allocation["Equity"], 1e-9)
	assert.InDelta(t, 25.0, vp.Allocation["Bond"], 1e-9)
	assert.NotEmpty(t, vp.CycleID)
	assert.LessOrEqual(t, res.maxInFlight.Load(), int32(2))
}

func TestResolveAll_PartialFailureDoesNotAbort(t *testing.T) {
	res := &fakeResolver{spots: map[string]float64{"A": 50}, panicOn: "B"}
	o := newTestOrchestrator(&fakeSource{}, res, Config{})

	vp, status := o.ResolveAll(context.Background(), samplePositions())

	assert.Equal(t, models.StatusPartial, status)
	require.Len(t, vp.Positions, 2)
	assert.Equal(t, 0, vp.Positions[0].Index)
	assert.Equal(t, 1, vp.Positions[1].Index)
	require.Len(t, vp.Failures, 2)
	assert.Equal(t, "B", vp.Failures[0].Ticker)
	assert.Contains(t, vp.Failures[0].Error, "panic")
	assert.Equal(t, 200.0, vp.TotalValue)
}

func TestResolveAll_ConnectivityIgnoresCash(t *testing.T) {
	res := &fakeResolver{spots: map[string]float64{}}
	o := newTestOrchestrator(&fakeSource{}, res, Config{})

	_, status := o.ResolveAll(context.Background(), []models.Position{
		{AssetClass: "Cash", Amount: 1},
		{Ticker: "A", Amount: 1},
	})
	assert.Equal(t, models.StatusDisconnected, status)

	_, status = o.ResolveAll(context.Background(), []models.Position{{AssetClass: "Cash", Amount: 1}})
	assert.Equal(t, models.StatusConnected, status)
}

func TestResolveAll_MalformedEntryKeepsIndexesAndConnectivity(t *testing.T) {
	res := &fakeResolver{spots: map[string]float64{"A": 50}}
	o := newTestOrchestrator(&fakeSource{}, res, Config{})

	bad := models.Position{
		Ticker:    "BAD",
		DecodeErr: models.NewQuoteError(models.ErrParse, "decode", "BAD", errors.New("invalid Amount")),
	}
	vp, status := o.ResolveAll(context.Background(), []models.Position{
		{Name: "Cash", AssetClass: "Cash", Amount: 100},
		bad,
		{Ticker: "A", AssetClass: "Equity", Amount: 2},
	})

	assert.Equal(t, models.StatusConnected, status)
	require.Len(t, vp.Positions, 2)
	assert.Equal(t, 0, vp.Positions[0].Index)
	assert.Equal(t, 2, vp.Positions[1].Index)
	require.Len(t, vp.Failures, 1)
	assert.Equal(t, 1, vp.Failures[0].Index)
	assert.Contains(t, vp.Failures[0].Error, "parse error")
	assert.Equal(t, 200.0, vp.TotalValue)
}

func TestRunPositionCycle_PublishesSnapshot(t *testing.T) {
	src := &fakeSource{positions: samplePositions()}
	res := &fakeResolver{spots: map[string]float64{"A": 50, "B": 100, "C": 25}}
	o := newTestOrchestrator(src, res, Config{})

	require.NoError(t, o.RunPositionCycle(context.Background()))

	snap := <-o.Portfolio()
	require.NoError(t, snap.Err)
	assert.Equal(t, 400.0, snap.Portfolio.TotalValue)
	assert.Equal(t, StateIdle, o.State())

	latest, ok := o.LatestPortfolio()
	assert.True(t, ok)
	assert.Equal(t, snap.Portfolio.CycleID, latest.CycleID)
}

func TestRunPositionCycle_SourceFailurePublishesError(t *testing.T) {
	src := &fakeSource{err: errors.New("permission denied")}
	o := newTestOrchestrator(src, &fakeResolver{}, Config{})

	err := o.RunPositionCycle(context.Background())
	require.Error(t, err)

	snap := <-o.Portfolio()
	assert.ErrorContains(t, snap.Err, "permission denied")
	_, ok := o.LatestPortfolio()
	assert.False(t, ok)
}

func TestRunPositionCycle_SameKindNeverOverlaps(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{positions: []models.Position{{Ticker: "A", Amount: 1}}}
	res := &fakeResolver{spots: map[string]float64{"A": 1}, gate: gate}
	o := newTestOrchestrator(src, res, Config{})

	done := make(chan error, 1)
	go func() { done <- o.RunPositionCycle(context.Background()) }()

	require.Eventually(t, func() bool { return res.inFlight.Load() == 1 }, time.Second, time.Millisecond)
	assert.Equal(t, StateResolving, o.State())
	assert.ErrorIs(t, o.RunPositionCycle(context.Background()), ErrCycleRunning)

	// a series cycle may run while a position cycle is in flight
	assert.NoError(t, o.RunSeriesCycle(context.Background()))

	close(gate)
	assert.NoError(t, <-done)
	assert.Equal(t, int32(2), src.loads.Load())
}

func TestRunSeriesCycle_Publishes(t *testing.T) {
	src := &fakeSource{positions: samplePositions()}
	o := newTestOrchestrator(src, &fakeResolver{}, Config{SeriesPoints: 5})

	require.NoError(t, o.RunSeriesCycle(context.Background()))
	series := <-o.Series()
	assert.Len(t, series.Points, 5)

	latest, ok := o.LatestSeries()
	assert.True(t, ok)
	assert.Len(t, latest.Points, 5)
}

func TestRunPositionCycle_RecordsConnectedTotals(t *testing.T) {
	src := &fakeSource{positions: []models.Position{{Ticker: "A", Amount: 2}}}
	res := &fakeResolver{spots: map[string]float64{"A": 10}}
	balances := &memBalances{}
	o := NewOrchestrator(src, res, &fakeAggregator{}, balances, Config{RecordEvery: time.Hour}, common.NewSilentLogger())

	clock := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return clock }

	require.NoError(t, o.RunPositionCycle(context.Background()))
	clock = clock.Add(10 * time.Minute)
	require.NoError(t, o.RunPositionCycle(context.Background()))
	clock = clock.Add(time.Hour)
	require.NoError(t, o.RunPositionCycle(context.Background()))

	require.Len(t, balances.entries, 2)
	assert.Equal(t, 20.0, balances.entries[0].Value)

	delete(res.spots, "A")
	clock = clock.Add(2 * time.Hour)
	require.NoError(t, o.RunPositionCycle(context.Background()))
	assert.Len(t, balances.entries, 2, "disconnected cycles are not recorded")
}

func TestRunPositionCycle_PartialCyclesAreNotRecorded(t *testing.T) {
	src := &fakeSource{positions: []models.Position{
		{Ticker: "A", Amount: 2},
		{Ticker: "B", Amount: 1},
	}}
	res := &fakeResolver{spots: map[string]float64{"A": 10}}
	balances := &memBalances{}
	o := NewOrchestrator(src, res, &fakeAggregator{}, balances, Config{RecordEvery: time.Hour}, common.NewSilentLogger())

	require.NoError(t, o.RunPositionCycle(context.Background()))
	vp, ok := o.LatestPortfolio()
	require.True(t, ok)
	assert.Equal(t, models.StatusPartial, vp.Status)
	assert.Empty(t, balances.entries)

	res.spots["B"] = 5
	o.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	require.NoError(t, o.RunPositionCycle(context.Background()))
	require.Len(t, balances.entries, 1)
	assert.Equal(t, 25.0, balances.entries[0].Value)
}
