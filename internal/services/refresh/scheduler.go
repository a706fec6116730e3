package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bobmcallan/folio/internal/common"
)

// cronLogger adapts common.Logger to cron.Logger
type cronLogger struct {
	logger *common.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg("cron: " + msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg("cron: " + msg)
}

// Scheduler runs the two cycles on independent cron entries. A cycle that
// is still running when its next tick fires is skipped.
type Scheduler struct {
	orch           *Orchestrator
	logger         *common.Logger
	interval       time.Duration
	seriesInterval time.Duration

	mu     sync.Mutex
	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewScheduler creates a scheduler; seriesInterval <= 0 disables the series cycle
func NewScheduler(orch *Orchestrator, interval, seriesInterval time.Duration, logger *common.Logger) *Scheduler {
	return &Scheduler{
		orch:           orch,
		logger:         logger.Component("scheduler"),
		interval:       interval,
		seriesInterval: seriesInterval,
	}
}

// Start registers both cycles, runs each once immediately and starts cron
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("scheduler already started")
	}

	s.ctx, s.cancel = context.WithCancel(ctx)
	cl := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)

	if _, err := c.AddFunc(every(s.interval), s.positionJob); err != nil {
		return fmt.Errorf("failed to schedule position cycle: %w", err)
	}
	if s.seriesInterval > 0 {
		if _, err := c.AddFunc(every(s.seriesInterval), s.seriesJob); err != nil {
			return fmt.Errorf("failed to schedule series cycle: %w", err)
		}
	}

	s.cron = c
	c.Start()

	s.goRun(s.positionJob)
	if s.seriesInterval > 0 {
		s.goRun(s.seriesJob)
	}

	s.logger.Info().
		Dur("interval", s.interval).
		Dur("series_interval", s.seriesInterval).
		Msg("Scheduler started")
	return nil
}

// TriggerNow starts a position cycle outside the schedule. It is a no-op
// while one is already running.
func (s *Scheduler) TriggerNow() {
	s.mu.Lock()
	started := s.cron != nil
	s.mu.Unlock()

	if started {
		s.goRun(s.positionJob)
	}
}

// Stop cancels running cycles and waits for them to return
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	cancel := s.cancel
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	cancel()
	<-c.Stop().Done()
	s.wg.Wait()
	s.logger.Info().Msg("Scheduler stopped")
}

func (s *Scheduler) goRun(job func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		job()
	}()
}

func (s *Scheduler) positionJob() {
	if err := s.orch.RunPositionCycle(s.ctx); err != nil && !errors.Is(err, ErrCycleRunning) {
		s.logger.Warn().Err(err).Msg("Position cycle failed")
	}
}

func (s *Scheduler) seriesJob() {
	if err := s.orch.RunSeriesCycle(s.ctx); err != nil && !errors.Is(err, ErrCycleRunning) {
		s.logger.Warn().Err(err).Msg("Series cycle failed")
	}
}

func every(d time.Duration) string {
	if d < time.Second {
		d = time.Second
	}
	return "@every " + d.String()
}
