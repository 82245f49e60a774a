package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SweepSource lists obligations carrying unsettled installments whose due
// date has passed.
type SweepSource interface {
	ListDueObligations(ctx context.Context, asOf time.Time) ([]uuid.UUID, error)
}

// OverdueMarker flags one obligation's past-due installments. Implemented by
// the obligation application service.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, obligationID uuid.UUID, asOf time.Time) (bool, error)
}

// DueDateSweeperConfig holds configuration for the overdue sweep
type DueDateSweeperConfig struct {
	// SweepHour and SweepMinute give the local time of day the sweep runs
	SweepHour   int
	SweepMinute int

	// CheckInterval is how often to check whether it is time to run
	CheckInterval time.Duration
}

// DefaultDueDateSweeperConfig returns the default sweep configuration
func DefaultDueDateSweeperConfig() DueDateSweeperConfig {
	return DueDateSweeperConfig{
		SweepHour:     1,
		SweepMinute:   0,
		CheckInterval: time.Minute,
	}
}

// DueDateSweeper runs the daily sweep that turns unsettled past-due
// installments OVERDUE. Each obligation is swept in its own transaction, so
// one failure never blocks the rest of the run.
type DueDateSweeper struct {
	source SweepSource
	marker OverdueMarker
	config DueDateSweeperConfig
	logger *zap.Logger

	mu      sync.Mutex
	lastRun time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewDueDateSweeper creates a new DueDateSweeper
func NewDueDateSweeper(source SweepSource, marker OverdueMarker, config DueDateSweeperConfig, logger *zap.Logger) *DueDateSweeper {
	return &DueDateSweeper{
		source: source,
		marker: marker,
		config: config,
		logger: logger,
	}
}

// Start launches the background loop. Call Stop to shut it down.
func (s *DueDateSweeper) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.loop(ctx)
	s.logger.Info("Due date sweeper started",
		zap.Int("sweep_hour", s.config.SweepHour),
		zap.Int("sweep_minute", s.config.SweepMinute),
	)
}

// Stop shuts the loop down and waits for an in-flight sweep to finish
func (s *DueDateSweeper) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	s.wg.Wait()
	s.logger.Info("Due date sweeper stopped")
}

func (s *DueDateSweeper) loop(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if s.shouldRun(now) {
				if _, err := s.RunSweep(ctx, now); err != nil {
					s.logger.Error("Due date sweep failed", zap.Error(err))
				}
			}
		}
	}
}

// shouldRun reports whether the sweep time has been reached and the sweep
// has not yet run today.
func (s *DueDateSweeper) shouldRun(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	target := time.Date(now.Year(), now.Month(), now.Day(), s.config.SweepHour, s.config.SweepMinute, 0, 0, now.Location())
	if now.Before(target) {
		return false
	}
	if !s.lastRun.IsZero() && s.lastRun.Year() == now.Year() && s.lastRun.YearDay() == now.YearDay() {
		return false
	}
	s.lastRun = now
	return true
}

// RunSweep executes one sweep pass and returns how many obligations were
// flagged. Safe to call directly, e.g. from an operational command.
func (s *DueDateSweeper) RunSweep(ctx context.Context, asOf time.Time) (int, error) {
	ids, err := s.source.ListDueObligations(ctx, asOf)
	if err != nil {
		return 0, err
	}

	flagged := 0
	for _, id := range ids {
		changed, err := s.marker.MarkOverdue(ctx, id, asOf)
		if err != nil {
			s.logger.Error("Failed to mark obligation overdue",
				zap.String("obligation_id", id.String()),
				zap.Error(err),
			)
			continue
		}
		if changed {
			flagged++
		}
	}

	s.logger.Info("Due date sweep completed",
		zap.Time("as_of", asOf),
		zap.Int("candidates", len(ids)),
		zap.Int("flagged", flagged),
	)
	return flagged, nil
}
