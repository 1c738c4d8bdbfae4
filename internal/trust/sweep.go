package trust

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/internal/apperr"
	"github.com/creaverse/dao-rewards/pkg/logging"
)

// ActiveUsers lists users with recent activity
type ActiveUsers interface {
	ActiveProfileIDs(ctx context.Context, since time.Time, limit int) ([]string, error)
}

// Sweep periodically re-evaluates the trust of recently active users so
// flags are raised without waiting for the next claim
type Sweep struct {
	estimator *Estimator
	active    ActiveUsers
	interval  time.Duration
	window    time.Duration
	batch     int
	logger    *zap.Logger
}

// SweepStats summarizes one pass
type SweepStats struct {
	Evaluated int
	Flagged   int
	Failed    int
}

// NewSweep creates a new trust sweep
func NewSweep(estimator *Estimator, active ActiveUsers, interval, window time.Duration, batch int) *Sweep {
	if interval <= 0 {
		interval = time.Hour
	}
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	if batch <= 0 {
		batch = 500
	}
	return &Sweep{
		estimator: estimator,
		active:    active,
		interval:  interval,
		window:    window,
		batch:     batch,
		logger:    logging.WithComponent("trust-sweep"),
	}
}

// Run sweeps until ctx is cancelled
func (s *Sweep) Run(ctx context.Context) error {
	s.logger.Info("Starting trust sweep",
		zap.Duration("interval", s.interval),
		zap.Duration("window", s.window),
		zap.Int("batch", s.batch))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			stats, err := s.Once(ctx)
			if err != nil {
				s.logger.Error("Trust sweep failed", zap.Error(err))
			} else {
				s.logger.Info("Trust sweep finished",
					zap.Int("evaluated", stats.Evaluated),
					zap.Int("flagged", stats.Flagged),
					zap.Int("failed", stats.Failed))
			}
			s.wait(ctx)
		}
	}
}

// Once re-evaluates every user active within the window. A failure on one
// user is logged and counted; only listing the users fails the pass.
func (s *Sweep) Once(ctx context.Context) (SweepStats, error) {
	var stats SweepStats

	since := s.estimator.now().Add(-s.window)
	ids, err := s.active.ActiveProfileIDs(ctx, since, s.batch)
	if err != nil {
		return stats, apperr.Wrap(apperr.KindInternal, "trust.Sweep", "failed to list active users", err)
	}

	for _, id := range ids {
		if ctx.Err() != nil {
			return stats, ctx.Err()
		}
		rec, err := s.estimator.Estimate(ctx, id, "", nil)
		if err != nil {
			stats.Failed++
			s.logger.Warn("Trust re-evaluation failed", logging.UserField(id), zap.Error(err))
			continue
		}
		stats.Evaluated++
		if rec.IsFlagged {
			stats.Flagged++
		}
	}
	return stats, nil
}

// wait waits for the interval or until context is cancelled
func (s *Sweep) wait(ctx context.Context) {
	timer := time.NewTimer(s.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
