package nudge

import (
	"context"
	"log/slog"
	"time"
)

// Scheduler drives the engine on a sleep-after-work cadence: the next wait
// starts only after the previous tick finished, so slow ticks never overlap.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	log      *slog.Logger

	done chan struct{}
}

func NewScheduler(engine *Engine, interval time.Duration, log *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:   engine,
		interval: interval,
		log:      log.With("component", "nudge_scheduler"),
		done:     make(chan struct{}),
	}
}

// Run blocks until ctx is cancelled. The in-flight tick is allowed to notice
// cancellation on its own; Run returns once it has.
func (s *Scheduler) Run(ctx context.Context) {
	defer close(s.done)

	s.log.Info("scheduler started", "interval", s.interval.String())

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("scheduler stopped")
			return
		case <-timer.C:
		}

		s.engine.Tick(ctx)
		timer.Reset(s.interval)
	}
}

// Wait blocks until Run has returned.
func (s *Scheduler) Wait() {
	<-s.done
}
