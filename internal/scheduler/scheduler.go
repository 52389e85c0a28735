package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// CycleFunc is invoked once per refresh cycle.
type CycleFunc func(ctx context.Context, at time.Time) error

// Options tune scheduler behaviour.
type Options struct {
	Interval     time.Duration
	RunAtStart   bool
	StartupDelay time.Duration
}

// Scheduler drives periodic refresh cycles. Besides the fixed cadence it
// accepts on-demand kicks, used when the active asset changes and the
// next cycle should not wait out the interval.
type Scheduler struct {
	opts   Options
	kick   chan struct{}
	logger zerolog.Logger
}

// New constructs a Scheduler instance.
func New(opts Options, logger zerolog.Logger) *Scheduler {
	if opts.Interval <= 0 {
		panic("scheduler interval must be positive")
	}
	return &Scheduler{
		opts:   opts,
		kick:   make(chan struct{}, 1),
		logger: logger.With().Str("component", "scheduler").Logger(),
	}
}

// Kick requests an immediate cycle. Safe to call from any goroutine; a
// kick while one is already pending is coalesced.
func (s *Scheduler) Kick() {
	select {
	case s.kick <- struct{}{}:
	default:
	}
}

// Run blocks, invoking the cycle function on each interval and on each
// kick until ctx is cancelled. Cycle errors are logged, never fatal.
func (s *Scheduler) Run(ctx context.Context, cycle CycleFunc) error {
	if s.opts.StartupDelay > 0 {
		timer := time.NewTimer(s.opts.StartupDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	if s.opts.RunAtStart {
		s.execute(ctx, cycle)
	}

	ticker := time.NewTicker(s.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.execute(ctx, cycle)
		case <-s.kick:
			s.logger.Debug().Msg("on-demand refresh requested")
			s.execute(ctx, cycle)
			ticker.Reset(s.opts.Interval)
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, cycle CycleFunc) {
	at := time.Now().UTC()
	s.logger.Debug().Time("cycle", at).Msg("executing refresh cycle")
	if err := cycle(ctx, at); err != nil {
		s.logger.Error().Err(err).Time("cycle", at).Msg("refresh cycle failed")
	}
}
