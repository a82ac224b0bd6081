package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler drives the reminder sweeps on a fixed cadence. One sweep pass
// runs immediately at Start so a freshly deployed worker catches up without
// waiting a full interval.
type Scheduler struct {
	svc      *Service
	interval time.Duration
	log      zerolog.Logger

	// now and trigger exist so tests can drive sweeps deterministically.
	now     func() time.Time
	trigger <-chan time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

func NewScheduler(svc *Service, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		svc:      svc,
		interval: interval,
		log:      log.With().Str("component", "reminder-scheduler").Logger(),
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the sweep loop in its own goroutine. It returns
// immediately; call Stop or cancel ctx to end the loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		go s.run(ctx)
	})
}

// Stop ends the loop and blocks until the in-flight sweep, if any, returns.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
	<-s.done
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)

	s.log.Info().Dur("interval", s.interval).Msg("reminder scheduler started")
	s.RunSweeps(ctx, s.now())

	trigger := s.trigger
	if trigger == nil {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		trigger = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("reminder scheduler stopped, context cancelled")
			return
		case <-s.stop:
			s.log.Info().Msg("reminder scheduler stopped")
			return
		case t := <-trigger:
			s.RunSweeps(ctx, t)
		}
	}
}

// RunSweeps executes both reminder sweeps for the given wall-clock moment.
// A failure in one sweep does not stop the other.
func (s *Scheduler) RunSweeps(ctx context.Context, now time.Time) {
	if _, err := s.svc.Run24hSweep(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("24h sweep failed")
	}
	if _, err := s.svc.Run2hSweep(ctx, now); err != nil {
		s.log.Error().Err(err).Msg("2h sweep failed")
	}
}
