// Package retention removes sessions whose last activity is older than the
// retention window.
package retention

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const DefaultInterval = time.Hour

// Sweeper is the part of a session store the scheduler needs.
type Sweeper interface {
	SweepExpired(ctx context.Context, cutoff time.Time) (int, error)
}

// Scheduler wraps robfig/cron and runs the sweep on a fixed interval.
type Scheduler struct {
	cron    *cron.Cron
	store   Sweeper
	window  time.Duration
	spec    string
	logger  *zap.Logger
	now     func() time.Time
	running chan struct{}
}

// New creates a Scheduler that sweeps every interval.
func New(store Sweeper, window, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Scheduler{
		cron:    cron.New(),
		store:   store,
		window:  window,
		spec:    fmt.Sprintf("@every %s", interval),
		logger:  log.With(zap.String("component", "retention")),
		now:     time.Now,
		running: make(chan struct{}, 1),
	}
}

// Start registers the sweep and starts the scheduler. One sweep runs
// immediately so a restart does not wait a full interval.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.run(ctx) }); err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("retention cron started", zap.String("spec", s.spec), zap.Duration("window", s.window))

	go s.run(ctx)
	return nil
}

// Stop stops the scheduler and waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("retention cron stopped")
}

// Sweep removes expired sessions once.
func (s *Scheduler) Sweep(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.window)
	removed, err := s.store.SweepExpired(ctx, cutoff)
	if err != nil {
		return removed, fmt.Errorf("sweep sessions older than %s: %w", cutoff.Format(time.RFC3339), err)
	}
	return removed, nil
}

func (s *Scheduler) run(ctx context.Context) {
	select {
	case s.running <- struct{}{}:
		defer func() { <-s.running }()
	default:
		s.logger.Debug("retention sweep already running")
		return
	}

	removed, err := s.Sweep(ctx)
	if err != nil {
		s.logger.Error("retention sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("expired sessions removed", zap.Int("count", removed))
		return
	}
	s.logger.Debug("no expired sessions")
}
