package scheduler

import (
	"context"
	"sync"
	"time"

	"auctionhub/utils"
)

// ListingSweeper force-closes overdue listings. Implemented by the
// auction service; failures on individual listings are isolated inside
// the sweep itself.
type ListingSweeper interface {
	ExpireOverdue() (int, error)
}

// SessionSweeper removes idle-expired sessions.
type SessionSweeper interface {
	SweepExpired() int
}

// Config holds scheduler configuration.
type Config struct {
	Interval time.Duration // sweep period (default: 2m)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{Interval: 2 * time.Minute}
}

// Scheduler drives lifecycle sweeps on a fixed period, independent of
// request traffic. It is constructed once at startup and started and
// stopped explicitly.
type Scheduler struct {
	cfg      Config
	listings ListingSweeper
	sessions SessionSweeper

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Scheduler. sessions may be nil when only listing
// expiry is wanted.
func New(cfg Config, listings ListingSweeper, sessions SessionSweeper) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Scheduler{
		cfg:      cfg,
		listings: listings,
		sessions: sessions,
	}
}

// Start begins the sweep loop. The first sweep runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.run()

	utils.Info("lifecycle scheduler started", map[string]any{
		"interval": s.cfg.Interval.String(),
	})
}

// Stop shuts the scheduler down, waiting for an in-flight sweep to
// finish unless ctx expires first.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		utils.Info("lifecycle scheduler stopped", nil)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the sweep loop goroutine.
func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.sweep()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

// sweep runs one tick. Errors are logged, never propagated; the next
// tick always happens.
func (s *Scheduler) sweep() {
	start := time.Now()

	expired, err := s.listings.ExpireOverdue()
	if err != nil {
		utils.Error("listing expiry sweep failed", map[string]any{"error": err.Error()})
	}

	sessionsRemoved := 0
	if s.sessions != nil {
		sessionsRemoved = s.sessions.SweepExpired()
	}

	if expired > 0 || sessionsRemoved > 0 {
		utils.Info("sweep complete", map[string]any{
			"listings_expired": expired,
			"sessions_removed": sessionsRemoved,
			"duration":         time.Since(start).String(),
		})
	}
}
