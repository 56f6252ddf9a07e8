// Package janitor expires idle sessions. Redis handles expiry server-side
// through key TTLs, so the janitor only does real work when the backend is
// the in-memory store.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/studyai/studyai/internal/config"
	"github.com/studyai/studyai/internal/store"
)

// Sweeper is implemented by stores that need periodic expiry.
type Sweeper interface {
	Sweep(ttl time.Duration) int
}

// Janitor schedules expiry sweeps against a Sweeper store.
type Janitor struct {
	sweeper  Sweeper
	schedule string
	ttl      time.Duration
}

// New builds a janitor for the given store. Stores that expire entries
// themselves produce an idle janitor.
func New(st store.SessionStore, cfg config.SessionConfig) *Janitor {
	sw, _ := st.(Sweeper)
	return &Janitor{
		sweeper:  sw,
		schedule: cfg.SweepSchedule,
		ttl:      time.Duration(cfg.TTLHours) * time.Hour,
	}
}

// Start runs sweeps on the configured cron schedule until ctx is
// cancelled. It blocks, so callers run it in its own goroutine.
func (j *Janitor) Start(ctx context.Context) error {
	if j.sweeper == nil {
		slog.Debug("janitor idle, store expires sessions itself")
		<-ctx.Done()
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(j.schedule, func() { j.SweepNow() }); err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", j.schedule, err)
	}
	c.Start()
	slog.Info("janitor started", "schedule", j.schedule, "ttl", j.ttl)

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}

// SweepNow runs one sweep immediately and reports how many sessions were
// removed. Zero when the store expires entries itself.
func (j *Janitor) SweepNow() int {
	if j.sweeper == nil {
		return 0
	}
	removed := j.sweeper.Sweep(j.ttl)
	if removed > 0 {
		slog.Info("expired sessions removed", "count", removed)
	}
	return removed
}
