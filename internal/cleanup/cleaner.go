package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper discards forms idle for longer than the given duration
type Sweeper interface {
	Sweep(idle time.Duration) int
}

// Cleaner handles periodic cleanup of abandoned intake forms
type Cleaner struct {
	forms    Sweeper
	interval time.Duration
	idle     time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(forms Sweeper, interval, idle time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if idle <= 0 {
		idle = 2 * time.Hour
	}

	return &Cleaner{
		forms:    forms,
		interval: interval,
		idle:     idle,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the cleanup worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval, "idle", c.idle)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.cleanup()
		}
	}
}

// cleanup removes forms nobody touched within the idle window
func (c *Cleaner) cleanup() int {
	slog.Debug("running cleanup cycle")

	removed := c.forms.Sweep(c.idle)
	if removed == 0 {
		slog.Debug("no idle forms found")
		return 0
	}

	slog.Info("idle forms discarded", "count", removed, "idle", c.idle)
	return removed
}
