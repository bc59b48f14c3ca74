package session

import (
	"context"
	"log/slog"
	"time"
)

// Reaper evicts finished and abandoned sessions so a forgotten browser tab
// cannot pin memory and a ticker goroutine forever.
type Reaper struct {
	manager  *Manager
	interval time.Duration
	maxIdle  time.Duration
	logger   *slog.Logger
}

func NewReaper(manager *Manager, interval, maxIdle time.Duration, logger *slog.Logger) *Reaper {
	return &Reaper{
		manager:  manager,
		interval: interval,
		maxIdle:  maxIdle,
		logger:   logger.With("component", "session_reaper"),
	}
}

func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("session reaper started", "interval", r.interval, "max_idle", r.maxIdle)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("session reaper shut down")
			return
		case <-ticker.C:
			if n := r.manager.Reap(r.maxIdle); n > 0 {
				r.logger.Info("reaped sessions", "count", n)
			}
		}
	}
}
