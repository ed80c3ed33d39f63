package service

import (
	"log/slog"
	"time"

	"github.com/momentum-app/momentum-backend/internal/repository"
)

// SessionCleaner sweeps expired refresh sessions on an interval.
// Expired rows are already invisible to lookups, so the sweep is purely
// about table growth.
type SessionCleaner struct {
	sessions repository.SessionRepository
	interval time.Duration
	logger   *slog.Logger
}

func NewSessionCleaner(sessions repository.SessionRepository, interval time.Duration, logger *slog.Logger) *SessionCleaner {
	if interval <= 0 {
		interval = time.Hour
	}
	return &SessionCleaner{sessions: sessions, interval: interval, logger: logger}
}

// Start launches the sweep loop and returns a stop function. Stop
// blocks until the loop has exited.
func (c *SessionCleaner) Start() func() {
	ticker := time.NewTicker(c.interval)
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
		<-stopped
	}
}

func (c *SessionCleaner) sweep() {
	removed, err := c.sessions.DeleteExpired(time.Now())
	if err != nil {
		c.logger.Warn("session sweep failed", "error", err.Error())
		return
	}
	if removed > 0 {
		c.logger.Info("expired sessions removed", "count", removed)
	}
}
