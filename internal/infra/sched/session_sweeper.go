package sched

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"smart-study-buddy/internal/infra/logging"
	"smart-study-buddy/internal/infra/metrics"
)

// Sweeper is satisfied by usecase.Registry.
type Sweeper interface {
	Sweep(cutoff time.Time) int
}

// SessionSweeper periodically drops chat sessions that have gone quiet.
type SessionSweeper struct {
	interval time.Duration
	idle     time.Duration
	sessions Sweeper
	now      func() time.Time
	log      *zerolog.Logger
}

func NewSessionSweeper(interval, idle time.Duration, sessions Sweeper, logger *zerolog.Logger) *SessionSweeper {
	if logger == nil {
		logger = logging.Nop()
	}
	if interval <= 0 {
		interval = time.Minute
	}
	l := logger.With().Str("component", "SessionSweeper").Logger()
	return &SessionSweeper{
		interval: interval,
		idle:     idle,
		sessions: sessions,
		now:      time.Now,
		log:      &l,
	}
}

func (w *SessionSweeper) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.interval).Dur("idle", w.idle).Msg("Starting session sweeper")
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Stopping session sweeper")
			return ctx.Err()
		case <-ticker.C:
			w.SweepOnce()
		}
	}
}

// SweepOnce runs a single pass and returns the number of sessions dropped.
func (w *SessionSweeper) SweepOnce() int {
	n := w.sessions.Sweep(w.now().Add(-w.idle))
	if n > 0 {
		metrics.AddSessionsEvicted(n)
		w.log.Info().Int("count", n).Msg("idle sessions dropped")
	}
	return n
}
