// Package jobs runs background maintenance work for the API process.
package jobs

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/AgongaAlpha/vanguardescrow-api/internal/core/ports"
)

const defaultSweepInterval = 15 * time.Minute

// SessionSweeper periodically deletes expired sessions. Expired tokens are
// already rejected by authentication; sweeping only bounds table growth.
type SessionSweeper struct {
	sessions ports.SessionRepository
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewSessionSweeper(sessions ports.SessionRepository, interval time.Duration, log zerolog.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		now:      func() time.Time { return time.Now().UTC() },
		log:      log,
	}
}

// Start runs the sweeper in its own goroutine until ctx is cancelled. The
// returned channel is closed once the goroutine exits.
func (s *SessionSweeper) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.run(ctx)
	}()
	return done
}

func (s *SessionSweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info().Dur("interval", s.interval).Msg("session sweeper started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("session sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs a single pass and returns the number of sessions removed.
func (s *SessionSweeper) Sweep(ctx context.Context) int64 {
	n, err := s.sessions.DeleteExpired(ctx, s.now())
	if err != nil {
		s.log.Error().Err(err).Msg("failed to sweep expired sessions")
		return 0
	}
	if n > 0 {
		s.log.Debug().Int64("deleted", n).Msg("expired sessions swept")
	}
	return n
}
