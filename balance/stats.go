package balance

import (
	"time"

	"go.uber.org/atomic"
)

// Stats counts what a session has seen. It is safe to read from other
// goroutines while the session runs.
type Stats struct {
	frames   atomic.Int64
	errors   atomic.Int64
	unstable atomic.Int64
	last     atomic.Time
}

// StatsSnapshot is a point-in-time copy of Stats
type StatsSnapshot struct {
	Frames   int64
	Errors   int64
	Unstable int64
	LastAt   time.Time
}

func (s *Stats) observe(rec Record, at time.Time) {
	s.frames.Inc()
	if rec.Error {
		s.errors.Inc()
	}
	if rec.Unstable {
		s.unstable.Inc()
	}
	s.last.Store(at)
}

// Snapshot returns the current counters
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		Frames:   s.frames.Load(),
		Errors:   s.errors.Load(),
		Unstable: s.unstable.Load(),
		LastAt:   s.last.Load(),
	}
}
