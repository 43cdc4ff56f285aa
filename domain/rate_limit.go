package domain

import (
	"time"
)

type CounterEntry struct {
	Key     string
	Count   int
	ResetAt time.Time
}

// Expired reports whether the window is over: a window covers [start, ResetAt).
func (e CounterEntry) Expired(now time.Time) bool {
	return !now.Before(e.ResetAt)
}

type RateLimitResult struct {
	Allow      bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RetryAfterSeconds rounds RetryAfter up to whole seconds.
func (r RateLimitResult) RetryAfterSeconds() int64 {
	if r.RetryAfter <= 0 {
		return 0
	}
	seconds := int64(r.RetryAfter / time.Second)
	if r.RetryAfter%time.Second != 0 {
		seconds++
	}
	return seconds
}
