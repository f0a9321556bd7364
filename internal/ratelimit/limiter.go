// Package ratelimit bounds the number of outgoing requests per time unit.
package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// ErrInvalidLimit is returned for a non-positive request limit or interval.
var ErrInvalidLimit = errors.New("request limit and interval must be positive")

// Limiter admits at most limit requests in any interval-long window. It keeps
// the times of the last limit grants in a ring; a new grant waits until the
// oldest of them has left the window. Callers over the limit block in Acquire
// on a timer until a slot frees up. It is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	grants   []time.Time // ring, grants[next] is the oldest
	next     int
	limit    int
	interval time.Duration
	now      func() time.Time
}

// New creates a limiter that admits requestLimit requests per interval.
// The first requestLimit calls never wait.
func New(interval time.Duration, requestLimit int) (*Limiter, error) {
	if requestLimit <= 0 || interval <= 0 {
		return nil, fmt.Errorf("%w: limit=%d interval=%s", ErrInvalidLimit, requestLimit, interval)
	}
	return &Limiter{
		grants:   make([]time.Time, requestLimit),
		limit:    requestLimit,
		interval: interval,
		now:      time.Now,
	}, nil
}

// reserve takes a slot if one is free and returns 0, or returns how long the
// caller must wait before trying again.
func (l *Limiter) reserve() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	oldest := l.grants[l.next]
	if !oldest.IsZero() {
		if elapsed := now.Sub(oldest); elapsed < l.interval {
			return l.interval - elapsed
		}
	}
	l.grants[l.next] = now
	l.next = (l.next + 1) % l.limit
	return 0
}

// Acquire blocks until a request may proceed or ctx is done.
func (l *Limiter) Acquire(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		wait := l.reserve()
		if wait == 0 {
			return nil
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// TryAcquire takes a slot if one is free right now and reports whether it did.
func (l *Limiter) TryAcquire() bool {
	return l.reserve() == 0
}

// Limit returns the number of requests admitted per interval.
func (l *Limiter) Limit() int { return l.limit }

// Interval returns the window length.
func (l *Limiter) Interval() time.Duration { return l.interval }

var unitDurations = map[string]time.Duration{
	"NANOSECONDS":  time.Nanosecond,
	"MICROSECONDS": time.Microsecond,
	"MILLISECONDS": time.Millisecond,
	"SECONDS":      time.Second,
	"MINUTES":      time.Minute,
	"HOURS":        time.Hour,
	"DAYS":         24 * time.Hour,
}

// UnitDuration converts a time unit name (SECONDS, minutes, ...) or a Go
// duration string ("1s", "500ms") into a duration.
func UnitDuration(unit string) (time.Duration, error) {
	if d, ok := unitDurations[strings.ToUpper(strings.TrimSpace(unit))]; ok {
		return d, nil
	}
	d, err := time.ParseDuration(unit)
	if err != nil {
		return 0, fmt.Errorf("unknown time unit %q", unit)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: interval=%s", ErrInvalidLimit, d)
	}
	return d, nil
}
