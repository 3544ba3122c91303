// Package policy holds the write-admission rules: the per-caller
// sliding-window limiter and the per-phone posting cooldown. Both are
// constructed explicitly and injected; nothing here is package-level state.
package policy

import (
	"context"
	"sync"
	"time"
)

// WindowLimiter is a process-local sliding-window counter keyed by a caller
// identifier (typically the client IP). It resets on restart and is not
// shared across instances; it is abuse mitigation, not a security boundary.
type WindowLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	entries map[string]*windowEntry
	now     func() time.Time
}

type windowEntry struct {
	count int
	start time.Time
}

// NewWindowLimiter returns a limiter admitting limit calls per window per
// key.
func NewWindowLimiter(limit int, window time.Duration) *WindowLimiter {
	return &WindowLimiter{
		limit:   limit,
		window:  window,
		entries: make(map[string]*windowEntry),
		now:     time.Now,
	}
}

// Allow records an admission attempt for key and reports whether it is
// within the window's budget. A fresh or elapsed window resets to count 1.
func (l *WindowLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	e, ok := l.entries[key]
	if !ok || now.Sub(e.start) >= l.window {
		l.entries[key] = &windowEntry{count: 1, start: now}
		return true
	}
	if e.count < l.limit {
		e.count++
		return true
	}
	return false
}

// Sweep drops entries whose window has elapsed, bounding memory growth.
func (l *WindowLimiter) Sweep() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for key, e := range l.entries {
		if now.Sub(e.start) >= l.window {
			delete(l.entries, key)
		}
	}
}

// Janitor sweeps on a fixed interval until ctx is cancelled.
func (l *WindowLimiter) Janitor(ctx context.Context, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			l.Sweep()
		}
	}
}

// Cooldown decides whether a phone that last posted at a given time may
// post again. Only the most recent listing for the phone counts.
type Cooldown struct {
	window time.Duration
	now    func() time.Time
}

// NewCooldown returns a cooldown spanning the given number of days.
func NewCooldown(days int) *Cooldown {
	return &Cooldown{
		window: time.Duration(days) * 24 * time.Hour,
		now:    time.Now,
	}
}

// RemainingDays returns how many whole days remain before the phone behind
// lastCreated may post again. Zero or negative means the cooldown is clear.
func (c *Cooldown) RemainingDays(lastCreated time.Time) int {
	elapsedDays := int(c.now().Sub(lastCreated).Hours() / 24)
	return int(c.window.Hours()/24) - elapsedDays
}
