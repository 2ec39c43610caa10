// Package ratelimit paces outbound metadata and AI calls: a per-source
// minimum interval plus a process-wide hourly request budget shared by every
// source. The gate is injected into the reconciler rather than accessed as
// ambient state so tests can drive it with a fake clock.
package ratelimit

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"time"
)

// Gate enforces pacing across all outbound lookups.
type Gate struct {
	mu           sync.Mutex
	minIntervals map[string]time.Duration
	lastCall     map[string]time.Time

	budget      int
	windowStart time.Time
	usedInWin   int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// Option customizes a Gate.
type Option func(*Gate)

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(g *Gate) {
		if now != nil {
			g.now = now
		}
	}
}

// WithSleeper overrides how waits are performed (for tests).
func WithSleeper(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(g *Gate) {
		if sleep != nil {
			g.sleep = sleep
		}
	}
}

// NewGate constructs a gate with a fixed hourly budget and per-source
// minimum intervals in milliseconds. A budget of zero disables the budget
// check; a missing source interval means no per-source pacing.
func NewGate(requestsPerHour int, minDelayMS map[string]int, opts ...Option) *Gate {
	gate := &Gate{
		minIntervals: make(map[string]time.Duration, len(minDelayMS)),
		lastCall:     make(map[string]time.Time),
		budget:       requestsPerHour,
		now:          time.Now,
		sleep:        SleepWithContext,
	}
	for source, ms := range minDelayMS {
		if ms > 0 {
			gate.minIntervals[strings.ToLower(source)] = time.Duration(ms) * time.Millisecond
		}
	}
	for _, opt := range opts {
		opt(gate)
	}
	gate.windowStart = gate.now()
	return gate
}

// Reconfigure swaps in a new hourly budget and per-source minimum intervals
// without resetting the current window or the per-source call history, so an
// operator tightening the budget mid-window cannot grant extra requests.
func (g *Gate) Reconfigure(requestsPerHour int, minDelayMS map[string]int) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.budget = requestsPerHour
	g.minIntervals = make(map[string]time.Duration, len(minDelayMS))
	for source, ms := range minDelayMS {
		if ms > 0 {
			g.minIntervals[strings.ToLower(source)] = time.Duration(ms) * time.Millisecond
		}
	}
}

// Wait blocks until the named source may issue its next request, consuming
// one unit of the hourly budget. It returns early with the context's error
// on cancellation.
func (g *Gate) Wait(ctx context.Context, source string) error {
	for {
		delay, ok := g.reserve(source)
		if ok {
			return nil
		}
		if err := g.sleep(ctx, delay); err != nil {
			return err
		}
	}
}

// reserve either claims a slot (true) or reports how long to wait before
// trying again (false).
func (g *Gate) reserve(source string) (time.Duration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if elapsed := now.Sub(g.windowStart); elapsed >= time.Hour {
		g.windowStart = now
		g.usedInWin = 0
	}
	if g.budget > 0 && g.usedInWin >= g.budget {
		remaining := g.windowStart.Add(time.Hour).Sub(now)
		if remaining < time.Second {
			remaining = time.Second
		}
		return remaining, false
	}

	key := strings.ToLower(source)
	if interval, ok := g.minIntervals[key]; ok {
		if last, seen := g.lastCall[key]; seen {
			if wait := interval - now.Sub(last); wait > 0 {
				return wait, false
			}
		}
	}

	g.lastCall[key] = now
	g.usedInWin++
	return 0, true
}

// Remaining reports how much of the hourly budget is left, for status
// output. Zero budget reports -1 (unlimited).
func (g *Gate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.budget <= 0 {
		return -1
	}
	if g.now().Sub(g.windowStart) >= time.Hour {
		return g.budget
	}
	left := g.budget - g.usedInWin
	if left < 0 {
		left = 0
	}
	return left
}

// SleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsRetriable reports whether err represents a transient condition that
// warrants an automatic retry (rate limits, timeouts, connection errors).
func IsRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "429") || strings.Contains(message, "rate limit") {
		return true
	}
	for _, code := range []string{"502", "503", "504"} {
		if strings.Contains(message, code) {
			return true
		}
	}
	transientTokens := []string{
		"timeout",
		"deadline exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"awaiting headers",
	}
	for _, token := range transientTokens {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
