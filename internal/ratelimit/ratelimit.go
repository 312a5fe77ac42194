package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// SourceLimiter enforces a polite minimum delay between consecutive requests
// to the same job board. Requests to different boards never block each other.
type SourceLimiter struct {
	mu        sync.Mutex
	next      map[string]time.Time // key: source name, earliest time of the next request
	minDelay  time.Duration
	overrides map[string]time.Duration
}

// NewSourceLimiter creates a limiter with a default delay and optional
// per-source overrides.
func NewSourceLimiter(minDelay time.Duration, overrides map[string]time.Duration) *SourceLimiter {
	o := make(map[string]time.Duration, len(overrides))
	for k, v := range overrides {
		o[k] = v
	}
	return &SourceLimiter{
		next:      make(map[string]time.Time),
		minDelay:  minDelay,
		overrides: o,
	}
}

// DelayFor returns the delay applied to the given source.
func (l *SourceLimiter) DelayFor(source string) time.Duration {
	if d, ok := l.overrides[source]; ok {
		return d
	}
	return l.minDelay
}

// Wait blocks until the source may be contacted again. The slot is reserved
// before sleeping so concurrent callers for one source queue up in order.
func (l *SourceLimiter) Wait(ctx context.Context, source string) error {
	delay := l.DelayFor(source)

	l.mu.Lock()
	now := time.Now()
	slot := now
	if next, ok := l.next[source]; ok && next.After(now) {
		slot = next
	}
	l.next[source] = slot.Add(delay)
	l.mu.Unlock()

	remaining := slot.Sub(now)
	if remaining <= 0 {
		return nil
	}

	timer := time.NewTimer(remaining)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return fmt.Errorf("rate limiter wait for %s: %w", source, ctx.Err())
	case <-timer.C:
		return nil
	}
}
