package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestWait_SameSource_EnforcesMinDelay(t *testing.T) {
	limiter := NewSourceLimiter(100*time.Millisecond, nil)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "upwork"); err != nil {
		t.Fatalf("first wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "upwork"); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	elapsed := time.Since(start)

	// Allow 20ms of timer jitter.
	if elapsed < 80*time.Millisecond {
		t.Errorf("expected >= 80ms wait, got %v", elapsed)
	}
}

func TestWait_DifferentSources_NoCrossBlocking(t *testing.T) {
	limiter := NewSourceLimiter(200*time.Millisecond, nil)
	ctx := context.Background()

	if err := limiter.Wait(ctx, "upwork"); err != nil {
		t.Fatalf("upwork wait: %v", err)
	}

	start := time.Now()
	if err := limiter.Wait(ctx, "weworkremotely"); err != nil {
		t.Fatalf("weworkremotely wait: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("expected near-instant wait, got %v", elapsed)
	}
}

func TestWait_ContextCancellation(t *testing.T) {
	limiter := NewSourceLimiter(5*time.Second, nil)

	if err := limiter.Wait(context.Background(), "upwork"); err != nil {
		t.Fatalf("seed wait: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := limiter.Wait(ctx, "upwork")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("cancellation took too long: %v", elapsed)
	}
}

func TestWait_OverrideDelay(t *testing.T) {
	limiter := NewSourceLimiter(5*time.Second, map[string]time.Duration{"cryptojobslist": 0})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := limiter.Wait(ctx, "cryptojobslist"); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 50*time.Millisecond {
		t.Errorf("zero override should not block, took %v", elapsed)
	}
	if got := limiter.DelayFor("upwork"); got != 5*time.Second {
		t.Errorf("DelayFor(upwork) = %v, want 5s", got)
	}
}

func TestWait_ConcurrentCallersAreSpaced(t *testing.T) {
	limiter := NewSourceLimiter(50*time.Millisecond, nil)
	ctx := context.Background()

	var mu sync.Mutex
	var stamps []time.Time
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := limiter.Wait(ctx, "upwork"); err != nil {
				t.Errorf("wait: %v", err)
				return
			}
			mu.Lock()
			stamps = append(stamps, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	first, last := stamps[0], stamps[0]
	for _, s := range stamps {
		if s.Before(first) {
			first = s
		}
		if s.After(last) {
			last = s
		}
	}
	// Three callers need two full delays between the first and the last.
	if spread := last.Sub(first); spread < 80*time.Millisecond {
		t.Errorf("expected callers spread >= 80ms, got %v", spread)
	}
}
