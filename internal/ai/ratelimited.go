package ai

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitedProvider throttles calls to an LLMProvider with a token bucket.
type RateLimitedProvider struct {
	inner   LLMProvider
	limiter *rate.Limiter
}

// NewRateLimitedProvider allows requestsPerMinute calls per minute with a
// burst of one. A non-positive rate returns inner unchanged.
func NewRateLimitedProvider(inner LLMProvider, requestsPerMinute int) LLMProvider {
	if requestsPerMinute <= 0 {
		return inner
	}
	every := rate.Every(time.Minute / time.Duration(requestsPerMinute))
	return &RateLimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(every, 1),
	}
}

// Complete waits for a token, then delegates.
func (p *RateLimitedProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("llm rate limiter: %w", err)
	}
	return p.inner.Complete(ctx, prompt)
}
