package ai

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// RateLimited throttles calls to the wrapped provider.
type RateLimited struct {
	next    Provider
	limiter *rate.Limiter
}

// NewRateLimited allows perMinute calls per minute with a burst of one.
// A non-positive perMinute disables throttling and returns next unchanged.
func NewRateLimited(next Provider, perMinute int) Provider {
	if perMinute <= 0 {
		return next
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
	}
}

func (r *RateLimited) Complete(ctx context.Context, systemPrompt, userPrompt string, opts Options) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", NewProviderError(r.next.Name(), err, true)
	}
	return r.next.Complete(ctx, systemPrompt, userPrompt, opts)
}

func (r *RateLimited) Name() string  { return r.next.Name() }
func (r *RateLimited) Model() string { return r.next.Model() }
