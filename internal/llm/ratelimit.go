package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// rateLimited delays requests so a provider sees at most the configured rate.
type rateLimited struct {
	next    Generator
	limiter *rate.Limiter
}

// WithRateLimit wraps next with a token bucket allowing requestsPerMinute
// requests with a burst of one. A non-positive rate returns next unchanged.
func WithRateLimit(next Generator, requestsPerMinute float64) Generator {
	if requestsPerMinute <= 0 {
		return next
	}
	return &rateLimited{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(requestsPerMinute/60), 1),
	}
}

// Generate implements Generator.
func (r *rateLimited) Generate(ctx context.Context, prompt string) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return r.next.Generate(ctx, prompt)
}
