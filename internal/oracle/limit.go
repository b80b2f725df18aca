package oracle

import (
	"context"

	"golang.org/x/time/rate"
)

// LimitedProvider throttles calls to a wrapped provider. External oracle
// APIs enforce request-per-second quotas; hitting them turns into queuing
// here instead of failed calls there.
type LimitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewLimited wraps a provider with a rate limiter. A non-positive rate
// disables throttling.
func NewLimited(inner Provider, requestsPerSecond float64, burst int) Provider {
	if requestsPerSecond <= 0 {
		return inner
	}
	if burst <= 0 {
		burst = 1
	}
	return &LimitedProvider{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// Name returns the wrapped provider's name.
func (l *LimitedProvider) Name() string {
	return l.inner.Name()
}

// IsAvailable defers to the wrapped provider without consuming quota.
func (l *LimitedProvider) IsAvailable(ctx context.Context) bool {
	return l.inner.IsAvailable(ctx)
}

// Judge waits for quota before calling through.
func (l *LimitedProvider) Judge(ctx context.Context, req JudgeRequest) (*Judgment, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.Judge(ctx, req)
}

// Extract waits for quota before calling through.
func (l *LimitedProvider) Extract(ctx context.Context, req ExtractRequest) ([]ExtractedClaim, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return l.inner.Extract(ctx, req)
}
