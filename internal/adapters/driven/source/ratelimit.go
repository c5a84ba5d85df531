package source

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/custodia-labs/metasync/internal/core/domain"
	"github.com/custodia-labs/metasync/internal/core/ports/driven"
)

// DefaultBackoff is the pause after the store throttles a request.
const DefaultBackoff = 5 * time.Second

// Ensure RateLimited implements the interface.
var _ driven.ObjectSource = (*RateLimited)(nil)

// RateLimitConfig holds rate limiting configuration for a source.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate. Zero or less means unlimited.
	RequestsPerSecond float64

	// BurstSize is the maximum burst size.
	BurstSize int

	// Backoff is the pause after a throttled request. Defaults to DefaultBackoff.
	Backoff time.Duration
}

// RateLimited caps the request rate of an ObjectSource with a token bucket
// and pauses all requests after the store reports throttling.
type RateLimited struct {
	next    driven.ObjectSource
	limiter *rate.Limiter
	backoff time.Duration

	mu      sync.Mutex
	retryAt time.Time
	now     func() time.Time
}

// NewRateLimited wraps next with the given limits.
func NewRateLimited(next driven.ObjectSource, cfg RateLimitConfig) *RateLimited {
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.BurstSize
	if burst < 1 {
		burst = 1
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = DefaultBackoff
	}
	return &RateLimited{
		next:    next,
		limiter: rate.NewLimiter(limit, burst),
		backoff: backoff,
		now:     time.Now,
	}
}

// ObjectMetadata waits for the rate limit and delegates.
// A throttled response is returned to the caller and delays later calls.
func (r *RateLimited) ObjectMetadata(
	ctx context.Context, account, container, name string, preferNewest bool,
) (domain.ObjectMetadata, error) {
	if err := r.Wait(ctx); err != nil {
		return nil, err
	}

	meta, err := r.next.ObjectMetadata(ctx, account, container, name, preferNewest)
	if errors.Is(err, domain.ErrRateLimited) {
		r.RecordRateLimitError()
	}
	return meta, err
}

// Wait blocks until a request can be made without exceeding the rate limit.
// It also respects any backoff period set by RecordRateLimitError.
func (r *RateLimited) Wait(ctx context.Context) error {
	r.mu.Lock()
	retryAt := r.retryAt
	now := r.now()
	r.mu.Unlock()

	if now.Before(retryAt) {
		timer := time.NewTimer(retryAt.Sub(now))
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	return r.limiter.Wait(ctx)
}

// RecordRateLimitError starts a backoff period.
func (r *RateLimited) RecordRateLimitError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retryAt = r.now().Add(r.backoff)
}

// allow reports whether a request could be made now without blocking.
func (r *RateLimited) allow() bool {
	r.mu.Lock()
	retryAt := r.retryAt
	now := r.now()
	r.mu.Unlock()

	if now.Before(retryAt) {
		return false
	}
	return r.limiter.Allow()
}
