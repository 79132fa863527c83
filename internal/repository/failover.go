package repository

import (
	"context"
	"sync"
	"time"

	"shareit/internal/domain"
	"shareit/internal/metrics"
	"shareit/internal/worker"

	"github.com/rs/zerolog"
)

// FailoverRateLimiter serves from primary until it errors, then from
// fallback. The primary is retried on an exponential backoff schedule.
type FailoverRateLimiter struct {
	primary  domain.RateLimitRepository
	fallback domain.RateLimitRepository
	logger   *zerolog.Logger
	policy   worker.RetryPolicy
	now      func() time.Time

	mu        sync.Mutex
	isDown    bool
	attempts  int
	nextRetry time.Time
}

func NewFailoverRateLimiter(primary, fallback domain.RateLimitRepository, policy worker.RetryPolicy, logger *zerolog.Logger) *FailoverRateLimiter {
	metrics.SetLimiterPrimary(true)
	return &FailoverRateLimiter{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
		policy:   policy,
		now:      time.Now,
	}
}

func (r *FailoverRateLimiter) CheckRateLimit(ctx context.Context, actorID int64, limit int, window time.Duration) (bool, error) {
	if r.shouldTryPrimary() {
		allowed, err := r.primary.CheckRateLimit(ctx, actorID, limit, window)
		if err == nil {
			r.markUp()
			return allowed, nil
		}
		r.markDown(err)
	}

	return r.fallback.CheckRateLimit(ctx, actorID, limit, window)
}

// IsDown reports whether requests are currently served by the fallback.
func (r *FailoverRateLimiter) IsDown() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.isDown
}

func (r *FailoverRateLimiter) shouldTryPrimary() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return !r.isDown || !r.now().Before(r.nextRetry)
}

func (r *FailoverRateLimiter) markUp() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.isDown {
		r.logger.Info().Int("attempts", r.attempts).Msg("Primary rate limiter recovered")
		metrics.SetLimiterPrimary(true)
	}
	r.isDown = false
	r.attempts = 0
}

func (r *FailoverRateLimiter) markDown(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts++
	delay := r.policy.NextDelay(r.attempts)
	r.nextRetry = r.now().Add(delay)
	if !r.isDown {
		r.logger.Error().Err(err).Msg("Primary rate limiter failed, falling back to memory")
		metrics.SetLimiterPrimary(false)
	} else {
		r.logger.Warn().Err(err).Dur("retry_in", delay).Msg("Primary rate limiter still unavailable")
	}
	r.isDown = true
}
