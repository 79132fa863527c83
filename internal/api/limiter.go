package api

import (
	"context"
	"sync"
	"time"

	"shareit/internal/config"
	"shareit/internal/domain"
	"shareit/internal/metrics"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const defaultBurst = 5

// rateLimiter keeps one token bucket per client key.
type rateLimiter struct {
	limiters sync.Map
	cfg      config.APIRateLimitConfig
}

func newRateLimiter(cfg config.APIRateLimitConfig) *rateLimiter {
	return &rateLimiter{cfg: cfg}
}

func (l *rateLimiter) allow(key string) bool {
	if l.cfg.RPS <= 0 {
		return true
	}
	return l.getLimiter(key).Allow()
}

func (l *rateLimiter) getLimiter(key string) *rate.Limiter {
	if v, ok := l.limiters.Load(key); ok {
		if lim, ok := v.(*rate.Limiter); ok {
			return lim
		}
	}

	burst := l.cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}

	lim := rate.NewLimiter(rate.Limit(l.cfg.RPS), burst)
	actual, loaded := l.limiters.LoadOrStore(key, lim)
	if loaded {
		if actualLim, ok := actual.(*rate.Limiter); ok {
			return actualLim
		}
	}
	return lim
}

// WriteLimiter caps booking and item writes per actor within a fixed window.
// Counter store failures let the write through.
type WriteLimiter struct {
	repo   domain.RateLimitRepository
	limit  int
	window time.Duration
	logger *zerolog.Logger
}

func NewWriteLimiter(repo domain.RateLimitRepository, cfg config.BookingConfig, logger *zerolog.Logger) *WriteLimiter {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &WriteLimiter{
		repo:   repo,
		limit:  cfg.WriteLimit,
		window: time.Duration(cfg.WriteWindow) * time.Second,
		logger: logger,
	}
}

const (
	limiterOff      = "off"
	limiterPrimary  = "primary"
	limiterFallback = "fallback"
)

// Mode reports which counter store currently serves writes.
func (l *WriteLimiter) Mode() string {
	if l == nil || l.repo == nil || l.limit <= 0 || l.window <= 0 {
		return limiterOff
	}
	if f, ok := l.repo.(interface{ IsDown() bool }); ok && f.IsDown() {
		return limiterFallback
	}
	return limiterPrimary
}

// Allow is safe on a nil receiver, which allows everything.
func (l *WriteLimiter) Allow(ctx context.Context, actorID int64) bool {
	if l == nil || l.repo == nil || l.limit <= 0 || l.window <= 0 {
		return true
	}

	ok, err := l.repo.CheckRateLimit(ctx, actorID, l.limit, l.window)
	if err != nil {
		l.logger.Warn().Err(err).Int64("actor_id", actorID).Msg("write limiter unavailable")
		return true
	}
	if !ok {
		metrics.IncRateLimited()
		l.logger.Info().Int64("actor_id", actorID).Msg("write rate limit exceeded")
	}
	return ok
}
