package middleware

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"wework-hub/internal/domain"
)

// RateLimitConfig defines per-endpoint rate limit settings.
type RateLimitConfig struct {
	// Rate is the number of requests allowed per second.
	Rate rate.Limit
	// Burst is the maximum burst size.
	Burst int
	// Methods limits enforcement to these methods. Empty means all.
	Methods []string
	// IdleTTL drops per-IP state unused for this long. Defaults to 5m.
	IdleTTL time.Duration
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter provides IP-based rate limiting per endpoint group.
type RateLimiter struct {
	cfg RateLimitConfig
	now func() time.Time

	mu       sync.Mutex
	limiters map[string]*ipLimiter
}

// NewRateLimiter creates a per-IP rate limiter. Call Run to start evicting
// idle clients.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 5 * time.Minute
	}
	return &RateLimiter{
		cfg:      cfg,
		now:      time.Now,
		limiters: make(map[string]*ipLimiter),
	}
}

func (rl *RateLimiter) getLimiter(ip string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if l, exists := rl.limiters[ip]; exists {
		l.lastSeen = rl.now()
		return l.limiter
	}

	limiter := rate.NewLimiter(rl.cfg.Rate, rl.cfg.Burst)
	rl.limiters[ip] = &ipLimiter{limiter: limiter, lastSeen: rl.now()}
	return limiter
}

// Run evicts idle clients until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(rl.cfg.IdleTTL / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.sweep()
		}
	}
}

func (rl *RateLimiter) sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.cfg.IdleTTL)
	for ip, l := range rl.limiters {
		if l.lastSeen.Before(cutoff) {
			delete(rl.limiters, ip)
		}
	}
}

func (rl *RateLimiter) applies(method string) bool {
	if len(rl.cfg.Methods) == 0 {
		return true
	}
	for _, m := range rl.cfg.Methods {
		if m == method {
			return true
		}
	}
	return false
}

// Middleware returns an Echo middleware that enforces the rate limit.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !rl.applies(c.Request().Method) {
				return next(c)
			}

			if !rl.getLimiter(c.RealIP()).Allow() {
				retryAfter := max(int(math.Ceil(1.0/float64(rl.cfg.Rate))), 1)
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				return echo.NewHTTPError(http.StatusTooManyRequests, "Too many attempts. Please wait and try again.").
					SetInternal(domain.ErrRateLimited)
			}

			return next(c)
		}
	}
}
