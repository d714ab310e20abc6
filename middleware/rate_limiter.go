// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/HSouheill/affiliate_signup/models"
)

// RateLimiter throttles sign-up posts per client IP. An IP that exceeds its
// bucket is blocked for blockDuration.
type RateLimiter struct {
	ips           map[string]*rate.Limiter
	blockedIPs    map[string]time.Time
	mu            sync.Mutex
	limit         rate.Limit
	burst         int
	blockDuration time.Duration
	now           func() time.Time
}

// NewRateLimiter creates a limiter allowing perSecond requests with burst
func NewRateLimiter(perSecond float64, burst int, blockDuration time.Duration) *RateLimiter {
	return &RateLimiter{
		ips:           make(map[string]*rate.Limiter),
		blockedIPs:    make(map[string]time.Time),
		limit:         rate.Limit(perSecond),
		burst:         burst,
		blockDuration: blockDuration,
		now:           time.Now,
	}
}

// RateLimit returns the middleware. Preflight requests are never limited.
func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return next(c)
			}

			ip := c.RealIP()
			now := r.now()

			r.mu.Lock()
			if blockUntil, blocked := r.blockedIPs[ip]; blocked {
				if now.Before(blockUntil) {
					r.mu.Unlock()
					return tooManyRequests(c, blockUntil)
				}
				// block expired, start over with a fresh bucket
				delete(r.blockedIPs, ip)
				delete(r.ips, ip)
			}

			limiter, exists := r.ips[ip]
			if !exists {
				limiter = rate.NewLimiter(r.limit, r.burst)
				r.ips[ip] = limiter
			}

			if !limiter.AllowN(now, 1) {
				blockUntil := now.Add(r.blockDuration)
				r.blockedIPs[ip] = blockUntil
				r.mu.Unlock()
				return tooManyRequests(c, blockUntil)
			}
			r.mu.Unlock()

			return next(c)
		}
	}
}

// Cleanup drops blocks that have expired together with their buckets
func (r *RateLimiter) Cleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	for ip, blockUntil := range r.blockedIPs {
		if now.After(blockUntil) {
			delete(r.blockedIPs, ip)
			delete(r.ips, ip)
		}
	}
}

// StartCleanup runs Cleanup every interval until stop is closed
func (r *RateLimiter) StartCleanup(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.Cleanup()
			case <-stop:
				return
			}
		}
	}()
}

func tooManyRequests(c echo.Context, retryAfter time.Time) error {
	return c.JSON(http.StatusTooManyRequests, models.Response{
		Status:  http.StatusTooManyRequests,
		Message: "Too many requests, retry after " + retryAfter.Format(time.RFC3339),
	})
}
