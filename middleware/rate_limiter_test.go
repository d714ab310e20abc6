package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func newLimitedEcho(limiter *RateLimiter) *echo.Echo {
	e := echo.New()
	e.Any("/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	}, limiter.RateLimit())
	return e
}

func hit(e *echo.Echo, method, ip string) int {
	req := httptest.NewRequest(method, "/", nil)
	req.Header.Set(echo.HeaderXForwardedFor, ip)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec.Code
}

func TestRateLimitBlocksAfterBurst(t *testing.T) {
	limiter := NewRateLimiter(1, 2, time.Minute)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	limiter.now = func() time.Time { return now }
	e := newLimitedEcho(limiter)

	for i := 0; i < 2; i++ {
		if code := hit(e, http.MethodPost, "203.0.113.7"); code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, code)
		}
	}
	if code := hit(e, http.MethodPost, "203.0.113.7"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", code)
	}

	// other clients are unaffected
	if code := hit(e, http.MethodPost, "198.51.100.1"); code != http.StatusOK {
		t.Errorf("expected another IP to pass, got %d", code)
	}

	// still blocked even though the bucket refilled
	now = start.Add(30 * time.Second)
	if code := hit(e, http.MethodPost, "203.0.113.7"); code != http.StatusTooManyRequests {
		t.Errorf("expected the block to hold, got %d", code)
	}

	now = start.Add(2 * time.Minute)
	if code := hit(e, http.MethodPost, "203.0.113.7"); code != http.StatusOK {
		t.Errorf("expected the block to expire, got %d", code)
	}
}

func TestRateLimitSkipsPreflight(t *testing.T) {
	limiter := NewRateLimiter(1, 1, time.Minute)
	e := newLimitedEcho(limiter)

	for i := 0; i < 5; i++ {
		if code := hit(e, http.MethodOptions, "203.0.113.7"); code != http.StatusOK {
			t.Fatalf("preflight %d: expected 200, got %d", i, code)
		}
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	limiter := NewRateLimiter(1, 1, time.Minute)
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start
	limiter.now = func() time.Time { return now }
	e := newLimitedEcho(limiter)

	hit(e, http.MethodPost, "203.0.113.7")
	hit(e, http.MethodPost, "203.0.113.7")
	if len(limiter.blockedIPs) != 1 {
		t.Fatalf("expected one blocked IP, got %d", len(limiter.blockedIPs))
	}

	now = start.Add(2 * time.Minute)
	limiter.Cleanup()
	if len(limiter.blockedIPs) != 0 || len(limiter.ips) != 0 {
		t.Errorf("expected cleanup to drop expired entries, got %d blocked, %d buckets", len(limiter.blockedIPs), len(limiter.ips))
	}
}
