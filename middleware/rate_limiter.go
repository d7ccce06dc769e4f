// middleware/rate_limiter.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/pawsit/pawsit_backend/models"
)

// RateLimiter applies per-IP limits, with a stricter bucket for request
// creation.
type RateLimiter struct {
	ips            map[string]*rate.Limiter
	mu             sync.RWMutex
	defaultLimit   rate.Limit
	defaultBurst   int
	endpointLimits map[string]struct {
		limit rate.Limit
		burst int
	}
}

func NewRateLimiter() *RateLimiter {
	limiter := &RateLimiter{
		ips:          make(map[string]*rate.Limiter),
		defaultLimit: rate.Every(100 * time.Millisecond), // 10 requests per second
		defaultBurst: 20,
		endpointLimits: make(map[string]struct {
			limit rate.Limit
			burst int
		}),
	}

	limiter.endpointLimits["/requests"] = struct {
		limit rate.Limit
		burst int
	}{
		limit: rate.Every(500 * time.Millisecond), // 2 requests per second
		burst: 5,
	}

	go limiter.cleanup()
	return limiter
}

// cleanup drops idle limiters so the map does not grow without bound.
func (r *RateLimiter) cleanup() {
	for {
		time.Sleep(1 * time.Hour)
		r.mu.Lock()
		r.ips = make(map[string]*rate.Limiter)
		r.mu.Unlock()
	}
}

func (r *RateLimiter) getLimiter(key string, limit rate.Limit, burst int) *rate.Limiter {
	r.mu.RLock()
	limiter, ok := r.ips[key]
	r.mu.RUnlock()
	if ok {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, ok := r.ips[key]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(limit, burst)
	r.ips[key] = limiter
	return limiter
}

// RateLimit returns the echo middleware enforcing the limits.
func (r *RateLimiter) RateLimit() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path
			limit, burst := r.defaultLimit, r.defaultBurst
			key := c.RealIP()
			if override, ok := r.endpointLimits[path]; ok && c.Request().Method == http.MethodPost {
				limit, burst = override.limit, override.burst
				key = c.RealIP() + path
			}

			if !r.getLimiter(key, limit, burst).Allow() {
				return c.JSON(http.StatusTooManyRequests, models.Response{
					Status:  http.StatusTooManyRequests,
					Message: "Too many requests, please try again later",
				})
			}
			return next(c)
		}
	}
}
