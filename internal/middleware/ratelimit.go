package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Counter is the slice of the Redis client the rate limiter needs.
type Counter interface {
	IncrWithExpiry(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimiter enforces a fixed-window request cap per client IP. The window
// lives in Redis so every replica shares the same counters; when Redis is
// unreachable the limiter fails open.
type RateLimiter struct {
	counter  Counter
	requests int64
	window   time.Duration
	logger   *logrus.Logger
}

// NewRateLimiter creates a rate limiter. A nil counter disables limiting.
func NewRateLimiter(counter Counter, requests int, window time.Duration, logger *logrus.Logger) *RateLimiter {
	if requests <= 0 {
		requests = 30
	}
	if window <= 0 {
		window = time.Minute
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &RateLimiter{
		counter:  counter,
		requests: int64(requests),
		window:   window,
		logger:   logger,
	}
}

// Limit middleware rejects requests beyond the per-IP cap with 429.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.counter == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())
		count, err := rl.counter.IncrWithExpiry(c.Request.Context(), key, rl.window)
		if err != nil {
			// Fail open: a Redis outage must not take the API down with it.
			rl.logger.WithError(err).Warn("Rate limit counter unavailable, allowing request")
			c.Next()
			return
		}

		if count > rl.requests {
			c.Header("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":   "Too Many Requests",
				"message": "Rate limit exceeded, try again shortly",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
