package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/nutrimatch/backend/internal/logging"
	"github.com/pageza/nutrimatch/backend/internal/quota"
)

// Counter counts requests per key
type Counter interface {
	Hit(ctx context.Context, id string) (quota.Usage, error)
}

// RateLimiter limits authenticated users to a number of requests per window
type RateLimiter struct {
	counter Counter
	window  time.Duration
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(counter Counter, window time.Duration) *RateLimiter {
	return &RateLimiter{counter: counter, window: window}
}

// RateLimitMiddleware enforces the limit per user. When the counter store is unreachable the
// request is let through.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get(ContextUserID)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		usage, err := rl.counter.Hit(c.Request.Context(), fmt.Sprintf("%v", userID))
		if err != nil {
			logging.Warn().Err(err).Msg("rate limit check failed, allowing request")
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(usage.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(usage.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(usage.Reset.Unix(), 10))

		if !usage.Allowed {
			retryAfter := int(usage.RetryAfter(time.Now()).Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", usage.Limit, rl.window),
				"retry_after": retryAfter,
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
