package middleware

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/helloiwashere/guestbook-backend/errors"
	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/services"
)

// IPRateLimiter limits write requests per client IP in a fixed window.
// Requests pass through when the limiter itself fails so the guestbook
// stays available while Redis is down.
func IPRateLimiter(limiter services.RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		key := fmt.Sprintf("ip:%s", ip)

		allowed, retryAfter, err := limiter.CheckLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.GetLogger().Warnw("Rate limit check failed, allowing request", "error", err, "client_ip", ip)
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))

		if !allowed {
			seconds := int(retryAfter.Round(time.Second).Seconds())
			if seconds < 1 {
				seconds = 1
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(retryAfter).Unix(), 10))
			c.Header("Retry-After", strconv.Itoa(seconds))

			_ = c.Error(apperrors.RateLimited(
				"Too many requests. Please try again later.",
				fmt.Sprintf("retry after %d seconds", seconds),
			))
			c.Abort()
			return
		}

		c.Next()
	}
}
