package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helloiwashere/guestbook-backend/logger"
)

// RequestLogger logs one line per request. Errors are logged by ErrorHandler,
// so this only records the outcome.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		status := c.Writer.Status()
		fields := []interface{}{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency", time.Since(start).String(),
			"client_ip", c.ClientIP(),
			"request_id", c.GetString(RequestIDKey),
		}

		log := logger.GetLogger()
		switch {
		case status >= 500:
			log.Errorw("Request completed", fields...)
		case status >= 400:
			log.Warnw("Request completed", fields...)
		default:
			log.Debugw("Request completed", fields...)
		}
	}
}
