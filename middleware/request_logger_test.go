package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name      string
		status    int
		wantLevel zapcore.Level
	}{
		{name: "success logs at debug", status: http.StatusOK, wantLevel: zapcore.DebugLevel},
		{name: "client error logs at warn", status: http.StatusTooManyRequests, wantLevel: zapcore.WarnLevel},
		{name: "server error logs at error", status: http.StatusInternalServerError, wantLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			restore := logger.ReplaceLogger(zap.New(core).Sugar())
			defer restore()

			router := gin.New()
			router.Use(RequestIDMiddleware(), RequestLogger())
			router.GET("/get-visitors", func(c *gin.Context) {
				c.Status(tt.status)
			})

			req := httptest.NewRequest(http.MethodGet, "/get-visitors", nil)
			req.Header.Set(RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			entries := logs.FilterMessage("Request completed").All()
			require.Len(t, entries, 1)
			entry := entries[0]
			assert.Equal(t, tt.wantLevel, entry.Level)

			fields := entry.ContextMap()
			assert.Equal(t, http.MethodGet, fields["method"])
			assert.Equal(t, "/get-visitors", fields["path"])
			assert.EqualValues(t, tt.status, fields["status"])
			assert.Equal(t, "req-42", fields["request_id"])
		})
	}
}
