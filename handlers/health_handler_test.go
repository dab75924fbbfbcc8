package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/helloiwashere/guestbook-backend/services"
	"github.com/helloiwashere/guestbook-backend/store"
	"github.com/helloiwashere/guestbook-backend/store/memory"
	"github.com/helloiwashere/guestbook-backend/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHealthRouter(visitors *memory.Store[types.Visitor]) *gin.Engine {
	feedback := memory.New[types.Feedback](store.KindFeedback)
	h := NewHealthHandler(services.NewHealthService(visitors, feedback, nil, "none", "test"))
	r := gin.New()
	r.GET("/health", h.DetailedHealth)
	r.GET("/health/liveness", h.LivenessCheck)
	r.GET("/health/readiness", h.ReadinessCheck)
	return r
}

func TestHealthHandler(t *testing.T) {
	visitors := memory.New[types.Visitor](store.KindVisitor)
	r := setupHealthRouter(visitors)

	w := doRequest(r, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var health types.HealthCheck
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, types.HealthStatusUp, health.Status)
	assert.Equal(t, "none", health.Replication)

	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/health/liveness", "", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/health/readiness", "", "").Code)
}

func TestHealthHandler_StoreDown(t *testing.T) {
	visitors := memory.New[types.Visitor](store.KindVisitor)
	visitors.FailWith(errors.New("unreadable"))
	r := setupHealthRouter(visitors)

	assert.Equal(t, http.StatusServiceUnavailable, doRequest(r, http.MethodGet, "/health", "", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, doRequest(r, http.MethodGet, "/health/readiness", "", "").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, http.MethodGet, "/health/liveness", "", "").Code)
}

var _ HealthServiceInterface = (*services.HealthService)(nil)
var _ GuestbookServiceInterface = (*services.GuestbookService)(nil)
