package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/helloiwashere/guestbook-backend/types"
)

type HealthHandler struct {
	healthService HealthServiceInterface
}

func NewHealthHandler(healthService HealthServiceInterface) *HealthHandler {
	return &HealthHandler{
		healthService: healthService,
	}
}

// LivenessCheck handles the liveness probe
func (h *HealthHandler) LivenessCheck(c *gin.Context) {
	c.Status(http.StatusOK)
}

// ReadinessCheck reports whether the record stores can be read.
func (h *HealthHandler) ReadinessCheck(c *gin.Context) {
	ready := h.healthService.CheckReadiness(c.Request.Context())

	if ready.Status == types.HealthStatusDown {
		c.JSON(http.StatusServiceUnavailable, ready)
		return
	}

	c.JSON(http.StatusOK, ready)
}

// DetailedHealth godoc
// @Summary      Service health
// @Description  Reports store, Redis and replication status.
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthCheck
// @Failure      503  {object}  types.HealthCheck
// @Router       /health [get]
func (h *HealthHandler) DetailedHealth(c *gin.Context) {
	health := h.healthService.CheckHealth(c.Request.Context())
	if health.Status == types.HealthStatusDown {
		c.JSON(http.StatusServiceUnavailable, health)
		return
	}
	c.JSON(http.StatusOK, health)
}
