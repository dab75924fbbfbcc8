package services

import (
	"context"
	"time"

	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/store"
	"github.com/helloiwashere/guestbook-backend/types"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type HealthService struct {
	visitors    store.RecordStore[types.Visitor]
	feedback    store.RecordStore[types.Feedback]
	redisClient *redis.Client
	replication string
	version     string
	startTime   time.Time
	log         *zap.SugaredLogger
}

// NewHealthService creates a health service. redisClient may be nil when
// Redis is not configured.
func NewHealthService(
	visitors store.RecordStore[types.Visitor],
	feedback store.RecordStore[types.Feedback],
	redisClient *redis.Client,
	replication string,
	version string,
) *HealthService {
	return &HealthService{
		visitors:    visitors,
		feedback:    feedback,
		redisClient: redisClient,
		replication: replication,
		version:     version,
		startTime:   time.Now(),
		log:         logger.GetLogger().Named("health"),
	}
}

// CheckHealth reports DOWN when a record store is unusable and DEGRADED when
// only Redis is, since rate limiting fails open.
func (h *HealthService) CheckHealth(ctx context.Context) types.HealthCheck {
	components := make(map[string]types.HealthComponent)
	overallStatus := types.HealthStatusUp

	storeStatus := h.checkStore(ctx)
	components["store"] = storeStatus
	if storeStatus.Status == types.HealthStatusDown {
		overallStatus = types.HealthStatusDown
	}

	if h.redisClient != nil {
		redisStatus := h.checkRedis(ctx)
		components["redis"] = redisStatus
		if redisStatus.Status != types.HealthStatusUp && overallStatus == types.HealthStatusUp {
			overallStatus = types.HealthStatusDegraded
		}
	}

	return types.HealthCheck{
		Status:      overallStatus,
		Components:  components,
		Version:     h.version,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Replication: h.replication,
	}
}

// CheckReadiness only looks at the record stores.
func (h *HealthService) CheckReadiness(ctx context.Context) types.HealthComponent {
	return h.checkStore(ctx)
}

func (h *HealthService) checkStore(ctx context.Context) types.HealthComponent {
	if _, err := h.visitors.Load(ctx); err != nil {
		h.log.Errorw("Visitor store health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Visitor store unavailable",
		}
	}
	if _, err := h.feedback.Load(ctx); err != nil {
		h.log.Errorw("Feedback store health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Feedback store unavailable",
		}
	}
	return types.HealthComponent{Status: types.HealthStatusUp}
}

func (h *HealthService) checkRedis(ctx context.Context) types.HealthComponent {
	if err := h.redisClient.Ping(ctx).Err(); err != nil {
		h.log.Errorw("Redis health check failed", "error", err)
		return types.HealthComponent{
			Status:  types.HealthStatusDown,
			Details: "Redis connection failed",
		}
	}
	return types.HealthComponent{Status: types.HealthStatusUp}
}
