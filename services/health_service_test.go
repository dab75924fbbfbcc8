package services

import (
	"context"
	"errors"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/helloiwashere/guestbook-backend/store"
	"github.com/helloiwashere/guestbook-backend/store/memory"
	"github.com/helloiwashere/guestbook-backend/types"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func TestHealthService_CheckHealth(t *testing.T) {
	tests := []struct {
		name           string
		storeErr       error
		withRedis      bool
		redisErr       error
		expectedStatus types.HealthStatus
		expectedComps  map[string]types.HealthStatus
	}{
		{
			name:           "store healthy without redis",
			expectedStatus: types.HealthStatusUp,
			expectedComps:  map[string]types.HealthStatus{"store": types.HealthStatusUp},
		},
		{
			name:           "all healthy",
			withRedis:      true,
			expectedStatus: types.HealthStatusUp,
			expectedComps: map[string]types.HealthStatus{
				"store": types.HealthStatusUp,
				"redis": types.HealthStatusUp,
			},
		},
		{
			name:           "redis down degrades",
			withRedis:      true,
			redisErr:       errors.New("connection refused"),
			expectedStatus: types.HealthStatusDegraded,
			expectedComps: map[string]types.HealthStatus{
				"store": types.HealthStatusUp,
				"redis": types.HealthStatusDown,
			},
		},
		{
			name:           "store down",
			storeErr:       errors.New("permission denied"),
			withRedis:      true,
			expectedStatus: types.HealthStatusDown,
			expectedComps: map[string]types.HealthStatus{
				"store": types.HealthStatusDown,
				"redis": types.HealthStatusUp,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			visitors := memory.New[types.Visitor](store.KindVisitor)
			feedback := memory.New[types.Feedback](store.KindFeedback)
			if tt.storeErr != nil {
				visitors.FailWith(tt.storeErr)
			}

			var client *redis.Client
			var redisMock redismock.ClientMock
			if tt.withRedis {
				client, redisMock = redismock.NewClientMock()
				if tt.redisErr != nil {
					redisMock.ExpectPing().SetErr(tt.redisErr)
				} else {
					redisMock.ExpectPing().SetVal("PONG")
				}
			}

			svc := NewHealthService(visitors, feedback, client, "git", "1.2.3")
			health := svc.CheckHealth(context.Background())

			assert.Equal(t, tt.expectedStatus, health.Status)
			assert.Equal(t, "1.2.3", health.Version)
			assert.Equal(t, "git", health.Replication)
			assert.NotEmpty(t, health.Timestamp)
			assert.Len(t, health.Components, len(tt.expectedComps))
			for name, status := range tt.expectedComps {
				assert.Equal(t, status, health.Components[name].Status, name)
			}
			if redisMock != nil {
				assert.NoError(t, redisMock.ExpectationsWereMet())
			}
		})
	}
}

func TestHealthService_CheckReadiness(t *testing.T) {
	visitors := memory.New[types.Visitor](store.KindVisitor)
	feedback := memory.New[types.Feedback](store.KindFeedback)
	svc := NewHealthService(visitors, feedback, nil, "none", "dev")

	assert.Equal(t, types.HealthStatusUp, svc.CheckReadiness(context.Background()).Status)

	feedback.FailWith(errors.New("corrupt"))
	ready := svc.CheckReadiness(context.Background())
	assert.Equal(t, types.HealthStatusDown, ready.Status)
	assert.Equal(t, "Feedback store unavailable", ready.Details)
}
