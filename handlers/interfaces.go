package handlers

import (
	"context"

	"github.com/helloiwashere/guestbook-backend/types"
)

// GuestbookServiceInterface defines the guestbook operations needed by handlers
type GuestbookServiceInterface interface {
	SaveVisitor(ctx context.Context, name *string, originIP string) (int, error)
	ListVisitors(ctx context.Context) ([]types.VisitorView, error)
	SubmitFeedback(ctx context.Context, text *string) error
	ListFeedback(ctx context.Context) ([]types.Feedback, error)
}

// HealthServiceInterface defines the health checks needed by handlers
type HealthServiceInterface interface {
	CheckHealth(ctx context.Context) types.HealthCheck
	CheckReadiness(ctx context.Context) types.HealthComponent
}
