package router

import (
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helloiwashere/guestbook-backend/config"
	_ "github.com/helloiwashere/guestbook-backend/docs"
	"github.com/helloiwashere/guestbook-backend/handlers"
	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/middleware"
	"github.com/helloiwashere/guestbook-backend/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Dependencies struct holds all dependencies required for setting up routes.
type Dependencies struct {
	Config           *config.Config
	GuestbookHandler *handlers.GuestbookHandler
	HealthHandler    *handlers.HealthHandler
	// RateLimiter guards the write endpoints. Nil disables rate limiting.
	RateLimiter services.RateLimiter
}

// SetupRouter configures and returns the main Gin engine with all routes defined.
func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	r := gin.New()

	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.GetLogger().Warnw("Invalid trusted proxies, ignoring forwarded headers", "error", err)
		_ = r.SetTrustedProxies(nil)
	}

	// Global Middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware(cfg))
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.CORSMiddleware(&cfg.Server))

	// Page shell
	r.StaticFile("/", filepath.Join(cfg.Server.StaticDir, "index.html"))
	r.Static("/static", cfg.Server.StaticDir)

	// Health and Metrics Routes
	r.GET("/health", deps.HealthHandler.DetailedHealth)
	r.GET("/health/liveness", deps.HealthHandler.LivenessCheck)
	r.GET("/health/readiness", deps.HealthHandler.ReadinessCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	var limiter gin.HandlerFunc
	if deps.RateLimiter != nil {
		limiter = middleware.IPRateLimiter(
			deps.RateLimiter,
			cfg.RateLimit.WriteRequestsPerWindow,
			time.Duration(cfg.RateLimit.WindowSeconds)*time.Second,
		)
	}
	write := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if limiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{limiter, h}
	}

	r.POST("/save-visitor", write(deps.GuestbookHandler.SaveVisitor)...)
	r.GET("/get-visitors", deps.GuestbookHandler.GetVisitors)
	r.POST("/submit-feedback", write(deps.GuestbookHandler.SubmitFeedback)...)
	r.GET("/get-feedback", deps.GuestbookHandler.GetFeedback)

	return r
}
