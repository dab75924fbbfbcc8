package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helloiwashere/guestbook-backend/config"
	"github.com/helloiwashere/guestbook-backend/handlers"
	"github.com/helloiwashere/guestbook-backend/internal/replication"
	"github.com/helloiwashere/guestbook-backend/logger"
	"github.com/helloiwashere/guestbook-backend/router"
	"github.com/helloiwashere/guestbook-backend/services"
	"github.com/helloiwashere/guestbook-backend/store"
	"github.com/helloiwashere/guestbook-backend/store/jsonfile"
	"github.com/helloiwashere/guestbook-backend/store/memory"
	"github.com/helloiwashere/guestbook-backend/store/postgres"
	"github.com/helloiwashere/guestbook-backend/types"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// @title Hello I Was Here Guestbook API
// @version 1.0
// @description Visitor guestbook and feedback endpoints.
// @BasePath /
func main() {
	logger.InitLogger()
	defer logger.Close()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.GetLogger().Fatalf("Failed to load config: %v", err)
	}
	if err := logger.Configure(cfg.LogLevel, cfg.IsProduction()); err != nil {
		logger.GetLogger().Warnw("Invalid log level, keeping default", "level", cfg.LogLevel, "error", err)
	}
	log := logger.GetLogger()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	stores, err := buildStores(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize record store: %v", err)
	}
	defer stores.Close()

	replicator, err := buildReplicator(ctx, cfg)
	if err != nil {
		// Replication is best effort; the guestbook keeps serving without it.
		log.Errorw("Replication disabled, replicator could not be created", "backend", cfg.Replication.Backend, "error", err)
		replicator = replication.NoopReplicator{}
	}

	workerPool := services.NewWorkerPool(cfg.WorkerPool)
	workerPool.Start()

	dispatcher := replication.NewDispatcher(workerPool, replicator, cfg.Replication.Timeout())
	var notifier services.ChangeNotifier
	if dispatcher.Backend() != (replication.NoopReplicator{}).Name() {
		notifier = dispatcher
	}
	log.Infow("Replication configured", "backend", dispatcher.Backend())

	var redisClient *redis.Client
	var rateLimiter services.RateLimiter
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(config.ConfigureRedisOptions(&cfg.Redis))
		defer redisClient.Close()
		if err := config.TestRedisConnection(ctx, redisClient, 3, 2*time.Second); err != nil {
			log.Warnw("Redis unreachable at startup, rate limiting fails open", "error", err)
		}
		rateLimiter = services.NewRateLimitService(redisClient)
	} else {
		log.Info("Redis not configured, rate limiting disabled")
	}

	guestbook := services.NewGuestbookService(stores.visitors, stores.feedback, notifier, services.GuestbookConfig{
		MaxVisitors:       cfg.Store.MaxVisitors,
		DuplicateWindow:   cfg.Store.DuplicateWindow(),
		FeedbackMaxLength: cfg.Store.FeedbackMaxLength,
	})
	health := services.NewHealthService(stores.visitors, stores.feedback, redisClient, dispatcher.Backend(), cfg.Server.Version)

	r := router.SetupRouter(router.Dependencies{
		Config:           cfg,
		GuestbookHandler: handlers.NewGuestbookHandler(guestbook),
		HealthHandler:    handlers.NewHealthHandler(health),
		RateLimiter:      rateLimiter,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Infow("Starting server", "port", cfg.Server.Port, "environment", cfg.Server.Environment, "store", cfg.Store.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Infow("Shutting down", "signal", sig.String())

	shutdownTimeout := time.Duration(cfg.WorkerPool.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown failed", "error", err)
	}
	// Pending replications finish before the process exits.
	if err := workerPool.Shutdown(shutdownCtx); err != nil {
		log.Warnw("Worker pool did not drain in time", "error", err)
	}
	log.Info("Server stopped")
}

type recordStores struct {
	visitors store.RecordStore[types.Visitor]
	feedback store.RecordStore[types.Feedback]
	pool     *pgxpool.Pool
}

func (s *recordStores) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func buildStores(ctx context.Context, cfg *config.Config) (*recordStores, error) {
	log := logger.GetLogger()

	switch cfg.Store.Backend {
	case config.StoreBackendFile:
		retries := jsonfile.WithWriteRetries(uint64(cfg.Store.WriteRetries), 100*time.Millisecond)
		log.Infow("Using JSON file store", "dataDir", cfg.Store.DataDir)
		return &recordStores{
			visitors: jsonfile.New[types.Visitor](cfg.Store.DataDir, store.KindVisitor, retries),
			feedback: jsonfile.New[types.Feedback](cfg.Store.DataDir, store.KindFeedback, retries),
		}, nil

	case config.StoreBackendMemory:
		log.Warn("Using in-memory store, records are lost on restart")
		return &recordStores{
			visitors: memory.New[types.Visitor](store.KindVisitor),
			feedback: memory.New[types.Feedback](store.KindFeedback),
		}, nil

	case config.StoreBackendPostgres:
		log.Infow("Using postgres store", "database", logger.MaskConnectionString(cfg.Database.URL()))
		if err := postgres.RunMigrations(cfg.Database.URL()); err != nil {
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		poolConfig, err := config.ConfigurePostgresPool(&cfg.Database)
		if err != nil {
			return nil, err
		}
		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		return &recordStores{
			visitors: postgres.NewRecordStore[types.Visitor](pool, store.KindVisitor),
			feedback: postgres.NewRecordStore[types.Feedback](pool, store.KindFeedback),
			pool:     pool,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func buildReplicator(ctx context.Context, cfg *config.Config) (replication.Replicator, error) {
	if !cfg.Replication.Enabled {
		return replication.NoopReplicator{}, nil
	}
	switch cfg.Replication.Backend {
	case config.ReplicationBackendGit:
		return replication.NewGitReplicator(cfg.Store.DataDir, cfg.Replication.Git)
	case config.ReplicationBackendS3:
		client, err := replication.NewS3Client(ctx, cfg.Replication.S3)
		if err != nil {
			return nil, err
		}
		return replication.NewS3Replicator(client, cfg.Store.DataDir, cfg.Replication.S3), nil
	default:
		return nil, fmt.Errorf("unknown replication backend %q", cfg.Replication.Backend)
	}
}
