package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/internal/api"
	"github.com/creaverse/dao-rewards/internal/api/dao"
	"github.com/creaverse/dao-rewards/internal/cache"
	"github.com/creaverse/dao-rewards/internal/db"
	"github.com/creaverse/dao-rewards/internal/moderation"
	"github.com/creaverse/dao-rewards/internal/oracle"
	"github.com/creaverse/dao-rewards/internal/recommend"
	"github.com/creaverse/dao-rewards/internal/reviews"
	"github.com/creaverse/dao-rewards/internal/rewards"
	"github.com/creaverse/dao-rewards/internal/trust"
	"github.com/creaverse/dao-rewards/pkg/config"
	"github.com/creaverse/dao-rewards/pkg/logging"
	"github.com/creaverse/dao-rewards/pkg/telemetry"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logging.InitLogger(&cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logging.GetLogger().Sync()

	logger := logging.GetLogger()
	logger.Info("Starting Creaverse rewards API server")

	// Initialize telemetry
	telemetryShutdown, err := telemetry.Init(&cfg.Telemetry)
	if err != nil {
		logger.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer telemetryShutdown()

	// Initialize database
	database, err := db.New(&cfg.Database, cfg.Logging.Level)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()
	repo := db.NewRepository(database.DB)

	// Initialize cache
	redisCache, err := cache.New(&cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	var front cache.Store = cache.NewLocal(cfg.Recommend.LocalCacheMax, cfg.Recommend.TTL)
	var cacheHealth api.HealthChecker
	if redisCache != nil {
		defer redisCache.Close()
		front = redisCache
		cacheHealth = redisCache
	}

	// Scoring pipeline
	client := oracle.New(&cfg.Oracle)
	estimator := trust.NewEstimator(repo)
	gate := moderation.NewGate(moderation.NewStage(client))
	scorer := reviews.NewScorer(client, repo, estimator, cfg.Rewards.TrustMaxAge)
	calc := rewards.NewCalculator(repo, estimator, client, cfg.Rewards.TrustMaxAge)
	recommender := recommend.NewService(repo, front, cfg.Recommend.TTL)

	// Create Gin router
	if cfg.Logging.Level == "DEBUG" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	router := api.NewRouter(database, cacheHealth, api.Handlers{
		Scoring: dao.NewScoringAPI(gate, scorer),
		Trust:   dao.NewTrustAPI(estimator),
		Rewards: dao.NewRewardsAPI(calc, recommender),
	})
	router.SetupRoutes(engine)

	// Create HTTP server
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Server starting", zap.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
