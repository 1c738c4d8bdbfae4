package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/creaverse/dao-rewards/internal/api/dao"
	"github.com/creaverse/dao-rewards/internal/cache"
	"github.com/creaverse/dao-rewards/pkg/logging"
)

// HealthChecker is a dependency the health endpoint probes
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handlers groups the method implementations served by the router
type Handlers struct {
	Scoring *dao.ScoringAPI
	Trust   *dao.TrustAPI
	Rewards *dao.RewardsAPI
}

// Router sets up API routes
type Router struct {
	handler  *JSONRPCHandler
	db       HealthChecker
	cache    HealthChecker
	handlers Handlers
	logger   *zap.Logger
}

// NewRouter creates a new API router. redisCache may be nil.
func NewRouter(database HealthChecker, redisCache HealthChecker, handlers Handlers) *Router {
	router := &Router{
		handler:  NewJSONRPCHandler(),
		db:       database,
		cache:    redisCache,
		handlers: handlers,
		logger:   logging.WithComponent("api-router"),
	}

	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// JSON-RPC endpoint
	engine.POST("/", r.handler.Handle)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	if s := r.handlers.Scoring; s != nil {
		r.handler.RegisterMethod("moderation.check", s.CheckContent)
		r.handler.RegisterMethod("reviews.score", s.ScoreReview)
	}

	if t := r.handlers.Trust; t != nil {
		r.handler.RegisterMethod("trust.estimate", t.Estimate)
		r.handler.RegisterMethod("trust.get", t.Get)
	}

	if rw := r.handlers.Rewards; rw != nil {
		r.handler.RegisterMethod("rewards.claim", rw.Claim)
		r.handler.RegisterMethod("rewards.balance", rw.Balance)
		r.handler.RegisterMethod("rewards.history", rw.History)
		r.handler.RegisterMethod("recommendations.get", rw.Recommendations)
	}

	r.logger.Info("JSON-RPC methods registered", zap.Int("count", len(r.handler.Methods())))
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	body := gin.H{
		"status":   "OK",
		"service":  "creaverse-rewards",
		"database": "ok",
		"redis":    "disabled",
	}

	if r.db != nil {
		if err := r.db.Health(ctx); err != nil {
			r.logger.Warn("Database health check failed", zap.Error(err))
			status = http.StatusServiceUnavailable
			body["status"] = "DEGRADED"
			body["database"] = "unavailable"
		}
	}

	if r.cache != nil {
		switch err := r.cache.Health(ctx); {
		case err == nil:
			body["redis"] = "ok"
		case errors.Is(err, cache.ErrCacheDisabled):
		default:
			r.logger.Warn("Redis health check failed", zap.Error(err))
			body["redis"] = "unavailable"
		}
	}

	c.JSON(status, body)
}
