package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/temcen/reelmatch/internal/config"
	"github.com/temcen/reelmatch/internal/database"
	"github.com/temcen/reelmatch/internal/handlers"
	"github.com/temcen/reelmatch/internal/middleware"
	"github.com/temcen/reelmatch/internal/services"
	"github.com/temcen/reelmatch/internal/validation"
)

const (
	mediaCachePrefix    = "httpcache:media"
	poolMetricsInterval = 15 * time.Second
)

type App struct {
	config   *config.Config
	logger   *logrus.Logger
	db       *database.Database
	services *services.Services
	handlers *handlers.Handlers
	router   *gin.Engine

	cancelWorkers context.CancelFunc
	workers       *errgroup.Group
}

func New(cfg *config.Config) (*App, error) {
	app := &App{
		config: cfg,
		logger: setupLogger(cfg),
	}

	db, err := database.New(cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer cancel()
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	svc, err := services.New(cfg, app.logger, db, prometheus.DefaultRegisterer)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	app.services = svc

	app.handlers = handlers.New(app.logger, svc, prometheus.DefaultGatherer)

	validator, err := validation.NewEmbeddedValidator()
	if err != nil {
		svc.Close()
		db.Close()
		return nil, fmt.Errorf("failed to load request schemas: %w", err)
	}

	app.router = NewRouter(cfg, app.logger, RouterDeps{
		Handlers:   app.handlers,
		Auth:       svc.Auth,
		RateLimit:  svc.RateLimit,
		Validator:  validator,
		CacheRedis: db.Redis.Warm,
	})

	return app, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

// StartWorkers launches the Kafka preference consumer (when enabled) and the
// connection pool sampler. They stop on Shutdown.
func (a *App) StartWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	a.cancelWorkers = cancel

	group, ctx := errgroup.WithContext(ctx)
	a.workers = group

	if a.services.MessageBus != nil {
		group.Go(func() error {
			a.logger.Info("Starting preference update consumer")
			err := a.services.MessageBus.ConsumePreferenceUpdates(ctx, a.services.Feedback.HandlePreferenceEvent)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		a.services.Health.CollectPoolMetrics(ctx, poolMetricsInterval)
		return nil
	})
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("Shutting down application...")

	if a.cancelWorkers != nil {
		a.cancelWorkers()
		if err := a.workers.Wait(); err != nil {
			a.logger.WithError(err).Error("Background worker failed")
		}
	}

	if err := a.services.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing message bus")
	}

	if err := a.db.Close(); err != nil {
		a.logger.WithError(err).Error("Error closing database connections")
		return err
	}

	return nil
}

func setupLogger(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if cfg.Logging.Format == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}

// RouterDeps are the collaborators NewRouter wires into middleware.
type RouterDeps struct {
	Handlers   *handlers.Handlers
	Auth       middleware.TokenValidator
	RateLimit  middleware.RateLimiter
	Validator  *validation.SchemaValidator
	CacheRedis *redis.Client
}

func NewRouter(cfg *config.Config, logger *logrus.Logger, deps RouterDeps) *gin.Engine {
	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsPath := cfg.Monitoring.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	router := gin.New()

	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg))
	router.Use(middleware.Compression(metricsPath))

	h := deps.Handlers
	vm := middleware.NewValidationMiddleware(deps.Validator)

	router.GET("/health", h.Health.Check)
	router.GET("/health/live", h.Health.Live)
	if cfg.Monitoring.Enabled {
		router.GET(metricsPath, h.Metrics.Serve)
	}

	api := router.Group("/api/v1")
	{
		api.POST("/auth/token", vm.ValidateHeaders(), vm.ValidateAuthToken(), h.Auth.Token)

		protected := api.Group("")
		protected.Use(middleware.Auth(deps.Auth, logger))
		protected.Use(middleware.RateLimit(deps.RateLimit, logger))
		protected.Use(vm.ValidateHeaders())
		protected.Use(vm.ValidateQueryParams())

		protected.POST("/analyze", vm.ValidateAnalyze(), h.Recommendation.Analyze)
		protected.POST("/interactions", vm.ValidateInteraction(), h.Interaction.Record)
		protected.GET("/recommendations/:userId", h.Recommendation.Get)
		protected.GET("/users/:userId/profile", h.User.GetProfile)

		cache := middleware.ResponseCache(deps.CacheRedis, middleware.CacheConfig{
			TTL:       5 * time.Minute,
			MaxSize:   1 << 20,
			KeyPrefix: mediaCachePrefix,
		}, logger)

		media := protected.Group("/media")
		{
			media.POST("", vm.ValidateMedia(), middleware.InvalidateResponseCache(deps.CacheRedis, mediaCachePrefix, logger), h.Media.Upsert)
			media.GET("/similarity", cache, h.Recommendation.GetSimilarity)
			media.GET("/:mediaId", cache, h.Media.Get)
			media.GET("/:mediaId/similar", cache, h.Recommendation.GetSimilar)
		}
	}

	return router
}
