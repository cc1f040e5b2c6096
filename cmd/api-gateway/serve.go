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
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/handler"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/middleware"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/models"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/repository"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/internal/service"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/cache"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/config"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/database"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/database/migrations"
	"github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/logger"
	corsmiddleware "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/middleware/cors"
	reqidmiddleware "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/middleware/requestid"
)

const (
	cacheKeyPrefix  = "gmit:"
	shutdownTimeout = 10 * time.Second
)

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

type routeHandlers struct {
	documents *handler.DocumentHandler
	progress  *handler.ProgressHandler
	metrics   *handler.MetricsHandler
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, logr, err := bootstrap()
	if err != nil {
		return err
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if err := prepareSchema(db, cfg.Database.AutoMigrate, logr); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.AreaCache.Backend == config.CacheBackendRedis || cfg.Events.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close() //nolint:errcheck
	}

	metrics := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.AreaCache.Backend == config.CacheBackendRedis {
		cacheRepo = repository.NewCacheRepository(redisClient, cacheKeyPrefix)
	} else {
		cacheRepo = repository.NewMemoryCacheRepository(cfg.AreaCache.TTL)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.AreaCache.TTL, logr)
	members := repository.NewMemberRepository(db)
	eventAreas := service.NewCachedAreaResolver(members, cacheSvc, logr)

	var publisher service.DocumentEventPublisher
	if cfg.Events.Enabled {
		publisher = repository.NewRedisEventPublisher(redisClient, cfg.Events.Channel)
	}
	events := service.NewDocumentEventDispatcher(publisher, metrics, logr, service.DocumentEventConfig{
		Workers:    cfg.Events.Workers,
		Retries:    cfg.Events.Retries,
		RetryDelay: cfg.Events.RetryDelay,
	})

	documentRepo := repository.NewDocumentRepository(db)
	documents := service.NewDocumentService(
		documentRepo,
		members,
		repository.NewAuditRepository(db),
		validator.New(),
		logr,
		service.DocumentConfig{
			MaxFileSizeBytes: cfg.Documents.MaxFileSizeBytes,
			AllowedMIMEs:     cfg.Documents.AllowedMIMEs,
			DefaultPageSize:  cfg.Documents.DefaultPageSize,
		},
		service.WithDocumentReviews(repository.NewDocumentReviewRepository(db)),
		service.WithDocumentEvents(events),
		service.WithDocumentEventAreas(eventAreas),
		service.WithDocumentMetrics(metrics),
	)
	progress := service.NewProgressService(documentRepo, members, logr)
	tokens := service.NewTokenService(service.TokenConfig{
		Secret: cfg.JWT.Secret,
		Issuer: cfg.JWT.Issuer,
		Expiry: cfg.JWT.Expiration,
	})

	router := newRouter(cfg, logr, metrics, tokens, routeHandlers{
		documents: handler.NewDocumentHandler(documents),
		progress:  handler.NewProgressHandler(progress),
		metrics:   handler.NewMetricsHandler(metrics, db),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	events.Start(gctx)

	g.Go(func() error {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve http: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logr.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		events.Stop()
		return err
	})

	return g.Wait()
}

func prepareSchema(db *sqlx.DB, autoMigrate bool, logr *zap.Logger) error {
	if autoMigrate {
		if err := migrations.Up(db.DB); err != nil {
			return err
		}
		logr.Info("database migrations applied")
		return nil
	}
	status, err := migrations.CheckStatus(db.DB)
	if err != nil {
		logr.Warn("unable to read schema version", zap.Error(err))
		return nil
	}
	if !status.UpToDate() {
		logr.Warn("database schema is behind",
			zap.Uint("current", status.Current),
			zap.Uint("latest", status.Latest),
			zap.Bool("dirty", status.Dirty),
		)
	}
	return nil
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, tokens *service.TokenService, h routeHandlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Ready)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, middleware.JWT(tokens), middleware.RequireScope())

	documents := api.Group("/documents")
	documents.POST("", h.documents.Create)
	documents.GET("", h.documents.List)
	documents.GET("/:id", h.documents.Get)
	documents.GET("/:id/reviews", h.documents.History)
	documents.POST("/:id/decide", middleware.RequireScope(models.ScopeArea, models.ScopeGlobal), h.documents.Decide)
	documents.POST("/:id/replace", middleware.RequireScope(models.ScopeOwn), h.documents.Replace)
	documents.DELETE("/:id", middleware.RequireScope(models.ScopeGlobal), h.documents.Delete)

	api.GET("/members/:id/progress", h.progress.Get)

	return r
}
