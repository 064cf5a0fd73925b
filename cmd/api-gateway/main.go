package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	gocache "github.com/patrickmn/go-cache"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/opencampus/classroom-occupancy-api/api/swagger"
	"github.com/opencampus/classroom-occupancy-api/internal/handler"
	"github.com/opencampus/classroom-occupancy-api/internal/middleware"
	"github.com/opencampus/classroom-occupancy-api/internal/models"
	"github.com/opencampus/classroom-occupancy-api/internal/repository"
	"github.com/opencampus/classroom-occupancy-api/internal/service"
	"github.com/opencampus/classroom-occupancy-api/pkg/cache"
	"github.com/opencampus/classroom-occupancy-api/pkg/config"
	"github.com/opencampus/classroom-occupancy-api/pkg/database"
	"github.com/opencampus/classroom-occupancy-api/pkg/jobs"
	"github.com/opencampus/classroom-occupancy-api/pkg/logger"
	corsmiddleware "github.com/opencampus/classroom-occupancy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/opencampus/classroom-occupancy-api/pkg/middleware/requestid"
	"github.com/opencampus/classroom-occupancy-api/pkg/storage"
)

// @title Classroom Occupancy API
// @version 1.0.0
// @description Campus classroom availability board backed by camera occupancy detection
// @BasePath /
// @schemes http

const version = "1.0.0"

// Finished report artifacts stay on disk for a week before the cleanup
// sweep removes them.
const reportRetention = 7 * 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	imageStore, err := storage.NewLocalStorage(cfg.Images.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to open image storage", "error", err)
	}
	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to open report storage", "error", err)
	}

	// Repositories.
	classroomRepo := repository.NewClassroomRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	occupancyRepo := repository.NewOccupancyRepository(db)
	userRepo := repository.NewUserRepository(db)
	favoriteRepo := repository.NewFavoriteRepository(db)
	searchRepo := repository.NewSearchRepository(db)
	reportRepo := repository.NewReportRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)

	// Services.
	metricsSvc := service.NewMetricsService()
	classroomSvc := service.NewClassroomService(classroomRepo, cacheRepo, nil, logr)
	sessionSvc := service.NewSessionService(sessionRepo, classroomRepo, cacheRepo, nil, logr)
	occupancySvc := service.NewOccupancyService(occupancyRepo, classroomRepo, cacheRepo, nil, logr)

	availabilityCfg := service.AvailabilityServiceConfig{
		LowThreshold:     cfg.Occupancy.LowThreshold,
		CrowdedThreshold: cfg.Occupancy.CrowdedThreshold,
		ImageURLPrefix:   cfg.Images.URLPrefix,
		CacheTTL:         cfg.Cache.StatusTTL,
	}
	var availabilitySvc *service.AvailabilityService
	if cfg.Cache.Enabled {
		availabilitySvc = service.NewAvailabilityService(classroomRepo, sessionRepo, occupancyRepo, imageStore, cacheRepo, logr, availabilityCfg)
	} else {
		availabilitySvc = service.NewAvailabilityService(classroomRepo, sessionRepo, occupancyRepo, imageStore, nil, logr, availabilityCfg)
	}

	authSvc := service.NewAuthService(userRepo, cacheRepo, nil, logr, service.AuthServiceConfig{
		JWTSecret:       cfg.JWT.Secret,
		AccessTokenTTL:  cfg.JWT.Expiration,
		RefreshTokenTTL: cfg.JWT.RefreshExpiration,
		GoogleClientID:  cfg.OAuth.GoogleClientID,
		GoogleSecret:    cfg.OAuth.GoogleClientSecret,
		RedirectURL:     cfg.OAuth.RedirectURL,
		StateTTL:        cfg.OAuth.StateTTL,
	})
	favoriteSvc := service.NewFavoriteService(favoriteRepo, classroomRepo, nil, logr)
	searchSvc := service.NewSearchHistoryService(searchRepo, nil, logr)

	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	reportSvc := service.NewReportService(reportRepo, occupancyRepo, classroomRepo, reportStore, signer, nil, logr, cfg.APIPrefix)

	reportQueue := jobs.NewQueue("reports", reportSvc.Process, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc.SetQueue(reportQueue)

	// Handlers.
	healthHandler := handler.NewHealthHandler(db, redisClient, version)
	authHandler := handler.NewAuthHandler(authSvc)
	classroomHandler := handler.NewClassroomHandler(classroomSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	occupancyHandler := handler.NewOccupancyHandler(occupancySvc, availabilitySvc, metricsSvc)
	favoriteHandler := handler.NewFavoriteHandler(favoriteSvc, searchSvc)
	reportHandler := handler.NewReportHandler(reportSvc, metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.Metrics(metricsSvc))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	r.GET("/health", healthHandler.Live)
	r.GET("/ready", healthHandler.Ready)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static(cfg.Images.URLPrefix, cfg.Images.StorageDir)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	requireAuth := middleware.JWT(authSvc)
	requireAdmin := middleware.RequireRoles(models.RoleAdmin)

	var directoryCache gin.HandlerFunc
	if cfg.Cache.Enabled {
		store := gocache.New(cfg.Cache.StatusTTL, 2*cfg.Cache.StatusTTL)
		directoryCache = middleware.ResponseCache(store, cfg.Cache.StatusTTL)
	}

	api := r.Group(cfg.APIPrefix)
	{
		auth := api.Group("/auth")
		{
			auth.GET("/login", authHandler.Login)
			auth.GET("/callback", authHandler.Callback)
			auth.POST("/admin/login", authHandler.AdminLogin)
			auth.POST("/refresh", authHandler.Refresh)
			auth.GET("/me", requireAuth, authHandler.Me)
			auth.POST("/logout", requireAuth, authHandler.Logout)
		}

		directory := api.Group("")
		if directoryCache != nil {
			directory.Use(directoryCache)
		}
		{
			directory.GET("/classrooms", classroomHandler.List)
			directory.GET("/classrooms/:id", classroomHandler.Get)
			directory.GET("/buildings", classroomHandler.ListBuildings)
		}

		api.POST("/classrooms", requireAuth, requireAdmin, classroomHandler.Create)
		api.PUT("/classrooms/:id", requireAuth, requireAdmin, classroomHandler.Update)
		api.DELETE("/classrooms/:id", requireAuth, requireAdmin, classroomHandler.Delete)

		api.GET("/sessions", sessionHandler.List)
		api.GET("/sessions/active", sessionHandler.ListActive)
		api.GET("/sessions/:id", sessionHandler.Get)
		api.GET("/classrooms/:id/sessions", sessionHandler.ListByClassroom)
		api.POST("/sessions", requireAuth, requireAdmin, sessionHandler.Create)
		api.POST("/sessions/bulk", requireAuth, requireAdmin, sessionHandler.BulkCreate)
		api.PUT("/sessions/:id", requireAuth, requireAdmin, sessionHandler.Update)
		api.DELETE("/sessions/:id", requireAuth, requireAdmin, sessionHandler.Delete)

		api.GET("/occupancy/status", occupancyHandler.StatusBoard)
		api.GET("/classrooms/:id/status", occupancyHandler.ClassroomStatus)
		api.GET("/classrooms/:id/occupancy", occupancyHandler.Get)
		api.PUT("/classrooms/:id/occupancy", occupancyHandler.Update)
		api.GET("/classrooms/:id/occupancy/history", occupancyHandler.History)

		api.GET("/favorites", requireAuth, favoriteHandler.List)
		api.POST("/favorites", requireAuth, favoriteHandler.Add)
		api.DELETE("/favorites/:classroomId", requireAuth, favoriteHandler.Remove)
		api.GET("/search-history", requireAuth, favoriteHandler.SearchHistory)
		api.POST("/search-history", requireAuth, favoriteHandler.RecordSearch)
		api.DELETE("/search-history/:id", requireAuth, favoriteHandler.RemoveSearch)
		api.DELETE("/search-history", requireAuth, favoriteHandler.ClearSearches)

		if cfg.Reports.Enabled {
			api.POST("/reports", requireAuth, reportHandler.Create)
			api.GET("/reports", requireAuth, reportHandler.List)
			api.GET("/reports/:id", requireAuth, reportHandler.Get)
			api.GET("/reports/download/:token", reportHandler.Download)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Reports.Enabled {
		reportQueue.Start(ctx)
		defer reportQueue.Stop()
		go cleanupReports(ctx, reportStore, cfg.Reports.CleanupInterval, logr)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func cleanupReports(ctx context.Context, store *storage.LocalStorage, interval time.Duration, logr *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(reportRetention)
			if err != nil {
				logr.Sugar().Warnw("report cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("report artifacts cleaned", "count", len(removed))
			}
		}
	}
}
