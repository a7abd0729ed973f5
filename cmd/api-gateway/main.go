package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/hostel-gatepass-api/api/swagger"
	"github.com/noah-isme/hostel-gatepass-api/internal/handler"
	"github.com/noah-isme/hostel-gatepass-api/internal/middleware"
	"github.com/noah-isme/hostel-gatepass-api/internal/models"
	"github.com/noah-isme/hostel-gatepass-api/internal/repository"
	"github.com/noah-isme/hostel-gatepass-api/internal/service"
	"github.com/noah-isme/hostel-gatepass-api/pkg/cache"
	"github.com/noah-isme/hostel-gatepass-api/pkg/config"
	"github.com/noah-isme/hostel-gatepass-api/pkg/database"
	"github.com/noah-isme/hostel-gatepass-api/pkg/jobs"
	"github.com/noah-isme/hostel-gatepass-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/hostel-gatepass-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/hostel-gatepass-api/pkg/middleware/requestid"
	"github.com/noah-isme/hostel-gatepass-api/pkg/qrtoken"
)

// @title Hostel Gatepass API
// @version 1.0.0
// @description Outing pass management for hostel students, wardens and gate guards
// @BasePath /api/v1
// @schemes http

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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.Migrate(ctx, db, cfg.Database.MigrationsDir); err != nil {
		logr.Sugar().Fatalw("failed to apply migrations", "error", err)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and events disabled", "error", err)
		redisClient = nil
	}

	userRepo := repository.NewUserRepository(db)
	passRepo := repository.NewPassRepository(db)
	gateRepo := repository.NewGateConfigRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	seedGateConfig(ctx, gateRepo, cfg, logr)

	// One mutex serializes every admission decision and the writes it
	// implies, across application, resolution and capacity changes.
	engineMu := &sync.Mutex{}

	signer := qrtoken.NewSigner(cfg.QR.Secret, cfg.QR.TTL)
	metricsSvc := service.NewMetricsService()

	notifier := service.NewNotifierService(cacheRepo, cfg.Events.Channel, jobs.QueueConfig{
		Workers:    cfg.Events.Workers,
		BufferSize: cfg.Events.BufferSize,
		Logger:     logr,
	}, logr)
	notifier.Start(ctx)
	defer notifier.Stop()

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "hostel-gatepass-api",
	})
	passSvc := service.NewPassService(passRepo, gateRepo, userRepo, signer, engineMu, nil, logr)
	scanSvc := service.NewScanService(passRepo, engineMu, logr)
	gateSvc := service.NewGateService(gateRepo, passRepo, engineMu, logr)
	dashboardSvc := service.NewDashboardService(passRepo, gateRepo, cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, cfg.Dashboard.CacheEnabled, logr)
	exportSvc := service.NewExportService(passRepo, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	passHandler := handler.NewPassHandler(passSvc, notifier, dashboardSvc, metricsSvc)
	scanHandler := handler.NewScanHandler(scanSvc, notifier, dashboardSvc, metricsSvc)
	gateHandler := handler.NewGateHandler(gateSvc, notifier, dashboardSvc, metricsSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	exportHandler := handler.NewExportHandler(exportSvc, passSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		version, err := database.SchemaVersion(c.Request.Context(), db)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "schema_version": version})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	passes := api.Group("/passes", middleware.JWT(authSvc))
	{
		passes.POST("",
			middleware.RequireRoles(models.RoleStudent),
			passHandler.Create)
		passes.GET("", passHandler.List)
		passes.GET("/:id", passHandler.Get)
		passes.GET("/:id/qr", exportHandler.QR)
		passes.GET("/:id/slip", exportHandler.Slip)
		passes.PUT("/:id/status",
			middleware.RequireRoles(models.RoleWarden),
			middleware.Audit(userRepo, models.AuditActionPassStatusSet, "pass"),
			passHandler.SetStatus)
	}

	scans := api.Group("/scans", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleGuard, models.RoleWarden))
	{
		scans.POST("/exit",
			middleware.Audit(userRepo, models.AuditActionGateScan, "pass"),
			scanHandler.Exit)
		scans.POST("/entry",
			middleware.Audit(userRepo, models.AuditActionGateScan, "pass"),
			scanHandler.Entry)
	}

	gate := api.Group("/gate")
	{
		gate.GET("", middleware.JWT(authSvc), gateHandler.Status)
		gate.PUT("/window",
			middleware.JWT(authSvc),
			middleware.RequireRoles(models.RoleWarden),
			middleware.Audit(userRepo, models.AuditActionWindowToggle, "gate"),
			gateHandler.SetWindow)
		gate.PUT("/capacity",
			middleware.JWT(authSvc),
			middleware.RequireRoles(models.RoleWarden),
			middleware.Audit(userRepo, models.AuditActionCapacitySet, "gate"),
			gateHandler.SetCapacity)
	}

	api.GET("/dashboard",
		middleware.JWT(authSvc),
		middleware.RequireRoles(models.RoleWarden),
		dashboardHandler.Overview)

	api.GET("/exports/register",
		middleware.JWT(authSvc),
		middleware.RequireRoles(models.RoleWarden, models.RoleGuard),
		exportHandler.Register)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

// seedGateConfig makes sure the singleton configuration row exists so the
// engine never starts against an empty table.
func seedGateConfig(ctx context.Context, repo *repository.GateConfigRepository, cfg *config.Config, logr *zap.Logger) {
	if _, err := repo.Get(ctx); err == nil || !errors.Is(err, sql.ErrNoRows) {
		return
	}
	seeded := &models.GateConfig{
		WindowOpen:  true,
		Capacity:    cfg.Gate.DefaultCapacity,
		OpeningTime: cfg.Gate.OpeningTime,
	}
	if err := repo.Save(ctx, seeded); err != nil {
		logr.Sugar().Warnw("failed to seed gate config", "error", err)
		return
	}
	logr.Sugar().Infow("seeded gate config", "capacity", seeded.Capacity, "window_open", seeded.WindowOpen)
}
