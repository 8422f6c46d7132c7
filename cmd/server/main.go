package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	paymentapp "github.com/schoolmgmt/backend/internal/application/payment"
	"github.com/schoolmgmt/backend/internal/infrastructure/auth"
	"github.com/schoolmgmt/backend/internal/infrastructure/cache"
	"github.com/schoolmgmt/backend/internal/infrastructure/config"
	"github.com/schoolmgmt/backend/internal/infrastructure/logger"
	"github.com/schoolmgmt/backend/internal/infrastructure/persistence"
	"github.com/schoolmgmt/backend/internal/infrastructure/scheduler"
	"github.com/schoolmgmt/backend/internal/infrastructure/telemetry"
	"github.com/schoolmgmt/backend/internal/interfaces/http/handler"
	"github.com/schoolmgmt/backend/internal/interfaces/http/middleware"
	"github.com/schoolmgmt/backend/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting school payments backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Tracing
	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
			log.Warn("Tracer shutdown failed", zap.Error(err))
		}
	}()

	// Database with zap-backed gorm logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.TraceDB,
		SlowQueryThresh: cfg.Telemetry.SlowQueryThreshold,
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	// Repositories
	detailRepo := persistence.NewGormPaymentDetailRepository(db.DB)
	groupRepo := persistence.NewGormGroupRepository(db.DB)
	sessionRepo := persistence.NewGormSessionRepository(db.DB)
	attendanceRepo := persistence.NewGormAttendanceRepository(db.DB)
	enrollmentRepo := persistence.NewGormEnrollmentRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Roster status cache: Redis when enabled, in-memory as fallback
	cacheFactory := cache.NewRosterCacheFactory(cfg.Redis, cfg.Cache,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(true),
	)
	rosterCache, err := cacheFactory.CreateCache()
	if err != nil {
		log.Fatal("Failed to initialize roster cache", zap.Error(err))
	}

	// Application services
	paymentService := paymentapp.NewPaymentService(txScope, groupRepo, sessionRepo, attendanceRepo, enrollmentRepo, rosterCache, log)
	statusService := paymentapp.NewStatusService(detailRepo, groupRepo, sessionRepo, attendanceRepo, enrollmentRepo, rosterCache, log)
	correctionService := paymentapp.NewCorrectionService(txScope, groupRepo, sessionRepo, rosterCache, log)

	// JWT service for staff identity
	jwtService := auth.NewJWTService(cfg.JWT)

	// Overdue sweeper
	sweeper := scheduler.NewOverdueSweeper(statusService, groupRepo, log, scheduler.OverdueSweeperConfig{
		Enabled:  cfg.Sweep.Enabled,
		Interval: cfg.Sweep.Interval,
	})
	if err := sweeper.Start(context.Background()); err != nil {
		log.Fatal("Failed to start overdue sweeper", zap.Error(err))
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sweeper.Stop(stopCtx); err != nil {
			log.Warn("Overdue sweeper stop timed out", zap.Error(err))
		}
	}()

	// Handlers
	paymentHandler := handler.NewPaymentHandler(paymentService)
	statusHandler := handler.NewStatusHandler(statusService)
	correctionHandler := handler.NewCorrectionHandler(correctionService)
	systemHandler := handler.NewSystemHandler(db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.SpanErrorMarker())

	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// Health endpoint outside API versioning and authentication
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
		JWTService: jwtService,
		SkipPaths: []string{
			"/api/v1/system/ping",
			"/api/v1/system/info",
		},
		Logger: log,
	})

	// Payment intake and lookup
	paymentRoutes := router.NewGroup("/payments").Use(jwtMiddleware)
	paymentRoutes.POST("/series", paymentHandler.PaySeries)
	paymentRoutes.POST("/catch-up", paymentHandler.PayCatchUp)
	paymentRoutes.GET("/:id", paymentHandler.GetByID)
	paymentRoutes.POST("/:id/cancel", paymentHandler.Cancel)
	paymentRoutes.POST("/:id/recalculate", correctionHandler.Recalculate)

	// Student views
	studentRoutes := router.NewGroup("/students").Use(jwtMiddleware)
	studentRoutes.GET("/:id/payments", paymentHandler.ListByStudent)
	studentRoutes.GET("/:id/payment-status", statusHandler.GetStudentStatus)

	// Group roster view
	groupRoutes := router.NewGroup("/groups").Use(jwtMiddleware)
	groupRoutes.GET("/:id/payment-status", statusHandler.GetGroupStatus)

	// Allocation corrections and audit trail
	detailRoutes := router.NewGroup("/details").Use(jwtMiddleware)
	detailRoutes.PATCH("/:id", correctionHandler.UpdateDetail)
	detailRoutes.DELETE("/:id", correctionHandler.DeleteDetail)
	detailRoutes.GET("/:id/audits", correctionHandler.GetAuditHistory)

	// Session validity toggle
	sessionRoutes := router.NewGroup("/sessions").Use(jwtMiddleware)
	sessionRoutes.PUT("/:id/validity", correctionHandler.SetSessionValidity)

	// System endpoints
	systemRoutes := router.NewGroup("/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)

	r.Register(paymentRoutes).
		Register(studentRoutes).
		Register(groupRoutes).
		Register(detailRoutes).
		Register(sessionRoutes).
		Register(systemRoutes)

	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
