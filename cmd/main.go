package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "hotspotpay/docs"
	"hotspotpay/internal/caching"
	"hotspotpay/internal/config"
	"hotspotpay/internal/handlers"
	"hotspotpay/internal/jobs/background"
	"hotspotpay/internal/metrics"
	"hotspotpay/internal/middleware"
	"hotspotpay/internal/repositories"
	"hotspotpay/internal/services"
	"hotspotpay/pkg/database"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	metrics.InitMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPool(ctx, cfg.DatabaseURL, database.PoolOptions{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	cacheSvc := caching.NewRedisCacheService(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err := cacheSvc.Ping(ctx); err != nil {
		log.Printf("WARN: Redis unavailable at %s, continuing without cache: %v", cfg.Redis.Addr, err)
	}

	var archive services.CallbackArchive
	if cfg.Minio.Endpoint != "" {
		minioArchive, err := services.NewMinioCallbackArchive(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.Bucket, cfg.Minio.UseSSL)
		if err != nil {
			log.Fatalf("Failed to initialize MinIO callback archive: %v", err)
		}
		if err := minioArchive.EnsureBucketExists(ctx); err != nil {
			log.Printf("WARN: callback archive bucket check failed: %v", err)
		}
		archive = minioArchive
	} else {
		log.Printf("MINIO_ENDPOINT not set, callback archiving disabled")
	}

	// Repositories
	planRepo := repositories.NewPlanRepo(pool)
	subscriptionRepo := repositories.NewSubscriptionRepo(pool)
	transactionRepo := repositories.NewTransactionRepo(pool)

	// Services
	gateway := services.NewDarajaService(cfg.Mpesa, cacheSvc)
	paymentSvc := services.NewPaymentService(pool, gateway, cacheSvc, archive, services.PaymentOptions{
		AccountReference: cfg.Mpesa.AccountReference,
		InitiateLimit:    cfg.InitiateLimit,
		InitiateWindow:   cfg.InitiateWindow,
	})
	planSvc := services.NewPlanService(planRepo, cacheSvc)
	subscriptionSvc := services.NewSubscriptionService(subscriptionRepo)
	reaperSvc := services.NewReaperService(transactionRepo)

	if cfg.PlanSeedFile != "" {
		seed, err := config.LoadPlanSeed(cfg.PlanSeedFile)
		if err != nil {
			log.Fatalf("Failed to load plan seed file: %v", err)
		}
		inserted, err := planSvc.Seed(ctx, seed)
		if err != nil {
			log.Fatalf("Failed to seed plans: %v", err)
		}
		log.Printf("Seeded %d new plans from %s", inserted, cfg.PlanSeedFile)
	}

	scheduler, err := background.NewJobScheduler(reaperSvc, cfg.ReaperInterval)
	if err != nil {
		log.Fatalf("Failed to create job scheduler: %v", err)
	}
	scheduler.Start()
	defer func() {
		if err := scheduler.Stop(); err != nil {
			log.Printf("WARN: scheduler shutdown: %v", err)
		}
	}()

	adminAuth, err := middleware.NewAdminAuth(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to configure admin auth: %v", err)
	}
	defer adminAuth.Close()

	// Handlers
	paymentHandlers := handlers.NewPaymentHandlers(paymentSvc)
	subscriptionHandlers := handlers.NewSubscriptionHandlers(subscriptionSvc)
	planHandlers := handlers.NewPlanHandlers(planSvc)
	jobHandlers := handlers.NewJobHandlers(reaperSvc, scheduler)
	healthHandlers := handlers.NewHealthHandlers(pool, cacheSvc, version)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewRequestValidator()

	// Global middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORSWithConfig(echoMiddleware.CORSConfig{AllowOrigins: cfg.CORSOrigins}))
	e.Pre(echoMiddleware.RemoveTrailingSlash())
	e.Use(middleware.Metrics())
	e.Use(middleware.NewVersionMiddleware(version).VersionHeader())

	// Ops endpoints
	e.GET("/health", healthHandlers.HealthCheck)
	e.GET("/health/ready", healthHandlers.ReadinessCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	api.POST("/initiate-stk", paymentHandlers.InitiateSTK)
	api.POST("/stk-callback", paymentHandlers.STKCallback)
	api.GET("/check-stk-status", paymentHandlers.CheckSTKStatus)
	api.GET("/stk-transaction-details", paymentHandlers.GetTransactionDetails)
	api.GET("/check-subscription", subscriptionHandlers.CheckSubscription)
	api.GET("/plans", planHandlers.ListPlans)

	admin := api.Group("/admin", adminAuth.Middleware())
	admin.POST("/plans", planHandlers.CreatePlan)
	admin.POST("/reaper/run", jobHandlers.RunReaper)
	admin.GET("/jobs", jobHandlers.GetJobStatus)

	go func() {
		log.Printf("Hotspot pay server v%s starting on port %s", version, cfg.Port)
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("ERROR: server shutdown: %v", err)
	}
}
