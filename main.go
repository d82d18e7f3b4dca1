// Package main provides the main entry point for the Bind profile service
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"gopkg.in/natefinch/lumberjack.v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bindlabs/bind/app/handlers"
	"github.com/bindlabs/bind/app/middleware"
	"github.com/bindlabs/bind/app/router"
	"github.com/bindlabs/bind/app/services"
	businessflow "github.com/bindlabs/bind/business_flow"
	"github.com/bindlabs/bind/config"
	"github.com/bindlabs/bind/models"
	"github.com/bindlabs/bind/repository"
	"github.com/bindlabs/bind/utils"
)

// Application represents the main application structure
type Application struct {
	router    router.Router
	config    *config.Config
	stopFuncs []func()
}

func main() {
	log.Println("Starting Bind application...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg.Logging)

	app, err := initializeApplication(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	app.router.SetupRoutes()

	if cfg.Metrics.Enabled {
		stopMetrics := startMetricsServer(cfg.Metrics)
		app.stopFuncs = append(app.stopFuncs, stopMetrics)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := app.router.Start(address); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-sigChan
	log.Println("Shutting down gracefully...")

	// Stop background workers before the server so pending coalesced
	// writes land while the database is still reachable.
	for _, fn := range app.stopFuncs {
		fn()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := app.router.GetApp().ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}

	log.Println("Server stopped")
}

// setupLogging points the standard logger at a rotating file when configured
func setupLogging(cfg config.LoggingConfig) {
	if cfg.Output != "file" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.FilePath,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
}

// initializeDatabase initializes the database connection with connection pooling
func initializeDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.Profile{},
		&models.Link{},
		&models.AnalyticsEvent{},
		&models.AuditLog{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	log.Printf("Database connection established with %d max open connections, %d max idle connections",
		cfg.MaxOpenConns, cfg.MaxIdleConns)

	return db, nil
}

// initializeCache initializes the redis client and verifies connectivity
func initializeCache(cfg config.CacheConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	rc := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisURL,
		Password: cfg.Password,
		DB:       cfg.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rc.Ping(ctx).Err(); err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Printf("Redis connection established to %s (db=%d)", cfg.RedisURL, cfg.RedisDB)
	return rc, nil
}

// startCacheHealthMonitor starts a background goroutine that periodically
// pings redis to detect connectivity issues. The returned cancel function
// stops the monitor.
func startCacheHealthMonitor(parent context.Context, client *redis.Client, interval time.Duration) func() {
	monitorCtx, cancel := context.WithCancel(parent)
	if interval <= 0 {
		interval = 30 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-monitorCtx.Done():
				return
			case <-ticker.C:
				ctx, c := context.WithTimeout(context.Background(), 3*time.Second)
				if err := client.Ping(ctx).Err(); err != nil {
					log.Printf("Redis healthcheck failed: %v", err)
				}
				c()
			}
		}
	}()
	return cancel
}

// initializeStorage builds the object storage backend from config
func initializeStorage(cfg config.StorageConfig) businessflow.ObjectStorage {
	if cfg.Provider == "local" {
		log.Printf("Using local asset storage at %s", cfg.LocalDir)
		return services.NewLocalDiskStorage(cfg.LocalDir, cfg.PublicBaseURL)
	}
	return services.NewHTTPObjectStorage(cfg.Endpoint, cfg.Bucket, cfg.AccessKey, cfg.PublicBaseURL, cfg.Timeout)
}

// startMetricsServer exposes the prometheus registry on its own port
func startMetricsServer(cfg config.MetricsConfig) func() {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
	}
	go func() {
		log.Printf("Metrics server listening on :%d%s", cfg.Port, cfg.Path)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Metrics server error: %v", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// initializeApplication initializes the main application components
func initializeApplication(cfg *config.Config) (*Application, error) {
	var stopFuncs []func()

	db, err := initializeDatabase(cfg.Database)
	if err != nil {
		return nil, err
	}

	rc, err := initializeCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		stopFuncs = append(stopFuncs, startCacheHealthMonitor(context.Background(), rc, 30*time.Second))
	}

	// Repositories
	profileRepo := repository.NewProfileRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	eventRepo := repository.NewAnalyticsEventRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// External services
	storage := initializeStorage(cfg.Storage)
	tokenService, err := services.NewTokenService(
		cfg.JWT.AccessTokenTTL,
		cfg.JWT.RefreshTokenTTL,
		cfg.JWT.Issuer,
		cfg.JWT.Audience,
		cfg.JWT.UseRSAKeys,
		cfg.JWT.PrivateKey,
		cfg.JWT.PublicKey,
		cfg.JWT.SecretKey,
		rc,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token service: %w", err)
	}

	var throttle businessflow.ViewThrottle
	if rc != nil {
		throttle = services.NewRedisViewThrottle(rc, utils.ViewThrottleWindow)
	}

	// Business flows
	identityFlow := businessflow.NewIdentityFlow(profileRepo, db)
	profileFlow := businessflow.NewProfileFlow(profileRepo, db)
	linkFlow := businessflow.NewLinkFlow(profileRepo, linkRepo, db)
	analyticsFlow := businessflow.NewAnalyticsFlow(profileRepo, linkRepo, eventRepo, throttle)
	publicFlow := businessflow.NewPublicProfileFlow(profileRepo, linkRepo, analyticsFlow)
	assetFlow := businessflow.NewAssetFlow(profileRepo, storage)
	adminFlow := businessflow.NewAdminFlow(profileRepo, auditRepo, db)

	coalescer := businessflow.NewCustomizationCoalescer(profileFlow, utils.CoalescerQuietWindow)
	stopFuncs = append(stopFuncs, coalescer.Start())

	// Handlers
	h := router.Handlers{
		Auth:      handlers.NewAuthHandler(identityFlow),
		Profile:   handlers.NewProfileHandler(profileFlow, coalescer),
		Link:      handlers.NewLinkHandler(linkFlow),
		Analytics: handlers.NewAnalyticsHandler(analyticsFlow),
		Asset:     handlers.NewAssetHandler(assetFlow),
		Public:    handlers.NewPublicProfileHandler(publicFlow),
		Admin:     handlers.NewAdminHandler(adminFlow),
	}

	authMiddleware := middleware.NewAuthMiddleware(tokenService)

	r := router.NewFiberRouter(h, authMiddleware, db, rc, cfg.Security.AllowedOrigins)

	return &Application{
		router:    r,
		config:    cfg,
		stopFuncs: stopFuncs,
	}, nil
}
