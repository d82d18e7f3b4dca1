// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/bindlabs/bind/app/dto"
	"github.com/bindlabs/bind/app/handlers"
	"github.com/bindlabs/bind/app/middleware"
	"github.com/bindlabs/bind/utils"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers bundles the handler implementations the router mounts
type Handlers struct {
	Auth      handlers.AuthHandlerInterface
	Profile   handlers.ProfileHandlerInterface
	Link      handlers.LinkHandlerInterface
	Analytics handlers.AnalyticsHandlerInterface
	Asset     handlers.AssetHandlerInterface
	Public    handlers.PublicProfileHandlerInterface
	Admin     handlers.AdminHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	handlers Handlers
	auth     *middleware.AuthMiddleware
	db       *gorm.DB
	cache    *redis.Client
	origins  []string
}

// NewFiberRouter creates a new Fiber router. cache may be nil when redis is
// not configured; the health check then skips it.
func NewFiberRouter(h Handlers, auth *middleware.AuthMiddleware, db *gorm.DB, cache *redis.Client, allowedOrigins []string) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Bind API",
		ServerHeader: "Bind",
		ErrorHandler: errorHandler,
		BodyLimit:    utils.MaxAssetSize + 1024*1024,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:      app,
		handlers: h,
		auth:     auth,
		db:       db,
		cache:    cache,
		origins:  allowedOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	api.Use(limiter.New(limiter.Config{
		Max:        2000,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Identity bootstrap, authenticated by the external auth token
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(dto.APIResponse{
				Success: false,
				Message: "Too many requests. Please try again later.",
				Error: dto.ErrorDetail{
					Code: "RATE_LIMIT_EXCEEDED",
				},
			})
		},
	}))
	auth.Post("/bootstrap", r.handlers.Auth.Bootstrap, r.auth.Authenticate())

	// Own-profile management
	profile := api.Group("/profile", r.auth.Authenticate())
	profile.Get("/", r.handlers.Profile.GetProfile)
	profile.Patch("/", r.handlers.Profile.UpdateProfile)
	profile.Patch("/customize", r.handlers.Profile.UpdateCustomization)
	profile.Patch("/customize/live", r.handlers.Profile.UpdateCustomizationLive)
	profile.Put("/badges", r.handlers.Profile.EquipBadges)
	profile.Put("/assets/:slot", r.handlers.Asset.ReplaceAsset)
	profile.Delete("/assets/:slot", r.handlers.Asset.ClearAsset)

	// Link collection
	links := api.Group("/links", r.auth.Authenticate())
	links.Get("/", r.handlers.Link.GetLinks)
	links.Put("/", r.handlers.Link.SaveLinks)

	// Analytics
	analytics := api.Group("/analytics", r.auth.Authenticate())
	analytics.Get("/", r.handlers.Analytics.GetAnalytics)
	analytics.Get("/export", r.handlers.Analytics.ExportAnalytics)

	// Public event ingestion from rendered pages
	api.Post("/events", r.handlers.Analytics.RecordEvent)

	// Admin
	admin := api.Group("/admin", r.auth.Authenticate())
	admin.Post("/profiles/:uuid/role", r.handlers.Admin.SetRole)
	admin.Get("/profiles", r.handlers.Admin.ListProfiles)
	admin.Get("/profiles/:uuid/audit", r.handlers.Admin.GetAuditTrail)

	// Public profile pages
	r.app.Get("/u/:username", r.handlers.Public.GetPublicProfile)

	r.app.Use(r.notFoundHandler)

	log.Println("Routes configured successfully")
}

// setupMiddleware configures global middleware
func (r *FiberRouter) setupMiddleware() {
	// Request ID middleware - must be first
	r.app.Use(requestid.New(requestid.Config{
		Header: "X-Request-ID",
		Generator: func() string {
			return generateRequestID()
		},
	}))

	// Security headers middleware
	r.app.Use(helmet.New(helmet.Config{
		XSSProtection:             "1; mode=block",
		ContentTypeNosniff:        "nosniff",
		XFrameOptions:             "DENY",
		HSTSMaxAge:                31536000,
		HSTSExcludeSubdomains:     false,
		ContentSecurityPolicy:     "default-src 'self'; img-src 'self' data: https:; connect-src 'self' https:; frame-ancestors 'none';",
		ReferrerPolicy:            "strict-origin-when-cross-origin",
		CrossOriginOpenerPolicy:   "same-origin",
		CrossOriginResourcePolicy: "cross-origin",
		OriginAgentCluster:        "?1",
		XDNSPrefetchControl:       "off",
		XDownloadOptions:          "noopen",
		XPermittedCrossDomain:     "none",
	}))

	// CORS middleware
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.origins,
		AllowMethods: []string{
			"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Accept",
			"Authorization",
			"X-Requested-With",
			"X-Request-ID",
			"Cache-Control",
		},
		ExposeHeaders: []string{
			"X-Request-ID",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression middleware
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
		Next: func(c fiber.Ctx) bool {
			contentType := c.Get("Content-Type")
			return strings.Contains(contentType, "image/") ||
				strings.Contains(contentType, "video/") ||
				strings.Contains(contentType, "audio/")
		},
	}))

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","protocol":"${protocol}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent},"referer":"${referer}"}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Prometheus metrics
	r.app.Use(middleware.Metrics())

	// Recovery middleware with custom error handling
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e any) {
			log.Printf(`{"time":"%s","level":"error","request_id":"%s","event":"panic","error":"%v","path":"%s","method":"%s","ip":"%s"}`,
				utils.UTCNow().Format(time.RFC3339),
				c.Locals("requestid"),
				e,
				c.Path(),
				c.Method(),
				c.IP(),
			)
		},
	}))
}

// Start starts the HTTP server
func (r *FiberRouter) Start(address string) error {
	log.Printf("Starting server on %s", address)
	return r.app.Listen(address)
}

// GetApp returns the Fiber app instance
func (r *FiberRouter) GetApp() *fiber.App {
	return r.app
}

// healthCheck reports the service status along with its dependencies. A
// failing dependency degrades the report but keeps the endpoint at 200 so
// load balancers do not flap on transient database hiccups.
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	status := "ok"
	checks := fiber.Map{}

	if sqlDB, err := r.db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
		status = "degraded"
		checks["database"] = "unreachable"
	} else {
		checks["database"] = "ok"
	}

	if r.cache != nil {
		if err := r.cache.Ping(ctx).Err(); err != nil {
			status = "degraded"
			checks["cache"] = "unreachable"
		} else {
			checks["cache"] = "ok"
		}
	}

	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    status,
			"checks":    checks,
			"timestamp": utils.UTCNow().Unix(),
			"version":   "1.0.0",
			"service":   "bind-api",
		},
	})
}

// notFoundHandler handles unmatched routes
func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	requestID := c.Locals("requestid")

	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "The requested resource was not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":       c.Path(),
				"method":     c.Method(),
				"request_id": requestID,
			},
		},
	})
}

// errorHandler is the global Fiber error handler
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("Error %d: %v", code, err)

	requestID := c.Locals("requestid")

	return c.Status(code).JSON(dto.APIResponse{
		Success: false,
		Message: "An internal server error occurred",
		Error: dto.ErrorDetail{
			Code: "INTERNAL_ERROR",
			Details: fiber.Map{
				"timestamp":  utils.UTCNow().Unix(),
				"request_id": requestID,
			},
		},
	})
}

// generateRequestID creates a unique request ID
func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
