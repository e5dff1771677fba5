// Package router provides HTTP routing, middleware configuration, and server setup for the web application
package router

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/onsia-realty/onsia-crm/app/dto"
	"github.com/onsia-realty/onsia-crm/app/handlers"
	"github.com/onsia-realty/onsia-crm/app/middleware"
	"github.com/onsia-realty/onsia-crm/models"
	"github.com/onsia-realty/onsia-crm/utils"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router interface for HTTP routing
type Router interface {
	SetupRoutes()
	Start(address string) error
	GetApp() *fiber.App
}

// Handlers bundles everything the router mounts
type Handlers struct {
	Auth            handlers.AuthHandlerInterface
	Customer        handlers.CustomerHandlerInterface
	Allocation      handlers.AllocationHandlerInterface
	TransferRequest handlers.TransferRequestHandlerInterface
	Quota           handlers.QuotaHandlerInterface
	Blacklist       handlers.BlacklistHandlerInterface
}

// FiberRouter implements Router using Fiber v3
type FiberRouter struct {
	app      *fiber.App
	h        Handlers
	authMw   *middleware.AuthMiddleware
	corsOrig []string
}

// NewFiberRouter creates a new Fiber router
func NewFiberRouter(h Handlers, authMw *middleware.AuthMiddleware, corsOrigins []string) Router {
	app := fiber.New(fiber.Config{
		AppName:      "Onsia CRM API",
		ServerHeader: "Onsia-CRM",
		ErrorHandler: errorHandler,
		BodyLimit:    4 * 1024 * 1024, // 4MB
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	return &FiberRouter{
		app:      app,
		h:        h,
		authMw:   authMw,
		corsOrig: corsOrigins,
	}
}

// SetupRoutes configures all application routes
func (r *FiberRouter) SetupRoutes() {
	log.Println("Setting up routes...")

	r.setupMiddleware()

	// Prometheus scrape endpoint, outside the API group and its limiter
	r.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := r.app.Group("/api/v1")

	// Health check route (no rate limiting)
	api.Get("/health", r.healthCheck)

	// General rate limiting for all API routes
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

	// Auth routes with stricter rate limiting
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:        20,
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

	auth.Post("/login", r.h.Auth.Login)
	auth.Post("/refresh", r.h.Auth.Refresh)

	adminTier := r.authMw.RequireRoles(models.RoleManager, models.RoleAdmin, models.RoleSuperAdmin)

	// Customer records
	customers := api.Group("/customers", r.authMw.Authenticate())
	customers.Post("/", r.h.Customer.Create)
	customers.Get("/", r.h.Customer.List)
	customers.Get("/ids", r.h.Customer.ListIDs)
	customers.Get("/export", r.h.Customer.Export, adminTier)

	// Distribution operations sit before the :id routes so the path
	// segments are not swallowed by the parameter.
	customers.Post("/allocate", r.h.Allocation.Allocate, adminTier)
	customers.Patch("/pool", r.h.Allocation.SetPool)
	customers.Post("/recall", r.h.Allocation.Recall, adminTier)
	customers.Post("/bulk-delete", r.h.Allocation.BulkDelete, adminTier)

	customers.Get("/:id", r.h.Customer.Get)
	customers.Put("/:id", r.h.Customer.Update)
	customers.Get("/:id/duplicates", r.h.Customer.Duplicates)
	customers.Post("/:id/calls", r.h.Customer.LogCall)
	customers.Get("/:id/calls", r.h.Customer.ListCalls)
	customers.Get("/:id/transfers", r.h.Customer.TransferHistory, adminTier)
	customers.Post("/:id/claim", r.h.Allocation.Claim)

	// Transfer requests
	transfers := api.Group("/transfer-requests", r.authMw.Authenticate())
	transfers.Post("/", r.h.TransferRequest.Create)
	transfers.Get("/", r.h.TransferRequest.List)
	transfers.Patch("/:id", r.h.TransferRequest.Resolve, adminTier)

	// Daily quotas
	quotas := api.Group("/quotas", r.authMw.Authenticate())
	quotas.Get("/status", r.h.Quota.Status)
	quotas.Get("/exceeded", r.h.Quota.ListExceeded, adminTier)
	quotas.Post("/extend", r.h.Quota.GrantExtension, adminTier)

	// Blacklist registry
	blacklist := api.Group("/blacklist", r.authMw.Authenticate(), adminTier)
	blacklist.Post("/", r.h.Blacklist.Register)
	blacklist.Get("/", r.h.Blacklist.List)
	blacklist.Delete("/:id", r.h.Blacklist.Deactivate)

	// Not found handler
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
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'; frame-ancestors 'none';",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	// CORS middleware
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: r.corsOrig,
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
			"Content-Disposition",
		},
		AllowCredentials: true,
		MaxAge:           utils.CORSMaxAge,
	}))

	// Compression middleware
	r.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Structured request logging
	r.app.Use(logger.New(logger.Config{
		Format:     `{"time":"${time}","pid":"${pid}","request_id":"${locals:requestid}","level":"info","method":"${method}","path":"${path}","ip":"${ip}","user_agent":"${ua}","status":${status},"latency":"${latency}","bytes_in":${bytesReceived},"bytes_out":${bytesSent}}` + "\n",
		TimeFormat: time.RFC3339,
		TimeZone:   "UTC",
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/api/v1/health"
		},
	}))

	// Prometheus HTTP metrics
	r.app.Use(middleware.Metrics())

	// Recovery middleware
	r.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
		StackTraceHandler: func(c fiber.Ctx, e interface{}) {
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

// Health check endpoint
func (r *FiberRouter) healthCheck(c fiber.Ctx) error {
	return c.JSON(dto.APIResponse{
		Success: true,
		Message: "Service is healthy",
		Data: fiber.Map{
			"status":    "healthy",
			"timestamp": utils.UTCNow().Unix(),
		},
	})
}

func (r *FiberRouter) notFoundHandler(c fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(dto.APIResponse{
		Success: false,
		Message: "Endpoint not found",
		Error: dto.ErrorDetail{
			Code: "NOT_FOUND",
			Details: fiber.Map{
				"path":   c.Path(),
				"method": c.Method(),
			},
		},
	})
}

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
