// server.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/hireline/pkg/config"
	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/Abraxas-365/hireline/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "serve",
		Short:        "Run the HTTP API and background workers",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts.cfg)
		},
	}
}

func runServe(cfg *config.Config) error {
	logx.Info("🚀 Starting Hireline API Server...")
	logx.Infof("Environment: %s", cfg.Environment)

	container := NewContainer(cfg)
	defer container.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	container.StartBackgroundServices(ctx)
	container.StreamHandlers.WithBaseContext(ctx)

	app := newApp(container)
	return startServer(app, cfg, cancel)
}

// newApp builds the Fiber application with every route mounted
func newApp(container *Container) *fiber.App {
	cfg := container.Config

	app := fiber.New(fiber.Config{
		AppName:               "Hireline API",
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler(cfg),
		BodyLimit:             cfg.Server.BodyLimitBytes(),
		IdleTimeout:           cfg.Server.IdleTimeout,
	})

	setupMiddleware(app, cfg)

	app.Get("/health", healthCheckHandler(container))
	app.Get("/", infoHandler(cfg))

	registerRoutes(app, container)

	app.Use(notFoundHandler)
	return app
}

// ============================================================================
// Setup Functions
// ============================================================================

func setupMiddleware(app *fiber.App, cfg *config.Config) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: cfg.IsDevelopment(),
	}))

	app.Use(requestid.New(requestid.Config{
		Header:    "X-Request-ID",
		Generator: uuid.NewString,
	}))

	corsOrigins := cfg.Server.AllowedOrigins()
	app.Use(cors.New(cors.Config{
		AllowOrigins:     corsOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:     "GET, POST, PUT, DELETE, PATCH, HEAD, OPTIONS",
		AllowCredentials: corsOrigins != "*",
		ExposeHeaders:    "X-Request-ID, Content-Disposition",
	}))

	logFormat := "${time} | ${status} | ${latency} | ${method} ${path}"
	if cfg.IsDevelopment() {
		logFormat += " | ${ip} | ${reqHeader:X-Request-ID}\n"
	} else {
		logFormat += "\n"
	}
	app.Use(logger.New(logger.Config{
		Format:     logFormat,
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))
}

func registerRoutes(app *fiber.App, container *Container) {
	logx.Info("📝 Registering routes...")

	mw := container.AuthMiddleware

	// /auth/login, /auth/refresh, /auth/logout, /auth/me, /auth/change-password
	container.AuthHandlers.RegisterRoutes(app, mw)

	api := app.Group("/api/v1")

	// IAM
	container.UserHandlers.RegisterRoutes(api, mw)
	container.InvitationHandlers.RegisterRoutes(api, mw)

	// Recruitment
	container.PanelHandlers.RegisterRoutes(api, mw)
	container.JobHandlers.RegisterRoutes(api, mw)
	container.LineupHandlers.RegisterRoutes(api, mw)
	container.CandidateHandlers.RegisterRoutes(api, mw)

	// HR operations
	container.EmployeeHandlers.RegisterRoutes(api, mw)
	container.AttendanceHandlers.RegisterRoutes(api, mw)
	container.PayrollHandlers.RegisterRoutes(api, mw)
	container.LetterHandlers.RegisterRoutes(api, mw)

	// Vendors and complaints
	container.PartnerHandlers.RegisterRoutes(api, mw)
	container.ComplaintHandlers.RegisterRoutes(api, mw)

	// Dashboard and live collections
	container.DashboardHandlers.RegisterRoutes(api, mw)
	container.StreamHandlers.RegisterRoutes(api, mw)

	logx.Info("✅ All routes registered")
}

// ============================================================================
// Handler Functions
// ============================================================================

func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		checks := container.Health(c.Context())

		status := "healthy"
		for _, v := range checks {
			if v != "healthy" {
				status = "degraded"
			}
		}

		health := fiber.Map{
			"status":      status,
			"service":     "hireline-api",
			"environment": container.Config.Environment,
			"docstore":    container.Config.Storage.DocStore,
			"timestamp":   time.Now().Unix(),
			"checks":      checks,
		}

		code := fiber.StatusOK
		if status == "degraded" {
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(health)
	}
}

func infoHandler(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service":     "Hireline API",
			"version":     "1.0.0",
			"description": "Recruitment and staffing back office",
			"environment": cfg.Environment,
			"features": []string{
				"Lineups and candidate pipeline",
				"Employees, attendance and payroll",
				"Offer and warning letters",
				"Partner requirements and invoicing",
				"Store complaints with SLA escalation",
				"Live collections over server-sent events",
			},
			"endpoints": fiber.Map{
				"health": "/health",
				"auth":   "/auth/login",
				"api":    "/api/v1",
				"stream": "/api/v1/stream?collections=",
			},
			"ai_enabled": cfg.AI.Enabled(),
		})
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": fiber.Map{
			"code":       "NOT_FOUND",
			"type":       string(errx.TypeNotFound),
			"message":    "Route not found",
			"details":    fiber.Map{"path": c.Path(), "method": c.Method()},
			"request_id": requestID(c),
		},
	})
}

// ============================================================================
// Error Handler
// ============================================================================

// globalErrorHandler converts internal errors to standard HTTP responses
func globalErrorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		body, status := errorBody(err, cfg.IsDevelopment())
		body["request_id"] = requestID(c)

		entry := logx.WithFields(logx.Fields{
			"path":       c.Path(),
			"method":     c.Method(),
			"ip":         c.IP(),
			"status":     status,
			"request_id": requestID(c),
		})
		if status >= fiber.StatusInternalServerError {
			entry.Errorf("Request error: %v", err)
		} else {
			entry.Debugf("Request rejected: %v", err)
		}

		return c.Status(status).JSON(fiber.Map{"error": body})
	}
}

func errorBody(err error, debug bool) (fiber.Map, int) {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fiber.Map{
			"code":    "HTTP_ERROR",
			"type":    string(errx.TypeValidation),
			"message": fe.Message,
		}, fe.Code
	}

	var e *errx.Error
	if errors.As(err, &e) {
		status := e.HTTPStatus
		if status == 0 {
			status = fiber.StatusInternalServerError
		}
		body := fiber.Map{
			"code":    e.Code,
			"type":    string(e.Type),
			"message": e.Message,
		}
		if len(e.Details) > 0 {
			body["details"] = e.Details
		}
		if debug && e.Err != nil {
			body["underlying_error"] = e.Err.Error()
		}
		return body, status
	}

	return fiber.Map{
		"code":    "INTERNAL_ERROR",
		"type":    string(errx.TypeInternal),
		"message": "An unexpected error occurred",
	}, fiber.StatusInternalServerError
}

func requestID(c *fiber.Ctx) string {
	if id := c.GetRespHeader("X-Request-ID"); id != "" {
		return id
	}
	return c.Get("X-Request-ID")
}

// ============================================================================
// Lifecycle
// ============================================================================

// startServer listens until SIGINT/SIGTERM, then stops workers and drains connections
func startServer(app *fiber.App, cfg *config.Config, cancel context.CancelFunc) error {
	addr := fmt.Sprintf(":%d", cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		logx.Infof("🚀 Server listening on %s", addr)
		logx.Infof("💚 Health Check: http://localhost%s/health", addr)
		errCh <- app.Listen(addr)
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		cancel()
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logx.Infof("🛑 Received signal: %v", sig)
	}

	logx.Info("Shutting down gracefully...")
	cancel()

	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}
	logx.Info("✅ Server exited successfully")
	return nil
}
