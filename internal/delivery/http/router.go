package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/nutricycle/backend/internal/service"
	"github.com/nutricycle/backend/pkg/logger"
	"github.com/nutricycle/backend/pkg/metrics"
)

// RouterConfig carries what SetupRoutes needs besides the service.
type RouterConfig struct {
	Version      string
	AllowOrigins string
	Logger       *logger.Logger
	Metrics      *metrics.Recorder // nil disables /metrics
	MetricsPath  string
}

// NewApp builds a fiber app with the standard middleware and routes.
func NewApp(impactSvc *service.ImpactService, cfg RouterConfig, fiberCfg fiber.Config) *fiber.App {
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}
	fiberCfg.ErrorHandler = NewErrorHandler(cfg.Logger)

	app := fiber.New(fiberCfg)
	SetupRoutes(app, impactSvc, cfg)
	return app
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, impactSvc *service.ImpactService, cfg RouterConfig) {
	handler := NewHandler(impactSvc, cfg.Version)

	app.Use(recover.New())
	app.Use(requestid.New())
	if cfg.Metrics != nil {
		app.Use(Metrics(cfg.Metrics))
	}
	app.Use(RequestLogger(cfg.Logger, 500*time.Millisecond))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: "GET,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check
	app.Get("/health", handler.HealthCheck)
	if cfg.Metrics != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(cfg.Metrics.Handler()))
	}

	api := app.Group("/api")
	{
		api.Get("/users", handler.GetUsers)
		api.Get("/user/:username/co2-impact", handler.GetUserImpact)
		api.Get("/feeding-logs/:username", handler.GetFeedingLogs)
		api.Get("/global-stats", handler.GetGlobalStats)
		api.Get("/dashboard/stats", handler.GetGlobalStats)

		api.Get("/user/:username/moisture-projection", handler.GetMoistureProjection)
		api.Get("/moisture/projection", handler.GetManualMoistureProjection)

		api.Get("/user/:username/ec-forecast", handler.GetECForecast)

		api.Post("/user/:username/cache/invalidate", handler.InvalidateUserCache)
	}
}
