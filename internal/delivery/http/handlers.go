package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/nutricycle/backend/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	impactSvc *service.ImpactService
	version   string
}

// NewHandler creates a new handler
func NewHandler(impactSvc *service.ImpactService, version string) *Handler {
	return &Handler{
		impactSvc: impactSvc,
		version:   version,
	}
}

// HealthCheck reports service and database status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status, database := "ok", "up"
	code := fiber.StatusOK
	if err := h.impactSvc.Health(c.Context()); err != nil {
		status, database = "degraded", "down"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":   status,
		"database": database,
		"service":  "nutricycle-backend",
		"version":  h.version,
	})
}

// GetUsers lists users with their feeding activity
func (h *Handler) GetUsers(c *fiber.Ctx) error {
	list, err := h.impactSvc.ListUsers(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    list,
	})
}

// GetUserImpact returns the CO2 dashboard of one user
func (h *Handler) GetUserImpact(c *fiber.Ctx) error {
	username, err := usernameParam(c)
	if err != nil {
		return err
	}

	impact, err := h.impactSvc.UserImpact(c.Context(), username)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    impact,
	})
}

type feedingLogsQuery struct {
	Limit int `query:"limit" default:"10" validate:"gte=1,lte=100"`
}

// GetFeedingLogs returns a user's most recent feeding logs
func (h *Handler) GetFeedingLogs(c *fiber.Ctx) error {
	username, err := usernameParam(c)
	if err != nil {
		return err
	}

	var q feedingLogsQuery
	if err := parseQuery(c, &q); err != nil {
		return err
	}

	logs, err := h.impactSvc.FeedingLogs(c.Context(), username, q.Limit)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    logs,
		"count":   logs.Count,
	})
}

// GetGlobalStats returns fleet-wide CO2 totals
func (h *Handler) GetGlobalStats(c *fiber.Ctx) error {
	stats, err := h.impactSvc.GlobalStats(c.Context())
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}

// GetMoistureProjection projects a user's plant moisture for 30 days
func (h *Handler) GetMoistureProjection(c *fiber.Ctx) error {
	username, err := usernameParam(c)
	if err != nil {
		return err
	}

	view, err := h.impactSvc.MoistureProjection(c.Context(), username)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    view,
	})
}

// GetManualMoistureProjection projects from ?current=<percentage>
func (h *Handler) GetManualMoistureProjection(c *fiber.Ctx) error {
	raw := strings.TrimSpace(strings.TrimSuffix(c.Query("current"), "%"))
	if raw == "" {
		return fiber.NewError(fiber.StatusBadRequest, "current moisture percentage is required")
	}
	current, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "current must be a number between 0 and 100")
	}
	if err := validateVar(current, "current", "gte=0,lte=100"); err != nil {
		return err
	}

	forecast, err := h.impactSvc.ManualMoistureProjection(current)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    forecast,
	})
}

// GetECForecast returns the interpreted EC forecast of one user
func (h *Handler) GetECForecast(c *fiber.Ctx) error {
	username, err := usernameParam(c)
	if err != nil {
		return err
	}

	view, err := h.impactSvc.ECForecast(c.Context(), username)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    view,
	})
}

// InvalidateUserCache drops cached views of a user after the bot writes new data
func (h *Handler) InvalidateUserCache(c *fiber.Ctx) error {
	username, err := usernameParam(c)
	if err != nil {
		return err
	}

	if err := h.impactSvc.InvalidateUser(c.Context(), username); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache invalidated for " + username,
	})
}

func usernameParam(c *fiber.Ctx) (string, error) {
	username := strings.TrimPrefix(strings.TrimSpace(c.Params("username")), "@")
	if username == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "username is required")
	}
	return username, nil
}
