package http

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/nutricycle/backend/pkg/logger"
	"github.com/nutricycle/backend/pkg/metrics"
)

// RequestLogger logs one line per request. 5xx responses log at error and
// slow requests at warn.
func RequestLogger(log *logger.Logger, slowThreshold time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// run the error handler now so the logged status is final
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		latency := time.Since(start)
		fields := []logger.Field{
			logger.String("method", c.Method()),
			logger.String("path", c.Path()),
			logger.Int("status", status),
			logger.Duration("latency_ms", latency),
			logger.String("request_id", requestID(c)),
		}

		switch {
		case status >= fiber.StatusInternalServerError:
			log.Error("http request failed", fields...)
		case slowThreshold > 0 && latency >= slowThreshold:
			log.Warn("http request slow", fields...)
		default:
			log.Info("http request", fields...)
		}
		return nil
	}
}

// Metrics records request counts and durations by route template.
func Metrics(rec *metrics.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		rec.RecordRequest(routeLabel(c), c.Method(), status, time.Since(start).Seconds())
		return err
	}
}

// routeLabel prefers the route template to keep label cardinality low.
func routeLabel(c *fiber.Ctx) string {
	if r := c.Route(); r != nil && r.Path != "" {
		return r.Path
	}
	return c.Path()
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.Get(fiber.HeaderXRequestID)
}
