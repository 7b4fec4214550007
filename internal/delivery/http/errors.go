package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/nutricycle/backend/internal/domain"
	"github.com/nutricycle/backend/pkg/logger"
)

// MsgProfileIncomplete is shown when a user has not set up their bin.
const MsgProfileIncomplete = "User profile incomplete. Tank and soil volumes required."

// NewErrorHandler maps domain errors onto HTTP statuses and renders the
// {success:false, message} envelope.
func NewErrorHandler(log *logger.Logger) fiber.ErrorHandler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		message := "Internal Server Error"
		body := fiber.Map{"success": false}

		var fe *fiber.Error
		var re *RequestError
		switch {
		case errors.As(err, &fe):
			code = fe.Code
			message = fe.Message
		case errors.As(err, &re):
			code = fiber.StatusBadRequest
			message = "Invalid request"
			body["errors"] = re.Errors
		case errors.Is(err, domain.ErrUserNotFound):
			code = fiber.StatusNotFound
			message = "User not found"
		case errors.Is(err, domain.ErrProfileIncomplete), errors.Is(err, domain.ErrInvalidProfile):
			code = fiber.StatusBadRequest
			message = MsgProfileIncomplete
		case errors.Is(err, domain.ErrMalformedForecast):
			code = fiber.StatusUnprocessableEntity
			message = "Stored forecast is malformed"
		}

		if code >= fiber.StatusInternalServerError {
			log.Error("request failed",
				logger.String("method", c.Method()),
				logger.String("path", c.Path()),
				logger.Error(err),
			)
		}

		body["message"] = message
		return c.Status(code).JSON(body)
	}
}
