package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"cuemaster/services"
)

func statusFor(err error) int {
	switch services.KindOf(err) {
	case services.KindValidation:
		return fiber.StatusBadRequest
	case services.KindNotFound:
		return fiber.StatusNotFound
	case services.KindConflict:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}

type errorWriter struct {
	metrics *services.Metrics
	logger  *slog.Logger
}

// write renders err as {"error", "code"}. Internal errors are logged and
// reported without detail.
func (w errorWriter) write(c *fiber.Ctx, err error) error {
	w.metrics.ObserveError(err)
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		w.logger.Error("Request failed",
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.Any("error", err),
		)
		return c.Status(status).JSON(fiber.Map{"error": "internal server error", "code": "internal"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error(), "code": services.CodeOf(err)})
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
}
