package transport

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler is the app-wide fallback for errors no handler translated.
// Handlers answer their own domain errors; anything reaching here is logged
// and reported without internals.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			code = e.Code
		}

		logger.Error("request error",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", code),
			zap.Error(err),
		)

		message := err.Error()
		if code == fiber.StatusInternalServerError {
			message = "Internal server error"
		}
		return c.Status(code).JSON(fiber.Map{
			"message": message,
		})
	}
}
