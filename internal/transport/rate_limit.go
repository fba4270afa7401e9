package transport

import (
	"github.com/gofiber/fiber/v2"
	"github.com/reddlead/gti-pipeline/internal/ratelimit"
	"go.uber.org/zap"
)

// RateLimit rejects calls over the limiter's budget with 429. The scope
// function picks the counting key per request, e.g. a shared bucket for the
// dialer webhook or a per-caller bucket for the export API. A limiter error
// fails open: throttling is protection, not correctness.
func RateLimit(limiter ratelimit.RateLimiter, scope func(*fiber.Ctx) string, logger *zap.Logger) fiber.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		if limiter == nil {
			return c.Next()
		}

		allowed, err := limiter.Allow(c.UserContext(), scope(c))
		if err != nil {
			logger.Error("rate limiter check failed",
				zap.String("path", c.Path()),
				zap.Error(err),
			)
			return c.Next()
		}
		if !allowed {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"message": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
