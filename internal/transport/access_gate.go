package transport

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/reddlead/gti-pipeline/internal/domain"
	"github.com/reddlead/gti-pipeline/internal/repository"
	"go.uber.org/zap"
)

// ExportKeyHeader carries the shared secret on partner API calls.
const ExportKeyHeader = "x-gti-export-key"

// AccessGate guards the partner-facing export routes with a shared secret
// and an optional IP allowlist. Every call through the gate, rejected ones
// included, leaves an integration log row for partner-side diagnostics.
type AccessGate struct {
	exportKey  string
	allowedIPs map[string]struct{}
	logs       repository.IntegrationLogRepository
	logger     *zap.Logger
	now        func() time.Time
}

func NewAccessGate(exportKey string, allowedIPs []string, logs repository.IntegrationLogRepository, logger *zap.Logger) *AccessGate {
	if logger == nil {
		logger = zap.NewNop()
	}

	allowed := make(map[string]struct{}, len(allowedIPs))
	for _, ip := range allowedIPs {
		ip = strings.TrimSpace(ip)
		if ip != "" {
			allowed[ip] = struct{}{}
		}
	}

	return &AccessGate{
		exportKey:  exportKey,
		allowedIPs: allowed,
		logs:       logs,
		logger:     logger,
		now:        time.Now,
	}
}

// Middleware enforces the gate. An unset secret disables the surface
// entirely rather than letting it run open.
func (g *AccessGate) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		status, message := g.check(c)
		if status != fiber.StatusOK {
			g.record(c, status, message)
			return c.Status(status).JSON(fiber.Map{"message": message})
		}

		err := c.Next()
		g.record(c, c.Response().StatusCode(), "")
		return err
	}
}

func (g *AccessGate) check(c *fiber.Ctx) (int, string) {
	if g.exportKey == "" {
		return fiber.StatusServiceUnavailable, "export access is not configured"
	}
	if c.Get(ExportKeyHeader) != g.exportKey {
		return fiber.StatusUnauthorized, "invalid export key"
	}
	if len(g.allowedIPs) > 0 {
		if _, ok := g.allowedIPs[c.IP()]; !ok {
			return fiber.StatusForbidden, "caller address is not allowed"
		}
	}
	return fiber.StatusOK, ""
}

// record writes the integration log row. Best effort: a failed write is
// logged and the request outcome stands.
func (g *AccessGate) record(c *fiber.Ctx, status int, message string) {
	if g.logs == nil {
		return
	}

	entry := &domain.IntegrationLog{
		ID:        uuid.NewString(),
		Route:     c.Path(),
		Method:    c.Method(),
		Status:    status,
		CallerIP:  c.IP(),
		Headers:   redactHeaders(c.GetReqHeaders()),
		Query:     string(c.Request().URI().QueryString()),
		Body:      string(c.Body()),
		Message:   message,
		CreatedAt: g.now().UTC(),
	}
	if err := g.logs.Create(c.UserContext(), entry); err != nil {
		g.logger.Error("failed to write integration log",
			zap.String("route", entry.Route),
			zap.Error(err),
		)
	}
}

// redactHeaders serializes request headers with the shared secret masked.
// The secret must never land in the database.
func redactHeaders(headers map[string][]string) string {
	redacted := make(map[string][]string, len(headers))
	for name, values := range headers {
		if strings.EqualFold(name, ExportKeyHeader) {
			redacted[name] = []string{"[redacted]"}
			continue
		}
		redacted[name] = values
	}

	encoded, err := json.Marshal(redacted)
	if err != nil {
		return ""
	}
	return string(encoded)
}
