package config

import (
	"fmt"
	"strings"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`
	APIPort     int    `env:"API_PORT,default=8080"`
	LogLevel    string `env:"LOG_LEVEL,default=info"`

	// Dialer postback endpoint. Both values must be present for deliveries
	// to leave the process; attempts made while either is missing are logged
	// as terminal configuration failures.
	GTIPostbackURL string `env:"GTI_POSTBACK_URL"`
	GTIAuthHeader  string `env:"GTI_AUTH_HEADER"`

	// Export/receive integration gate. An unset export key answers 503.
	GTIExportKey   string `env:"GTI_EXPORT_KEY"`
	GTIIPWhitelist string `env:"GTI_IP_WHITELIST"`

	GTITTLDays        int    `env:"GTI_TTL_DAYS,default=30"`
	GTIExportOrg      string `env:"GTI_EXPORT_ORG,default=redd"`
	GTIExportLimit    int    `env:"GTI_EXPORT_LIMIT,default=100"`
	GTIExportMaxLimit int    `env:"GTI_EXPORT_MAX_LIMIT,default=500"`

	WebhookRatePerSec int `env:"WEBHOOK_RATE_PER_SEC,default=60"`
	ExportRatePerMin  int `env:"EXPORT_RATE_PER_MIN,default=120"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// AllowedIPs parses the comma-separated allowlist. Empty means no IP
// restriction.
func (c *Config) AllowedIPs() []string {
	raw := strings.TrimSpace(c.GTIIPWhitelist)
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	ips := make([]string, 0, len(parts))
	for _, part := range parts {
		if ip := strings.TrimSpace(part); ip != "" {
			ips = append(ips, ip)
		}
	}
	return ips
}
