package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the webhook, export, and
// dispatch flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	inboundCallsTotal    *prometheus.CounterVec
	postbacksSentTotal   *prometheus.CounterVec
	postbacksFailedTotal *prometheus.CounterVec
	postbackSendDuration *prometheus.HistogramVec
	retryScheduledTotal  *prometheus.CounterVec
	queueDepth           prometheus.Gauge
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gti_pipeline",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gti_pipeline",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds by method and path.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		inboundCallsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gti_pipeline",
				Name:      "inbound_calls_total",
				Help:      "Total number of inbound call notifications by match outcome.",
			},
			[]string{"outcome"},
		),
		postbacksSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gti_pipeline",
				Name:      "postbacks_sent_total",
				Help:      "Total number of postbacks delivered successfully.",
			},
			[]string{"event_type"},
		),
		postbacksFailedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gti_pipeline",
				Name:      "postbacks_failed_total",
				Help:      "Total number of postbacks that ended without delivery.",
			},
			[]string{"event_type", "reason"},
		),
		postbackSendDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "gti_pipeline",
				Name:      "postback_send_duration_seconds",
				Help:      "Dialer postback duration in seconds grouped by event type.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
			},
			[]string{"event_type"},
		),
		retryScheduledTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "gti_pipeline",
				Name:      "retry_scheduled_total",
				Help:      "Total number of postback attempts scheduled for retry.",
			},
			[]string{"event_type"},
		),
		queueDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "gti_pipeline",
				Name:      "queue_depth",
				Help:      "Current number of postback jobs waiting in the dispatch queue.",
			},
		),
	}

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.inboundCallsTotal,
		m.postbacksSentTotal,
		m.postbacksFailedTotal,
		m.postbackSendDuration,
		m.retryScheduledTotal,
		m.queueDepth,
	)

	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncInboundCall(outcome string) {
	if m == nil {
		return
	}
	label := strings.TrimSpace(strings.ToLower(outcome))
	if label == "" {
		label = "unknown"
	}
	m.inboundCallsTotal.WithLabelValues(label).Inc()
}

func (m *Metrics) IncPostbackSent(eventType string) {
	if m == nil {
		return
	}
	m.postbacksSentTotal.WithLabelValues(normalizeEventType(eventType)).Inc()
}

func (m *Metrics) IncPostbackFailed(eventType string, reason string) {
	if m == nil {
		return
	}
	reasonLabel := strings.TrimSpace(strings.ToLower(reason))
	if reasonLabel == "" {
		reasonLabel = "unknown"
	}
	m.postbacksFailedTotal.WithLabelValues(normalizeEventType(eventType), reasonLabel).Inc()
}

func (m *Metrics) ObservePostbackSendDuration(eventType string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.postbackSendDuration.WithLabelValues(normalizeEventType(eventType)).Observe(seconds)
}

func (m *Metrics) IncRetryScheduled(eventType string) {
	if m == nil {
		return
	}
	m.retryScheduledTotal.WithLabelValues(normalizeEventType(eventType)).Inc()
}

func (m *Metrics) SetQueueDepth(depth int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(depth))
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeEventType(eventType string) string {
	normalized := strings.ToLower(strings.TrimSpace(eventType))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
