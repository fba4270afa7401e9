package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsPipelineCollectors(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()

	metrics.IncInboundCall("duplicate")
	metrics.IncPostbackSent("Dispose")
	metrics.IncPostbackFailed("dispose", "retry_exhausted")
	metrics.ObservePostbackSendDuration("dispose", 120*time.Millisecond)
	metrics.IncRetryScheduled("dispose")
	metrics.SetQueueDepth(4)

	if got := testutil.ToFloat64(metrics.inboundCallsTotal.WithLabelValues("duplicate")); got != 1 {
		t.Fatalf("inbound_calls_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.postbacksSentTotal.WithLabelValues("dispose")); got != 1 {
		t.Fatalf("postbacks_sent_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.postbacksFailedTotal.WithLabelValues("dispose", "retry_exhausted")); got != 1 {
		t.Fatalf("postbacks_failed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.retryScheduledTotal.WithLabelValues("dispose")); got != 1 {
		t.Fatalf("retry_scheduled_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(metrics.queueDepth); got != 4 {
		t.Fatalf("queue_depth = %v, want 4", got)
	}
}

func TestMetricsHTTPMiddlewareRecordsRequest(t *testing.T) {
	t.Parallel()

	metrics := NewMetrics()
	app := fiber.New()
	app.Use(metrics.HTTPMiddleware())
	app.Get("/livez", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/livez", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error = %v", err)
	}
	defer resp.Body.Close()

	if got := testutil.ToFloat64(metrics.httpRequestsTotal.WithLabelValues("GET", "/livez", "200")); got != 1 {
		t.Fatalf("http_requests_total = %v, want 1", got)
	}
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var metrics *Metrics
	metrics.IncInboundCall("new")
	metrics.IncPostbackSent("dispose")
	metrics.IncPostbackFailed("dispose", "")
	metrics.ObservePostbackSendDuration("dispose", time.Second)
	metrics.IncRetryScheduled("dispose")
	metrics.SetQueueDepth(1)
}
