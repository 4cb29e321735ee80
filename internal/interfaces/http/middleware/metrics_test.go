package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/prometheus"
)

func newMetricsFixture(t *testing.T) (*prometheus.AppMetrics, prometheus.MetricsCollector) {
	t.Helper()
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace: "test",
		Subsystem: "mw",
	}, nil)
	require.NoError(t, err)
	return prometheus.NewAppMetrics(collector), collector
}

func scrape(t *testing.T, collector prometheus.MetricsCollector) string {
	t.Helper()
	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(w.Result().Body)
	require.NoError(t, err)
	return string(body)
}

func TestHTTPMetrics_RecordsRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics, collector := newMetricsFixture(t)

	r := gin.New()
	r.Use(HTTPMetrics(metrics))
	r.GET("/api/v1/items/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	serve(r, httptest.NewRequest(http.MethodGet, "/api/v1/items/42", nil))

	body := scrape(t, collector)
	assert.Contains(t, body,
		`test_mw_http_requests_total{method="GET",path="/api/v1/items/:id",status_code="200"} 1`)
	assert.Contains(t, body, "test_mw_http_request_duration_seconds")
	assert.Contains(t, body,
		`test_mw_http_active_requests{method="GET",path="/api/v1/items/:id"} 0`)
}

func TestHTTPMetrics_UnmatchedRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics, collector := newMetricsFixture(t)

	r := gin.New()
	r.Use(HTTPMetrics(metrics))

	serve(r, httptest.NewRequest(http.MethodGet, "/no/such/route", nil))

	body := scrape(t, collector)
	assert.Contains(t, body,
		`test_mw_http_requests_total{method="GET",path="unmatched",status_code="404"} 1`)
}
