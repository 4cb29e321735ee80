// Package http assembles the gin router and HTTP server for the API.
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/EntiTag-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/EntiTag-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/EntiTag-Intelligence/pkg/errors"
)

// RouterConfig aggregates the handler and middleware dependencies required
// to construct the complete route tree.
type RouterConfig struct {
	ExtractHandler *handlers.ExtractHandler
	HealthHandler  *handlers.HealthHandler

	Logger           logging.Logger
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
	MetricsPath      string

	CORS    *middleware.CORSConfig
	Logging middleware.LoggingConfig

	// Mode is the gin mode: "debug", "release", or "test".
	Mode string
}

// NewRouter constructs the route tree: global middleware, public health
// endpoints, the metrics endpoint, and the /api/v1 extraction API.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())

	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.HTTPMetrics(cfg.Metrics))
	}
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(cfg.MetricsCollector.Handler()))
	}

	api := r.Group("/api/v1")
	if cfg.ExtractHandler != nil {
		api.POST("/extract", cfg.ExtractHandler.Extract)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    string(errors.ErrCodeNotFound),
			"message": "resource not found",
		})
	})

	return r
}
