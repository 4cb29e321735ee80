// API server entry point for EntiTag-Intelligence.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/EntiTag-Intelligence/internal/config"
	"github.com/turtacn/EntiTag-Intelligence/internal/extraction"
	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/cache"
	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/EntiTag-Intelligence/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/EntiTag-Intelligence/internal/interfaces/http"
	"github.com/turtacn/EntiTag-Intelligence/internal/interfaces/http/handlers"
	"github.com/turtacn/EntiTag-Intelligence/internal/interfaces/http/middleware"
	"github.com/turtacn/EntiTag-Intelligence/internal/llm"
)

const defaultConfigPath = "configs/config.yaml"

// Build-time variables injected via ldflags.
var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	cfg, watchPath, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *port > 0 {
		cfg.Server.Port = *port
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)

	logger.Info("starting EntiTag-Intelligence API server",
		logging.String("version", version),
		logging.String("host", cfg.Server.Host),
		logging.Int("port", cfg.Server.Port),
		logging.String("model", cfg.LLM.Model),
	)

	extractor, err := llm.NewOpenAIExtractor(cfg.LLM, logger.Named("llm"))
	if err != nil {
		logger.Fatal("failed to initialize LLM extractor", logging.Err(err))
	}

	deps := extraction.Dependencies{Logger: logger.Named("pipeline")}
	checks := map[string]handlers.HealthCheck{}

	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		rdb, err := cache.NewClient(ctx, cache.Options{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		cancel()
		if err != nil {
			logger.Fatal("failed to connect to redis", logging.Err(err))
		}
		defer rdb.Close()

		chunkCache := cache.NewChunkCache(rdb, logger.Named("cache"), cache.WithTTL(cfg.Redis.TTL))
		deps.Cache = chunkCache
		checks["redis"] = chunkCache.Ping
		logger.Info("chunk result cache enabled", logging.String("addr", cfg.Redis.Addr))
	}

	var (
		appMetrics *prometheus.AppMetrics
		collector  prometheus.MetricsCollector
	)
	if cfg.Metrics.Enabled {
		collector, err = prometheus.NewMetricsCollector(prometheus.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			Subsystem:            "apiserver",
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger.Named("metrics"))
		if err != nil {
			logger.Fatal("failed to initialize metrics collector", logging.Err(err))
		}
		appMetrics = prometheus.NewAppMetrics(collector)
		deps.Metrics = prometheus.NewPipelineMetrics(appMetrics)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		ExtractHandler:   handlers.NewExtractHandler(extractor, cfg.Pipeline, deps, logger.Named("http")),
		HealthHandler:    handlers.NewHealthHandler(version, checks),
		Logger:           logger.Named("http"),
		Metrics:          appMetrics,
		MetricsCollector: collector,
		MetricsPath:      cfg.Metrics.Path,
		Logging:          middleware.DefaultLoggingConfig(),
		Mode:             cfg.Server.Mode,
	})

	srv := httpserver.NewServer(httpserver.ServerOptions{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		MaxBodySize:     cfg.Server.MaxBodySize,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, router, logger)

	if watchPath != "" {
		config.Watch(watchPath, func(updated *config.Config) {
			// Most settings need a restart; the log level is safe to swap live.
			if updated.Log.Level != cfg.Log.Level {
				if l, err := logging.NewLogger(updated.Log); err == nil {
					logging.SetDefault(l)
					logger.Info("log level updated",
						logging.String("level", updated.Log.Level))
				}
			}
		})
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal("http server failed", logging.Err(err))
		}
	case sig := <-quit:
		logger.Info("shutdown signal received", logging.String("signal", sig.String()))
	}

	if err := srv.Stop(context.Background()); err != nil {
		logger.Error("http server shutdown error", logging.Err(err))
	}
	logger.Info("server stopped")
}

// loadConfig resolves configuration with priority: explicit --config flag,
// then the default file path if present, then environment variables only.
// The returned path is non-empty when a file was used and should be watched.
func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		cfg, err := config.Load(defaultConfigPath)
		return cfg, defaultConfigPath, err
	}
	cfg, err := config.LoadFromEnv()
	return cfg, "", err
}
