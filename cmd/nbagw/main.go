// Package main is the entry point for the NBA stats gateway.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/courtline/nbagw/internal/api"
	"github.com/courtline/nbagw/internal/cache"
	"github.com/courtline/nbagw/internal/config"
	"github.com/courtline/nbagw/internal/health"
	"github.com/courtline/nbagw/internal/middleware"
	"github.com/courtline/nbagw/internal/observability"
	"github.com/courtline/nbagw/internal/provider"
	"github.com/courtline/nbagw/internal/ratelimit"
	"github.com/courtline/nbagw/internal/retry"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	showVersion bool
}

func main() {
	// Missing .env is fine; environment variables take over.
	_ = godotenv.Load()

	flags := parseFlags()

	if flags.showVersion {
		printVersion()
		return
	}

	cfg, err := loadConfig(flags.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)
	defer func() { _ = logger.Sync() }()

	logger.Info("starting nbagw",
		observability.String("version", version),
		observability.String("environment", cfg.Environment),
		observability.String("address", cfg.Server.Address),
	)

	app, err := buildApplication(cfg, logger)
	if err != nil {
		logger.Fatal("failed to build application", observability.Error(err))
	}

	run(app, flags.configPath, cfg, logger)
}

// parseFlags parses command line flags.
func parseFlags() cliFlags {
	configPath := flag.String("config", getEnvOrDefault("NBAGW_CONFIG_PATH", "configs/config.yaml"),
		"Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	return cliFlags{
		configPath:  *configPath,
		showVersion: *showVersion,
	}
}

// printVersion prints version information and exits.
func printVersion() {
	fmt.Printf("nbagw version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// loadConfig loads configuration, falling back to defaults when the
// file does not exist.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.Load(path)
}

// initLogger initializes the global logger from configuration.
func initLogger(cfg *config.Config) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// application bundles the wired components for lifecycle management.
type application struct {
	router   http.Handler
	cache    cache.Cache
	limiter  ratelimit.Limiter
	checker  *health.Checker
	registry *prometheus.Registry
}

// buildApplication wires the cache, rate limiter, provider client,
// metrics registry, and router.
func buildApplication(cfg *config.Config, logger observability.Logger) (*application, error) {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	cache.GetCacheMetrics().MustRegister(registry)
	cache.GetCacheMetrics().Init()
	ratelimit.GetRateLimitMetrics().MustRegister(registry)
	retry.MustRegister(registry)
	provider.GetProviderMetrics().MustRegister(registry)
	middleware.GetMiddlewareMetrics().MustRegister(registry)

	var responseCache cache.Cache
	if cfg.Cache.Enabled {
		responseCache = cache.NewMemoryCache(
			cache.WithLogger(logger),
			cache.WithDefaultTTL(cfg.Cache.DefaultTTL.Duration()),
			cache.WithCleanupInterval(cfg.Cache.CleanupInterval.Duration()),
		)
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Enabled {
		limiter = ratelimit.NewFixedWindowLimiter(
			cfg.RateLimit.MaxRequests,
			cfg.RateLimit.Window.Duration(),
			ratelimit.WithLogger(logger),
			ratelimit.WithSweepInterval(cfg.RateLimit.SweepInterval.Duration()),
		)
	}

	retrier := retry.NewRetrier().
		WithMaxAttempts(cfg.Retry.MaxAttempts).
		WithInitialDelay(cfg.Retry.InitialDelay.Duration()).
		WithMaxDelay(cfg.Retry.MaxDelay.Duration()).
		WithMultiplier(cfg.Retry.Multiplier).
		WithJitter(cfg.Retry.Jitter).
		WithTimeout(cfg.Retry.Timeout.Duration())

	client, err := provider.New(cfg.Provider.BaseURL,
		provider.WithLogger(logger),
		provider.WithAPIKey(cfg.Provider.APIKey),
		provider.WithRetrier(retrier),
		provider.WithThrottle(cfg.Provider.RequestsPerSecond, cfg.Provider.Burst),
		provider.WithHTTPClient(&http.Client{
			Timeout: cfg.Provider.RequestTimeout.Duration(),
		}),
	)
	if err != nil {
		return nil, err
	}

	checker := health.NewChecker(version)
	if responseCache != nil {
		checker.RegisterCheck("cache", func() health.Check {
			stats := responseCache.Stats(context.Background())
			return health.Check{
				Status:  health.StatusHealthy,
				Message: fmt.Sprintf("%d entries", stats.Size),
			}
		})
	}

	router := api.NewRouter(api.Config{
		Cache:               responseCache,
		Provider:            client,
		Limiter:             limiter,
		Checker:             checker,
		Registry:            registry,
		Logger:              logger,
		RateLimitStatusCode: cfg.RateLimit.StatusCode,
		Environment:         cfg.Environment,
	})

	return &application{
		router:   router,
		cache:    responseCache,
		limiter:  limiter,
		checker:  checker,
		registry: registry,
	}, nil
}

// run starts the HTTP server and the config watcher, then blocks until
// a shutdown signal arrives.
func run(app *application, configPath string, cfg *config.Config, logger observability.Logger) {
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout.Duration(),
		WriteTimeout: cfg.Server.WriteTimeout.Duration(),
		IdleTimeout:  cfg.Server.IdleTimeout.Duration(),
	}

	watcher := startConfigWatcher(configPath, logger)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening",
			observability.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received",
			observability.String("signal", sig.String()))
	case err := <-errCh:
		logger.Error("http server failed", observability.Error(err))
	}

	shutdown(app, server, watcher, cfg.Server.ShutdownTimeout.Duration(), logger)
}

// startConfigWatcher starts hot reload of the config file when it
// exists. Reload currently adjusts the log level; structural changes
// require a restart.
func startConfigWatcher(configPath string, logger observability.Logger) *config.Watcher {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	watcher, err := config.NewWatcher(configPath, func(cfg *config.Config) {
		logger.Info("configuration reloaded",
			observability.String("logLevel", cfg.Log.Level))

		reloaded, err := observability.NewLogger(observability.LogConfig{
			Level:  cfg.Log.Level,
			Format: cfg.Log.Format,
			Output: cfg.Log.Output,
		})
		if err != nil {
			logger.Warn("cannot apply reloaded log config", observability.Error(err))
			return
		}
		observability.SetGlobalLogger(reloaded)
	}, config.WithErrorCallback(func(err error) {
		logger.Warn("configuration reload failed", observability.Error(err))
	}))
	if err != nil {
		logger.Warn("cannot create config watcher", observability.Error(err))
		return nil
	}

	if err := watcher.Start(); err != nil {
		logger.Warn("cannot start config watcher", observability.Error(err))
		return nil
	}

	return watcher
}

// shutdown drains in-flight requests and stops background loops.
func shutdown(
	app *application,
	server *http.Server,
	watcher *config.Watcher,
	timeout time.Duration,
	logger observability.Logger,
) {
	app.checker.SetDraining(true)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", observability.Error(err))
	}

	if watcher != nil {
		if err := watcher.Stop(); err != nil {
			logger.Warn("config watcher stop failed", observability.Error(err))
		}
	}

	if app.limiter != nil {
		app.limiter.Stop()
	}

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			logger.Warn("cache close failed", observability.Error(err))
		}
	}

	logger.Info("shutdown complete")
}

// getEnvOrDefault returns an environment variable or a default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
