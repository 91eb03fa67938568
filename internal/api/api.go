// Package api wires the HTTP surface of the NBA stats gateway: route
// registration, the middleware chain, and the resource handlers that
// compose the cache, rate limiter, and upstream provider client.
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/courtline/nbagw/internal/apierr"
	"github.com/courtline/nbagw/internal/cache"
	"github.com/courtline/nbagw/internal/health"
	"github.com/courtline/nbagw/internal/middleware"
	"github.com/courtline/nbagw/internal/observability"
	"github.com/courtline/nbagw/internal/provider"
	"github.com/courtline/nbagw/internal/ratelimit"
)

// Provider is the subset of the upstream client the handlers need.
type Provider interface {
	ListPlayers(ctx context.Context, params provider.ListParams) (*provider.PlayerList, error)
	GetPlayer(ctx context.Context, id int) (*provider.Player, error)
	ListTeams(ctx context.Context, params provider.ListParams) (*provider.TeamList, error)
	GetTeam(ctx context.Context, id int) (*provider.Team, error)
	ListGames(ctx context.Context, params provider.ListParams) (*provider.GameList, error)
}

// Config holds the dependencies for the router.
type Config struct {
	Cache    cache.Cache
	Provider Provider
	Limiter  ratelimit.Limiter
	Checker  *health.Checker
	Registry *prometheus.Registry
	Logger   observability.Logger

	// RateLimitStatusCode is returned on rate-limited requests.
	// Defaults to 429.
	RateLimitStatusCode int

	// Environment selects development error envelopes.
	Environment string
}

// NewRouter builds the gateway router with the full middleware chain:
// request ID, panic recovery, access logging, request metrics, and
// fixed-window rate limiting on the API subtree. Probe and metrics
// endpoints bypass the rate limiter.
func NewRouter(cfg Config) *mux.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NopLogger()
	}

	respCfg := apierr.ResponseConfig{Environment: cfg.Environment}

	s := &service{
		cache:    cfg.Cache,
		provider: cfg.Provider,
		logger:   logger,
		respCfg:  respCfg,
	}

	r := mux.NewRouter()

	r.Use(middleware.RequestID())
	r.Use(middleware.Recovery(logger, respCfg))
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics())

	if cfg.Limiter != nil {
		r.Use(middleware.RateLimit(middleware.RateLimitConfig{
			Limiter:        cfg.Limiter,
			KeyFunc:        ratelimit.IPKeyFunc,
			Skip:           skipUnlimited,
			StatusCode:     cfg.RateLimitStatusCode,
			Logger:         logger,
			ResponseConfig: respCfg,
		}))
	}

	wrap := middleware.ErrorHandler(logger, respCfg)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Handle("/players", wrap(s.listPlayers)).Methods(http.MethodGet)
	v1.Handle("/players/{id}", wrap(s.getPlayer)).Methods(http.MethodGet)
	v1.Handle("/teams", wrap(s.listTeams)).Methods(http.MethodGet)
	v1.Handle("/teams/{id}", wrap(s.getTeam)).Methods(http.MethodGet)
	v1.Handle("/games", wrap(s.listGames)).Methods(http.MethodGet)
	v1.Handle("/cache/stats", wrap(s.cacheStats)).Methods(http.MethodGet)
	v1.Handle("/cache", wrap(s.invalidateCache)).Methods(http.MethodDelete)

	if cfg.Checker != nil {
		r.HandleFunc("/healthz", cfg.Checker.HealthHandler()).Methods(http.MethodGet)
		r.HandleFunc("/readyz", cfg.Checker.ReadinessHandler()).Methods(http.MethodGet)
	}

	if cfg.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(cfg.Registry,
			promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	r.NotFoundHandler = middleware.NotFound(respCfg)
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := observability.RequestIDFromContext(r.Context())
		err := apierr.BadRequest("method not allowed")
		apierr.NewResponse(err, requestID, r.URL.Path, respCfg).Write(w)
	})

	return r
}

// skipUnlimited exempts operational endpoints from rate limiting.
func skipUnlimited(r *http.Request) bool {
	switch {
	case r.URL.Path == "/healthz", r.URL.Path == "/readyz", r.URL.Path == "/metrics":
		return true
	case strings.HasPrefix(r.URL.Path, "/api/v1/cache"):
		return true
	}
	return false
}
