package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/courtline/nbagw/internal/apierr"
	"github.com/courtline/nbagw/internal/cache"
	"github.com/courtline/nbagw/internal/health"
	"github.com/courtline/nbagw/internal/provider"
	"github.com/courtline/nbagw/internal/ratelimit"
)

// fakeProvider is a scriptable Provider for handler tests.
type fakeProvider struct {
	players *provider.PlayerList
	player  *provider.Player
	teams   *provider.TeamList
	team    *provider.Team
	games   *provider.GameList
	err     error

	calls int
}

func (f *fakeProvider) ListPlayers(context.Context, provider.ListParams) (*provider.PlayerList, error) {
	f.calls++
	return f.players, f.err
}

func (f *fakeProvider) GetPlayer(context.Context, int) (*provider.Player, error) {
	f.calls++
	return f.player, f.err
}

func (f *fakeProvider) ListTeams(context.Context, provider.ListParams) (*provider.TeamList, error) {
	f.calls++
	return f.teams, f.err
}

func (f *fakeProvider) GetTeam(context.Context, int) (*provider.Team, error) {
	f.calls++
	return f.team, f.err
}

func (f *fakeProvider) ListGames(context.Context, provider.ListParams) (*provider.GameList, error) {
	f.calls++
	return f.games, f.err
}

func newTestRouter(t *testing.T, p Provider, opts ...func(*Config)) http.Handler {
	t.Helper()

	c := cache.NewMemoryCache()
	t.Cleanup(func() { _ = c.Close() })

	cfg := Config{
		Cache:       c,
		Provider:    p,
		Environment: apierr.EnvProduction,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewRouter(cfg)
}

func doRequest(handler http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestListPlayers_CacheMissThenHit(t *testing.T) {
	fake := &fakeProvider{players: &provider.PlayerList{
		Data: []provider.Player{{ID: 115, FirstName: "Stephen", LastName: "Curry"}},
	}}
	router := newTestRouter(t, fake)

	rec := doRequest(router, http.MethodGet, "/api/v1/players?search=curry")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, fake.calls)

	var list provider.PlayerList
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Curry", list.Data[0].LastName)

	rec = doRequest(router, http.MethodGet, "/api/v1/players?search=curry")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, 1, fake.calls)
}

func TestListPlayers_DistinctQueriesDistinctCacheKeys(t *testing.T) {
	fake := &fakeProvider{players: &provider.PlayerList{}}
	router := newTestRouter(t, fake)

	doRequest(router, http.MethodGet, "/api/v1/players?search=curry")
	doRequest(router, http.MethodGet, "/api/v1/players?search=james")

	assert.Equal(t, 2, fake.calls)
}

func TestGetPlayer_InvalidID(t *testing.T) {
	fake := &fakeProvider{}
	router := newTestRouter(t, fake)

	rec := doRequest(router, http.MethodGet, "/api/v1/players/abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apierr.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, apierr.CodeValidationError, resp.Error.Code)
	assert.Equal(t, 0, fake.calls)
}

func TestGetTeam_ProviderError(t *testing.T) {
	fake := &fakeProvider{err: apierr.NotFound("team not found")}
	router := newTestRouter(t, fake)

	rec := doRequest(router, http.MethodGet, "/api/v1/teams/99")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp apierr.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, apierr.CodeNotFound, resp.Error.Code)
	assert.Equal(t, "/api/v1/teams/99", resp.Error.Path)
	assert.NotEmpty(t, resp.Error.RequestID)
}

func TestListGames_InvalidQuery(t *testing.T) {
	fake := &fakeProvider{}
	router := newTestRouter(t, fake)

	rec := doRequest(router, http.MethodGet, "/api/v1/games?seasons[]=twenty")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, fake.calls)
}

func TestRateLimiting_AppliesToAPIRoutes(t *testing.T) {
	fake := &fakeProvider{teams: &provider.TeamList{}}
	limiter := ratelimit.NewFixedWindowLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)

	router := newTestRouter(t, fake, func(cfg *Config) {
		cfg.Limiter = limiter
	})

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/api/v1/teams").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/api/v1/teams").Code)

	rec := doRequest(router, http.MethodGet, "/api/v1/teams")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	var resp apierr.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, apierr.CodeRateLimited, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "retryAfter")
}

func TestRateLimiting_ConfiguredStatusCode(t *testing.T) {
	fake := &fakeProvider{teams: &provider.TeamList{}}
	limiter := ratelimit.NewFixedWindowLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)

	router := newTestRouter(t, fake, func(cfg *Config) {
		cfg.Limiter = limiter
		cfg.RateLimitStatusCode = http.StatusServiceUnavailable
	})

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/api/v1/teams").Code)

	rec := doRequest(router, http.MethodGet, "/api/v1/teams")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp apierr.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, apierr.CodeRateLimited, resp.Error.Code)
	assert.Equal(t, http.StatusServiceUnavailable, resp.Error.StatusCode)
}

func TestRateLimiting_SkipsHealthEndpoints(t *testing.T) {
	fake := &fakeProvider{}
	limiter := ratelimit.NewFixedWindowLimiter(1, time.Minute)
	t.Cleanup(limiter.Stop)

	checker := health.NewChecker("test")
	router := newTestRouter(t, fake, func(cfg *Config) {
		cfg.Limiter = limiter
		cfg.Checker = checker
	})

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK,
			doRequest(router, http.MethodGet, "/healthz").Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	checker := health.NewChecker("test")
	checker.RegisterCheck("provider", func() health.Check {
		return health.Check{Status: health.StatusHealthy}
	})

	router := newTestRouter(t, &fakeProvider{}, func(cfg *Config) {
		cfg.Checker = checker
	})

	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusOK, doRequest(router, http.MethodGet, "/readyz").Code)
}

func TestNotFoundRoute(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{})

	rec := doRequest(router, http.MethodGet, "/api/v1/coaches")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	var resp apierr.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, apierr.CodeNotFound, resp.Error.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{})

	rec := doRequest(router, http.MethodPost, "/api/v1/teams")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp apierr.Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, apierr.CodeBadRequest, resp.Error.Code)
	// Code and status stay on the fixed mapping.
	assert.Equal(t, apierr.StatusForCode(resp.Error.Code), resp.Error.StatusCode)
}

func TestCacheStats(t *testing.T) {
	fake := &fakeProvider{teams: &provider.TeamList{}}
	router := newTestRouter(t, fake)

	doRequest(router, http.MethodGet, "/api/v1/teams")

	rec := doRequest(router, http.MethodGet, "/api/v1/cache/stats")
	require.Equal(t, http.StatusOK, rec.Code)

	var stats cache.Stats
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&stats))
	assert.Equal(t, 1, stats.Size)
}

func TestInvalidateCache(t *testing.T) {
	fake := &fakeProvider{teams: &provider.TeamList{}, players: &provider.PlayerList{}}
	router := newTestRouter(t, fake)

	doRequest(router, http.MethodGet, "/api/v1/teams")
	doRequest(router, http.MethodGet, "/api/v1/players")
	assert.Equal(t, 2, fake.calls)

	rec := doRequest(router, http.MethodDelete, "/api/v1/cache?pattern=teams*")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, float64(1), body["deleted"])

	// Teams must refetch, players still cached.
	doRequest(router, http.MethodGet, "/api/v1/teams")
	doRequest(router, http.MethodGet, "/api/v1/players")
	assert.Equal(t, 3, fake.calls)
}

func TestRequestIDEcho(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{teams: &provider.TeamList{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/teams", nil)
	req.Header.Set("X-Request-ID", "trace-me")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "trace-me", rec.Header().Get("X-Request-ID"))
}

func TestNilPayloadEncodesAsNull(t *testing.T) {
	router := newTestRouter(t, &fakeProvider{})

	rec := doRequest(router, http.MethodGet, "/api/v1/teams")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "null\n", rec.Body.String())
}
