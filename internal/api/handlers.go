package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"github.com/courtline/nbagw/internal/apierr"
	"github.com/courtline/nbagw/internal/cache"
	"github.com/courtline/nbagw/internal/observability"
	"github.com/courtline/nbagw/internal/provider"
)

// Cache status header values.
const (
	headerCacheStatus = "X-Cache"
	cacheHit          = "HIT"
	cacheMiss         = "MISS"
)

// maxPerPage caps the page size forwarded upstream.
const maxPerPage = 100

type service struct {
	cache    cache.Cache
	provider Provider
	logger   observability.Logger
	respCfg  apierr.ResponseConfig
}

// listPlayers serves GET /api/v1/players.
func (s *service) listPlayers(w http.ResponseWriter, r *http.Request) error {
	params, err := parseListParams(r)
	if err != nil {
		return err
	}

	key := listKey("players", r)
	return s.serveCached(w, r, key, func() (interface{}, error) {
		return s.provider.ListPlayers(r.Context(), params)
	})
}

// getPlayer serves GET /api/v1/players/{id}.
func (s *service) getPlayer(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	key := cache.Key("player", strconv.Itoa(id))
	return s.serveCached(w, r, key, func() (interface{}, error) {
		return s.provider.GetPlayer(r.Context(), id)
	})
}

// listTeams serves GET /api/v1/teams.
func (s *service) listTeams(w http.ResponseWriter, r *http.Request) error {
	params, err := parseListParams(r)
	if err != nil {
		return err
	}

	key := listKey("teams", r)
	return s.serveCached(w, r, key, func() (interface{}, error) {
		return s.provider.ListTeams(r.Context(), params)
	})
}

// getTeam serves GET /api/v1/teams/{id}.
func (s *service) getTeam(w http.ResponseWriter, r *http.Request) error {
	id, err := pathID(r)
	if err != nil {
		return err
	}

	key := cache.Key("team", strconv.Itoa(id))
	return s.serveCached(w, r, key, func() (interface{}, error) {
		return s.provider.GetTeam(r.Context(), id)
	})
}

// listGames serves GET /api/v1/games.
func (s *service) listGames(w http.ResponseWriter, r *http.Request) error {
	params, err := parseListParams(r)
	if err != nil {
		return err
	}

	key := listKey("games", r)
	return s.serveCached(w, r, key, func() (interface{}, error) {
		return s.provider.ListGames(r.Context(), params)
	})
}

// cacheStats serves GET /api/v1/cache/stats.
func (s *service) cacheStats(w http.ResponseWriter, r *http.Request) error {
	if s.cache == nil {
		return apierr.Unavailable("cache is disabled")
	}
	return writeJSON(w, http.StatusOK, s.cache.Stats(r.Context()))
}

// invalidateCache serves DELETE /api/v1/cache. An optional pattern
// query parameter limits invalidation to matching keys.
func (s *service) invalidateCache(w http.ResponseWriter, r *http.Request) error {
	if s.cache == nil {
		return apierr.Unavailable("cache is disabled")
	}

	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		s.cache.Clear(r.Context())
		return writeJSON(w, http.StatusOK, map[string]interface{}{"cleared": true})
	}

	deleted := s.cache.DeletePattern(r.Context(), pattern)
	return writeJSON(w, http.StatusOK, map[string]interface{}{"deleted": deleted})
}

// serveCached answers from cache when possible and falls back to fetch,
// storing the fresh result before writing it.
func (s *service) serveCached(
	w http.ResponseWriter,
	r *http.Request,
	key string,
	fetchFn func() (interface{}, error),
) error {
	if s.cache != nil {
		if value, ok := s.cache.Get(r.Context(), key); ok {
			w.Header().Set(headerCacheStatus, cacheHit)
			return writeJSON(w, http.StatusOK, value)
		}
	}

	value, err := fetchFn()
	if err != nil {
		return err
	}

	if s.cache != nil {
		s.cache.Set(r.Context(), key, value)
	}

	w.Header().Set(headerCacheStatus, cacheMiss)
	return writeJSON(w, http.StatusOK, value)
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (int, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apierr.Validation("id must be a positive integer").
			WithDetails(map[string]interface{}{"id": raw})
	}
	return id, nil
}

// parseListParams validates and extracts the common list query
// parameters.
func parseListParams(r *http.Request) (provider.ListParams, error) {
	q := r.URL.Query()
	var params provider.ListParams

	if raw := q.Get("cursor"); raw != "" {
		cursor, err := strconv.Atoi(raw)
		if err != nil || cursor < 0 {
			return params, apierr.Validation("cursor must be a non-negative integer")
		}
		params.Cursor = cursor
	}

	if raw := q.Get("per_page"); raw != "" {
		perPage, err := strconv.Atoi(raw)
		if err != nil || perPage <= 0 {
			return params, apierr.Validation("per_page must be a positive integer")
		}
		if perPage > maxPerPage {
			perPage = maxPerPage
		}
		params.PerPage = perPage
	}

	params.Search = q.Get("search")

	for _, raw := range q["seasons[]"] {
		season, err := strconv.Atoi(raw)
		if err != nil {
			return params, apierr.Validation("seasons[] must contain integers")
		}
		params.Seasons = append(params.Seasons, season)
	}

	for _, raw := range q["team_ids[]"] {
		teamID, err := strconv.Atoi(raw)
		if err != nil || teamID <= 0 {
			return params, apierr.Validation("team_ids[] must contain positive integers")
		}
		params.TeamIDs = append(params.TeamIDs, teamID)
	}

	return params, nil
}

// listKey builds a stable cache key for a list endpoint from its query
// parameters.
func listKey(kind string, r *http.Request) string {
	q := r.URL.Query()
	if len(q) == 0 {
		return kind
	}
	flat := make(map[string]string, len(q))
	for name, values := range q {
		flat[name] = strings.Join(values, ",")
	}
	return cache.SanitizeKey(cache.QueryKey(kind, flat))
}

// writeJSON writes a success payload. Write errors after the header has
// gone out are not recoverable and are swallowed.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(v)
	return nil
}
