package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/courtline/nbagw/internal/apierr"
	"github.com/courtline/nbagw/internal/observability"
	"github.com/courtline/nbagw/internal/retry"
)

// providerTracerName is the OpenTelemetry tracer name for upstream calls.
const providerTracerName = "nbagw/provider"

// Default client configuration constants.
const (
	// DefaultRequestTimeout bounds a single upstream request.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultRequestsPerSecond throttles outbound traffic to the
	// provider's free-tier allowance.
	DefaultRequestsPerSecond = 5

	// DefaultBurst is the outbound throttle burst size.
	DefaultBurst = 5

	// maxErrorBodySize bounds how much of an upstream error body is read.
	maxErrorBodySize = 4 << 10
)

// Client fetches NBA data from the upstream provider. Outbound calls
// are throttled by a token bucket and wrapped in the retry executor so
// transient upstream failures never surface directly to handlers.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	throttle   *rate.Limiter
	retrier    *retry.Retrier
	logger     observability.Logger
}

// Option configures the client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(logger observability.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithRetrier replaces the retry policy for upstream calls.
func WithRetrier(r *retry.Retrier) Option {
	return func(c *Client) {
		c.retrier = r
	}
}

// WithThrottle sets the outbound request throttle.
func WithThrottle(rps float64, burst int) Option {
	return func(c *Client) {
		c.throttle = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithAPIKey sets the provider API key sent in the Authorization header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// New creates a provider client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("provider base URL is required")
	}

	c := &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: DefaultRequestTimeout,
		},
		throttle: rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), DefaultBurst),
		retrier:  defaultRetrier(),
		logger:   observability.NopLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// defaultRetrier retries transient network failures and retryable
// upstream statuses (429, 502, 503).
func defaultRetrier() *retry.Retrier {
	return retry.Standard().WithShouldRetry(shouldRetryUpstream)
}

func shouldRetryUpstream(err error, attempt int) bool {
	if retry.IsTransient(err) {
		return true
	}
	return retry.RetryOnUpstreamFailures()(err, attempt)
}

// ListPlayers fetches a page of players.
func (c *Client) ListPlayers(ctx context.Context, params ListParams) (*PlayerList, error) {
	return fetch[*PlayerList](ctx, c, "/players", params.query())
}

// GetPlayer fetches one player by ID.
func (c *Client) GetPlayer(ctx context.Context, id int) (*Player, error) {
	wrapped, err := fetch[*single[Player]](ctx, c, "/players/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	return &wrapped.Data, nil
}

// ListTeams fetches a page of teams.
func (c *Client) ListTeams(ctx context.Context, params ListParams) (*TeamList, error) {
	return fetch[*TeamList](ctx, c, "/teams", params.query())
}

// GetTeam fetches one team by ID.
func (c *Client) GetTeam(ctx context.Context, id int) (*Team, error) {
	wrapped, err := fetch[*single[Team]](ctx, c, "/teams/"+strconv.Itoa(id), nil)
	if err != nil {
		return nil, err
	}
	return &wrapped.Data, nil
}

// ListGames fetches a page of games.
func (c *Client) ListGames(ctx context.Context, params ListParams) (*GameList, error) {
	return fetch[*GameList](ctx, c, "/games", params.query())
}

// query renders the list parameters as URL query values.
func (p ListParams) query() url.Values {
	q := url.Values{}
	if p.Cursor > 0 {
		q.Set("cursor", strconv.Itoa(p.Cursor))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	if p.Search != "" {
		q.Set("search", p.Search)
	}
	for _, season := range p.Seasons {
		q.Add("seasons[]", strconv.Itoa(season))
	}
	for _, teamID := range p.TeamIDs {
		q.Add("team_ids[]", strconv.Itoa(teamID))
	}
	if len(q) == 0 {
		return nil
	}
	return q
}

// fetch performs one GET against the provider through the throttle and
// retry executor, decoding the JSON body into T.
func fetch[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var zero T

	ctx, span := otel.Tracer(providerTracerName).Start(ctx, "provider.fetch",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("provider.path", path)),
	)
	defer span.End()

	logger := c.logger
	opts := c.retrier.Options()
	prevOnEvent := opts.OnEvent
	opts.OnEvent = func(e retry.Event) {
		if prevOnEvent != nil {
			prevOnEvent(e)
		}
		if e.Type == retry.EventRetry {
			GetProviderMetrics().retriesTotal.WithLabelValues(path).Inc()
			logger.Warn("retrying upstream request",
				observability.String("path", path),
				observability.Int("attempt", e.Attempt),
				observability.Duration("delay", e.Delay),
				observability.Error(e.Err),
			)
		}
	}

	body, err := retry.Do(ctx, c.retrier.Config(), func(ctx context.Context) ([]byte, error) {
		return c.doRequest(ctx, path, query)
	}, opts)
	if err != nil {
		span.SetAttributes(attribute.Bool("provider.error", true))
		return zero, err
	}

	result := new(T)
	if err := json.Unmarshal(body, result); err != nil {
		return zero, apierr.ExternalService("invalid response from data provider").WithCause(err)
	}
	return *result, nil
}

// doRequest performs a single throttled HTTP GET and maps non-2xx
// statuses onto the error taxonomy.
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if err := c.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		GetProviderMetrics().requestsTotal.WithLabelValues(path, "error").Inc()
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	m := GetProviderMetrics()
	m.requestsTotal.WithLabelValues(path, strconv.Itoa(resp.StatusCode)).Inc()
	m.requestDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, statusError(resp)
	}

	return io.ReadAll(resp.Body)
}

// statusError maps an upstream non-2xx response onto the error taxonomy.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
	detail := upstreamMessage(body)

	switch resp.StatusCode {
	case http.StatusBadRequest:
		return apierr.BadRequest(messageOr(detail, "invalid request to data provider"))
	case http.StatusUnauthorized:
		return apierr.Unauthorized("data provider rejected credentials")
	case http.StatusNotFound:
		return apierr.NotFound(messageOr(detail, "resource not found"))
	case http.StatusTooManyRequests:
		return apierr.RateLimited("data provider rate limit exceeded")
	case http.StatusServiceUnavailable:
		return apierr.Unavailable("data provider unavailable")
	default:
		if resp.StatusCode >= http.StatusInternalServerError {
			return apierr.ExternalService(
				fmt.Sprintf("data provider returned status %d", resp.StatusCode))
		}
		return apierr.ExternalService(messageOr(detail,
			fmt.Sprintf("unexpected provider status %d", resp.StatusCode)))
	}
}

// upstreamMessage extracts an error message from a provider error body.
func upstreamMessage(body []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}

func messageOr(msg, fallback string) string {
	if msg != "" {
		return msg
	}
	return fallback
}
