// Package client calls the genderize.io and nationalize.io bulk APIs and
// classifies their failures.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/firstnames/pkg/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// API names used in logs, metrics and quota tracking.
const (
	APIGender  = "genderize"
	APICountry = "nationalize"
)

// MaxNamesPerRequest is the largest number of names one bulk call accepts.
const MaxNamesPerRequest = 10

// Prometheus metrics for API calls.
var (
	apiRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firstnames_api_requests_total",
		Help: "Total API requests by API and status",
	}, []string{"api", "status"})

	apiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "firstnames_api_request_duration_seconds",
		Help:    "API request duration in seconds by API",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"api"})

	apiErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firstnames_api_errors_total",
		Help: "Total API errors by class",
	}, []string{"class"})
)

// Client calls both classification APIs.
type Client struct {
	httpClient *http.Client
	quota      *ratelimit.Tracker
	config     Config
	logger     zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// GenderURL is the base URL of the gender API.
	GenderURL string

	// CountryURL is the base URL of the country API.
	CountryURL string

	// UserAgent header sent with every request.
	UserAgent string

	// Timeout bounds one HTTP request. A timed out request is a transport error.
	Timeout time.Duration

	// Quota optionally tracks the daily quota; nil disables tracking.
	Quota *ratelimit.Tracker
}

// DefaultConfig returns the configuration for the public APIs.
func DefaultConfig(userAgent string) Config {
	return Config{
		GenderURL:  "https://api.genderize.io",
		CountryURL: "https://api.nationalize.io",
		UserAgent:  userAgent,
		Timeout:    30 * time.Second,
	}
}

// New creates a new API client.
func New(cfg Config) (*Client, error) {
	if cfg.UserAgent == "" {
		return nil, fmt.Errorf("user-agent is required")
	}

	for name, raw := range map[string]string{"gender_url": cfg.GenderURL, "country_url": cfg.CountryURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("%s must be an absolute URL (got %q)", name, raw)
		}
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		quota:  cfg.Quota,
		config: cfg,
		logger: log.With().Str("component", "api-client").Logger(),
	}, nil
}

// Genders fetches gender predictions for up to MaxNamesPerRequest names.
// The result holds an entry for every name the API answered for.
func (c *Client) Genders(ctx context.Context, names []string) (map[string]GenderResult, error) {
	var raw []rawGenderResult
	if err := c.fetch(ctx, APIGender, c.config.GenderURL, names, &raw); err != nil {
		return nil, err
	}

	results := make(map[string]GenderResult, len(raw))
	for _, r := range raw {
		results[r.Name] = GenderResult{
			Gender:      r.Gender,
			Probability: r.Probability,
			Count:       r.Count,
		}
	}
	return results, nil
}

// Countries fetches likely countries of origin for up to MaxNamesPerRequest
// names.
func (c *Client) Countries(ctx context.Context, names []string) (map[string][]CountryResult, error) {
	var raw []rawCountryResult
	if err := c.fetch(ctx, APICountry, c.config.CountryURL, names, &raw); err != nil {
		return nil, err
	}

	results := make(map[string][]CountryResult, len(raw))
	for _, r := range raw {
		results[r.Name] = r.Country
	}
	return results, nil
}

// fetch issues one bulk GET and decodes the 200 body into out.
func (c *Client) fetch(ctx context.Context, api, baseURL string, names []string, out any) error {
	if len(names) == 0 {
		return nil
	}
	if len(names) > MaxNamesPerRequest {
		return fmt.Errorf("%w: %d > %d", ErrTooManyNames, len(names), MaxNamesPerRequest)
	}

	if c.quota != nil {
		allowed, err := c.quota.Allow(ctx, api)
		if err != nil {
			c.logger.Warn().Err(err).Str("api", api).Msg("Quota check failed")
		} else if !allowed {
			apiRequestsTotal.WithLabelValues(api, "quota_exhausted").Inc()
			apiErrorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
			return rateLimitError(http.StatusTooManyRequests, "quota exhausted")
		}
	}

	endpoint := strings.TrimRight(baseURL, "/") + "/" + FormatParams(names)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return transportError("create request", err)
	}
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().
		Str("api", api).
		Int("names", len(names)).
		Msg("Executing API request")

	startTime := time.Now()
	defer func() {
		apiRequestDuration.WithLabelValues(api).Observe(time.Since(startTime).Seconds())
	}()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().Err(err).Str("api", api).Msg("HTTP request failed")
		apiRequestsTotal.WithLabelValues(api, "network_error").Inc()
		apiErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		return transportError("send request", err)
	}
	defer resp.Body.Close()

	apiRequestsTotal.WithLabelValues(api, strconv.Itoa(resp.StatusCode)).Inc()

	if c.quota != nil {
		if err := c.quota.UpdateFromHeaders(ctx, api, resp.Header); err != nil {
			c.logger.Warn().Err(err).Str("api", api).Msg("Failed to update quota from headers")
		}
	}

	if apiErr := c.classifyResponse(ctx, api, resp); apiErr != nil {
		apiErrorsTotal.WithLabelValues(string(apiErr.ErrorClass)).Inc()
		c.logger.Warn().
			Str("api", api).
			Int("status", resp.StatusCode).
			Str("error_class", string(apiErr.ErrorClass)).
			Msg("API request error")
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		apiErrorsTotal.WithLabelValues(string(ErrorClassTransport)).Inc()
		c.logger.Warn().Err(err).Str("api", api).Msg("Failed to decode API response")
		return transportError("decode response", err)
	}

	return nil
}

// classifyResponse turns a non-200 response into an *APIError. A 200
// response returns nil.
func (c *Client) classifyResponse(ctx context.Context, api string, resp *http.Response) *APIError {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		if c.quota != nil {
			if err := c.quota.RecordExhausted(ctx, api); err != nil {
				c.logger.Warn().Err(err).Str("api", api).Msg("Failed to record exhausted quota")
			}
		}
		return rateLimitError(resp.StatusCode, statusText(resp))
	default:
		return &APIError{
			StatusCode: resp.StatusCode,
			ErrorClass: ErrorClassServer,
			Message:    statusText(resp),
		}
	}
}

// statusText returns the reason phrase of resp, e.g. "Internal Server Error".
func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
