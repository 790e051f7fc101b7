// Package platform implements the learning platform API client.
// This package handles all communication with the learning platform,
// including fetching catalog definitions and the learner activity feed.
package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/JaoharRaihan/WorkIn-sub001/pkg/circuitbreaker"
	"github.com/JaoharRaihan/WorkIn-sub001/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the platform API client.
type ClientConfig struct {
	// BaseURL is the platform API base URL
	BaseURL string

	// APIKey authenticates this service against the platform
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// RateLimiterConfig for API rate limiting
	RateLimiterConfig RateLimiterConfig

	// RetryOptions tune the retry behavior around each request
	RetryOptions []retry.Option

	// BreakerOptions tune the circuit breaker guarding the platform
	BreakerOptions []circuitbreaker.Option

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		Timeout:           30 * time.Second,
		RateLimiterConfig: DefaultRateLimiterConfig(),
		RetryOptions: []retry.Option{
			retry.WithMaxAttempts(3),
			retry.WithInitialDelay(500 * time.Millisecond),
			retry.WithMaxDelay(10 * time.Second),
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the learning platform API client.
type Client struct {
	config      ClientConfig
	httpClient  *http.Client
	logger      *slog.Logger
	rateLimiter *RateLimiter
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
	mapper      *Mapper
}

// NewClient creates a new platform API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:      config.Logger,
		rateLimiter: NewRateLimiter(config.RateLimiterConfig),
		mapper:      NewMapper(),
	}

	breakerOpts := append([]circuitbreaker.Option{
		circuitbreaker.WithOnStateChange(func(name string, from, to circuitbreaker.State) {
			c.logger.Warn("platform circuit state changed",
				"breaker", name, "from", from.String(), "to", to.String())
		}),
	}, config.BreakerOptions...)
	c.breaker = circuitbreaker.New("platform", breakerOpts...)

	retryOpts := append([]retry.Option{
		retry.WithRetryIf(isRetryable),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			c.logger.Debug("retrying platform request",
				"attempt", attempt, "delay", delay.String(), "error", err)
		}),
	}, config.RetryOptions...)
	c.retrier = retry.New(retryOpts...)

	return c
}

// Mapper returns the DTO mapper for this client.
func (c *Client) Mapper() *Mapper {
	return c.mapper
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetTestDefinition fetches a single checkpoint test definition by ID.
func (c *Client) GetTestDefinition(ctx context.Context, testID string) (*TestDefinitionDTO, error) {
	path := fmt.Sprintf("/api/v1/catalog/tests/%s", url.PathEscape(testID))

	var response APIResponse[TestDefinitionDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, fmt.Errorf("get test definition %s: %w", testID, err)
	}

	if !response.Success {
		return nil, fmt.Errorf("api error: %s", response.Error)
	}

	return &response.Data, nil
}

// ListTestDefinitions fetches checkpoint test definitions with optional filters.
func (c *Client) ListTestDefinitions(ctx context.Context, req CatalogRequestDTO) ([]TestDefinitionDTO, *Meta, error) {
	path := "/api/v1/catalog/tests" + catalogQuery(req)

	var response APIResponse[[]TestDefinitionDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, nil, fmt.Errorf("list test definitions: %w", err)
	}

	if !response.Success {
		return nil, nil, fmt.Errorf("api error: %s", response.Error)
	}

	return response.Data, response.Meta, nil
}

// GetDiagnosticDefinition fetches a single diagnostic definition by ID.
func (c *Client) GetDiagnosticDefinition(ctx context.Context, diagnosticID string) (*DiagnosticDefinitionDTO, error) {
	path := fmt.Sprintf("/api/v1/catalog/diagnostics/%s", url.PathEscape(diagnosticID))

	var response APIResponse[DiagnosticDefinitionDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, fmt.Errorf("get diagnostic definition %s: %w", diagnosticID, err)
	}

	if !response.Success {
		return nil, fmt.Errorf("api error: %s", response.Error)
	}

	return &response.Data, nil
}

// ListDiagnosticDefinitions fetches diagnostic definitions with optional filters.
func (c *Client) ListDiagnosticDefinitions(ctx context.Context, req CatalogRequestDTO) ([]DiagnosticDefinitionDTO, *Meta, error) {
	path := "/api/v1/catalog/diagnostics" + catalogQuery(req)

	var response APIResponse[[]DiagnosticDefinitionDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, nil, fmt.Errorf("list diagnostic definitions: %w", err)
	}

	if !response.Success {
		return nil, nil, fmt.Errorf("api error: %s", response.Error)
	}

	return response.Data, response.Meta, nil
}

// GetAllTestDefinitions fetches every test definition, handling pagination.
func (c *Client) GetAllTestDefinitions(ctx context.Context, modifiedSince *time.Time) ([]TestDefinitionDTO, error) {
	var all []TestDefinitionDTO
	page := 1
	perPage := 100

	for {
		defs, meta, err := c.ListTestDefinitions(ctx, CatalogRequestDTO{
			ModifiedSince: modifiedSince,
			Page:          page,
			PerPage:       perPage,
		})
		if err != nil {
			return nil, fmt.Errorf("all test definitions page %d: %w", page, err)
		}

		all = append(all, defs...)

		if len(defs) < perPage || (meta != nil && page >= meta.TotalPages) {
			break
		}
		page++
	}

	return all, nil
}

// GetAllDiagnosticDefinitions fetches every diagnostic definition, handling pagination.
func (c *Client) GetAllDiagnosticDefinitions(ctx context.Context, modifiedSince *time.Time) ([]DiagnosticDefinitionDTO, error) {
	var all []DiagnosticDefinitionDTO
	page := 1
	perPage := 100

	for {
		defs, meta, err := c.ListDiagnosticDefinitions(ctx, CatalogRequestDTO{
			ModifiedSince: modifiedSince,
			Page:          page,
			PerPage:       perPage,
		})
		if err != nil {
			return nil, fmt.Errorf("all diagnostic definitions page %d: %w", page, err)
		}

		all = append(all, defs...)

		if len(defs) < perPage || (meta != nil && page >= meta.TotalPages) {
			break
		}
		page++
	}

	return all, nil
}

// catalogQuery builds the query string for catalog listing endpoints.
func catalogQuery(req CatalogRequestDTO) string {
	params := url.Values{}
	if req.RoadmapID != "" {
		params.Set("roadmap_id", req.RoadmapID)
	}
	if req.Domain != "" {
		params.Set("domain", req.Domain)
	}
	if req.ModifiedSince != nil {
		params.Set("modified_since", req.ModifiedSince.Format(time.RFC3339))
	}
	if req.Page > 0 {
		params.Set("page", strconv.Itoa(req.Page))
	}
	if req.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(req.PerPage))
	}

	if len(params) == 0 {
		return ""
	}
	return "?" + params.Encode()
}

// ══════════════════════════════════════════════════════════════════════════════
// ACTIVITY FEED OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetActivityFeed fetches learner activities with optional filters.
func (c *Client) GetActivityFeed(ctx context.Context, req ActivityFeedRequestDTO) ([]ActivityDTO, *Meta, error) {
	params := url.Values{}
	if req.UserID != "" {
		params.Set("user_id", req.UserID)
	}
	if req.Since != nil {
		params.Set("since", req.Since.Format(time.RFC3339))
	}
	if req.Page > 0 {
		params.Set("page", strconv.Itoa(req.Page))
	}
	if req.PerPage > 0 {
		params.Set("per_page", strconv.Itoa(req.PerPage))
	}

	path := "/api/v1/activities"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var response APIResponse[[]ActivityDTO]
	if err := c.doRequest(ctx, http.MethodGet, path, nil, &response); err != nil {
		return nil, nil, fmt.Errorf("get activity feed: %w", err)
	}

	if !response.Success {
		return nil, nil, fmt.Errorf("api error: %s", response.Error)
	}

	return response.Data, response.Meta, nil
}

// GetActivitiesSince fetches all activities since a point in time, handling
// pagination. Used by the backfill job to recover missed webhook pushes.
func (c *Client) GetActivitiesSince(ctx context.Context, since time.Time) ([]ActivityDTO, error) {
	var all []ActivityDTO
	page := 1
	perPage := 200

	for {
		activities, meta, err := c.GetActivityFeed(ctx, ActivityFeedRequestDTO{
			Since:   &since,
			Page:    page,
			PerPage: perPage,
		})
		if err != nil {
			return nil, fmt.Errorf("activities since %s page %d: %w", since.Format(time.RFC3339), page, err)
		}

		all = append(all, activities...)

		if len(activities) < perPage || (meta != nil && page >= meta.TotalPages) {
			break
		}
		page++
	}

	return all, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs an HTTP request with rate limiting, circuit breaking,
// and retries. The breaker sits inside the retry loop so an open circuit
// fails fast instead of burning retry budget.
func (c *Client) doRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	return c.retrier.Do(ctx, func(ctx context.Context) error {
		if err := c.rateLimiter.Allow(ctx); err != nil {
			return err
		}

		return c.breaker.Execute(ctx, func(ctx context.Context) error {
			err := c.doSingleRequest(ctx, method, path, body, result)

			var rateLimitErr *RateLimitError
			if errors.As(err, &rateLimitErr) {
				c.rateLimiter.RecordRateLimitHit(rateLimitErr.RetryAfter)
			}
			return err
		})
	})
}

// doSingleRequest performs a single HTTP request.
func (c *Client) doSingleRequest(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	fullURL := c.config.BaseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	if c.config.Debug {
		c.logger.Debug("platform api request", "method", method, "path", path)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// Handle rate limiting
	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := 60 * time.Second
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if seconds, err := strconv.Atoi(ra); err == nil {
				retryAfter = time.Duration(seconds) * time.Second
			}
		}
		return &RateLimitError{
			RetryAfter: retryAfter,
			Message:    "rate limit exceeded",
		}
	}

	// Handle error responses
	if resp.StatusCode >= 400 {
		var apiErr APIErrorDTO
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("api error: status %d", resp.StatusCode)
	}

	// Unmarshal response
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

// isRetryable checks if an error is worth another attempt.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	// An open circuit means the platform is known-bad; fail fast.
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
		return false
	}

	// Rate limit errors are retryable after backoff
	var rateLimitErr *RateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}

	// API errors - check the error code
	var apiErr *APIErrorDTO
	if errors.As(err, &apiErr) {
		return apiErr.Code == "SERVER_ERROR" || apiErr.Code == "TEMPORARILY_UNAVAILABLE"
	}

	// Network errors are generally retryable
	errStr := err.Error()
	for _, marker := range []string{"timeout", "connection refused", "temporary", "reset", "EOF", "status 5"} {
		if strings.Contains(errStr, marker) {
			return true
		}
	}
	return false
}

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH AND STATUS
// ══════════════════════════════════════════════════════════════════════════════

// HealthCheck checks if the platform API is reachable. Satisfies the health
// endpoint's external API checker.
func (c *Client) HealthCheck(ctx context.Context) error {
	var response APIResponse[map[string]interface{}]
	if err := c.doSingleRequest(ctx, http.MethodGet, "/health", nil, &response); err != nil {
		return fmt.Errorf("platform health: %w", err)
	}
	if !response.Success {
		return fmt.Errorf("platform health: unhealthy response")
	}
	return nil
}

// ClientStatus describes the current state of the client's guards.
type ClientStatus struct {
	RateLimiter  RateLimiterStatus
	BreakerState string
	BreakerOpen  bool
}

// Status returns the current status of the client.
func (c *Client) Status() ClientStatus {
	return ClientStatus{
		RateLimiter:  c.rateLimiter.Status(),
		BreakerState: c.breaker.State().String(),
		BreakerOpen:  c.breaker.IsOpen(),
	}
}

// Reset resets the rate limiter and circuit breaker.
func (c *Client) Reset() {
	c.rateLimiter.Reset()
	c.breaker.Reset()
}
