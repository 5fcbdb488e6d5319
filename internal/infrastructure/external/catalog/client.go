// Package catalog implements the question catalog API client.
// The catalog serves authored quiz question banks per category; the
// quiz generator falls back to its built-in bank when the catalog is
// unreachable, so every failure mode here degrades rather than fails.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/blen-hub/blen-progress-hub/internal/domain/quiz"
	"github.com/blen-hub/blen-progress-hub/internal/domain/shared"
	"github.com/blen-hub/blen-progress-hub/pkg/circuitbreaker"
	"github.com/blen-hub/blen-progress-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// ClientConfig contains configuration for the catalog API client.
type ClientConfig struct {
	// BaseURL is the catalog API base URL
	BaseURL string

	// APIKey is the bearer token for authentication (if applicable)
	APIKey string

	// Timeout is the HTTP request timeout
	Timeout time.Duration

	// Logger for structured logging
	Logger *slog.Logger

	// Debug enables debug logging
	Debug bool
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL: baseURL,
		Timeout: 10 * time.Second,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is the catalog API client. It implements quiz.Source.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	retrier    *retry.Retrier
	breaker    *circuitbreaker.CircuitBreaker
	mapper     *Mapper
}

// compile-time interface check
var _ quiz.Source = (*Client)(nil)

// NewClient creates a new catalog API client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	c := &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger:  config.Logger,
		retrier: retry.CatalogAPIRetrier(),
		mapper:  NewMapper(),
	}
	c.breaker = circuitbreaker.CatalogAPIBreaker(func(name string, from, to circuitbreaker.State) {
		c.logger.Warn("catalog circuit state changed",
			"breaker", name,
			"from", from.String(),
			"to", to.String(),
		)
	})
	return c
}

// ══════════════════════════════════════════════════════════════════════════════
// CATALOG OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// CategoryBank fetches the question bank for a category.
func (c *Client) CategoryBank(ctx context.Context, category quiz.Category) (*quiz.CategoryBank, error) {
	if !category.IsValid() {
		return nil, quiz.ErrInvalidCategory
	}

	path := fmt.Sprintf("/api/v1/banks/%s", url.PathEscape(category.CatalogKey()))

	var response APIResponse[BankDTO]
	if err := c.doRequest(ctx, path, &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, shared.WrapError("quiz", "CategoryBank", shared.ErrCatalogInvalidResponse,
			"catalog rejected request", errors.New(response.Error))
	}

	return c.mapper.BankFromDTO(&response.Data), nil
}

// ListBanks fetches the full catalog listing.
func (c *Client) ListBanks(ctx context.Context) (map[string]*quiz.CategoryBank, error) {
	var response APIResponse[BankListDTO]
	if err := c.doRequest(ctx, "/api/v1/banks", &response); err != nil {
		return nil, err
	}

	if !response.Success {
		return nil, shared.WrapError("quiz", "ListBanks", shared.ErrCatalogInvalidResponse,
			"catalog rejected request", errors.New(response.Error))
	}

	banks := make(map[string]*quiz.CategoryBank, len(response.Data.Banks))
	for key, dto := range response.Data.Banks {
		d := dto
		banks[key] = c.mapper.BankFromDTO(&d)
	}
	return banks, nil
}

// IsHealthy checks if the catalog API is reachable.
func (c *Client) IsHealthy(ctx context.Context) bool {
	var response APIResponse[map[string]interface{}]
	err := c.doSingleRequest(ctx, "/health", &response)
	return err == nil && response.Success
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP REQUEST HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// doRequest performs a GET request guarded by the circuit breaker and retrier.
func (c *Client) doRequest(ctx context.Context, path string, result interface{}) error {
	err := c.breaker.Execute(ctx, func(ctx context.Context) error {
		return c.retrier.Do(ctx, func(ctx context.Context) error {
			return c.doSingleRequest(ctx, path, result)
		})
	})
	if err != nil {
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			return shared.WrapError("quiz", "CategoryBank", shared.ErrCatalogUnavailable,
				"catalog circuit open", err)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return shared.WrapError("quiz", "CategoryBank", shared.ErrCatalogTimeout,
				"catalog request timed out", err)
		}
		return err
	}
	return nil
}

// doSingleRequest performs a single HTTP GET.
func (c *Client) doSingleRequest(ctx context.Context, path string, result interface{}) error {
	fullURL := c.config.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	if c.config.Debug {
		c.logger.Debug("catalog api request", "path", path)
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

	if resp.StatusCode >= 400 {
		var apiErr APIErrorDTO
		if err := json.Unmarshal(respBody, &apiErr); err == nil && apiErr.Message != "" {
			return &apiErr
		}
		return fmt.Errorf("catalog error: status %d", resp.StatusCode)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}
