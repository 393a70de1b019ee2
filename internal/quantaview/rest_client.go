package quantaview

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"quantaview/internal/config"
)

// APIKeyHeader carries the EA key on ingest requests.
const APIKeyHeader = "X-API-Key"

// RestClientInterface defines the client side of the dashboard API.
type RestClientInterface interface {
	Ping(ctx context.Context) error
	UploadTradeBatch(ctx context.Context, batch BatchRequest) (*BatchResponse, error)
}

// RestClient talks to a QuantaView server. Requests pass through a
// local rate limiter and a bounded retry loop, since an import run
// can fire hundreds of batches at a small server.
type RestClient struct {
	client  *resty.Client
	apiKey  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure RestClient implements the interface
var _ RestClientInterface = (*RestClient)(nil)

// NewRestClient creates a client for the configured server.
func NewRestClient(cfg *config.Sync, logger *zap.Logger) *RestClient {
	client := resty.New().SetBaseURL(cfg.ServerURL)

	return &RestClient{
		client:  client,
		apiKey:  cfg.APIKey,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst),
	}
}

// Ping checks connectivity with the server's status endpoint.
func (c *RestClient) Ping(ctx context.Context) error {
	req := c.client.R().SetContext(ctx)

	if _, err := c.doRequest(ctx, http.MethodGet, "/api/status", req); err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	return nil
}

// UploadTradeBatch pushes one batch of deal records.
func (c *RestClient) UploadTradeBatch(ctx context.Context, batch BatchRequest) (*BatchResponse, error) {
	if len(batch.Trades) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d trades exceeds the %d record limit", len(batch.Trades), MaxBatchSize)
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(APIKeyHeader, c.apiKey).
		SetBody(batch).
		SetResult(&BatchResponse{})

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/trades/batch", req)
	if err != nil {
		return nil, fmt.Errorf("failed to upload trade batch: %w", err)
	}

	return resp.Result().(*BatchResponse), nil
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *RestClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		// Wait for the rate limiter
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("url", c.client.BaseURL+url))
		resp, err = req.Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.RawResponse != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		// If we should retry, calculate wait time
		if retryAfter == 0 {
			// Exponential backoff: 1s, 2s, 4s
			retryAfter = time.Duration(math.Pow(2, float64(i))) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}
