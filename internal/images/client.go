// Package images verifies connectivity to the image CDN account API.
package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/jonesrussell/storefront-admin/internal/config"
	"github.com/jonesrussell/storefront-admin/internal/domain"
	"github.com/jonesrussell/storefront-admin/internal/httpclient"
	"github.com/jonesrussell/storefront-admin/internal/logger"
	"github.com/jonesrussell/storefront-admin/internal/retry"
)

const (
	defaultBaseURL = "https://api.cloudflare.com/client/v4"

	// verifyTimeout bounds each connectivity attempt.
	verifyTimeout = 20 * time.Second

	// verifyMaxAttempts allows one retry on server-side failure.
	verifyMaxAttempts = 2

	rayIDHeader = "CF-Ray"
)

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("images API rejected request with status %d", e.status)
}

// Client is a thin authenticated wrapper around the image CDN API.
type Client struct {
	cfg  *config.ImagesConfig
	http *http.Client
	log  logger.Logger
}

// NewClient creates an images client.
func NewClient(cfg *config.ImagesConfig, log logger.Logger) *Client {
	return &Client{
		cfg:  cfg,
		http: httpclient.New(httpclient.Config{}),
		log:  log,
	}
}

// Verify checks that the account credentials are accepted by listing one
// image. Latency and correlation IDs are captured; a malformed response body
// downgrades to "no details" rather than failing the call.
func (c *Client) Verify(ctx context.Context) domain.ConnectivityResult {
	result := domain.ConnectivityResult{}

	start := time.Now()
	attempts, err := retry.Do(ctx, retry.Policy{
		MaxAttempts:       verifyMaxAttempts,
		PerAttemptTimeout: verifyTimeout,
		Retryable: func(err error) bool {
			var se *statusError
			return errors.As(err, &se) && se.status >= 500
		},
	}, func(attemptCtx context.Context) error {
		rayID, details, attemptErr := c.attempt(attemptCtx)
		if rayID != "" {
			result.RayIDs = append(result.RayIDs, rayID)
		}
		if details != "" {
			result.Details = details
		}
		return attemptErr
	})
	result.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		result.ErrorCode = classify(err)
		c.log.Warn("Image CDN connectivity check failed",
			logger.Int("attempts", attempts),
			logger.Strings("ray_ids", result.RayIDs),
			logger.Error(err),
		)
		return result
	}

	result.OK = true
	return result
}

func (c *Client) attempt(ctx context.Context) (rayID, details string, err error) {
	url := fmt.Sprintf("%s/accounts/%s/images/v1?per_page=1", c.baseURL(), c.cfg.AccountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", fmt.Errorf("build images request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("images request: %w", err)
	}
	defer resp.Body.Close()

	rayID = resp.Header.Get(rayIDHeader)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return rayID, "", &statusError{status: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return rayID, "", &statusError{status: resp.StatusCode}
	}

	// Body parsing is best effort: a 2xx with an unparseable body still
	// counts as reachable.
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if readErr != nil {
		return rayID, "", nil
	}
	var parsed struct {
		Result []struct {
			ID string `json:"id"`
		} `json:"result"`
	}
	if json.Unmarshal(body, &parsed) != nil {
		return rayID, "", nil
	}
	return rayID, fmt.Sprintf("account reachable, %d image(s) sampled", len(parsed.Result)), nil
}

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return defaultBaseURL
}

func classify(err error) domain.ErrorCode {
	var se *statusError
	if errors.As(err, &se) {
		if se.status == http.StatusUnauthorized || se.status == http.StatusForbidden {
			return domain.ErrAuthFailed
		}
		return domain.ErrHTTPError
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	if retry.IsTimeout(err) {
		return domain.ErrTimeout
	}
	return domain.ErrUnknown
}
