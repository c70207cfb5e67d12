// Package cdn purges the edge cache in front of the site: URL-set
// construction, chunking under the upstream per-request cap, bounded retry,
// and the single-slot replay batch.
package cdn

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/jonesrussell/storefront-admin/internal/config"
	"github.com/jonesrussell/storefront-admin/internal/domain"
	"github.com/jonesrussell/storefront-admin/internal/httpclient"
	"github.com/jonesrussell/storefront-admin/internal/logger"
	"github.com/jonesrussell/storefront-admin/internal/retry"
)

const (
	// defaultBaseURL is the production purge API endpoint.
	defaultBaseURL = "https://api.cloudflare.com/client/v4"

	// maxURLsPerRequest is the upstream cap on files per purge request.
	// Oversized lists are rejected outright, so the client chunks.
	maxURLsPerRequest = 2000

	// purgeMaxAttempts bounds attempts per chunk (including the first).
	purgeMaxAttempts = 2

	// attemptTimeout bounds each individual purge attempt.
	attemptTimeout = 25 * time.Second

	// rayIDHeader carries the per-request correlation identifier returned
	// by the edge, surfaced for support escalation.
	rayIDHeader = "CF-Ray"
)

// ErrNoPreviousBatch is returned by Replay when nothing has been recorded.
var ErrNoPreviousBatch = domain.NewCodedError(domain.ErrNoPreviousBatch, "no purge batch recorded since startup")

// statusError marks an attempt rejected by the purge API with a status code.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("purge request rejected with status %d", e.status)
}

// Client issues purge requests against the CDN API.
type Client struct {
	cfg   *config.PurgeConfig
	http  *http.Client
	store *BatchStore
	log   logger.Logger
}

// NewClient creates a purge client. The batch store is injected so endpoints
// and the client share one replay slot without a package-level singleton.
func NewClient(cfg *config.PurgeConfig, store *BatchStore, log logger.Logger) *Client {
	return &Client{
		cfg: cfg,
		// Per-attempt deadlines come from the retry policy context, so the
		// client itself carries no fixed timeout.
		http:  httpclient.New(httpclient.Config{}),
		store: store,
		log:   log,
	}
}

// Store exposes the replay slot to endpoints that record batches.
func (c *Client) Store() *BatchStore {
	return c.store
}

// PurgeFiles purges the given URLs, chunked under the per-request cap.
// Chunks are issued sequentially and each yields its own result; results are
// never merged here because the caller owns aggregation semantics.
// retryOnTimeout extends the retry trigger from 5xx responses to attempt
// timeouts, used on the replay path.
func (c *Client) PurgeFiles(ctx context.Context, urls []string, retryOnTimeout bool) []domain.PurgeResult {
	chunks := chunkURLs(urls, maxURLsPerRequest)
	results := make([]domain.PurgeResult, 0, len(chunks))
	for _, chunk := range chunks {
		body := map[string]any{"files": chunk}
		result := c.purgeRequest(ctx, body, domain.PurgeModeSelective, retryOnTimeout)
		results = append(results, result)
	}
	return results
}

// PurgeEverything purges the whole zone. Mutually exclusive with a selective
// purge per call; the upstream API rejects requests carrying both.
func (c *Client) PurgeEverything(ctx context.Context) domain.PurgeResult {
	body := map[string]any{"purge_everything": true}
	return c.purgeRequest(ctx, body, domain.PurgeModeEverything, false)
}

// RecordBatch overwrites the replay slot with the given URL set.
func (c *Client) RecordBatch(urls []string) {
	c.store.Record(urls)
}

// Replay re-purges the most recently recorded batch. Timeout retries are
// enabled here: a replay is a deliberate operator action, worth the extra
// attempt against a slow edge.
func (c *Client) Replay(ctx context.Context) ([]domain.PurgeResult, error) {
	batch, ok := c.store.Last()
	if !ok {
		return nil, ErrNoPreviousBatch
	}
	return c.PurgeFiles(ctx, batch.URLs, true), nil
}

// purgeRequest issues one chunk with bounded retry and collects a
// correlation ID per attempt.
func (c *Client) purgeRequest(ctx context.Context, body map[string]any, mode domain.PurgeMode, retryOnTimeout bool) domain.PurgeResult {
	result := domain.PurgeResult{Mode: mode}

	payload, err := json.Marshal(body)
	if err != nil {
		result.Err = fmt.Errorf("encode purge body: %w", err)
		return result
	}

	start := time.Now()
	attempts, err := retry.Do(ctx, retry.Policy{
		MaxAttempts:       purgeMaxAttempts,
		PerAttemptTimeout: attemptTimeout,
		Retryable: func(err error) bool {
			var se *statusError
			if errors.As(err, &se) {
				return se.status >= 500 || se.status == 524
			}
			return retryOnTimeout && isTimeout(err)
		},
	}, func(attemptCtx context.Context) error {
		status, rayID, attemptErr := c.attempt(attemptCtx, payload)
		if rayID != "" {
			result.RayIDs = append(result.RayIDs, rayID)
		}
		if status != 0 {
			result.Status = status
		}
		return attemptErr
	})

	result.LatencyMs = time.Since(start).Milliseconds()
	result.Attempts = attempts

	if err != nil {
		result.Err = err
		c.log.Warn("Cache purge failed",
			logger.String("mode", string(mode)),
			logger.Int("attempts", attempts),
			logger.Int("status", result.Status),
			logger.Strings("ray_ids", result.RayIDs),
			logger.Error(err),
		)
		return result
	}

	result.OK = true
	return result
}

// attempt issues a single purge request and reports the HTTP status and the
// correlation ID when the edge returned one.
func (c *Client) attempt(ctx context.Context, payload []byte) (int, string, error) {
	url := fmt.Sprintf("%s/zones/%s/purge_cache", c.baseURL(), c.cfg.ZoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, "", fmt.Errorf("build purge request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("purge request: %w", err)
	}
	defer resp.Body.Close()

	rayID := resp.Header.Get(rayIDHeader)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, rayID, &statusError{status: resp.StatusCode}
	}
	return resp.StatusCode, rayID, nil
}

func (c *Client) baseURL() string {
	if c.cfg.BaseURL != "" {
		return c.cfg.BaseURL
	}
	return defaultBaseURL
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
