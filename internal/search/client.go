// Package search verifies connectivity to the search index service and that
// the configured index actually exists, distinguishing "reachable but index
// missing" from "unreachable".
package search

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"

	"github.com/jonesrussell/storefront-admin/internal/config"
	"github.com/jonesrussell/storefront-admin/internal/domain"
	"github.com/jonesrussell/storefront-admin/internal/logger"
	"github.com/jonesrussell/storefront-admin/internal/retry"
)

const (
	// verifyTimeout bounds each verification attempt.
	verifyTimeout = 5 * time.Second

	// verifyMaxAttempts allows one retry on server-side failure.
	verifyMaxAttempts = 2
)

type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("search service rejected request with status %d", e.status)
}

// errIndexMissing marks a reachable cluster without the configured index.
var errIndexMissing = errors.New("configured index not present")

// Client wraps an Elasticsearch client for index verification.
type Client struct {
	es    *es.Client
	index string
	log   logger.Logger
}

// NewClient creates a search client from the integration config.
func NewClient(cfg *config.SearchConfig, log logger.Logger) (*Client, error) {
	esCfg := es.Config{Addresses: cfg.Addresses}

	switch {
	case cfg.APIKey != "":
		esCfg.APIKey = cfg.APIKey
	case cfg.Username != "" && cfg.Password != "":
		esCfg.Username = cfg.Username
		esCfg.Password = cfg.Password
	}

	if cfg.InsecureSkipVerify {
		esCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	client, err := es.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}

	return &Client{es: client, index: cfg.IndexName, log: log}, nil
}

// Verify pings the cluster and checks that the configured index exists.
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
		return c.attempt(attemptCtx)
	})
	result.LatencyMs = time.Since(start).Milliseconds()

	if err != nil {
		result.ErrorCode = c.classify(err)
		c.log.Warn("Search connectivity check failed",
			logger.String("index", c.index),
			logger.Int("attempts", attempts),
			logger.Error(err),
		)
		return result
	}

	result.OK = true
	result.Details = fmt.Sprintf("index %q present", c.index)
	return result
}

func (c *Client) attempt(ctx context.Context) error {
	ping, err := c.es.Ping(c.es.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping search service: %w", err)
	}
	defer ping.Body.Close()
	if ping.IsError() {
		return &statusError{status: ping.StatusCode}
	}

	exists, err := c.es.Indices.Exists(
		[]string{c.index},
		c.es.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("check index: %w", err)
	}
	defer exists.Body.Close()

	switch {
	case exists.StatusCode == http.StatusNotFound:
		return errIndexMissing
	case exists.IsError():
		return &statusError{status: exists.StatusCode}
	}
	return nil
}

func (c *Client) classify(err error) domain.ErrorCode {
	if errors.Is(err, errIndexMissing) {
		return domain.ErrIndexMissing
	}
	var se *statusError
	if errors.As(err, &se) {
		if se.status == http.StatusUnauthorized || se.status == http.StatusForbidden {
			return domain.ErrAuthFailed
		}
		return domain.ErrHTTPError
	}
	if retry.IsTimeout(err) {
		return domain.ErrTimeout
	}
	return domain.ErrUnreachable
}
