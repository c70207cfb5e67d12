package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"

	"github.com/jonesrussell/storefront-admin/internal/auth"
	"github.com/jonesrussell/storefront-admin/internal/cdn"
	"github.com/jonesrussell/storefront-admin/internal/config"
	"github.com/jonesrussell/storefront-admin/internal/database"
	"github.com/jonesrussell/storefront-admin/internal/domain"
	"github.com/jonesrussell/storefront-admin/internal/images"
	"github.com/jonesrussell/storefront-admin/internal/logger"
	"github.com/jonesrussell/storefront-admin/internal/metrics"
	"github.com/jonesrussell/storefront-admin/internal/search"
)

const (
	// dbPingTimeout bounds the database connectivity probe.
	dbPingTimeout = 5 * time.Second

	// AutomationTokenTTL is the lifetime of bearer tokens issued to
	// deploy scripts and CI jobs.
	AutomationTokenTTL = time.Hour
)

// Handler carries the wired integrations. Any integration may be nil when its
// environment bundle is absent; the matching endpoints then answer with
// missing_env instead of failing at startup.
type Handler struct {
	log     logger.Logger
	metrics *metrics.Metrics
	cfg     *config.Config

	db       *sqlx.DB
	products *database.ProductStore
	posts    *database.PostStore
	purge    *cdn.Client
	images   *images.Client
	search   *search.Client
	tokens   *auth.TokenManager
}

// HandlerOptions bundles the dependencies for NewHandler.
type HandlerOptions struct {
	Log     logger.Logger
	Metrics *metrics.Metrics
	Config  *config.Config

	DB       *sqlx.DB
	Products *database.ProductStore
	Posts    *database.PostStore
	Purge    *cdn.Client
	Images   *images.Client
	Search   *search.Client
	Tokens   *auth.TokenManager
}

// NewHandler creates the API handler.
func NewHandler(opts HandlerOptions) *Handler {
	return &Handler{
		log:      opts.Log,
		metrics:  opts.Metrics,
		cfg:      opts.Config,
		db:       opts.DB,
		products: opts.Products,
		posts:    opts.Posts,
		purge:    opts.Purge,
		images:   opts.Images,
		search:   opts.Search,
		tokens:   opts.Tokens,
	}
}

// Health reports service liveness and which integrations are configured.
func (h *Handler) Health(c *gin.Context) {
	checks := map[string]string{
		"database": configuredState(h.db != nil),
		"purge":    configuredState(h.purge != nil),
		"images":   configuredState(h.images != nil),
		"search":   configuredState(h.search != nil),
	}

	c.JSON(http.StatusOK, domain.HealthStatus{
		Status:    "healthy",
		Version:   Version,
		Checks:    checks,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func configuredState(configured bool) string {
	if configured {
		return "configured"
	}
	return "not_configured"
}

// HealthLive reports process liveness.
func (h *Handler) HealthLive(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

// HealthReady reports readiness. Only the database is probed; the outbound
// APIs are diagnosed on demand through the connectivity endpoints, and an
// unconfigured integration never blocks readiness.
func (h *Handler) HealthReady(c *gin.Context) {
	status := "healthy"
	checks := map[string]string{}

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), dbPingTimeout)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			status = "unhealthy"
			checks["database"] = "unhealthy"
		} else {
			checks["database"] = "healthy"
		}
	}

	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// DatabaseConnectivity probes the database with a bounded ping and reports
// the classified outcome. Diagnostic failures are 200 with ok:false; only a
// missing bundle is a 503.
func (h *Handler) DatabaseConnectivity(c *gin.Context) {
	if h.db == nil {
		h.metrics.ObserveConnectivity("database", false)
		c.JSON(http.StatusServiceUnavailable,
			errorResponse(domain.ErrMissingEnv, "database is not configured"))
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), dbPingTimeout)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)
	latency := time.Since(start).Milliseconds()

	if err != nil {
		info := database.Classify(err)
		h.metrics.ObserveConnectivity("database", false)
		h.log.Warn("Database connectivity check failed",
			logger.String("kind", string(info.Kind)),
			logger.String("sqlstate", info.SQLState),
			logger.Error(err),
		)
		c.JSON(http.StatusOK, ConnectivityResponse{
			OK:        false,
			ErrorCode: info.ErrorCode(),
			LatencyMs: latency,
			Details:   info.Message,
		})
		return
	}

	h.metrics.ObserveConnectivity("database", true)
	c.JSON(http.StatusOK, ConnectivityResponse{OK: true, LatencyMs: latency})
}

// ImagesConnectivity verifies the image CDN account credentials.
func (h *Handler) ImagesConnectivity(c *gin.Context) {
	if h.images == nil {
		h.metrics.ObserveConnectivity("images", false)
		c.JSON(http.StatusServiceUnavailable,
			errorResponse(domain.ErrMissingEnv, "image CDN is not configured"))
		return
	}

	result := h.images.Verify(c.Request.Context())
	h.metrics.ObserveConnectivity("images", result.OK)
	c.JSON(http.StatusOK, connectivityResponse(result))
}

// SearchConnectivity verifies the search service and configured index.
func (h *Handler) SearchConnectivity(c *gin.Context) {
	if h.search == nil {
		h.metrics.ObserveConnectivity("search", false)
		c.JSON(http.StatusServiceUnavailable,
			errorResponse(domain.ErrMissingEnv, "search service is not configured"))
		return
	}

	result := h.search.Verify(c.Request.Context())
	h.metrics.ObserveConnectivity("search", result.OK)
	c.JSON(http.StatusOK, connectivityResponse(result))
}

func connectivityResponse(r domain.ConnectivityResult) ConnectivityResponse {
	return ConnectivityResponse{
		OK:        r.OK,
		ErrorCode: r.ErrorCode,
		LatencyMs: r.LatencyMs,
		RayIDs:    r.RayIDs,
		Details:   r.Details,
	}
}

// purgeRequestBody is the body of a selective purge request. All fields are
// optional: an empty body purges just the sitemap URLs.
type purgeRequestBody struct {
	URLs  []string `json:"urls"`
	Slugs []string `json:"slugs"`
}

// Purge purges a selective URL set: sitemaps always, caller extras and
// per-slug product pages on top. The submitted set is recorded for replay
// before the purge is issued, so even a failed purge can be replayed.
func (h *Handler) Purge(c *gin.Context) {
	if h.purge == nil {
		c.JSON(http.StatusServiceUnavailable,
			errorResponse(domain.ErrMissingEnv, "cache purging is not configured"))
		return
	}

	// An absent body purges just the sitemaps; a malformed one is rejected.
	var body purgeRequestBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest,
				errorResponse(domain.ErrInvalidPayload, "malformed JSON body"))
			return
		}
	}

	urls := cdn.BuildPurgeSet(
		h.cfg.Purge.SiteURL,
		body.URLs,
		h.cfg.Purge.IncludeProductURLs,
		body.Slugs,
	)

	h.purge.RecordBatch(urls)

	results := h.purge.PurgeFiles(c.Request.Context(), urls, false)
	combined := domain.CombinePurgeResults(results)
	h.metrics.ObservePurge(string(domain.PurgeModeSelective), combined.OK, len(urls))

	c.JSON(http.StatusOK, purgeResponse(combined))
}

// PurgeEverything purges the entire zone. The replay slot is left untouched:
// replaying "everything" would be a surprising amount of blast radius to hide
// behind a one-click action.
func (h *Handler) PurgeEverything(c *gin.Context) {
	if h.purge == nil {
		c.JSON(http.StatusServiceUnavailable,
			errorResponse(domain.ErrMissingEnv, "cache purging is not configured"))
		return
	}

	result := h.purge.PurgeEverything(c.Request.Context())
	h.metrics.ObservePurge(string(domain.PurgeModeEverything), result.OK, 0)

	c.JSON(http.StatusOK, purgeResponse(result))
}

// PurgeReplay re-purges the most recently recorded batch.
func (h *Handler) PurgeReplay(c *gin.Context) {
	if h.purge == nil {
		c.JSON(http.StatusServiceUnavailable,
			errorResponse(domain.ErrMissingEnv, "cache purging is not configured"))
		return
	}

	results, err := h.purge.Replay(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	combined := domain.CombinePurgeResults(results)
	h.metrics.ObservePurge(string(domain.PurgeModeSelective), combined.OK, 0)
	c.JSON(http.StatusOK, purgeResponse(combined))
}

func purgeResponse(r domain.PurgeResult) PurgeResponse {
	resp := PurgeResponse{
		OK:        r.OK,
		RayIDs:    r.RayIDs,
		LatencyMs: r.LatencyMs,
		Attempts:  r.Attempts,
	}
	if resp.RayIDs == nil {
		resp.RayIDs = []string{}
	}
	if !r.OK {
		resp.ErrorCode = purgeErrorCode(r)
	}
	return resp
}

func purgeErrorCode(r domain.PurgeResult) domain.ErrorCode {
	if r.Err == nil {
		return domain.ErrUnknown
	}
	var coded *domain.CodedError
	if errors.As(r.Err, &coded) {
		return coded.Code
	}
	if errors.Is(r.Err, context.DeadlineExceeded) {
		return domain.ErrTimeout
	}
	return domain.ErrHTTPError
}

// UpdateProduct applies an allow-listed update to a product addressed by
// slug, then purges the URLs the change made stale.
func (h *Handler) UpdateProduct(c *gin.Context) {
	h.updateRow(c, "product", func(ctx context.Context, slug string, payload map[string]any) (*database.UpdateResult, error) {
		if h.products == nil {
			return nil, domain.NewCodedError(domain.ErrMissingEnv, "database is not configured")
		}
		return h.products.UpdateBySlug(ctx, slug, payload)
	})
}

// UpdatePost applies an allow-listed update to a blog post addressed by slug.
func (h *Handler) UpdatePost(c *gin.Context) {
	h.updateRow(c, "post", func(ctx context.Context, slug string, payload map[string]any) (*database.UpdateResult, error) {
		if h.posts == nil {
			return nil, domain.NewCodedError(domain.ErrMissingEnv, "database is not configured")
		}
		return h.posts.UpdateBySlug(ctx, slug, payload)
	})
}

type updateFunc func(ctx context.Context, slug string, payload map[string]any) (*database.UpdateResult, error)

func (h *Handler) updateRow(c *gin.Context, entity string, update updateFunc) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest,
			errorResponse(domain.ErrInvalidPayload, "malformed JSON body"))
		return
	}

	slug, _ := payload["slug"].(string)
	if slug == "" {
		c.JSON(http.StatusBadRequest,
			errorResponse(domain.ErrInvalidPayload, "slug is required"))
		return
	}
	delete(payload, "slug")

	if len(payload) == 0 {
		c.JSON(http.StatusBadRequest,
			errorResponse(domain.ErrInvalidPayload, "no fields to update"))
		return
	}

	result, err := update(c.Request.Context(), slug, payload)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !result.Found {
		c.JSON(http.StatusNotFound,
			errorResponse(domain.ErrNotFound, entity+" not found"))
		return
	}

	if result.RowsAffected > 0 {
		h.purgeAfterUpdate(c.Request.Context(), entity, slug, result.Row)
	}

	c.JSON(http.StatusOK, gin.H{
		"ok":            true,
		"rows_affected": result.RowsAffected,
		entity:          result.Row,
	})
}

// purgeAfterUpdate invalidates the pages a row change made stale. Purge
// failures here are logged, never surfaced: the write already committed and
// the operator can replay from the recorded batch.
func (h *Handler) purgeAfterUpdate(ctx context.Context, entity, slug string, row map[string]any) {
	if h.purge == nil || h.cfg.Purge == nil {
		return
	}

	slugs := []string{slug}
	// A rename leaves the old page stale and creates a new one.
	if newSlug, ok := row["slug"].(string); ok && newSlug != "" && newSlug != slug {
		slugs = append(slugs, newSlug)
	}

	urls := cdn.BuildPurgeSet(h.cfg.Purge.SiteURL, nil, h.cfg.Purge.IncludeProductURLs, slugs)
	h.purge.RecordBatch(urls)

	results := h.purge.PurgeFiles(ctx, urls, false)
	combined := domain.CombinePurgeResults(results)
	h.metrics.ObservePurge(string(domain.PurgeModeSelective), combined.OK, len(urls))
	if !combined.OK {
		h.log.Warn("Post-update purge failed",
			logger.String("entity", entity),
			logger.String("slug", slug),
			logger.Error(combined.Err),
		)
	}
}

// IssueToken exchanges Basic credentials for an automation bearer token.
// The auth middleware has already verified the caller.
func (h *Handler) IssueToken(c *gin.Context) {
	if h.tokens == nil {
		c.JSON(http.StatusServiceUnavailable,
			errorResponse(domain.ErrMissingEnv, "admin credentials not configured"))
		return
	}

	subject := "automation"
	if username, _, ok := c.Request.BasicAuth(); ok && username != "" {
		subject = username
	}

	token, err := h.tokens.GenerateToken(subject)
	if err != nil {
		h.log.Error("Failed to generate automation token", logger.Error(err))
		c.JSON(http.StatusInternalServerError,
			errorResponse(domain.ErrUnknown, "token generation failed"))
		return
	}

	c.JSON(http.StatusOK, TokenResponse{
		OK:        true,
		Token:     token,
		ExpiresIn: int64(h.tokens.Expiration().Seconds()),
	})
}

// Session confirms the caller holds a valid session. The auth middleware does
// the work; reaching the handler is the proof.
func (h *Handler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// respondError maps an error to the API envelope: coded errors carry their
// own status, field errors are payload rejections, and anything from the
// database goes through the classifier.
func (h *Handler) respondError(c *gin.Context, err error) {
	var coded *domain.CodedError
	if errors.As(err, &coded) {
		c.JSON(coded.Code.HTTPStatus(), errorResponse(coded.Code, coded.Message))
		return
	}

	var field *domain.FieldError
	if errors.As(err, &field) {
		c.JSON(http.StatusBadRequest, errorResponse(domain.ErrInvalidPayload, field.Error()))
		return
	}

	info := database.Classify(err)
	code := info.ErrorCode()
	h.log.Error("Request failed",
		logger.String("error_code", string(code)),
		logger.Error(err),
	)
	c.JSON(code.HTTPStatus(), errorResponse(code, info.Message))
}
