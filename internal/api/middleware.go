package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jonesrussell/storefront-admin/internal/auth"
	"github.com/jonesrussell/storefront-admin/internal/config"
	"github.com/jonesrussell/storefront-admin/internal/domain"
	"github.com/jonesrussell/storefront-admin/internal/logger"
	"github.com/jonesrussell/storefront-admin/internal/session"
)

const (
	// SessionCookieName is the fixed name of the admin session cookie.
	SessionCookieName = "storefront_admin_session"

	basicChallenge = `Basic realm="storefront-admin"`

	requestIDHeader = "X-Request-ID"
)

// RequestIDMiddleware assigns each request an ID, honoring one supplied by
// the caller, and echoes it on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// LoggerMiddleware logs each request once with method, path, status,
// duration, and client IP.
func LoggerMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		fields := []logger.Field{
			logger.String("method", method),
			logger.String("path", path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("duration", time.Since(start)),
			logger.String("client_ip", c.ClientIP()),
			logger.String("request_id", c.GetString("request_id")),
		}

		if len(c.Errors) > 0 {
			messages := make([]string, len(c.Errors))
			for i, err := range c.Errors {
				messages[i] = err.Err.Error()
			}
			fields = append(fields, logger.Strings("errors", messages))
			log.Error("HTTP request with errors", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}

// RecoveryMiddleware turns panics into a generic 500 envelope. The panic
// value is logged with context but never leaked to the caller.
func RecoveryMiddleware(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Error("Panic recovered",
					logger.String("path", c.Request.URL.Path),
					logger.String("method", c.Request.Method),
					logger.String("request_id", c.GetString("request_id")),
					logger.String("panic", toString(r)),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError,
					errorResponse(domain.ErrUnknown, "unexpected error"))
			}
		}()
		c.Next()
	}
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if err, ok := v.(error); ok {
		return err.Error()
	}
	return "non-string panic value"
}

// AdminAuth gates the admin API. Precedence: valid session cookie, then
// bearer token (session token or automation JWT), then Basic credentials
// which issue a fresh cookie. Anything else gets a 401 with a Basic
// challenge so browsers prompt.
func AdminAuth(cfg *config.AdminConfig, codec *session.Codec, tokens *auth.TokenManager, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				errorResponse(domain.ErrMissingEnv, "admin credentials not configured"))
			return
		}

		if cookie, err := c.Cookie(SessionCookieName); err == nil && codec.Verify(cookie) {
			c.Next()
			return
		}

		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			token := strings.TrimPrefix(header, "Bearer ")
			if codec.Verify(token) {
				c.Next()
				return
			}
			if _, err := tokens.ValidateToken(token); err == nil {
				c.Next()
				return
			}
		}

		if username, password, ok := c.Request.BasicAuth(); ok {
			if checkBasicCredentials(cfg, username, password) {
				issueSessionCookie(c, cfg, codec, log)
				c.Next()
				return
			}
		}

		c.Header("WWW-Authenticate", basicChallenge)
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			errorResponse(domain.ErrAuthFailed, "authentication required"))
	}
}

// checkBasicCredentials compares both parts in constant time so response
// timing does not reveal which one was wrong.
func checkBasicCredentials(cfg *config.AdminConfig, username, password string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(cfg.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(cfg.Password)) == 1
	return userOK && passOK
}

func issueSessionCookie(c *gin.Context, cfg *config.AdminConfig, codec *session.Codec, log logger.Logger) {
	token, err := codec.Issue()
	if err != nil {
		// The request is still authenticated via Basic; only the
		// convenience cookie is lost.
		log.Error("Failed to issue session token", logger.Error(err))
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(
		SessionCookieName,
		token,
		int(session.TTL.Seconds()),
		"/",
		"",
		!cfg.Development, // Secure outside local development
		true,             // HttpOnly
	)
}
