package server

import (
	"net/http"
	"strings"
	"time"

	"auctionhub/internal/auctionerrors"
	"auctionhub/internal/session"
	"auctionhub/services/auction/helpers"
	"auctionhub/utils"

	"github.com/gin-gonic/gin"
)

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	utils.Info("HTTP Request", map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	})
}

// AuthMiddleware validates the bearer session token, checks its security
// binding against the request origin, refreshes last activity and
// exposes the identity to handlers.
func AuthMiddleware(sessions *session.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrInvalidSession, "missing session token")
			c.Abort()
			return
		}

		meta := session.Metadata{
			Origin:          c.ClientIP(),
			ClientSignature: c.Request.UserAgent(),
		}
		if !sessions.Validate(token, meta) {
			utils.JSONError(c, http.StatusUnauthorized, auctionerrors.ErrInvalidSession, "invalid or expired session")
			c.Abort()
			return
		}

		sessions.Touch(token)

		if record, ok := sessions.Get(token); ok {
			c.Set(helpers.ContextUsername, record.Username)
		}
		c.Set(helpers.ContextToken, token)

		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer x" header.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
