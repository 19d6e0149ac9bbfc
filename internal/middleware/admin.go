// Package middleware provides the HTTP middleware components for admin
// authentication, rate limiting, and span plumbing.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// AdminMiddleware guards the admin endpoints with a shared API key. Only the
// bcrypt hash of the key is configured; the plaintext arrives per request.
type AdminMiddleware struct {
	keyHash []byte
}

// NewAdminMiddleware creates admin authentication middleware from the
// configured bcrypt hash. An empty hash disables the admin surface.
func NewAdminMiddleware(keyHash string) *AdminMiddleware {
	return &AdminMiddleware{keyHash: []byte(keyHash)}
}

// Enabled reports whether an admin key hash is configured.
func (am *AdminMiddleware) Enabled() bool {
	return len(am.keyHash) > 0
}

// RequireAdminAuth middleware validates the shared admin key.
func (am *AdminMiddleware) RequireAdminAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !am.Enabled() {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "Admin API disabled",
				"message": "No admin key is configured",
			})
			c.Abort()
			return
		}

		if key, ok := extractAdminKey(c); ok && am.ValidateAdminKey(key) {
			c.Next()
			return
		}

		c.JSON(http.StatusUnauthorized, gin.H{
			"error":   "Unauthorized",
			"message": "Valid admin API key required for this endpoint",
		})
		c.Abort()
	}
}

// extractAdminKey pulls the candidate key from the Authorization header, the
// X-API-Key header, or the api_key query parameter, in that order.
func extractAdminKey(c *gin.Context) (string, bool) {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) == 2 && tokenParts[0] == "Bearer" {
			return tokenParts[1], true
		}
	}

	if key := c.GetHeader("X-API-Key"); key != "" {
		return key, true
	}

	// Query parameter fallback, for development only.
	if key := c.Query("api_key"); key != "" {
		return key, true
	}

	return "", false
}

// ValidateAdminKey compares a candidate key against the configured hash.
func (am *AdminMiddleware) ValidateAdminKey(key string) bool {
	if !am.Enabled() || key == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(am.keyHash, []byte(key)) == nil
}
