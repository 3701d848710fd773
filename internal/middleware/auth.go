// Package middleware contains the Gin middleware for the HTTP API.
// A middleware calls c.Next() to proceed or c.Abort() to stop the chain.
package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ContextKeyAPIKey is where the auth middleware stores the accepted key.
const ContextKeyAPIKey = "api_key"

// APIKeyAuth returns middleware that validates API keys for the prediction API.
// The key can be provided via X-API-Key header or api_key query param.
// With no keys configured the API is open, just like the HTML form.
func APIKeyAuth(validKeys []string) gin.HandlerFunc {
	keySet := newKeySet(validKeys)

	return func(c *gin.Context) {
		if len(keySet) == 0 {
			c.Next()
			return
		}

		key := requestKey(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing API key",
			})
			return
		}

		if _, ok := keySet[key]; !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid API key",
			})
			return
		}

		// Downstream middleware (rate limiting) buckets by this key.
		c.Set(ContextKeyAPIKey, key)
		c.Next()
	}
}

// AdminKeyAuth returns middleware that validates admin API keys.
// Unlike APIKeyAuth it is never open: with no admin keys every request is refused.
func AdminKeyAuth(adminKeys []string) gin.HandlerFunc {
	keySet := newKeySet(adminKeys)

	return func(c *gin.Context) {
		key := requestKey(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing admin API key",
			})
			return
		}

		if _, ok := keySet[key]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "invalid admin API key",
			})
			return
		}

		c.Set(ContextKeyAPIKey, key)
		c.Next()
	}
}

// newKeySet builds a set for O(1) lookups; empty strings are skipped so a
// blank env var doesn't become a valid key.
func newKeySet(keys []string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		if k != "" {
			set[k] = struct{}{}
		}
	}
	return set
}

func requestKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	return c.Query("api_key")
}
