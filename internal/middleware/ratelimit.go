package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit returns token bucket rate limiting middleware. Each client gets a
// bucket that refills at rps tokens/sec up to burst tokens; an empty bucket
// means 429. This caps LLM spend, since every prediction is a paid call.
//
// Clients are identified by the API key set by APIKeyAuth, or by their IP
// when the API is open. The mutex guards the shared limiter map.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)

	return func(c *gin.Context) {
		id := clientID(c)

		mu.Lock()
		limiter, exists := limiters[id]
		if !exists {
			limiter = rate.NewLimiter(rate.Limit(rps), burst)
			limiters[id] = limiter
		}
		mu.Unlock()

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}

func clientID(c *gin.Context) string {
	if key := c.GetString(ContextKeyAPIKey); key != "" {
		return "key:" + key
	}
	return "ip:" + c.ClientIP()
}
