package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"todovault/internal/pkg/response"
	"todovault/internal/ratelimit"
)

// RateLimit meters every request through the group against the budget for
// action. The store is authoritative: if it cannot be reached the request
// fails with a 500 instead of slipping through unmetered.
func RateLimit(limiter *ratelimit.Limiter, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := ratelimit.ClientIdentity(c.Request)

		result, err := limiter.Check(c.Request.Context(), action, clientID)
		if err != nil {
			log.Printf("ratelimit_check_failed action=%s client_ip=%s error=%q", action, clientID, err)
			response.Error(c, http.StatusInternalServerError, "STORE_UNAVAILABLE", "Service temporarily unavailable")
			c.Abort()
			return
		}

		if !result.Allowed {
			log.Printf("rate_limited action=%s client_ip=%s retry_after=%s", action, clientID, result.RetryAfter)
			response.RateLimited(c, result.RetryAfter)
			c.Abort()
			return
		}

		c.Next()
	}
}
