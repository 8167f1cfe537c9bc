package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"todovault/internal/authgate"
	"todovault/internal/pkg/response"
	"todovault/internal/ratelimit"
)

// Context keys set by the auth middleware for downstream handlers.
const (
	CtxSubjectID     = "subject_id"
	CtxEmail         = "email"
	CtxNetworkOrigin = "network_origin"
)

// RequireAuth rejects any request that does not carry a live, verified
// session. The internal failure kind is logged but never echoed: the caller
// only ever sees a generic unauthorized answer.
func RequireAuth(gate *authgate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, gateErr := gate.Authenticate(
			c.Request.Context(),
			c.GetHeader("Authorization"),
			ratelimit.ClientIdentity(c.Request),
		)
		if gateErr != nil {
			abortAuthFailure(c, gateErr)
			return
		}

		setRequestContext(c, rc)
		c.Next()
	}
}

// OptionalAuth attaches identity when a valid token is present and proceeds
// anonymously otherwise. A store outage still fails the request.
func OptionalAuth(gate *authgate.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, gateErr := gate.OptionalAuthenticate(
			c.Request.Context(),
			c.GetHeader("Authorization"),
			ratelimit.ClientIdentity(c.Request),
		)
		if gateErr != nil {
			abortAuthFailure(c, gateErr)
			return
		}

		setRequestContext(c, rc)
		c.Next()
	}
}

func setRequestContext(c *gin.Context, rc *authgate.RequestContext) {
	c.Set(CtxSubjectID, rc.SubjectID)
	c.Set(CtxEmail, rc.Email)
	c.Set(CtxNetworkOrigin, rc.NetworkOrigin)
}

func abortAuthFailure(c *gin.Context, gateErr *authgate.Error) {
	log.Printf("auth_failure kind=%s method=%s path=%s client_ip=%s",
		gateErr.Kind, c.Request.Method, c.Request.URL.Path, c.ClientIP())

	if gateErr.Kind == authgate.KindStoreUnavailable {
		response.Error(c, http.StatusInternalServerError, "STORE_UNAVAILABLE", "Service temporarily unavailable")
		c.Abort()
		return
	}

	message := "Invalid token"
	if gateErr.Kind == authgate.KindMissingToken {
		message = "Authentication required"
	}
	response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
	c.Abort()
}
