package middleware

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/govpub/govpub/backend/go-services/internal/auth"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
)

const (
	ClaimsKey = "claims"
	ActorKey  = "actor"
)

// Token is minimal interface for a verified token that can expose claims
type Token interface {
	Claims(v interface{}) error
}

// Verifier is the minimal interface the middleware depends on
type Verifier interface {
	Verify(ctx context.Context, raw string) (Token, error)
}

// ClaimsHook is called with the claims of every verified request, for
// example to keep the user directory in sync. Errors are logged only.
type ClaimsHook func(ctx context.Context, claims map[string]interface{}) error

// AuthMiddleware returns a Gin middleware that verifies Bearer tokens using
// the provided verifier and stores both the raw claims and the derived
// auth.Actor on the context.
func AuthMiddleware(ver Verifier, hooks ...ClaimsHook) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			return
		}
		var token string
		if n, _ := fmt.Sscanf(header, "Bearer %s", &token); n != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid Authorization header"})
			return
		}

		verified, err := ver.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "details": err.Error()})
			return
		}

		var claims map[string]interface{}
		if err := verified.Claims(&claims); err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "failed to parse claims"})
			return
		}
		actor := auth.ActorFromClaims(claims)
		if actor.ID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}
		for _, h := range hooks {
			if err := h(c.Request.Context(), claims); err != nil {
				logger.Warnf("claims hook failed for %s: %v", actor.ID, err)
			}
		}

		c.Set(ClaimsKey, claims)
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// ActorFrom returns the authenticated actor, or the zero Actor when the
// request did not pass AuthMiddleware.
func ActorFrom(c *gin.Context) auth.Actor {
	if v, ok := c.Get(ActorKey); ok {
		if a, ok := v.(auth.Actor); ok {
			return a
		}
	}
	return auth.Actor{}
}

// limitKey prefers the authenticated actor, falling back to the client IP.
func limitKey(c *gin.Context) string {
	if a := ActorFrom(c); a.ID != "" {
		return "sub:" + a.ID
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return "ip:" + ip
}
