package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/govpub/govpub/backend/go-services/internal/users"
	"github.com/govpub/govpub/backend/go-services/pkg/middleware"
)

// RegisterMe serves the caller's directory entry, falling back to the actor
// derived from the token when the directory has no record yet.
func RegisterMe(rg *gin.RouterGroup, userSvc *users.Service) {
	rg.GET("/me", func(c *gin.Context) {
		actor := middleware.ActorFrom(c)
		if userSvc != nil {
			if u, err := userSvc.GetBySub(c.Request.Context(), actor.ID); err == nil && u != nil {
				c.JSON(http.StatusOK, gin.H{"user": u})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"actor": actor})
	})
}
