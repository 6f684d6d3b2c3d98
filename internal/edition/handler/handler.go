package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/govpub/govpub/backend/go-services/internal/edition/service"
	"github.com/govpub/govpub/backend/go-services/pkg/middleware"
)

type publishRequest struct {
	Mode                 service.PublishMode `json:"mode"`
	ScheduledPublication *time.Time          `json:"scheduledPublication"`
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// RegisterEditionRoutes mounts the document and edition API on rg. The group
// must already run AuthMiddleware.
func RegisterEditionRoutes(rg *gin.RouterGroup, svc *service.Service) {
	rg.POST("/documents", func(c *gin.Context) {
		var req service.NewDocument
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		doc, first, err := svc.CreateDocument(c.Request.Context(), req, middleware.ActorFrom(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"document": doc, "edition": first})
	})

	rg.GET("/documents/:id", func(c *gin.Context) {
		view, err := svc.GetDocument(c.Request.Context(), c.Param("id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, view)
	})

	rg.POST("/documents/:id/editions", func(c *gin.Context) {
		draft, err := svc.CreateDraft(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"edition": draft})
	})

	rg.GET("/editions/:id", func(c *gin.Context) {
		e, err := svc.GetEdition(c.Request.Context(), c.Param("id"))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"edition": e})
	})

	rg.PATCH("/editions/:id", func(c *gin.Context) {
		var req service.DraftUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		e, err := svc.UpdateDraft(c.Request.Context(), c.Param("id"), req, middleware.ActorFrom(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"edition": e})
	})

	rg.POST("/editions/:id/submit", func(c *gin.Context) {
		respond(c)(svc.Submit(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c)))
	})

	rg.POST("/editions/:id/publish", func(c *gin.Context) {
		var req publishRequest
		if err := bindOptional(c, &req); err != nil {
			return
		}
		respond(c)(svc.RequestPublish(c.Request.Context(), c.Param("id"), req.Mode, middleware.ActorFrom(c), req.ScheduledPublication))
	})

	rg.POST("/editions/:id/unschedule", func(c *gin.Context) {
		respond(c)(svc.Unschedule(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c)))
	})

	rg.POST("/editions/:id/reject", func(c *gin.Context) {
		var req rejectRequest
		if err := bindOptional(c, &req); err != nil {
			return
		}
		respond(c)(svc.RequestReject(c.Request.Context(), c.Param("id"), req.Reason, middleware.ActorFrom(c)))
	})

	rg.POST("/editions/:id/unpublish", func(c *gin.Context) {
		var req service.UnpublishRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		respond(c)(svc.RequestUnpublish(c.Request.Context(), c.Param("id"), req, middleware.ActorFrom(c)))
	})

	rg.DELETE("/editions/:id", func(c *gin.Context) {
		respond(c)(svc.SoftDelete(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c)))
	})

	rg.POST("/editions/:id/restore", func(c *gin.Context) {
		respond(c)(svc.Restore(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c)))
	})
}

// respond writes a transition result. The new state is echoed at the top
// level for clients that only need the outcome.
func respond(c *gin.Context) func(*service.Result, error) {
	return func(res *service.Result, err error) {
		if err != nil {
			RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"state":    res.Edition.State,
			"edition":  res.Edition,
			"warnings": res.Warnings,
			"degraded": res.Degraded(),
		})
	}
}

// bindOptional decodes a JSON body when one is sent. An empty body leaves
// the target at its zero value.
func bindOptional(c *gin.Context, v interface{}) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return err
	}
	return nil
}
