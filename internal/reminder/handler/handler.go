package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	edhandler "github.com/govpub/govpub/backend/go-services/internal/edition/handler"
	"github.com/govpub/govpub/backend/go-services/internal/reminder"
	"github.com/govpub/govpub/backend/go-services/pkg/middleware"
)

type deadlineRequest struct {
	Deadline time.Time `json:"deadline" binding:"required"`
}

// RegisterReminderRoutes mounts reminder subject management on rg.
func RegisterReminderRoutes(rg *gin.RouterGroup, svc *reminder.Service) {
	rg.POST("/reminders", func(c *gin.Context) {
		var req reminder.NewSubject
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s, err := svc.Create(c.Request.Context(), req, middleware.ActorFrom(c))
		if err != nil {
			edhandler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"reminder": s})
	})

	rg.GET("/reminders/:id", func(c *gin.Context) {
		s, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			edhandler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reminder": s})
	})

	rg.PATCH("/reminders/:id/deadline", func(c *gin.Context) {
		var req deadlineRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s, err := svc.Reschedule(c.Request.Context(), c.Param("id"), req.Deadline, middleware.ActorFrom(c))
		if err != nil {
			edhandler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reminder": s})
	})

	rg.POST("/reminders/:id/response-published", func(c *gin.Context) {
		s, err := svc.MarkResponsePublished(c.Request.Context(), c.Param("id"), middleware.ActorFrom(c))
		if err != nil {
			edhandler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"reminder": s})
	})
}
