package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/govpub/govpub/backend/go-services/internal/auth"
	edhandler "github.com/govpub/govpub/backend/go-services/internal/edition/handler"
	"github.com/govpub/govpub/backend/go-services/internal/edition/service"
	"github.com/govpub/govpub/backend/go-services/internal/reminder"
	"github.com/govpub/govpub/backend/go-services/pkg/middleware"
)

// ScheduledPublisher runs one pass of the scheduled publication task.
type ScheduledPublisher interface {
	RunScheduledPublications(ctx context.Context) (*service.RunReport, error)
}

// ReminderRunner runs one pass of the deadline reminder task.
type ReminderRunner interface {
	RunDeadlineReminders(ctx context.Context) (*reminder.Report, error)
}

// Authorizer answers capability checks for an actor.
type Authorizer interface {
	HasCapability(actor auth.Actor, c auth.Capability) bool
}

// RegisterTaskRoutes exposes the periodic tasks so an external cron can
// trigger them. Callers need the run_tasks capability.
func RegisterTaskRoutes(rg *gin.RouterGroup, authz Authorizer, pubs ScheduledPublisher, rem ReminderRunner) {
	tasks := rg.Group("/tasks", func(c *gin.Context) {
		if !authz.HasCapability(middleware.ActorFrom(c), auth.CapRunTasks) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing capability \"" + string(auth.CapRunTasks) + "\""})
			return
		}
		c.Next()
	})

	tasks.POST("/scheduled-publications", func(c *gin.Context) {
		report, err := pubs.RunScheduledPublications(c.Request.Context())
		if err != nil {
			edhandler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	})

	tasks.POST("/deadline-reminders", func(c *gin.Context) {
		report, err := rem.RunDeadlineReminders(c.Request.Context())
		if err != nil {
			edhandler.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, report)
	})
}
