package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/govpub/govpub/backend/go-services/internal/edition"
	"github.com/govpub/govpub/backend/go-services/pkg/logger"
)

// RespondError maps workflow errors onto HTTP statuses. Guard violations
// list every failed precondition.
func RespondError(c *gin.Context, err error) {
	if gv, ok := edition.AsGuardViolation(err); ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": gv.Error(), "reasons": gv.Reasons})
		return
	}
	switch {
	case errors.Is(err, edition.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, edition.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, edition.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		logger.Errorf("%s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
