package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-planner-api/internal/middleware"
	"github.com/noah-isme/lesson-planner-api/internal/models"
	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func scheduleIDParam(c *gin.Context) string {
	return strings.TrimSpace(c.Param("id"))
}

// eventIDParam parses the :eventId path parameter. Unsaved events carry negative ids and
// stored ones positive ids, so only zero is rejected besides malformed input.
func eventIDParam(c *gin.Context) (int64, error) {
	eventID, err := strconv.ParseInt(strings.TrimSpace(c.Param("eventId")), 10, 64)
	if err != nil || eventID == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid event id")
	}
	return eventID, nil
}
