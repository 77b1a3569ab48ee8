package handler

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
)

func TestPathParamHelpers(t *testing.T) {
	gin.SetMode(gin.TestMode)
	paramsContext := func(id, eventID string) *gin.Context {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Params = gin.Params{{Key: "id", Value: id}, {Key: "eventId", Value: eventID}}
		return c
	}

	c := paramsContext(" sched-1 ", "-12")
	assert.Equal(t, "sched-1", scheduleIDParam(c))
	eventID, err := eventIDParam(c)
	require.NoError(t, err)
	assert.Equal(t, int64(-12), eventID)

	eventID, err = eventIDParam(paramsContext("sched-1", "41"))
	require.NoError(t, err)
	assert.Equal(t, int64(41), eventID)

	for _, raw := range []string{"", "0", "abc", "1.5"} {
		_, err := eventIDParam(paramsContext("sched-1", raw))
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, "event id %q", raw)
	}
}
