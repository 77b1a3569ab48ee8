package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lesson-planner-api/internal/dto"
	internalmiddleware "github.com/noah-isme/lesson-planner-api/internal/middleware"
	"github.com/noah-isme/lesson-planner-api/internal/models"
	"github.com/noah-isme/lesson-planner-api/internal/service"
	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
	"github.com/noah-isme/lesson-planner-api/pkg/response"
)

// versionHeader carries the aggregate version so clients can detect stale views.
const versionHeader = "X-Schedule-Version"

type lessonScheduler interface {
	Generate(ctx context.Context, claims *models.JWTClaims, scheduleID string) (*dto.GenerateScheduleResult, error)
	ListEvents(ctx context.Context, claims *models.JWTClaims, scheduleID string, query dto.EventQuery) (*service.EventList, error)
	Occupancy(ctx context.Context, claims *models.JWTClaims, scheduleID string, query dto.OccupancyQuery) (*dto.OccupancyResult, uint64, error)
	AddSpecialEvent(ctx context.Context, claims *models.JWTClaims, scheduleID string, req dto.SpecialEventRequest) (*dto.SpecialEventResult, error)
	RemoveEvent(ctx context.Context, claims *models.JWTClaims, scheduleID string, eventID int64) (*dto.SpecialEventResult, error)
	Save(ctx context.Context, claims *models.JWTClaims, scheduleID string) (*dto.SaveScheduleResult, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, claims *models.JWTClaims, scheduleID string, query dto.ExportQuery) (*service.ExportResult, error)
}

// LessonScheduleHandler exposes lesson planner endpoints.
type LessonScheduleHandler struct {
	service  lessonScheduler
	exporter scheduleExporter
}

// NewLessonScheduleHandler constructs the handler.
func NewLessonScheduleHandler(svc *service.LessonScheduleService, exporter *service.ExportService) *LessonScheduleHandler {
	return &LessonScheduleHandler{service: svc, exporter: exporter}
}

// Generate godoc
// @Summary Generate lesson schedule events
// @Description Lays lessons out over every teaching day of the schedule and replaces the current events. Configuration problems yield 422 with the issue list.
// @Tags Planner
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules/{id}/generate [post]
func (h *LessonScheduleHandler) Generate(c *gin.Context) {
	result, err := h.service.Generate(c.Request.Context(), claimsFromContext(c), scheduleIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setVersion(c, result.Version)
	if len(result.Issues) > 0 {
		response.Error(c, appErrors.ErrInvalidConfiguration, gin.H{"issues": result.Issues, "version": result.Version})
		return
	}
	response.JSON(c, http.StatusOK, result, internalmiddleware.ExtractMeta(c))
}

// ListEvents godoc
// @Summary List schedule events
// @Tags Planner
// @Produce json
// @Param id path string true "Schedule ID"
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Param period query int false "Period number"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/events [get]
func (h *LessonScheduleHandler) ListEvents(c *gin.Context) {
	var query dto.EventQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event query"))
		return
	}
	list, err := h.service.ListEvents(c.Request.Context(), claimsFromContext(c), scheduleIDParam(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setVersion(c, list.Version)
	internalmiddleware.SetCacheHit(c, list.CacheHit)
	response.JSON(c, http.StatusOK, dto.NewScheduleEventViews(list.Events), internalmiddleware.ExtractMeta(c))
}

// Occupancy godoc
// @Summary List occupied periods of a date
// @Tags Planner
// @Produce json
// @Param id path string true "Schedule ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/occupancy [get]
func (h *LessonScheduleHandler) Occupancy(c *gin.Context) {
	var query dto.OccupancyQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid occupancy query"))
		return
	}
	result, version, err := h.service.Occupancy(c.Request.Context(), claimsFromContext(c), scheduleIDParam(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setVersion(c, version)
	response.JSON(c, http.StatusOK, result, internalmiddleware.ExtractMeta(c))
}

// AddSpecialEvent godoc
// @Summary Insert a special event
// @Description Inserts a special period or a whole special day; displaced lessons shift forward.
// @Tags Planner
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body dto.SpecialEventRequest true "Special event payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /schedules/{id}/events [post]
func (h *LessonScheduleHandler) AddSpecialEvent(c *gin.Context) {
	var req dto.SpecialEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid special event payload"))
		return
	}
	result, err := h.service.AddSpecialEvent(c.Request.Context(), claimsFromContext(c), scheduleIDParam(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setVersion(c, result.Version)
	response.Created(c, result, internalmiddleware.ExtractMeta(c))
}

// RemoveEvent godoc
// @Summary Remove a special event
// @Description Removes a special event (a whole day for special days); later lessons shift back.
// @Tags Planner
// @Produce json
// @Param id path string true "Schedule ID"
// @Param eventId path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/events/{eventId} [delete]
func (h *LessonScheduleHandler) RemoveEvent(c *gin.Context) {
	eventID, err := eventIDParam(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.RemoveEvent(c.Request.Context(), claimsFromContext(c), scheduleIDParam(c), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setVersion(c, result.Version)
	response.JSON(c, http.StatusOK, result, internalmiddleware.ExtractMeta(c))
}

// Save godoc
// @Summary Persist schedule events
// @Tags Planner
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/save [post]
func (h *LessonScheduleHandler) Save(c *gin.Context) {
	result, err := h.service.Save(c.Request.Context(), claimsFromContext(c), scheduleIDParam(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setVersion(c, result.Version)
	response.JSON(c, http.StatusOK, result, internalmiddleware.ExtractMeta(c))
}

// Export godoc
// @Summary Export schedule calendar
// @Tags Planner
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Schedule ID"
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /schedules/{id}/export [get]
func (h *LessonScheduleHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	result, err := h.exporter.Export(c.Request.Context(), claimsFromContext(c), scheduleIDParam(c), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.setVersion(c, result.Version)
	response.Attachment(c, result.Filename, result.ContentType, result.Payload)
}

func (h *LessonScheduleHandler) setVersion(c *gin.Context, version uint64) {
	c.Header(versionHeader, strconv.FormatUint(version, 10))
	internalmiddleware.SetScheduleVersion(c, version)
}
