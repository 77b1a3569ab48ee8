package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lesson-planner-api/internal/dto"
	internalmiddleware "github.com/noah-isme/lesson-planner-api/internal/middleware"
	"github.com/noah-isme/lesson-planner-api/internal/models"
	"github.com/noah-isme/lesson-planner-api/internal/service"
	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
)

func TestLessonScheduleHandlerGenerate(t *testing.T) {
	mockSvc := &lessonSchedulerMock{generate: &dto.GenerateScheduleResult{ScheduleID: "sched-1", Version: 3, Events: 10, LessonsPlaced: 3}}
	router := newPlannerRouter(mockSvc, nil)

	w := performRequest(router, http.MethodPost, "/schedules/sched-1/generate", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "3", w.Header().Get(versionHeader))
	assert.Equal(t, "sched-1", mockSvc.scheduleID)
	assert.Equal(t, "teacher-1", mockSvc.claims.UserID)

	var body struct {
		Data dto.GenerateScheduleResult `json:"data"`
		Meta map[string]interface{}     `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 3, body.Data.LessonsPlaced)
	assert.Equal(t, float64(3), body.Meta["version"])
}

func TestLessonScheduleHandlerGenerateWithIssues(t *testing.T) {
	mockSvc := &lessonSchedulerMock{generate: &dto.GenerateScheduleResult{
		ScheduleID: "sched-1",
		Issues:     []models.ScheduleIssue{{Code: models.IssueNoAssignments, Message: "no period assignments"}},
	}}
	router := newPlannerRouter(mockSvc, nil)

	w := performRequest(router, http.MethodPost, "/schedules/sched-1/generate", nil)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var body struct {
		Error appErrors.Error `json:"error"`
		Meta  struct {
			Issues []models.ScheduleIssue `json:"issues"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, appErrors.ErrInvalidConfiguration.Code, body.Error.Code)
	require.Len(t, body.Meta.Issues, 1)
	assert.Equal(t, models.IssueNoAssignments, body.Meta.Issues[0].Code)
}

func TestLessonScheduleHandlerAddSpecialEvent(t *testing.T) {
	mockSvc := &lessonSchedulerMock{special: &dto.SpecialEventResult{Version: 2, Shifts: []dto.ShiftSummary{}}}
	router := newPlannerRouter(mockSvc, nil)
	payload := []byte(`{"date":"2025-01-07","period":1,"eventType":"Holiday","eventCategory":"SpecialPeriod"}`)

	w := performRequest(router, http.MethodPost, "/schedules/sched-1/events", payload)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2", w.Header().Get(versionHeader))
	assert.Equal(t, "2025-01-07", mockSvc.request.Date)
	assert.Equal(t, "Holiday", mockSvc.request.EventType)
	assert.Equal(t, "SpecialPeriod", mockSvc.request.EventCategory)
}

func TestLessonScheduleHandlerAddSpecialEventErrors(t *testing.T) {
	mockSvc := &lessonSchedulerMock{err: appErrors.Clone(appErrors.ErrSlotOccupied, "taken")}
	router := newPlannerRouter(mockSvc, nil)

	w := performRequest(router, http.MethodPost, "/schedules/sched-1/events", []byte(`{"date":`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodPost, "/schedules/sched-1/events", []byte(`{"date":"2025-01-07","period":1,"eventType":"Duty","eventCategory":"SpecialPeriod"}`))
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestLessonScheduleHandlerRemoveEvent(t *testing.T) {
	mockSvc := &lessonSchedulerMock{special: &dto.SpecialEventResult{Version: 5}}
	router := newPlannerRouter(mockSvc, nil)

	w := performRequest(router, http.MethodDelete, "/schedules/sched-1/events/-12", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(-12), mockSvc.eventID)
	assert.Equal(t, "5", w.Header().Get(versionHeader))

	for _, raw := range []string{"abc", "0"} {
		w = performRequest(router, http.MethodDelete, "/schedules/sched-1/events/"+raw, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, raw)
	}
}

func TestLessonScheduleHandlerListEvents(t *testing.T) {
	mockSvc := &lessonSchedulerMock{list: &service.EventList{
		Events:   []models.ScheduleEvent{{ID: 1, ScheduleID: "sched-1", Period: 1, EventType: models.EventTypeError}},
		Version:  7,
		CacheHit: true,
	}}
	router := newPlannerRouter(mockSvc, nil)

	w := performRequest(router, http.MethodGet, "/schedules/sched-1/events?from=2025-01-06&period=1", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-01-06", mockSvc.query.From)
	assert.Equal(t, 1, mockSvc.query.Period)
	var body struct {
		Data []dto.ScheduleEventView `json:"data"`
		Meta map[string]interface{}  `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "Error", body.Data[0].EventType)
	assert.Equal(t, true, body.Meta["cache_hit"])

	w = performRequest(router, http.MethodGet, "/schedules/sched-1/events?period=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLessonScheduleHandlerExport(t *testing.T) {
	exporter := &scheduleExporterMock{result: &service.ExportResult{
		Filename:    "schedule_sched-1_v2.csv",
		ContentType: "text/csv",
		Payload:     []byte("Date\n2025-01-06\n"),
		Version:     2,
	}}
	router := newPlannerRouter(&lessonSchedulerMock{}, exporter)

	w := performRequest(router, http.MethodGet, "/schedules/sched-1/export?format=csv", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "schedule_sched-1_v2.csv")
	assert.Equal(t, "Date\n2025-01-06\n", w.Body.String())
	assert.Equal(t, "csv", exporter.query.Format)
}

func TestLessonScheduleHandlerRequiresRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &LessonScheduleHandler{service: &lessonSchedulerMock{}}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "student-1", Role: "STUDENT"})
		c.Next()
	})
	router.POST("/schedules/:id/save", internalmiddleware.RequireRoles(models.RoleTeacher, models.RoleAdmin), handler.Save)

	w := performRequest(router, http.MethodPost, "/schedules/sched-1/save", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

// --- Fixtures ---

func newPlannerRouter(svc *lessonSchedulerMock, exporter *scheduleExporterMock) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := &LessonScheduleHandler{service: svc, exporter: exporter}
	router := gin.New()
	router.Use(internalmiddleware.WithResponseMeta(), func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})
		c.Next()
	})
	group := router.Group("/schedules/:id")
	group.POST("/generate", handler.Generate)
	group.GET("/events", handler.ListEvents)
	group.POST("/events", handler.AddSpecialEvent)
	group.DELETE("/events/:eventId", handler.RemoveEvent)
	group.GET("/occupancy", handler.Occupancy)
	group.POST("/save", handler.Save)
	if exporter != nil {
		group.GET("/export", handler.Export)
	}
	return router
}

func performRequest(router http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, target, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

type lessonSchedulerMock struct {
	generate *dto.GenerateScheduleResult
	list     *service.EventList
	special  *dto.SpecialEventResult
	err      error

	claims     *models.JWTClaims
	scheduleID string
	query      dto.EventQuery
	request    dto.SpecialEventRequest
	eventID    int64
}

func (m *lessonSchedulerMock) Generate(ctx context.Context, claims *models.JWTClaims, scheduleID string) (*dto.GenerateScheduleResult, error) {
	m.claims, m.scheduleID = claims, scheduleID
	return m.generate, m.err
}

func (m *lessonSchedulerMock) ListEvents(ctx context.Context, claims *models.JWTClaims, scheduleID string, query dto.EventQuery) (*service.EventList, error) {
	m.query = query
	return m.list, m.err
}

func (m *lessonSchedulerMock) Occupancy(ctx context.Context, claims *models.JWTClaims, scheduleID string, query dto.OccupancyQuery) (*dto.OccupancyResult, uint64, error) {
	return &dto.OccupancyResult{Date: query.Date, Periods: []int{}, Blocked: []int{}}, 1, m.err
}

func (m *lessonSchedulerMock) AddSpecialEvent(ctx context.Context, claims *models.JWTClaims, scheduleID string, req dto.SpecialEventRequest) (*dto.SpecialEventResult, error) {
	m.request = req
	if m.err != nil {
		return nil, m.err
	}
	return m.special, nil
}

func (m *lessonSchedulerMock) RemoveEvent(ctx context.Context, claims *models.JWTClaims, scheduleID string, eventID int64) (*dto.SpecialEventResult, error) {
	m.eventID = eventID
	return m.special, m.err
}

func (m *lessonSchedulerMock) Save(ctx context.Context, claims *models.JWTClaims, scheduleID string) (*dto.SaveScheduleResult, error) {
	return &dto.SaveScheduleResult{ScheduleID: scheduleID, Persisted: true}, m.err
}

type scheduleExporterMock struct {
	result *service.ExportResult
	query  dto.ExportQuery
}

func (m *scheduleExporterMock) Export(ctx context.Context, claims *models.JWTClaims, scheduleID string, query dto.ExportQuery) (*service.ExportResult, error) {
	m.query = query
	return m.result, nil
}
