package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lesson-planner-api/internal/dto"
	"github.com/noah-isme/lesson-planner-api/internal/models"
	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
	"github.com/noah-isme/lesson-planner-api/pkg/export"
)

type scheduleEventSource interface {
	Events(ctx context.Context, claims *models.JWTClaims, scheduleID string) ([]models.ScheduleEvent, uint64, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportResult is a rendered calendar ready for download.
type ExportResult struct {
	Filename    string
	ContentType string
	Payload     []byte
	Version     uint64
}

var calendarHeaders = []string{"Date", "Weekday", "Period", "Type", "Category", "Course", "Lesson", "Comment"}

// ExportService renders schedule calendars as CSV or PDF.
type ExportService struct {
	events scheduleEventSource
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(events scheduleEventSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{events: events, csv: csv, pdf: pdf, logger: logger}
}

// Export renders the schedule's events in the requested format (csv when empty).
func (s *ExportService) Export(ctx context.Context, claims *models.JWTClaims, scheduleID string, query dto.ExportQuery) (*ExportResult, error) {
	format := strings.ToLower(strings.TrimSpace(query.Format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported format %s", query.Format))
	}

	events, version, err := s.events.Events(ctx, claims, scheduleID)
	if err != nil {
		return nil, err
	}
	dataset := CalendarDataset(events)

	result := &ExportResult{
		Filename: fmt.Sprintf("schedule_%s_v%d_%s.%s", sanitizeFilename(scheduleID), version, time.Now().UTC().Format("20060102_150405"), format),
		Version:  version,
	}
	switch format {
	case "pdf":
		result.ContentType = "application/pdf"
		result.Payload, err = s.pdf.Render(dataset, fmt.Sprintf("Lesson schedule %s", scheduleID))
	default:
		result.ContentType = "text/csv"
		result.Payload, err = s.csv.Render(dataset)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Debug("schedule exported",
		zap.String("schedule_id", scheduleID),
		zap.String("format", format),
		zap.Int("rows", len(dataset.Rows)),
	)
	return result, nil
}

// CalendarDataset flattens events into one row per slot.
func CalendarDataset(events []models.ScheduleEvent) export.Dataset {
	rows := make([]map[string]string, 0, len(events))
	for _, event := range events {
		category := ""
		if event.EventCategory != nil {
			category = string(*event.EventCategory)
		}
		rows = append(rows, map[string]string{
			"Date":     event.Date.Format(models.DateLayout),
			"Weekday":  event.Date.Weekday().String(),
			"Period":   strconv.Itoa(event.Period),
			"Type":     string(event.EventType),
			"Category": category,
			"Course":   derefString(event.CourseID),
			"Lesson":   derefString(event.LessonID),
			"Comment":  derefString(event.Comment),
		})
	}
	return export.Dataset{Headers: calendarHeaders, Rows: rows}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}
