package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-planner-api/internal/dto"
	"github.com/noah-isme/lesson-planner-api/internal/models"
	"github.com/noah-isme/lesson-planner-api/internal/service"
	"github.com/noah-isme/lesson-planner-api/pkg/export"
)

type fixture struct {
	ScheduleID    string                    `json:"scheduleId"`
	UserID        string                    `json:"userId"`
	TeachingDays  []string                  `json:"teachingDays"`
	PeriodsPerDay int                       `json:"periodsPerDay"`
	StartDate     string                    `json:"startDate"`
	EndDate       string                    `json:"endDate"`
	Assignments   []models.PeriodAssignment `json:"assignments"`
	Lessons       models.LessonLists        `json:"lessons"`
	Specials      []dto.SpecialEventRequest `json:"specials"`
}

type step struct {
	Special  dto.SpecialEventRequest
	Inserted int
	Moved    int
	Overflow int
	Version  uint64
	Error    error
}

func main() {
	var (
		fixturePath string
		csvPath     string
		verbose     bool
	)

	flag.StringVar(&fixturePath, "fixture", filepath.Join("scripts", "plan_preview", "fixture.json"), "Path to JSON schedule fixture")
	flag.StringVar(&csvPath, "csv", "", "Write the resulting calendar as CSV to this path")
	flag.BoolVar(&verbose, "verbose", false, "Log engine decisions")
	flag.Parse()

	logr := zap.NewNop()
	if verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			log.Fatalf("failed to init logger: %v", err)
		}
		logr = dev
	}
	defer logr.Sync() //nolint:errcheck

	fx, cfg, err := loadFixture(fixturePath)
	if err != nil {
		log.Fatalf("failed to load fixture: %v", err)
	}

	result := service.NewLessonScheduleGenerator(logr).Generate(service.GenerateInput{
		ScheduleID:  fx.ScheduleID,
		UserID:      fx.UserID,
		Assignments: fx.Assignments,
		Lessons:     fx.Lessons,
		Config:      cfg,
	})
	if len(result.Issues) > 0 {
		for _, issue := range result.Issues {
			fmt.Printf("[ISSUE] %s: %s\n", issue.Code, issue.Message)
		}
		os.Exit(1)
	}

	agg := service.NewScheduleAggregate(fx.ScheduleID, cfg)
	agg.SetEvents(result.Events, cfg)
	cal, err := service.NewTeachingCalendar(cfg)
	if err != nil {
		log.Fatalf("invalid calendar: %v", err)
	}

	steps := applySpecials(agg, service.NewLessonShifter(logr), cal, fx)
	events := agg.Events()
	printReport(result, steps, events, agg.Version())

	if csvPath != "" {
		payload, err := export.NewCSVExporter().Render(service.CalendarDataset(events))
		if err != nil {
			log.Fatalf("failed to render csv: %v", err)
		}
		if err := os.WriteFile(csvPath, payload, 0o644); err != nil {
			log.Fatalf("failed to write csv: %v", err)
		}
		fmt.Printf("Calendar written to %s\n", csvPath)
	}

	if service.DoubleBookedSlots(events) > 0 {
		os.Exit(1)
	}
}

func loadFixture(path string) (*fixture, models.TeachingConfiguration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, models.TeachingConfiguration{}, err
	}
	var fx fixture
	if err := json.Unmarshal(data, &fx); err != nil {
		return nil, models.TeachingConfiguration{}, err
	}
	if fx.ScheduleID == "" {
		fx.ScheduleID = "preview"
	}
	start, err := models.ParseDate(fx.StartDate)
	if err != nil {
		return nil, models.TeachingConfiguration{}, fmt.Errorf("startDate: %w", err)
	}
	end, err := models.ParseDate(fx.EndDate)
	if err != nil {
		return nil, models.TeachingConfiguration{}, fmt.Errorf("endDate: %w", err)
	}
	return &fx, models.TeachingConfiguration{
		TeachingDays:  fx.TeachingDays,
		PeriodsPerDay: fx.PeriodsPerDay,
		StartDate:     start,
		EndDate:       end,
	}, nil
}

func applySpecials(agg *service.ScheduleAggregate, shifter *service.LessonShifter, cal *service.TeachingCalendar, fx *fixture) []step {
	validate := validator.New()
	cfg := agg.Config()
	steps := make([]step, 0, len(fx.Specials))
	for _, special := range fx.Specials {
		st := step{Special: special}
		if err := validate.Struct(special); err != nil {
			st.Error = err
			steps = append(steps, st)
			continue
		}
		date, err := models.ParseDate(special.Date)
		if err != nil {
			st.Error = err
			steps = append(steps, st)
			continue
		}
		placement := service.SpecialPlacement{
			ScheduleID: fx.ScheduleID,
			Date:       date,
			Periods:    []int{special.Period},
			EventType:  models.EventType(special.EventType),
			Category:   models.EventCategory(special.EventCategory),
			Comment:    special.Comment,
		}
		if placement.Category == models.EventCategorySpecialDay {
			placement.Periods = placement.Periods[:0]
			for period := 1; period <= cfg.PeriodsPerDay; period++ {
				placement.Periods = append(placement.Periods, period)
			}
		}
		st.Version, st.Error = agg.Mutate(service.ScheduleChangeShifted, func(tx *service.AggregateTx) error {
			inserted, shifts, err := service.PlaceSpecialEvent(tx, shifter, cal, placement)
			if err != nil {
				return err
			}
			st.Inserted = len(inserted)
			for _, shift := range shifts {
				st.Moved += len(shift.Moved)
				st.Overflow += len(shift.Overflowed)
			}
			return nil
		})
		steps = append(steps, st)
	}
	return steps
}

func printReport(result service.GenerateResult, steps []step, events []models.ScheduleEvent, version uint64) {
	fmt.Println("Plan Preview Report")
	fmt.Println("===================")
	fmt.Printf("Generated: %d events, %d lessons, %d error slots\n", len(result.Events), result.LessonsPlaced, result.ErrorEvents)
	for _, st := range steps {
		status := "OK"
		if st.Error != nil {
			status = "REFUSED"
		}
		fmt.Printf("[%s] %s %s period %d (%s)\n", status, st.Special.EventType, st.Special.Date, st.Special.Period, st.Special.EventCategory)
		if st.Error != nil {
			fmt.Printf("  Error: %v\n", st.Error)
			continue
		}
		fmt.Printf("  Inserted: %d | Moved: %d | Overflowed: %d | Version: %d\n", st.Inserted, st.Moved, st.Overflow, st.Version)
	}

	var lessons, errorSlots, specials int
	for _, event := range events {
		switch {
		case event.IsLesson():
			lessons++
		case event.IsError():
			errorSlots++
		default:
			specials++
		}
	}
	fmt.Printf("Final: %d events (%d lessons, %d specials, %d error slots) at version %d\n", len(events), lessons, specials, errorSlots, version)
	fmt.Printf("Double-booked slots: %d\n", service.DoubleBookedSlots(events))
}
