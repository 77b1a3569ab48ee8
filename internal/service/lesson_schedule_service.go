package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-planner-api/internal/dto"
	"github.com/noah-isme/lesson-planner-api/internal/models"
	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
	"github.com/noah-isme/lesson-planner-api/pkg/jobs"
)

type lessonScheduleReader interface {
	FindByID(ctx context.Context, id string) (*models.LessonSchedule, error)
	BumpVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int64, error)
}

type scheduleEventStore interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.ScheduleEvent, error)
	DeleteExcept(ctx context.Context, exec sqlx.ExtContext, scheduleID string, keep []int64) (int64, error)
	Update(ctx context.Context, exec sqlx.ExtContext, event models.ScheduleEvent) error
	Insert(ctx context.Context, exec sqlx.ExtContext, event models.ScheduleEvent) (int64, error)
}

type periodAssignmentReader interface {
	ListBySchedule(ctx context.Context, scheduleID string) ([]models.PeriodAssignment, error)
}

type lessonReader interface {
	ListOrderedByCourses(ctx context.Context, courseIDs []string) ([]models.Lesson, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// autosaveJobType tags write-behind persistence jobs.
const autosaveJobType = "schedule.autosave"

// LessonScheduleConfig governs the planner service.
type LessonScheduleConfig struct {
	CacheTTL time.Duration
	Autosave bool
	// Defaults fill in schedules stored without teaching days or a period count.
	DefaultPeriodsPerDay int
	DefaultTeachingDays  []string
}

// LessonScheduleService orchestrates generation, special event edits and persistence of
// lesson schedules. Aggregates are kept in memory per schedule and backed by Redis drafts
// until saved to Postgres.
type LessonScheduleService struct {
	schedules   lessonScheduleReader
	events      scheduleEventStore
	assignments periodAssignmentReader
	lessons     lessonReader
	tx          txProvider
	cache       *CacheService
	drafts      *DraftStore
	metrics     *MetricsService
	generator   *LessonScheduleGenerator
	shifter     *LessonShifter
	validator   *validator.Validate
	logger      *zap.Logger
	cfg         LessonScheduleConfig

	mu         sync.Mutex
	aggregates map[string]*ScheduleAggregate
	autosave   *jobs.Queue
	pending    map[string]bool
}

// NewLessonScheduleService wires planner dependencies.
func NewLessonScheduleService(
	schedules lessonScheduleReader,
	events scheduleEventStore,
	assignments periodAssignmentReader,
	lessons lessonReader,
	tx txProvider,
	cache *CacheService,
	drafts *DraftStore,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg LessonScheduleConfig,
) *LessonScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonScheduleService{
		schedules:   schedules,
		events:      events,
		assignments: assignments,
		lessons:     lessons,
		tx:          tx,
		cache:       cache,
		drafts:      drafts,
		metrics:     metrics,
		generator:   NewLessonScheduleGenerator(logger),
		shifter:     NewLessonShifter(logger),
		validator:   validate,
		logger:      logger,
		cfg:         cfg,
		aggregates:  make(map[string]*ScheduleAggregate),
		pending:     make(map[string]bool),
	}
}

// UseAutosaveQueue routes aggregate changes to queue for write-behind persistence. The
// queue handler must be AutosaveHandler.
func (s *LessonScheduleService) UseAutosaveQueue(queue *jobs.Queue) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosave = queue
}

// AutosaveHandler persists the schedule named by an autosave job.
func (s *LessonScheduleService) AutosaveHandler(ctx context.Context, job jobs.Job) error {
	scheduleID, ok := job.Payload.(string)
	if !ok || scheduleID == "" {
		return fmt.Errorf("autosave job %s carries no schedule id", job.ID)
	}
	s.mu.Lock()
	delete(s.pending, scheduleID)
	s.mu.Unlock()

	agg := s.cached(scheduleID)
	if agg == nil || agg.Persisted() {
		return nil
	}
	_, err := s.persist(ctx, agg, "autosave")
	return err
}

// Generate lays out the schedule from its period assignments and lesson lists and replaces
// the current events. Configuration problems are returned as issues with zero events.
func (s *LessonScheduleService) Generate(ctx context.Context, claims *models.JWTClaims, scheduleID string) (*dto.GenerateScheduleResult, error) {
	schedule, err := s.authorizedSchedule(ctx, claims, scheduleID)
	if err != nil {
		return nil, err
	}

	assignments, err := s.assignments.ListBySchedule(ctx, scheduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period assignments")
	}

	var courseIDs []string
	seen := make(map[string]struct{})
	for _, assignment := range assignments {
		if assignment.Kind() != models.PeriodAssignmentCourse {
			continue
		}
		if _, ok := seen[*assignment.CourseID]; ok {
			continue
		}
		seen[*assignment.CourseID] = struct{}{}
		courseIDs = append(courseIDs, *assignment.CourseID)
	}
	lessons, err := s.lessons.ListOrderedByCourses(ctx, courseIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load lessons")
	}

	cfg := s.configurationFor(schedule)
	result := s.generator.Generate(GenerateInput{
		ScheduleID:  scheduleID,
		UserID:      claimsUserID(claims),
		Assignments: assignments,
		Lessons:     BuildLessonLists(lessons),
		Config:      cfg,
	})
	s.metrics.RecordGeneration(result)

	out := &dto.GenerateScheduleResult{
		ScheduleID:    scheduleID,
		Events:        len(result.Events),
		LessonsPlaced: result.LessonsPlaced,
		ErrorEvents:   result.ErrorEvents,
		TeachingDays:  len(TeachingDaysBetween(cfg.StartDate, cfg.EndDate, TeachingDayNumbers(cfg.TeachingDays))),
		Issues:        result.Issues,
	}
	if len(result.Issues) > 0 {
		if agg := s.cached(scheduleID); agg != nil {
			out.Version = agg.Version()
		}
		return out, nil
	}

	agg := s.aggregate(scheduleID, cfg)
	agg.saveMu.Lock()
	out.Version = agg.SetEvents(result.Events, cfg)
	agg.saveMu.Unlock()
	s.afterMutation(ctx, agg)

	s.logger.Info("schedule generated",
		zap.String("schedule_id", scheduleID),
		zap.Int("events", out.Events),
		zap.Int("lessons", out.LessonsPlaced),
		zap.Uint64("version", out.Version),
	)
	return out, nil
}

// EventList is a filtered view of a schedule's events.
type EventList struct {
	Events   []models.ScheduleEvent
	Version  uint64
	CacheHit bool
}

// ListEvents returns the schedule's events filtered by date range and period.
func (s *LessonScheduleService) ListEvents(ctx context.Context, claims *models.JWTClaims, scheduleID string, query dto.EventQuery) (*EventList, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event query")
	}
	from, to, err := parseRange(query.From, query.To)
	if err != nil {
		return nil, err
	}
	agg, err := s.load(ctx, claims, scheduleID)
	if err != nil {
		return nil, err
	}

	list := &EventList{Version: agg.Version()}
	key := eventListCacheKey(scheduleID, list.Version, query.From, query.To, query.Period)
	var cached []models.ScheduleEvent
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		list.Events = cached
		list.CacheHit = true
		return list, nil
	}

	if query.Period > 0 {
		for _, event := range agg.EventsForPeriod(query.Period) {
			if inRange(event.Date, from, to) {
				list.Events = append(list.Events, event)
			}
		}
	} else {
		list.Events = agg.EventsBetween(from, to)
	}
	if list.Events == nil {
		list.Events = []models.ScheduleEvent{}
	}
	_ = s.cache.Set(ctx, key, list.Events, s.cfg.CacheTTL)
	return list, nil
}

// Occupancy lists the periods used on a date and the ones blocked for lessons.
func (s *LessonScheduleService) Occupancy(ctx context.Context, claims *models.JWTClaims, scheduleID string, query dto.OccupancyQuery) (*dto.OccupancyResult, uint64, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid occupancy query")
	}
	date, err := models.ParseDate(query.Date)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}
	agg, err := s.load(ctx, claims, scheduleID)
	if err != nil {
		return nil, 0, err
	}
	events := agg.EventsBetween(date, date)
	result := &dto.OccupancyResult{
		Date:    query.Date,
		Periods: OccupiedPeriods(date, events),
		Blocked: []int{},
	}
	for _, period := range result.Periods {
		if IsPeriodOccupiedByNonLessonEvent(date, period, events) {
			result.Blocked = append(result.Blocked, period)
		}
	}
	return result, agg.Version(), nil
}

// AddSpecialEvent inserts a special event into one period, or into every period of the day
// for a SpecialDay, shifting displaced lessons forward.
func (s *LessonScheduleService) AddSpecialEvent(ctx context.Context, claims *models.JWTClaims, scheduleID string, req dto.SpecialEventRequest) (*dto.SpecialEventResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid special event payload")
	}
	eventType := models.EventType(strings.TrimSpace(req.EventType))
	if eventType == models.EventTypeLesson || eventType == models.EventTypeError {
		return nil, appErrors.Clone(appErrors.ErrValidation, "eventType must name a special activity")
	}
	category := models.EventCategory(req.EventCategory)
	if category == models.EventCategorySpecialPeriod && req.Period == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "period is required for a special period")
	}
	date, err := models.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}

	agg, err := s.load(ctx, claims, scheduleID)
	if err != nil {
		return nil, err
	}
	cfg := agg.Config()
	cal, err := NewTeachingCalendar(cfg)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidConfiguration.Code, appErrors.ErrInvalidConfiguration.Status, "schedule calendar is invalid")
	}

	periods := []int{req.Period}
	if category == models.EventCategorySpecialDay {
		periods = periodNumbers(cfg.PeriodsPerDay, nil)
	} else if req.Period > cfg.PeriodsPerDay {
		return nil, appErrors.Clone(appErrors.ErrOutOfRange, fmt.Sprintf("period %d is outside 1..%d", req.Period, cfg.PeriodsPerDay))
	}

	out := &dto.SpecialEventResult{}
	var shifts []ShiftResult
	version, err := agg.Mutate(ScheduleChangeShifted, func(tx *AggregateTx) error {
		inserted, applied, err := PlaceSpecialEvent(tx, s.shifter, cal, SpecialPlacement{
			ScheduleID: scheduleID,
			Date:       date,
			Periods:    periods,
			EventType:  eventType,
			Category:   category,
			Comment:    req.Comment,
		})
		if err != nil {
			return err
		}
		out.Inserted = dto.NewScheduleEventViews(inserted)
		shifts = applied
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Version = version
	out.Shifts = s.summarise(shifts)
	s.afterMutation(ctx, agg)
	s.logger.Info("special event inserted",
		zap.String("schedule_id", scheduleID),
		zap.String("date", req.Date),
		zap.String("event_type", string(eventType)),
		zap.Int("periods", len(out.Inserted)),
		zap.Uint64("version", version),
	)
	return out, nil
}

// RemoveEvent deletes a special event and pulls later lessons back into the freed slot.
// Removing one event of a special day removes the whole day.
func (s *LessonScheduleService) RemoveEvent(ctx context.Context, claims *models.JWTClaims, scheduleID string, eventID int64) (*dto.SpecialEventResult, error) {
	agg, err := s.load(ctx, claims, scheduleID)
	if err != nil {
		return nil, err
	}
	cal, err := NewTeachingCalendar(agg.Config())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidConfiguration.Code, appErrors.ErrInvalidConfiguration.Status, "schedule calendar is invalid")
	}

	out := &dto.SpecialEventResult{}
	var shifts []ShiftResult
	version, err := agg.Mutate(ScheduleChangeShifted, func(tx *AggregateTx) error {
		removed, applied, err := RemoveSpecialEvent(tx, s.shifter, cal, eventID)
		if err != nil {
			return err
		}
		out.Removed = dto.NewScheduleEventViews(removed)
		shifts = applied
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Version = version
	out.Shifts = s.summarise(shifts)
	s.afterMutation(ctx, agg)
	s.logger.Info("special event removed",
		zap.String("schedule_id", scheduleID),
		zap.Int64("event_id", eventID),
		zap.Int("periods", len(out.Removed)),
		zap.Uint64("version", version),
	)
	return out, nil
}

// Save writes the aggregate to Postgres.
func (s *LessonScheduleService) Save(ctx context.Context, claims *models.JWTClaims, scheduleID string) (*dto.SaveScheduleResult, error) {
	agg, err := s.load(ctx, claims, scheduleID)
	if err != nil {
		return nil, err
	}
	return s.persist(ctx, agg, "manual")
}

// Events returns every event of the schedule after the usual access checks.
func (s *LessonScheduleService) Events(ctx context.Context, claims *models.JWTClaims, scheduleID string) ([]models.ScheduleEvent, uint64, error) {
	agg, err := s.load(ctx, claims, scheduleID)
	if err != nil {
		return nil, 0, err
	}
	snap := agg.Snapshot()
	return snap.Events, snap.Version, nil
}

func (s *LessonScheduleService) persist(ctx context.Context, agg *ScheduleAggregate, trigger string) (result *dto.SaveScheduleResult, err error) {
	defer func() { s.metrics.RecordSave(trigger, err) }()
	if s.tx == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}
	agg.saveMu.Lock()
	defer agg.saveMu.Unlock()

	snap := agg.Snapshot()
	result = &dto.SaveScheduleResult{ScheduleID: snap.ScheduleID, Version: snap.Version}
	keep := make([]int64, 0, len(snap.Events))
	for _, event := range snap.Events {
		if event.Persisted() {
			keep = append(keep, event.ID)
		}
	}

	start := time.Now()
	defer func() { s.metrics.ObserveDBQuery("schedule_persist", time.Since(start)) }()
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if result.EventsDeleted, err = s.events.DeleteExcept(ctx, tx, snap.ScheduleID, keep); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to prune schedule events")
		return nil, err
	}
	idMap := make(map[int64]int64)
	for _, event := range snap.Events {
		if event.Persisted() {
			if err = s.events.Update(ctx, tx, event); err != nil {
				err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule event")
				return nil, err
			}
			result.EventsUpdated++
			continue
		}
		var id int64
		if id, err = s.events.Insert(ctx, tx, event); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert schedule event")
			return nil, err
		}
		idMap[event.ID] = id
		result.EventsInserted++
	}
	if result.StoredVersion, err = s.schedules.BumpVersion(ctx, tx, snap.ScheduleID); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to bump schedule version")
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit schedule")
		return nil, err
	}

	result.Persisted = agg.MarkPersisted(idMap, snap.Version)
	if result.Persisted {
		_ = s.drafts.Discard(ctx, snap.ScheduleID)
	} else {
		_ = s.drafts.Save(ctx, agg.Snapshot())
	}
	_ = s.cache.Invalidate(ctx, eventListCachePattern(snap.ScheduleID))

	s.logger.Info("schedule saved",
		zap.String("schedule_id", snap.ScheduleID),
		zap.String("trigger", trigger),
		zap.Int("inserted", result.EventsInserted),
		zap.Int("updated", result.EventsUpdated),
		zap.Int64("deleted", result.EventsDeleted),
		zap.Int64("stored_version", result.StoredVersion),
	)
	return result, nil
}

// load resolves the aggregate for scheduleID from memory, then the draft store, then the
// database. A schedule without events has not been generated yet. Events laid out under a
// calendar the stored schedule no longer has are dropped and must be generated again.
func (s *LessonScheduleService) load(ctx context.Context, claims *models.JWTClaims, scheduleID string) (*ScheduleAggregate, error) {
	schedule, err := s.authorizedSchedule(ctx, claims, scheduleID)
	if err != nil {
		return nil, err
	}
	cfg := s.configurationFor(schedule)
	if agg := s.cached(scheduleID); agg != nil {
		if sameConfiguration(agg.Config(), cfg) {
			return agg, nil
		}
		s.discard(ctx, agg)
		return nil, errConfigurationChanged(scheduleID)
	}

	snap, found, err := s.drafts.Load(ctx, scheduleID)
	if err != nil {
		s.logger.Warn("draft load failed", zap.String("schedule_id", scheduleID), zap.Error(err))
	}
	var agg *ScheduleAggregate
	if found {
		if !sameConfiguration(snap.Config, cfg) {
			_ = s.drafts.Discard(ctx, scheduleID)
			return nil, errConfigurationChanged(scheduleID)
		}
		agg = RestoreScheduleAggregate(*snap)
	} else {
		start := time.Now()
		events, err := s.events.ListBySchedule(ctx, scheduleID)
		s.metrics.ObserveDBQuery("schedule_events_list", time.Since(start))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule events")
		}
		if len(events) == 0 {
			return nil, appErrors.Clone(appErrors.ErrScheduleNotLoaded, "schedule has not been generated yet")
		}
		cal, err := NewTeachingCalendar(cfg)
		if err != nil || !eventsFitCalendar(events, cal, cfg.PeriodsPerDay) {
			return nil, errConfigurationChanged(scheduleID)
		}
		agg = NewScheduleAggregate(scheduleID, cfg)
		agg.LoadPersisted(events)
	}
	return s.register(agg), nil
}

// discard forgets agg along with its draft and cached event lists.
func (s *LessonScheduleService) discard(ctx context.Context, agg *ScheduleAggregate) {
	s.mu.Lock()
	if s.aggregates[agg.ScheduleID()] == agg {
		delete(s.aggregates, agg.ScheduleID())
		delete(s.pending, agg.ScheduleID())
	}
	s.mu.Unlock()
	_ = s.drafts.Discard(ctx, agg.ScheduleID())
	_ = s.cache.Invalidate(ctx, eventListCachePattern(agg.ScheduleID()))
	s.logger.Info("schedule configuration changed, events discarded",
		zap.String("schedule_id", agg.ScheduleID()),
		zap.Uint64("version", agg.Version()),
	)
}

func errConfigurationChanged(scheduleID string) error {
	return appErrors.Clone(appErrors.ErrScheduleNotLoaded, fmt.Sprintf("configuration of schedule %s changed, generate it again", scheduleID))
}

func sameConfiguration(a, b models.TeachingConfiguration) bool {
	if a.PeriodsPerDay != b.PeriodsPerDay {
		return false
	}
	if !models.DateOnly(a.StartDate).Equal(models.DateOnly(b.StartDate)) || !models.DateOnly(a.EndDate).Equal(models.DateOnly(b.EndDate)) {
		return false
	}
	left, right := TeachingDayNumbers(a.TeachingDays), TeachingDayNumbers(b.TeachingDays)
	if len(left) != len(right) {
		return false
	}
	for i := range left {
		if left[i] != right[i] {
			return false
		}
	}
	return true
}

// eventsFitCalendar reports whether every stored event sits on a slot of cal.
func eventsFitCalendar(events []models.ScheduleEvent, cal *TeachingCalendar, periodsPerDay int) bool {
	for _, event := range events {
		if !cal.InRange(event.Date) || !cal.IsTeachingDay(event.Date) || event.Period < 1 || event.Period > periodsPerDay {
			return false
		}
	}
	return true
}

func (s *LessonScheduleService) authorizedSchedule(ctx context.Context, claims *models.JWTClaims, scheduleID string) (*models.LessonSchedule, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if schedule.UserID != claims.UserID && !claims.CanManageAnySchedule() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "schedule belongs to another user")
	}
	return schedule, nil
}

func (s *LessonScheduleService) configurationFor(schedule *models.LessonSchedule) models.TeachingConfiguration {
	cfg := schedule.TeachingConfiguration()
	if len(cfg.TeachingDays) == 0 {
		cfg.TeachingDays = append([]string(nil), s.cfg.DefaultTeachingDays...)
	}
	if cfg.PeriodsPerDay <= 0 {
		cfg.PeriodsPerDay = s.cfg.DefaultPeriodsPerDay
	}
	return cfg
}

func (s *LessonScheduleService) cached(scheduleID string) *ScheduleAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aggregates[scheduleID]
}

func (s *LessonScheduleService) aggregate(scheduleID string, cfg models.TeachingConfiguration) *ScheduleAggregate {
	if agg := s.cached(scheduleID); agg != nil {
		return agg
	}
	return s.register(NewScheduleAggregate(scheduleID, cfg))
}

// register stores agg unless another request won the race, in which case the stored one is
// returned.
func (s *LessonScheduleService) register(agg *ScheduleAggregate) *ScheduleAggregate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.aggregates[agg.ScheduleID()]; ok {
		return existing
	}
	s.aggregates[agg.ScheduleID()] = agg
	agg.Subscribe(s.onChange)
	return agg
}

// onChange queues at most one autosave per schedule at a time. Enqueueing happens off the
// committing goroutine because a full queue would otherwise block the writer.
func (s *LessonScheduleService) onChange(change ScheduleChange) {
	if !s.cfg.Autosave || change.Kind == ScheduleChangePersisted {
		return
	}
	s.mu.Lock()
	queue := s.autosave
	if queue == nil || s.pending[change.ScheduleID] {
		s.mu.Unlock()
		return
	}
	s.pending[change.ScheduleID] = true
	s.mu.Unlock()

	job := jobs.Job{ID: uuid.NewString(), Type: autosaveJobType, Payload: change.ScheduleID}
	go func() {
		if err := queue.Enqueue(job); err != nil {
			s.logger.Warn("autosave enqueue failed", zap.String("schedule_id", change.ScheduleID), zap.Error(err))
			s.mu.Lock()
			delete(s.pending, change.ScheduleID)
			s.mu.Unlock()
		}
	}()
}

func (s *LessonScheduleService) afterMutation(ctx context.Context, agg *ScheduleAggregate) {
	_ = s.drafts.Save(ctx, agg.Snapshot())
	_ = s.cache.Invalidate(ctx, eventListCachePattern(agg.ScheduleID()))
}

func (s *LessonScheduleService) summarise(shifts []ShiftResult) []dto.ShiftSummary {
	summaries := make([]dto.ShiftSummary, 0, len(shifts))
	for _, shift := range shifts {
		s.metrics.RecordShift(shift)
		summary := dto.ShiftSummary{
			Direction:  string(shift.Direction),
			Period:     shift.Period,
			Moved:      dto.NewScheduleEventViews(shift.Moved),
			Removed:    shift.Removed,
			Overflowed: dto.NewScheduleEventViews(shift.Overflowed),
			Stranded:   shift.Stranded,
		}
		if summary.Removed == nil {
			summary.Removed = []int64{}
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func claimsUserID(claims *models.JWTClaims) string {
	if claims == nil {
		return ""
	}
	return claims.UserID
}

func parseRange(rawFrom, rawTo string) (time.Time, time.Time, error) {
	var from, to time.Time
	var err error
	if rawFrom != "" {
		if from, err = models.ParseDate(rawFrom); err != nil {
			return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from date")
		}
	}
	if rawTo != "" {
		if to, err = models.ParseDate(rawTo); err != nil {
			return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to date")
		}
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must not precede from")
	}
	return from, to, nil
}

func inRange(date, from, to time.Time) bool {
	day := models.DateOnly(date)
	if !from.IsZero() && day.Before(from) {
		return false
	}
	if !to.IsZero() && day.After(to) {
		return false
	}
	return true
}
