package service

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/lesson-planner-api/internal/models"
	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
)

// ScheduleChangeKind labels what happened to an aggregate.
type ScheduleChangeKind string

const (
	ScheduleChangeReplaced  ScheduleChangeKind = "replaced"
	ScheduleChangeUpserted  ScheduleChangeKind = "upserted"
	ScheduleChangeRemoved   ScheduleChangeKind = "removed"
	ScheduleChangeShifted   ScheduleChangeKind = "shifted"
	ScheduleChangePersisted ScheduleChangeKind = "persisted"
)

// ScheduleChange is delivered to subscribers after a mutation commits.
type ScheduleChange struct {
	ScheduleID string
	Kind       ScheduleChangeKind
	Version    uint64
}

// AggregateSnapshot is the serialisable state of an aggregate, used for drafts.
type AggregateSnapshot struct {
	ScheduleID string                       `json:"scheduleId"`
	Config     models.TeachingConfiguration `json:"config"`
	Events     []models.ScheduleEvent       `json:"events"`
	Version    uint64                       `json:"version"`
	Persisted  bool                         `json:"persisted"`
	TakenAt    time.Time                    `json:"takenAt"`
}

// ScheduleAggregate owns the events of one schedule. All reads and writes go through its
// lock, and every committed mutation bumps the version exactly once.
type ScheduleAggregate struct {
	mu sync.RWMutex
	// saveMu serialises persistence runs and full replacements so temp ids handed to the
	// database are never reused before MarkPersisted maps them.
	saveMu     sync.Mutex
	scheduleID string
	config     models.TeachingConfiguration
	events     map[int64]models.ScheduleEvent
	version    uint64
	persisted  bool
	ids        *idSequence
	listeners  []func(ScheduleChange)
}

// NewScheduleAggregate creates an empty aggregate.
func NewScheduleAggregate(scheduleID string, cfg models.TeachingConfiguration) *ScheduleAggregate {
	return &ScheduleAggregate{
		scheduleID: scheduleID,
		config:     cfg,
		events:     make(map[int64]models.ScheduleEvent),
		ids:        newIDSequence(0),
	}
}

// RestoreScheduleAggregate rebuilds an aggregate from a snapshot.
func RestoreScheduleAggregate(snap AggregateSnapshot) *ScheduleAggregate {
	agg := NewScheduleAggregate(snap.ScheduleID, snap.Config)
	agg.replace(snap.Events)
	agg.version = snap.Version
	agg.persisted = snap.Persisted
	return agg
}

// ScheduleID returns the id of the owning schedule.
func (a *ScheduleAggregate) ScheduleID() string {
	return a.scheduleID
}

// Config returns the teaching configuration the events were laid out with.
func (a *ScheduleAggregate) Config() models.TeachingConfiguration {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.config
}

// Version returns the mutation counter.
func (a *ScheduleAggregate) Version() uint64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.version
}

// Persisted reports whether the current version has been written to the database.
func (a *ScheduleAggregate) Persisted() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.persisted
}

// Len returns the number of events held.
func (a *ScheduleAggregate) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.events)
}

// Subscribe registers fn for change notifications. Callbacks run after the lock is
// released, on the goroutine that committed the change.
func (a *ScheduleAggregate) Subscribe(fn func(ScheduleChange)) {
	if fn == nil {
		return
	}
	a.mu.Lock()
	a.listeners = append(a.listeners, fn)
	a.mu.Unlock()
}

// SetEvents replaces the whole event collection, as after generation.
func (a *ScheduleAggregate) SetEvents(events []models.ScheduleEvent, cfg models.TeachingConfiguration) uint64 {
	a.mu.Lock()
	a.config = cfg
	a.replace(events)
	version := a.bump()
	listeners := a.listeners
	a.mu.Unlock()

	notify(listeners, ScheduleChange{ScheduleID: a.scheduleID, Kind: ScheduleChangeReplaced, Version: version})
	return version
}

// LoadPersisted installs events read from the database without counting it as a mutation.
func (a *ScheduleAggregate) LoadPersisted(events []models.ScheduleEvent) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.replace(events)
	a.persisted = true
}

// UpsertEvent inserts or replaces event by id. A zero id is replaced with a fresh negative one.
// The slot must be free or already held by the same id, otherwise ErrSlotOccupied is returned
// and nothing changes.
func (a *ScheduleAggregate) UpsertEvent(event models.ScheduleEvent) (models.ScheduleEvent, error) {
	var stored models.ScheduleEvent
	_, err := a.Mutate(ScheduleChangeUpserted, func(tx *AggregateTx) error {
		if holder, ok := tx.slotHolder(event.Date, event.Period); ok && holder.ID != event.ID {
			return appErrors.Clone(appErrors.ErrSlotOccupied, fmt.Sprintf("period %d on %s already holds event %d",
				event.Period, models.DateOnly(event.Date).Format(models.DateLayout), holder.ID))
		}
		stored = tx.Upsert(event)
		return nil
	})
	if err != nil {
		return models.ScheduleEvent{}, err
	}
	return stored, nil
}

// RemoveEvent deletes the event with id. The version only moves when something was removed.
func (a *ScheduleAggregate) RemoveEvent(id int64) bool {
	removed := false
	_, _ = a.Mutate(ScheduleChangeRemoved, func(tx *AggregateTx) error {
		removed = tx.Remove(id)
		return nil
	})
	return removed
}

// Event returns the event with id.
func (a *ScheduleAggregate) Event(id int64) (models.ScheduleEvent, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	event, ok := a.events[id]
	if !ok {
		return models.ScheduleEvent{}, false
	}
	return event.Clone(), true
}

// Events returns every event ordered by date, then period.
func (a *ScheduleAggregate) Events() []models.ScheduleEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sortedCopy(func(models.ScheduleEvent) bool { return true })
}

// EventsForPeriod returns the events of one period ordered by date.
func (a *ScheduleAggregate) EventsForPeriod(period int) []models.ScheduleEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sortedCopy(func(e models.ScheduleEvent) bool { return e.Period == period })
}

// EventsBetween returns the events dated within [from, to]. Zero bounds are open.
func (a *ScheduleAggregate) EventsBetween(from, to time.Time) []models.ScheduleEvent {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.sortedCopy(func(e models.ScheduleEvent) bool {
		day := models.DateOnly(e.Date)
		if !from.IsZero() && day.Before(models.DateOnly(from)) {
			return false
		}
		if !to.IsZero() && day.After(models.DateOnly(to)) {
			return false
		}
		return true
	})
}

// Snapshot captures the aggregate for draft storage.
func (a *ScheduleAggregate) Snapshot() AggregateSnapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return AggregateSnapshot{
		ScheduleID: a.scheduleID,
		Config:     a.config,
		Events:     a.sortedCopy(func(models.ScheduleEvent) bool { return true }),
		Version:    a.version,
		Persisted:  a.persisted,
		TakenAt:    time.Now().UTC(),
	}
}

// MarkPersisted applies the temp-to-database id mapping returned by a save of the given
// version. The aggregate only counts as persisted when nothing changed since that snapshot.
func (a *ScheduleAggregate) MarkPersisted(idMap map[int64]int64, savedVersion uint64) bool {
	a.mu.Lock()
	for tempID, dbID := range idMap {
		event, ok := a.events[tempID]
		if !ok {
			continue
		}
		delete(a.events, tempID)
		event.ID = dbID
		a.events[dbID] = event
	}
	a.persisted = a.version == savedVersion
	persisted := a.persisted
	version := a.version
	listeners := a.listeners
	a.mu.Unlock()

	if persisted {
		notify(listeners, ScheduleChange{ScheduleID: a.scheduleID, Kind: ScheduleChangePersisted, Version: version})
	}
	return persisted
}

// Mutate runs fn as one atomic batch. If fn fails, every change it made is rolled back.
// A batch that changes anything bumps the version once and clears the persisted flag.
func (a *ScheduleAggregate) Mutate(kind ScheduleChangeKind, fn func(tx *AggregateTx) error) (uint64, error) {
	a.mu.Lock()
	tx := &AggregateTx{agg: a, undo: make(map[int64]*models.ScheduleEvent), seq: a.ids.next}
	if err := fn(tx); err != nil {
		tx.rollback()
		version := a.version
		a.mu.Unlock()
		return version, err
	}
	if !tx.changed {
		version := a.version
		a.mu.Unlock()
		return version, nil
	}
	version := a.bump()
	listeners := a.listeners
	a.mu.Unlock()

	notify(listeners, ScheduleChange{ScheduleID: a.scheduleID, Kind: kind, Version: version})
	return version, nil
}

func (a *ScheduleAggregate) replace(events []models.ScheduleEvent) {
	a.events = make(map[int64]models.ScheduleEvent, len(events))
	var floor int64
	for _, event := range events {
		if event.ID == 0 {
			continue
		}
		event.Date = models.DateOnly(event.Date)
		a.events[event.ID] = event.Clone()
		if event.ID < floor {
			floor = event.ID
		}
	}
	a.ids = newIDSequence(floor)
}

// bump must be called with the write lock held.
func (a *ScheduleAggregate) bump() uint64 {
	a.version++
	a.persisted = false
	return a.version
}

func (a *ScheduleAggregate) sortedCopy(keep func(models.ScheduleEvent) bool) []models.ScheduleEvent {
	out := make([]models.ScheduleEvent, 0, len(a.events))
	for _, event := range a.events {
		if keep(event) {
			out = append(out, event.Clone())
		}
	}
	sortEvents(out)
	return out
}

func sortEvents(events []models.ScheduleEvent) {
	sort.Slice(events, func(i, j int) bool {
		if !events[i].Date.Equal(events[j].Date) {
			return events[i].Date.Before(events[j].Date)
		}
		if events[i].Period != events[j].Period {
			return events[i].Period < events[j].Period
		}
		return events[i].ID < events[j].ID
	})
}

func notify(listeners []func(ScheduleChange), change ScheduleChange) {
	for _, fn := range listeners {
		fn(change)
	}
}

// AggregateTx is the write view handed to Mutate callbacks. It is only valid inside the
// callback.
type AggregateTx struct {
	agg     *ScheduleAggregate
	undo    map[int64]*models.ScheduleEvent
	seq     int64
	changed bool
}

// Events returns a copy of the current events, ordered by date and period.
func (tx *AggregateTx) Events() []models.ScheduleEvent {
	return tx.agg.sortedCopy(func(models.ScheduleEvent) bool { return true })
}

// Event returns the event with id.
func (tx *AggregateTx) Event(id int64) (models.ScheduleEvent, bool) {
	event, ok := tx.agg.events[id]
	if !ok {
		return models.ScheduleEvent{}, false
	}
	return event.Clone(), true
}

// NextID reserves a fresh negative id.
func (tx *AggregateTx) NextID() int64 {
	return tx.agg.ids.Next()
}

// Upsert stores event, assigning an id when it has none. The slot is not checked: a special
// placed over a lesson shares its slot until the shift result is applied.
func (tx *AggregateTx) Upsert(event models.ScheduleEvent) models.ScheduleEvent {
	if event.ID == 0 {
		event.ID = tx.NextID()
	}
	if event.ScheduleID == "" {
		event.ScheduleID = tx.agg.scheduleID
	}
	event.Date = models.DateOnly(event.Date)
	tx.remember(event.ID)
	tx.agg.events[event.ID] = event.Clone()
	tx.changed = true
	return event
}

// slotHolder returns the event held at date and period.
func (tx *AggregateTx) slotHolder(date time.Time, period int) (models.ScheduleEvent, bool) {
	date = models.DateOnly(date)
	for _, event := range tx.agg.events {
		if event.Period == period && event.Date.Equal(date) {
			return event, true
		}
	}
	return models.ScheduleEvent{}, false
}

// Remove deletes the event with id and reports whether it existed.
func (tx *AggregateTx) Remove(id int64) bool {
	if _, ok := tx.agg.events[id]; !ok {
		return false
	}
	tx.remember(id)
	delete(tx.agg.events, id)
	tx.changed = true
	return true
}

// Apply writes a shift result into the aggregate.
func (tx *AggregateTx) Apply(result ShiftResult) {
	for _, id := range result.Removed {
		tx.Remove(id)
	}
	for _, event := range result.Upserted {
		tx.Upsert(event)
	}
}

func (tx *AggregateTx) remember(id int64) {
	if _, seen := tx.undo[id]; seen {
		return
	}
	if prior, ok := tx.agg.events[id]; ok {
		clone := prior.Clone()
		tx.undo[id] = &clone
		return
	}
	tx.undo[id] = nil
}

func (tx *AggregateTx) rollback() {
	for id, prior := range tx.undo {
		if prior == nil {
			delete(tx.agg.events, id)
			continue
		}
		tx.agg.events[id] = *prior
	}
	tx.agg.ids.next = tx.seq
}
