package service

import (
	"context"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
)

func TestDraftStoreRoundTrip(t *testing.T) {
	repo := newMemoryCacheRepo()
	drafts := NewDraftStore(repo, 0, nil)
	agg := aggregateWith(twoWeekConfig(1), generateSingleCourse(t, 3, 1))
	ctx := context.Background()

	require.NoError(t, drafts.Save(ctx, agg.Snapshot()))
	assert.Equal(t, 24*time.Hour, repo.ttls["planner:draft:sched-1"])

	snap, found, err := drafts.Load(ctx, "sched-1")
	require.NoError(t, err)
	require.True(t, found)
	restored := RestoreScheduleAggregate(*snap)
	assert.Equal(t, agg.Version(), restored.Version())
	assert.Equal(t, agg.Events(), restored.Events())
	assert.Equal(t, agg.Config().PeriodsPerDay, restored.Config().PeriodsPerDay)
}

func TestDraftStoreDropsPersistedSnapshots(t *testing.T) {
	repo := newMemoryCacheRepo()
	drafts := NewDraftStore(repo, time.Hour, nil)
	agg := aggregateWith(twoWeekConfig(1), sampleEvents())
	ctx := context.Background()
	require.NoError(t, drafts.Save(ctx, agg.Snapshot()))

	agg.MarkPersisted(nil, agg.Version())
	require.NoError(t, drafts.Save(ctx, agg.Snapshot()))

	_, found, err := drafts.Load(ctx, "sched-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDraftStoreWithoutBackend(t *testing.T) {
	drafts := NewDraftStore(nil, time.Hour, nil)
	ctx := context.Background()

	assert.NoError(t, drafts.Save(ctx, AggregateSnapshot{ScheduleID: "sched-1"}))
	_, found, err := drafts.Load(ctx, "sched-1")
	assert.NoError(t, err)
	assert.False(t, found)

	var nilStore *DraftStore
	assert.NoError(t, nilStore.Discard(ctx, "sched-1"))
}

func TestLessonScheduleServiceResumesFromDraft(t *testing.T) {
	repo := newMemoryCacheRepo()
	first, _ := newPlannerServiceFixture(t, nil)
	first.drafts = NewDraftStore(repo, time.Hour, nil)
	ctx := context.Background()
	_, err := first.Generate(ctx, teacherClaims(), "sched-1")
	require.NoError(t, err)

	second, _ := newPlannerServiceFixture(t, nil)
	second.drafts = NewDraftStore(repo, time.Hour, nil)
	events, version, err := second.Events(ctx, teacherClaims(), "sched-1")
	require.NoError(t, err)

	assert.Equal(t, uint64(1), version)
	assert.Len(t, events, 10)
}

func TestLessonScheduleServiceDiscardsDraftOfChangedSchedule(t *testing.T) {
	repo := newMemoryCacheRepo()
	first, _ := newPlannerServiceFixture(t, nil)
	first.drafts = NewDraftStore(repo, time.Hour, nil)
	ctx := context.Background()
	_, err := first.Generate(ctx, teacherClaims(), "sched-1")
	require.NoError(t, err)

	second, stubs := newPlannerServiceFixture(t, nil)
	second.drafts = NewDraftStore(repo, time.Hour, nil)
	stubs.schedules.schedules["sched-1"].TeachingDays = pq.StringArray{"Monday", "Wednesday", "Friday"}

	_, _, err = second.Events(ctx, teacherClaims(), "sched-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleNotLoaded.Code, appErrors.FromError(err).Code)

	_, found, err := second.drafts.Load(ctx, "sched-1")
	require.NoError(t, err)
	assert.False(t, found)
}
