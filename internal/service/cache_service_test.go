package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/lesson-planner-api/internal/dto"
	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
)

func TestCacheServiceGetSet(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, zap.NewNop(), true)
	ctx := context.Background()

	var out []string
	hit, err := cache.Get(ctx, "planner:events:sched-1:v1:::0", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, "planner:events:sched-1:v1:::0", []string{"a", "b"}, 0))
	assert.Equal(t, time.Minute, repo.ttls["planner:events:sched-1:v1:::0"])

	hit, err = cache.Get(ctx, "planner:events:sched-1:v1:::0", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, out)

	stats := metrics.Stats()
	assert.Equal(t, uint64(1), stats.CacheHits)
	assert.Equal(t, uint64(1), stats.CacheMisses)
	assert.InDelta(t, 0.5, stats.CacheHitRatio, 0.0001)
}

func TestCacheServiceDisabled(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, 0, nil, false)

	require.NoError(t, cache.Set(context.Background(), "k", "v", time.Second))
	hit, err := cache.Get(context.Background(), "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, repo.items)

	var nilCache *CacheService
	assert.False(t, nilCache.Enabled())
	assert.NoError(t, nilCache.Invalidate(context.Background(), "*"))
}

func TestCacheServicePropagatesBackendErrors(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.err = errors.New("connection refused")
	cache := NewCacheService(repo, nil, 0, nil, true)

	hit, err := cache.Get(context.Background(), "k", new(string))
	assert.False(t, hit)
	assert.EqualError(t, err, "connection refused")
	assert.Error(t, cache.Invalidate(context.Background(), "planner:*"))
}

func TestCacheServiceInvalidateByPattern(t *testing.T) {
	repo := newMemoryCacheRepo()
	cache := NewCacheService(repo, nil, 0, nil, true)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, eventListCacheKey("sched-1", 1, "", "", 0), []int{1}, 0))
	require.NoError(t, cache.Set(ctx, eventListCacheKey("sched-1", 2, "2025-01-06", "", 1), []int{2}, 0))
	require.NoError(t, cache.Set(ctx, eventListCacheKey("sched-2", 1, "", "", 0), []int{3}, 0))

	require.NoError(t, cache.Invalidate(ctx, eventListCachePattern("sched-1")))

	assert.Len(t, repo.items, 1)
	_, kept := repo.items["planner:events:sched-2:v1:::0"]
	assert.True(t, kept)
}

func TestLessonScheduleServiceListEventsUsesCache(t *testing.T) {
	svc, _ := newPlannerServiceFixture(t, nil)
	repo := newMemoryCacheRepo()
	svc.cache = NewCacheService(repo, nil, time.Minute, nil, true)
	ctx := context.Background()
	_, err := svc.Generate(ctx, teacherClaims(), "sched-1")
	require.NoError(t, err)

	first, err := svc.ListEvents(ctx, teacherClaims(), "sched-1", dto.EventQuery{Period: 1})
	require.NoError(t, err)
	assert.False(t, first.CacheHit)

	second, err := svc.ListEvents(ctx, teacherClaims(), "sched-1", dto.EventQuery{Period: 1})
	require.NoError(t, err)
	assert.True(t, second.CacheHit)
	assert.Equal(t, first.Events, second.Events)

	_, err = svc.AddSpecialEvent(ctx, teacherClaims(), "sched-1", dto.SpecialEventRequest{
		Date:          "2025-01-10",
		Period:        1,
		EventType:     "Assembly",
		EventCategory: "SpecialPeriod",
	})
	require.NoError(t, err)
	assert.Empty(t, repo.items, "edits drop cached pages")

	third, err := svc.ListEvents(ctx, teacherClaims(), "sched-1", dto.EventQuery{Period: 1})
	require.NoError(t, err)
	assert.False(t, third.CacheHit)
	assert.Equal(t, uint64(2), third.Version)
}

// --- Fixtures ---

type memoryCacheRepo struct {
	mu    sync.Mutex
	items map[string][]byte
	ttls  map[string]time.Duration
	err   error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = raw
	m.ttls[key] = ttl
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	delete(m.items, key)
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}
