package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/noah-isme/lesson-planner-api/pkg/errors"
)

// DraftStore keeps snapshots of unsaved aggregates so edits survive a restart.
type DraftStore struct {
	repo   CacheRepository
	ttl    time.Duration
	logger *zap.Logger
}

// NewDraftStore constructs a draft store. A nil repository disables drafts.
func NewDraftStore(repo CacheRepository, ttl time.Duration, logger *zap.Logger) *DraftStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DraftStore{repo: repo, ttl: ttl, logger: logger}
}

// Load returns the stored snapshot for scheduleID, if any.
func (d *DraftStore) Load(ctx context.Context, scheduleID string) (*AggregateSnapshot, bool, error) {
	if d == nil || d.repo == nil {
		return nil, false, nil
	}
	var snap AggregateSnapshot
	if err := d.repo.Get(ctx, draftCacheKey(scheduleID), &snap); err != nil {
		if errors.Is(err, appErrors.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if snap.ScheduleID != scheduleID {
		return nil, false, nil
	}
	return &snap, true, nil
}

// Save stores snap. Persisted snapshots are not kept since the database already has them.
func (d *DraftStore) Save(ctx context.Context, snap AggregateSnapshot) error {
	if d == nil || d.repo == nil {
		return nil
	}
	if snap.Persisted {
		return d.Discard(ctx, snap.ScheduleID)
	}
	if err := d.repo.Set(ctx, draftCacheKey(snap.ScheduleID), snap, d.ttl); err != nil {
		d.logger.Warn("draft save failed", zap.String("schedule_id", snap.ScheduleID), zap.Error(err))
		return err
	}
	return nil
}

// Discard drops the draft for scheduleID.
func (d *DraftStore) Discard(ctx context.Context, scheduleID string) error {
	if d == nil || d.repo == nil {
		return nil
	}
	return d.repo.Delete(ctx, draftCacheKey(scheduleID))
}
