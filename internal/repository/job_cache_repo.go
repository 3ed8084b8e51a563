package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/timmy/bqlens/internal/domain"
)

// JobCacheRepository keeps TTL-bounded copies of fetched job documents so a
// user flipping between views does not refetch from the BigQuery API.
type JobCacheRepository struct {
	db  *gorm.DB
	ttl time.Duration
}

// NewJobCacheRepository creates a job cache with the given entry TTL.
func NewJobCacheRepository(db *gorm.DB, ttl time.Duration) *JobCacheRepository {
	return &JobCacheRepository{db: db, ttl: ttl}
}

// Get returns the cached document for a job, or nil on a miss. Expired
// entries count as misses.
func (r *JobCacheRepository) Get(ctx context.Context, projectID, jobID string) (*domain.CachedJob, error) {
	var cached domain.CachedJob
	err := r.db.WithContext(ctx).
		First(&cached, "project_id = ? AND job_id = ?", projectID, jobID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Now().After(cached.ExpiresAt) {
		return nil, nil
	}
	return &cached, nil
}

// Put stores or refreshes the cached document for a job.
func (r *JobCacheRepository) Put(ctx context.Context, projectID, jobID, location string, document []byte) error {
	now := time.Now()
	cached := &domain.CachedJob{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		JobID:     jobID,
		Location:  location,
		Document:  document,
		FetchedAt: now,
		ExpiresAt: now.Add(r.ttl),
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "project_id"}, {Name: "job_id"}},
		UpdateAll: true,
	}).Create(cached).Error
}

// Purge deletes expired cache rows and returns how many were removed.
func (r *JobCacheRepository) Purge(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&domain.CachedJob{})
	return res.RowsAffected, res.Error
}
