package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/timmy/bqlens/internal/domain"
)

// SnapshotRepository indexes exported plan snapshots.
type SnapshotRepository struct {
	db *gorm.DB
}

// NewSnapshotRepository creates a SnapshotRepository.
func NewSnapshotRepository(db *gorm.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

// Create records a snapshot.
func (r *SnapshotRepository) Create(ctx context.Context, snap *domain.PlanSnapshot) error {
	return r.db.WithContext(ctx).Create(snap).Error
}

// ListByJob returns every snapshot of one job, newest first.
func (r *SnapshotRepository) ListByJob(ctx context.Context, projectID, jobID string) ([]domain.PlanSnapshot, error) {
	var snaps []domain.PlanSnapshot
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND job_id = ?", projectID, jobID).
		Order("created_at DESC").
		Find(&snaps).Error
	return snaps, err
}
