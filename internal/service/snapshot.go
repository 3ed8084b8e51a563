package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/timmy/bqlens/internal/domain"
	"github.com/timmy/bqlens/internal/logger"
	"github.com/timmy/bqlens/internal/repository"
	"github.com/timmy/bqlens/internal/storage"
)

// SnapshotService exports plan views to object storage so they can be shared
// outside the dashboard.
type SnapshotService struct {
	store storage.ObjectStorage
	repo  *repository.SnapshotRepository
}

// NewSnapshotService creates a snapshot service.
func NewSnapshotService(store storage.ObjectStorage, repo *repository.SnapshotRepository) *SnapshotService {
	return &SnapshotService{store: store, repo: repo}
}

// Enabled reports whether snapshot export is configured.
func (s *SnapshotService) Enabled() bool {
	return s != nil && s.store != nil
}

// Create serializes a plan response, uploads it, and indexes the snapshot.
func (s *SnapshotService) Create(ctx context.Context, plan *PlanResponse) (*domain.PlanSnapshot, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("snapshot storage is not configured")
	}

	data, err := json.Marshal(plan)
	if err != nil {
		return nil, fmt.Errorf("serialize plan snapshot: %w", err)
	}

	id := uuid.New().String()
	key := fmt.Sprintf("snapshots/%s/%s/%s.json", plan.ProjectID, plan.JobID, id)
	if err := s.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
		return nil, fmt.Errorf("upload plan snapshot: %w", err)
	}

	snap := &domain.PlanSnapshot{
		ID:         id,
		ProjectID:  plan.ProjectID,
		JobID:      plan.JobID,
		StorageKey: key,
		SizeBytes:  int64(len(data)),
		CreatedAt:  time.Now(),
	}
	if err := s.repo.Create(ctx, snap); err != nil {
		return nil, fmt.Errorf("index plan snapshot: %w", err)
	}

	logger.With(logger.Fields{logger.FieldSize: len(data)}).
		Info(ctx, "plan snapshot exported: key=%s", key)
	return snap, nil
}

// List returns the snapshots of one job with their public URLs.
func (s *SnapshotService) List(ctx context.Context, projectID, jobID string) ([]SnapshotInfo, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("snapshot storage is not configured")
	}

	snaps, err := s.repo.ListByJob(ctx, projectID, jobID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	infos := make([]SnapshotInfo, 0, len(snaps))
	for _, snap := range snaps {
		infos = append(infos, SnapshotInfo{
			PlanSnapshot: snap,
			URL:          s.store.GetURL(snap.StorageKey),
		})
	}
	return infos, nil
}

// SnapshotInfo is a snapshot index row plus its download URL.
type SnapshotInfo struct {
	domain.PlanSnapshot
	URL string `json:"url"`
}
