package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/bqlens/internal/bqplan"
	"github.com/timmy/bqlens/internal/chart"
	"github.com/timmy/bqlens/internal/domain"
	"github.com/timmy/bqlens/internal/logger"
	"github.com/timmy/bqlens/internal/repository"
)

// ErrStageNotFound is returned by GetStage when the job's plan has no stage
// with the requested identifier. Match with errors.Is.
var ErrStageNotFound = errors.New("stage not found")

// JobFetcher is the outbound boundary to the Google APIs.
type JobFetcher interface {
	ListProjects(ctx context.Context, token string) ([]domain.Project, error)
	ListJobs(ctx context.Context, token, projectID, stateFilter string, maxResults int) ([]domain.JobListItem, error)
	GetJob(ctx context.Context, token, projectID, jobID, location string) (*domain.JobDocument, error)
}

// PlanResponse is the full plan view handed to the frontend.
type PlanResponse struct {
	JobID     string                        `json:"job_id"`
	ProjectID string                        `json:"project_id"`
	IsValid   bool                          `json:"is_valid"`
	Nodes     []*domain.Stage               `json:"nodes"`
	Edges     []bqplan.Edge                 `json:"edges"`
	Stats     map[string]*bqplan.StageStats `json:"stats"`
	Colors    map[string]string             `json:"colors"`
	Gantt     []chart.GanttRow              `json:"gantt"`
}

// StageDetail is the detail-pane view of one stage.
type StageDetail struct {
	ID      string              `json:"id"`
	Text    string              `json:"text"`
	Steps   []*domain.QueryStep `json:"steps"`
	Color   string              `json:"color"`
	IsGhost bool                `json:"is_ghost"`
}

// PlanService fetches job metadata and reconstructs query plans. Job
// documents go through a TTL cache so flipping between the graph, Gantt, and
// detail views of one job costs a single API call.
type PlanService struct {
	fetcher JobFetcher
	cache   *repository.JobCacheRepository
}

// NewPlanService creates a plan service. A nil cache disables caching.
func NewPlanService(fetcher JobFetcher, cache *repository.JobCacheRepository) *PlanService {
	return &PlanService{fetcher: fetcher, cache: cache}
}

// ListProjects passes through to the API.
func (s *PlanService) ListProjects(ctx context.Context, token string) ([]domain.Project, error) {
	return s.fetcher.ListProjects(ctx, token)
}

// ListJobs passes through to the API.
func (s *PlanService) ListJobs(ctx context.Context, token, projectID, stateFilter string, maxResults int) ([]domain.JobListItem, error) {
	return s.fetcher.ListJobs(ctx, token, projectID, stateFilter, maxResults)
}

// GetPlan returns the reconstructed plan of one job, serving the raw job
// document from cache when possible. Malformed documents yield a response
// with IsValid=false and empty graph data, not an error.
func (s *PlanService) GetPlan(ctx context.Context, token, projectID, jobID, location string) (*PlanResponse, error) {
	ctx = logger.SetJobID(logger.SetProjectID(ctx, projectID), jobID)

	doc, err := s.jobDocument(ctx, token, projectID, jobID, location)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	p := bqplan.New(doc, logger.FromContext(ctx))
	stats := p.Stats()

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		logger.FieldCount:      len(p.Nodes()),
	}).Debug(ctx, "plan reconstructed")

	return &PlanResponse{
		JobID:     jobID,
		ProjectID: projectID,
		IsValid:   p.IsValid(),
		Nodes:     p.Nodes(),
		Edges:     p.Edges(),
		Stats:     stats,
		Colors:    chart.Colors(p.Nodes()),
		Gantt:     chart.Rows(p, stats),
	}, nil
}

// GetStage returns the detail view of one stage of a job.
func (s *PlanService) GetStage(ctx context.Context, token, projectID, jobID, location, stageID string) (*StageDetail, error) {
	doc, err := s.jobDocument(ctx, token, projectID, jobID, location)
	if err != nil {
		return nil, err
	}

	p := bqplan.New(doc, logger.FromContext(ctx))
	node := p.Node(stageID)
	if node == nil {
		return nil, fmt.Errorf("job %s has no stage %s: %w", jobID, stageID, ErrStageNotFound)
	}

	return &StageDetail{
		ID:      node.ID,
		Text:    p.Describe(stageID),
		Steps:   p.Steps(stageID),
		Color:   chart.StageColor(node),
		IsGhost: node.IsExternal,
	}, nil
}

// jobDocument loads a job document from cache or the API. Cache failures are
// logged and degrade to a fetch; they never fail the request.
func (s *PlanService) jobDocument(ctx context.Context, token, projectID, jobID, location string) (*domain.JobDocument, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, projectID, jobID)
		if err != nil {
			logger.CtxWarn(ctx, "job cache read failed: %v", err)
		} else if cached != nil {
			var doc domain.JobDocument
			if err := json.Unmarshal(cached.Document, &doc); err == nil {
				logger.CtxDebug(ctx, "job document served from cache")
				return &doc, nil
			}
			logger.CtxWarn(ctx, "cached job document is corrupt, refetching: %v", err)
		}
	}

	doc, err := s.fetcher.GetJob(ctx, token, projectID, jobID, location)
	if err != nil {
		return nil, fmt.Errorf("fetch job %s: %w", jobID, err)
	}

	if s.cache != nil {
		raw, err := json.Marshal(doc)
		if err == nil {
			err = s.cache.Put(ctx, projectID, jobID, location, raw)
		}
		if err != nil {
			logger.CtxWarn(ctx, "job cache write failed: %v", err)
		}
	}
	return doc, nil
}
