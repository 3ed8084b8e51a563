package service

import (
	"context"
	"errors"
	"testing"

	"github.com/timmy/bqlens/internal/domain"
)

// fakeFetcher serves canned documents and counts calls.
type fakeFetcher struct {
	doc      *domain.JobDocument
	err      error
	getCalls int
}

func (f *fakeFetcher) ListProjects(ctx context.Context, token string) ([]domain.Project, error) {
	return []domain.Project{{ProjectID: "my-proj"}}, nil
}

func (f *fakeFetcher) ListJobs(ctx context.Context, token, projectID, stateFilter string, maxResults int) ([]domain.JobListItem, error) {
	return []domain.JobListItem{{JobID: "job_1", ProjectID: projectID}}, nil
}

func (f *fakeFetcher) GetJob(ctx context.Context, token, projectID, jobID, location string) (*domain.JobDocument, error) {
	f.getCalls++
	return f.doc, f.err
}

func planDoc() *domain.JobDocument {
	return &domain.JobDocument{
		Kind: "bigquery#job",
		ID:   "my-proj:US.job_1",
		Statistics: &domain.JobStatistics{
			StartTime: "0",
			EndTime:   "10000",
			Query: &domain.QueryStatistics{QueryPlan: []*domain.Stage{
				{ID: "0", Name: "S00: Input", StartMs: "1000", EndMs: "3000",
					Steps: []*domain.QueryStep{{Kind: "READ", Substeps: []string{"FROM ds.events"}}}},
				{ID: "1", Name: "S01: Output", StartMs: "3000", EndMs: "4000", InputStages: []string{"0"}},
			}},
		},
	}
}

func TestGetPlanBuildsFullResponse(t *testing.T) {
	svc := NewPlanService(&fakeFetcher{doc: planDoc()}, nil)

	resp, err := svc.GetPlan(context.Background(), "tok", "my-proj", "job_1", "US")
	if err != nil {
		t.Fatalf("get plan: %v", err)
	}
	if !resp.IsValid {
		t.Error("plan should be valid")
	}
	if len(resp.Nodes) != 3 {
		t.Errorf("expected 3 nodes (2 real + 1 ghost), got %d", len(resp.Nodes))
	}
	if len(resp.Edges) != 2 {
		t.Errorf("expected 2 edges, got %d", len(resp.Edges))
	}
	if len(resp.Gantt) != 2 {
		t.Errorf("gantt rows must exclude the ghost, got %d", len(resp.Gantt))
	}
	if st := resp.Stats["0"]; st == nil || st.DurationMs != 2000 {
		t.Errorf("unexpected stats for stage 0: %+v", st)
	}
	if _, ok := resp.Colors["ds.events"]; ok {
		t.Error("ghost node must not get a color")
	}
}

func TestGetPlanInvalidDocumentIsNotAnError(t *testing.T) {
	svc := NewPlanService(&fakeFetcher{doc: &domain.JobDocument{Kind: "dataflow#job"}}, nil)

	resp, err := svc.GetPlan(context.Background(), "tok", "my-proj", "job_1", "")
	if err != nil {
		t.Fatalf("malformed document must not error: %v", err)
	}
	if resp.IsValid {
		t.Error("plan should be invalid")
	}
	if len(resp.Nodes) != 0 || len(resp.Edges) != 0 {
		t.Error("invalid plan should have empty graph data")
	}
}

func TestGetPlanFetchErrorPropagates(t *testing.T) {
	svc := NewPlanService(&fakeFetcher{err: errors.New("api unreachable")}, nil)

	if _, err := svc.GetPlan(context.Background(), "tok", "my-proj", "job_1", ""); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
}

func TestGetStage(t *testing.T) {
	svc := NewPlanService(&fakeFetcher{doc: planDoc()}, nil)

	detail, err := svc.GetStage(context.Background(), "tok", "my-proj", "job_1", "US", "0")
	if err != nil {
		t.Fatalf("get stage: %v", err)
	}
	if detail.ID != "0" || detail.IsGhost {
		t.Errorf("unexpected detail: %+v", detail)
	}
	if detail.Text == "" {
		t.Error("detail text should not be empty")
	}
	if len(detail.Steps) != 1 {
		t.Errorf("expected 1 step, got %d", len(detail.Steps))
	}

	ghost, err := svc.GetStage(context.Background(), "tok", "my-proj", "job_1", "US", "ds.events")
	if err != nil {
		t.Fatalf("get ghost stage: %v", err)
	}
	if !ghost.IsGhost {
		t.Error("ds.events should be a ghost stage")
	}

	if _, err := svc.GetStage(context.Background(), "tok", "my-proj", "job_1", "US", "nope"); !errors.Is(err, ErrStageNotFound) {
		t.Errorf("unknown stage should yield ErrStageNotFound, got %v", err)
	}
}
