package gcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(&ClientConfig{
		BigQueryBaseURL:        srv.URL,
		ResourceManagerBaseURL: srv.URL,
	}), srv
}

func TestListProjectsPaging(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-1" {
			t.Errorf("authorization header: got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Query().Get("pageToken") == "" {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"projects":      []map[string]string{{"projectId": "alpha"}},
				"nextPageToken": "page-2",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"projects": []map[string]string{{"projectId": "beta"}},
		})
	})
	c, _ := newTestClient(t, mux)

	projects, err := c.ListProjects(context.Background(), "tok-1")
	if err != nil {
		t.Fatalf("list projects: %v", err)
	}
	if len(projects) != 2 {
		t.Fatalf("expected 2 projects, got %d", len(projects))
	}
	if projects[0].ProjectID != "alpha" || projects[1].ProjectID != "beta" {
		t.Errorf("unexpected projects: %+v", projects)
	}
}

func TestListProjectsAPIError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 403, "message": "insufficient scopes"},
		})
	})
	c, _ := newTestClient(t, mux)

	_, err := c.ListProjects(context.Background(), "tok-1")
	if err == nil {
		t.Fatal("expected error for 403 response")
	}
	if got := err.Error(); got != "list projects: insufficient scopes" {
		t.Errorf("unexpected error: %v", got)
	}
}

func TestListJobsFlattens(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/my-proj/jobs", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("projection"); got != "full" {
			t.Errorf("projection: got %q, want full", got)
		}
		if got := r.URL.Query().Get("stateFilter"); got != "done" {
			t.Errorf("stateFilter: got %q, want done", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jobs": []map[string]interface{}{{
				"id":           "my-proj:US.job_1",
				"jobReference": map[string]string{"projectId": "my-proj", "jobId": "job_1", "location": "US"},
				"status":       map[string]interface{}{"state": "DONE"},
				"statistics":   map[string]interface{}{"creationTime": "100", "startTime": "200", "endTime": "900"},
				"configuration": map[string]interface{}{
					"query": map[string]interface{}{"query": "SELECT 1"},
				},
			}},
		})
	})
	c, _ := newTestClient(t, mux)

	jobs, err := c.ListJobs(context.Background(), "tok-1", "my-proj", "done", 10)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	job := jobs[0]
	if job.JobID != "job_1" || job.Location != "US" || job.State != "DONE" {
		t.Errorf("unexpected flattened job: %+v", job)
	}
	if job.Query != "SELECT 1" {
		t.Errorf("query: got %q", job.Query)
	}
	if job.StartTime != "200" || job.EndTime != "900" {
		t.Errorf("timestamps: got %q / %q", job.StartTime, job.EndTime)
	}
}

func TestListJobsHonorsMaxResults(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/my-proj/jobs", func(w http.ResponseWriter, r *http.Request) {
		jobs := make([]map[string]interface{}, 0, 5)
		for _, id := range []string{"a", "b", "c", "d", "e"} {
			jobs = append(jobs, map[string]interface{}{"id": id})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jobs":          jobs,
			"nextPageToken": "more",
		})
	})
	c, _ := newTestClient(t, mux)

	jobs, err := c.ListJobs(context.Background(), "tok-1", "my-proj", "", 3)
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	if len(jobs) != 3 {
		t.Errorf("expected 3 jobs, got %d", len(jobs))
	}
}

func TestGetJob(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/my-proj/jobs/job_1", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("location"); got != "EU" {
			t.Errorf("location: got %q, want EU", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"kind": "bigquery#job",
			"id":   "my-proj:EU.job_1",
			"statistics": map[string]interface{}{
				"startTime": "0",
				"endTime":   "1000",
				"query": map[string]interface{}{
					"queryPlan": []map[string]interface{}{
						{"id": "0", "name": "S00: Input", "startMs": "10", "endMs": "20"},
					},
				},
			},
		})
	})
	c, _ := newTestClient(t, mux)

	job, err := c.GetJob(context.Background(), "tok-1", "my-proj", "job_1", "EU")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	if job.Kind != "bigquery#job" {
		t.Errorf("kind: got %q", job.Kind)
	}
	plan := job.Statistics.Query.QueryPlan
	if len(plan) != 1 || plan[0].Name != "S00: Input" {
		t.Errorf("unexpected plan: %+v", plan)
	}
}

func TestGetJobNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]interface{}{"code": 404, "message": "Not found: Job job_x"},
		})
	})
	c, _ := newTestClient(t, mux)

	_, err := c.GetJob(context.Background(), "tok-1", "my-proj", "job_x", "")
	if err == nil {
		t.Fatal("expected error for missing job")
	}
}
