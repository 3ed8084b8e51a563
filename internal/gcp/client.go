package gcp

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/timmy/bqlens/internal/domain"
)

const (
	defaultBigQueryBaseURL        = "https://bigquery.googleapis.com/bigquery/v2"
	defaultResourceManagerBaseURL = "https://cloudresourcemanager.googleapis.com/v1"

	// listPageSize bounds a single API page; listing keeps paging until the
	// API stops returning a next-page token.
	listPageSize = 100
)

// ClientConfig overrides API endpoints and timeouts, mainly for tests.
type ClientConfig struct {
	BigQueryBaseURL        string
	ResourceManagerBaseURL string
	Timeout                time.Duration
}

// Client calls the BigQuery and Cloud Resource Manager REST APIs on behalf of
// an authenticated user. The OAuth access token is supplied per call because
// each request belongs to a user session.
type Client struct {
	http        *resty.Client
	bigqueryURL string
	crmURL      string
}

// NewClient creates a REST client. A nil cfg uses the public Google
// endpoints.
func NewClient(cfg *ClientConfig) *Client {
	if cfg == nil {
		cfg = &ClientConfig{}
	}
	if cfg.BigQueryBaseURL == "" {
		cfg.BigQueryBaseURL = defaultBigQueryBaseURL
	}
	if cfg.ResourceManagerBaseURL == "" {
		cfg.ResourceManagerBaseURL = defaultResourceManagerBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")

	return &Client{
		http:        client,
		bigqueryURL: cfg.BigQueryBaseURL,
		crmURL:      cfg.ResourceManagerBaseURL,
	}
}

// apiError is the error envelope Google APIs return on non-2xx responses.
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (e *apiError) message() string {
	if e.Error.Message != "" {
		return e.Error.Message
	}
	return "unknown API error"
}

type projectListResponse struct {
	Projects      []domain.Project `json:"projects"`
	NextPageToken string           `json:"nextPageToken"`
}

// ListProjects returns every active project visible to the token, following
// pagination to the end.
func (c *Client) ListProjects(ctx context.Context, token string) ([]domain.Project, error) {
	var projects []domain.Project
	pageToken := ""
	for {
		var out projectListResponse
		var apiErr apiError
		resp, err := c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetQueryParam("pageSize", fmt.Sprintf("%d", listPageSize)).
			SetQueryParam("pageToken", pageToken).
			SetResult(&out).
			SetError(&apiErr).
			Get(c.crmURL + "/projects")
		if err != nil {
			return nil, fmt.Errorf("list projects: %w", err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("list projects: %s", apiErr.message())
		}

		projects = append(projects, out.Projects...)
		if out.NextPageToken == "" {
			return projects, nil
		}
		pageToken = out.NextPageToken
	}
}

type jobListResponse struct {
	Jobs          []domain.JobDocument `json:"jobs"`
	NextPageToken string               `json:"nextPageToken"`
}

// ListJobs returns up to maxResults recent jobs of a project, newest first as
// delivered by the API, flattened for the job-list view. A non-empty
// stateFilter ("pending", "running", "done") restricts by lifecycle state.
func (c *Client) ListJobs(ctx context.Context, token, projectID, stateFilter string, maxResults int) ([]domain.JobListItem, error) {
	if maxResults <= 0 {
		maxResults = listPageSize
	}

	var items []domain.JobListItem
	pageToken := ""
	for len(items) < maxResults {
		var out jobListResponse
		var apiErr apiError
		req := c.http.R().
			SetContext(ctx).
			SetAuthToken(token).
			SetQueryParams(map[string]string{
				"projection": "full",
				"allUsers":   "false",
				"maxResults": fmt.Sprintf("%d", listPageSize),
				"pageToken":  pageToken,
			})
		if stateFilter != "" {
			req.SetQueryParam("stateFilter", stateFilter)
		}
		resp, err := req.
			SetResult(&out).
			SetError(&apiErr).
			Get(fmt.Sprintf("%s/projects/%s/jobs", c.bigqueryURL, projectID))
		if err != nil {
			return nil, fmt.Errorf("list jobs for %s: %w", projectID, err)
		}
		if resp.IsError() {
			return nil, fmt.Errorf("list jobs for %s: %s", projectID, apiErr.message())
		}

		for i := range out.Jobs {
			items = append(items, flattenJob(&out.Jobs[i]))
			if len(items) == maxResults {
				return items, nil
			}
		}
		if out.NextPageToken == "" {
			return items, nil
		}
		pageToken = out.NextPageToken
	}
	return items, nil
}

// GetJob fetches the full job document, query plan included.
func (c *Client) GetJob(ctx context.Context, token, projectID, jobID, location string) (*domain.JobDocument, error) {
	var out domain.JobDocument
	var apiErr apiError
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetResult(&out).
		SetError(&apiErr)
	if location != "" {
		req.SetQueryParam("location", location)
	}
	resp, err := req.Get(fmt.Sprintf("%s/projects/%s/jobs/%s", c.bigqueryURL, projectID, jobID))
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", jobID, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("get job %s: %s", jobID, apiErr.message())
	}
	return &out, nil
}

func flattenJob(job *domain.JobDocument) domain.JobListItem {
	item := domain.JobListItem{ID: job.ID}
	if ref := job.JobReference; ref != nil {
		item.ProjectID = ref.ProjectID
		item.JobID = ref.JobID
		item.Location = ref.Location
	}
	if st := job.Status; st != nil {
		item.State = st.State
		if st.ErrorResult != nil {
			item.Error = st.ErrorResult.Message
		}
	}
	if stats := job.Statistics; stats != nil {
		item.CreationTime = stats.CreationTime
		item.StartTime = stats.StartTime
		item.EndTime = stats.EndTime
		if stats.Query != nil {
			item.CacheHit = stats.Query.CacheHit
		}
	}
	if cfg := job.Configuration; cfg != nil && cfg.Query != nil {
		item.Query = cfg.Query.Query
	}
	return item
}
