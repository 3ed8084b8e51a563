package domain

// JobReference identifies a BigQuery job within a project and location.
type JobReference struct {
	ProjectID string `json:"projectId"`
	JobID     string `json:"jobId"`
	Location  string `json:"location,omitempty"`
}

// JobError describes a single error reported by the BigQuery API.
type JobError struct {
	Reason  string `json:"reason,omitempty"`
	Message string `json:"message,omitempty"`
}

// JobStatus reports the lifecycle state of a job (PENDING, RUNNING, DONE).
type JobStatus struct {
	State       string    `json:"state,omitempty"`
	ErrorResult *JobError `json:"errorResult,omitempty"`
}

// QueryConfiguration is the query section of a job configuration.
type QueryConfiguration struct {
	Query        string `json:"query,omitempty"`
	UseLegacySQL *bool  `json:"useLegacySql,omitempty"`
}

// JobConfiguration is the subset of a job's configuration the dashboard shows.
type JobConfiguration struct {
	JobType string              `json:"jobType,omitempty"`
	Query   *QueryConfiguration `json:"query,omitempty"`
}

// QueryStatistics holds the query-specific statistics of a finished job.
// QueryPlan is the execution-stage array the graph builder consumes; a nil
// slice means the API returned no plan for this job.
type QueryStatistics struct {
	QueryPlan          []*Stage `json:"queryPlan,omitempty"`
	TotalBytesBilled   string   `json:"totalBytesBilled,omitempty"`
	TotalSlotMs        string   `json:"totalSlotMs,omitempty"`
	CacheHit           bool     `json:"cacheHit,omitempty"`
	NumDMLAffectedRows string   `json:"numDmlAffectedRows,omitempty"`
}

// JobStatistics is the statistics block of a job document. All timestamps are
// epoch milliseconds encoded as decimal strings, exactly as the REST API
// returns them.
type JobStatistics struct {
	CreationTime        string           `json:"creationTime,omitempty"`
	StartTime           string           `json:"startTime,omitempty"`
	EndTime             string           `json:"endTime,omitempty"`
	TotalBytesProcessed string           `json:"totalBytesProcessed,omitempty"`
	Query               *QueryStatistics `json:"query,omitempty"`
}

// JobDocument is the subset of the BigQuery REST v2 job resource that the
// plan builder and the dashboard need. Unknown fields are dropped on decode.
type JobDocument struct {
	Kind          string            `json:"kind"`
	ID            string            `json:"id"`
	JobReference  *JobReference     `json:"jobReference,omitempty"`
	Status        *JobStatus        `json:"status,omitempty"`
	Configuration *JobConfiguration `json:"configuration,omitempty"`
	Statistics    *JobStatistics    `json:"statistics,omitempty"`
}

// Project is one entry from the Cloud Resource Manager project list.
type Project struct {
	ProjectID      string `json:"projectId"`
	Name           string `json:"name,omitempty"`
	ProjectNumber  string `json:"projectNumber,omitempty"`
	LifecycleState string `json:"lifecycleState,omitempty"`
}

// JobListItem is a flattened row for the job-list view.
type JobListItem struct {
	ID           string `json:"id"`
	ProjectID    string `json:"project_id"`
	JobID        string `json:"job_id"`
	Location     string `json:"location,omitempty"`
	State        string `json:"state,omitempty"`
	CreationTime string `json:"creation_time,omitempty"`
	StartTime    string `json:"start_time,omitempty"`
	EndTime      string `json:"end_time,omitempty"`
	Query        string `json:"query,omitempty"`
	CacheHit     bool   `json:"cache_hit,omitempty"`
	Error        string `json:"error,omitempty"`
}
