package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// OAuthToken is the token material kept for a session, stored as a JSON
// column in the database.
type OAuthToken struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type,omitempty"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry,omitempty"`
}

// Value implements the driver.Valuer interface for database serialization.
func (t OAuthToken) Value() (driver.Value, error) {
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (t *OAuthToken) Scan(value interface{}) error {
	if value == nil {
		*t = OAuthToken{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan OAuthToken")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, t)
}

// Session is a server-side login session holding the user's OAuth token.
type Session struct {
	ID        string     `gorm:"type:text;primaryKey" json:"id"`
	UserEmail string     `gorm:"type:text;index" json:"user_email,omitempty"`
	Token     OAuthToken `gorm:"type:text" json:"-"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
}

// TableName returns the database table name for Session.
func (Session) TableName() string {
	return "sessions"
}

// CachedJob is a TTL-bounded copy of a fetched job document. The raw JSON is
// kept verbatim so repeated plan views do not refetch from the API.
type CachedJob struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	ProjectID string    `gorm:"type:text;not null;index:idx_cached_jobs_ref,unique" json:"project_id"`
	JobID     string    `gorm:"type:text;not null;index:idx_cached_jobs_ref,unique" json:"job_id"`
	Location  string    `gorm:"type:text" json:"location,omitempty"`
	Document  []byte    `gorm:"type:text" json:"-"`
	FetchedAt time.Time `json:"fetched_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`
}

// TableName returns the database table name for CachedJob.
func (CachedJob) TableName() string {
	return "cached_jobs"
}

// PlanSnapshot indexes an exported plan document in object storage.
type PlanSnapshot struct {
	ID         string    `gorm:"type:text;primaryKey" json:"id"`
	ProjectID  string    `gorm:"type:text;not null;index:idx_snapshots_job" json:"project_id"`
	JobID      string    `gorm:"type:text;not null;index:idx_snapshots_job" json:"job_id"`
	StorageKey string    `gorm:"type:text;not null" json:"storage_key"`
	SizeBytes  int64     `json:"size_bytes"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for PlanSnapshot.
func (PlanSnapshot) TableName() string {
	return "plan_snapshots"
}
