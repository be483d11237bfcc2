package domain

import "time"

// JobStatus is the lifecycle state of a background load.
type JobStatus string

// Job states.
const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Done reports whether the job reached a final state.
func (s JobStatus) Done() bool {
	return s == JobSucceeded || s == JobFailed
}

// LoadJob tracks an asynchronous dataset load.
type LoadJob struct {
	ID        string    `json:"id"                   yaml:"id"`
	FileName  string    `json:"file_name"            yaml:"file_name"`
	Status    JobStatus `json:"status"               yaml:"status"`
	Progress  int       `json:"progress"             yaml:"progress"`
	Message   string    `json:"message"              yaml:"message"`
	DatasetID string    `json:"dataset_id,omitempty" yaml:"dataset_id,omitempty"`
	Error     string    `json:"error,omitempty"      yaml:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"           yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at"           yaml:"updated_at"`
}
