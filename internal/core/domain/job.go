package domain

import "time"

// Names of the background jobs known to the platform.
const (
	JobSendWelcomeEmail = "send-welcome-email"
	JobNotifyNewBlog    = "notify-new-blog"
)

// JobStatus represents the lifecycle state of a queued job.
type JobStatus string

const (
	JobPending   JobStatus = "pending"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job is a unit of durable deferred work. Data is owned by the handler that
// is registered for Name.
type Job struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Data        map[string]any `json:"data"`
	Status      JobStatus      `json:"status"`
	NextRunAt   time.Time      `json:"nextRunAt"`
	Attempts    int            `json:"attempts"`
	MaxAttempts int            `json:"maxAttempts"`
	LastError   string         `json:"lastError,omitempty"`
	LockedAt    *time.Time     `json:"lockedAt,omitempty"`
	LockedBy    string         `json:"lockedBy,omitempty"`
	DeadLetter  bool           `json:"deadLetter"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	FinishedAt  *time.Time     `json:"finishedAt,omitempty"`
}

// StringData returns the string stored under key in the job payload.
func (j *Job) StringData(key string) string {
	v, _ := j.Data[key].(string)
	return v
}

// Exhausted reports whether no attempt is left after the current one.
func (j *Job) Exhausted() bool {
	return j.Attempts >= j.MaxAttempts
}
