// Package executor implements the async Task Executor: a bounded-concurrency
// scheduler for long-running tool-driven work (browser automation, travel
// search, page extraction) with progress streaming, cooperative cancellation,
// timeouts, retries, and periodic housekeeping.
package executor

import "time"

// Status is a TaskExecution's lifecycle state.
type Status string

const (
	Queued    Status = "QUEUED"
	Running   Status = "RUNNING"
	Completed Status = "COMPLETED"
	Failed    Status = "FAILED"
	TimedOut  Status = "TIMEOUT"
	Cancelled Status = "CANCELLED"
)

// IsTerminal reports whether s is a sticky terminal status.
func (s Status) IsTerminal() bool {
	switch s {
	case Completed, Failed, TimedOut, Cancelled:
		return true
	default:
		return false
	}
}

// TaskExecution is the runtime record of one submitted task.
// The Executor owns this value; the persistence collaborator is a
// write-through mirror, never the authority.
type TaskExecution struct {
	TaskID                string
	TaskType              string
	OriginalQuery         string
	Status                Status
	ProgressPercent       int
	ProgressMessage       string
	Screenshots           []string
	ExtractedResults      string
	ErrorDetails          string
	Created               time.Time
	Updated               time.Time
	StartedAt             time.Time
	CompletedAt           time.Time
	RetryCount            int
	MaxRetries            int
	TimeoutSeconds        int
	ActualDurationSeconds float64
	RequesterID           string
}

// Clone returns a deep-enough copy safe to hand to a reader outside the
// executor's lock. Slices are copied so the reader never shares the
// screenshots list with an in-flight mutation.
func (t *TaskExecution) Clone() *TaskExecution {
	cp := *t
	cp.Screenshots = append([]string(nil), t.Screenshots...)
	return &cp
}

// SubmitOptions customises one submission.
type SubmitOptions struct {
	TimeoutSeconds int // 0 = use configured default
	MaxRetries     int
	RequesterID    string
}

// ProgressEvent is the payload published on the task:progress topic.
type ProgressEvent struct {
	TaskID          string    `json:"taskId"`
	Status          Status    `json:"status"`
	Message         string    `json:"message"`
	ProgressPercent int       `json:"progressPercent"`
	Screenshots     []string  `json:"screenshots"`
	Timestamp       time.Time `json:"timestamp"`
	NewScreenshot   string    `json:"newScreenshot,omitempty"`
}
