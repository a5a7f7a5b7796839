package domain

import "time"

// TaskState is the lifecycle state of one handled message.
type TaskState string

const (
	TaskWorking   TaskState = "working"
	TaskCompleted TaskState = "completed"
	TaskFailed    TaskState = "failed"
)

// IsTerminal reports whether no further transitions follow.
func (s TaskState) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed
}

// TaskEvent is a single state transition emitted while handling a message.
type TaskEvent struct {
	TaskID  string    `json:"taskId"`
	State   TaskState `json:"state"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
	// Err carries the typed failure in-process; it is never serialized.
	Err error `json:"-"`
}

// Task is the stored record of one handled message.
type Task struct {
	ID        string    `json:"id"`
	State     TaskState `json:"state"`
	Input     string    `json:"input"`
	Output    string    `json:"output,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	TTL       int64     `json:"-"`
}
