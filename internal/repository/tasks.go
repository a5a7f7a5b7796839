package repository

import (
	"context"
	"errors"
	"time"

	"travel-agent/internal/domain"
)

const ttlDuration = 30 * 24 * time.Hour // 30-day TTL

// ErrTaskNotFound is returned when no task exists for an ID.
var ErrTaskNotFound = errors.New("repository: task not found")

// ErrTaskExists is returned by CreateTask when the ID is already stored.
var ErrTaskExists = errors.New("repository: task already exists")

// TaskStore persists handled-message tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task domain.Task) error
	UpdateTask(ctx context.Context, task domain.Task) error
	GetTask(ctx context.Context, id string) (domain.Task, error)
}

// NewTask constructs a working task for input with timestamps and TTL set.
func NewTask(id, input string) domain.Task {
	now := time.Now().UTC()
	return domain.Task{
		ID:        id,
		State:     domain.TaskWorking,
		Input:     input,
		CreatedAt: now,
		UpdatedAt: now,
		TTL:       now.Add(ttlDuration).Unix(),
	}
}
