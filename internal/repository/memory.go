package repository

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"travel-agent/internal/domain"
)

// MemoryTaskStore keeps tasks in process memory. Used when no task table is
// configured; tasks are lost on restart.
type MemoryTaskStore struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
}

var _ TaskStore = (*MemoryTaskStore)(nil)

func NewMemoryTaskStore() *MemoryTaskStore {
	return &MemoryTaskStore{tasks: make(map[string]domain.Task)}
}

func (s *MemoryTaskStore) CreateTask(_ context.Context, task domain.Task) error {
	if task.ID == "" {
		return errors.New("repository: CreateTask: id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; ok {
		return fmt.Errorf("repository: CreateTask %q: %w", task.ID, ErrTaskExists)
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryTaskStore) UpdateTask(_ context.Context, task domain.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return fmt.Errorf("repository: UpdateTask %q: %w", task.ID, ErrTaskNotFound)
	}
	s.tasks[task.ID] = task
	return nil
}

func (s *MemoryTaskStore) GetTask(_ context.Context, id string) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, ErrTaskNotFound
	}
	return task, nil
}
