package inmemory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"focusTracker/internal/models/task"
	repo "focusTracker/internal/repository"

	"github.com/google/uuid"
)

// TaskStorage keeps tasks in memory. Every call stores and returns deep
// copies, so a caller never observes a half-applied mutation of somebody
// else's snapshot.
type TaskStorage struct {
	storage map[uuid.UUID]*task.Task
	mtx     *sync.RWMutex
}

func NewTaskStorage() *TaskStorage {
	return &TaskStorage{
		storage: make(map[uuid.UUID]*task.Task),
		mtx:     &sync.RWMutex{},
	}
}

func (s *TaskStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *TaskStorage) Create(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	s.storage[t.ID] = t.Clone()
	return nil
}

func (s *TaskStorage) Update(ctx context.Context, t *task.Task) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if _, ok := s.storage[t.ID]; !ok {
		return repo.ErrNotFound
	}
	s.storage[t.ID] = t.Clone()
	return nil
}

func (s *TaskStorage) GetByID(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	t, ok := s.storage[taskID]
	if !ok || t.UserID != userID {
		return nil, repo.ErrNotFound
	}
	return t.Clone(), nil
}

// GetByUser returns the user's tasks ordered newest-first by the createdAt
// sort key. scheduledDate filters when non-empty.
func (s *TaskStorage) GetByUser(ctx context.Context, userID uuid.UUID, scheduledDate string) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, t := range s.storage {
		if t.UserID != userID {
			continue
		}
		if scheduledDate != "" && t.ScheduledDate != scheduledDate {
			continue
		}
		res = append(res, t.Clone())
	}

	sortNewestFirst(res)
	return res, nil
}

func (s *TaskStorage) GetRunning(ctx context.Context) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, t := range s.storage {
		if t.Status == task.StatusRunning {
			res = append(res, t.Clone())
		}
	}

	sortNewestFirst(res)
	return res, nil
}

// GetExhaustedBefore returns non-completed tasks whose countdown ran out on a
// day strictly before the given one.
func (s *TaskStorage) GetExhaustedBefore(ctx context.Context, day string) ([]*task.Task, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := []*task.Task{}
	for _, t := range s.storage {
		if t.Status == task.StatusCompleted {
			continue
		}
		if t.ExhaustedOn != "" && t.ExhaustedOn < day {
			res = append(res, t.Clone())
		}
	}

	sortNewestFirst(res)
	return res, nil
}

func (s *TaskStorage) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, ok := s.storage[taskID]
	if !ok || t.UserID != userID {
		return repo.ErrNotFound
	}
	delete(s.storage, taskID)
	return nil
}

func sortNewestFirst(tasks []*task.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return bytes.Compare(tasks[i].ID[:], tasks[j].ID[:]) < 0
	})
}
