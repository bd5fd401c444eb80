package service

import (
	"context"

	"focusTracker/internal/models/task"

	"github.com/google/uuid"
)

type TaskRepository interface {
	Create(context.Context, *task.Task) error
	Update(context.Context, *task.Task) error
	GetByID(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error)
	GetByUser(ctx context.Context, userID uuid.UUID, scheduledDate string) ([]*task.Task, error)
	GetRunning(context.Context) ([]*task.Task, error)
	GetExhaustedBefore(ctx context.Context, day string) ([]*task.Task, error)
	Delete(ctx context.Context, userID, taskID uuid.UUID) error
	HealthCheck(context.Context) error
}

type FocusRepository interface {
	Increment(ctx context.Context, userID uuid.UUID, date string, seconds int) error
	Set(ctx context.Context, userID uuid.UUID, date string, seconds int) error
	GetHistory(ctx context.Context, userID uuid.UUID, date string) (map[string]int, error)
}
