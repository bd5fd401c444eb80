package handlers

import (
	"context"

	"focusTracker/internal/auth"
	"focusTracker/internal/models/task"
	"focusTracker/internal/service"

	"github.com/google/uuid"
)

type TaskService interface {
	HealthCheck(ctx context.Context) error
	CreateTask(ctx context.Context, userID uuid.UUID, title string, durationMinutes int, category task.Category, subtasks []*task.SubTask, scheduledDate string) (*task.Task, error)
	GetTasks(ctx context.Context, userID uuid.UUID, scheduledDate string) ([]*task.Task, error)
	GetTaskByID(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error)
	UpdateTask(ctx context.Context, userID, taskID uuid.UUID, options ...task.TaskOption) (*task.Task, error)
	DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error
	Reorder(ctx context.Context, userID uuid.UUID, orderedIDs []uuid.UUID) ([]*task.Task, error)
	StartTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error)
	PauseTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error)
	StopTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error)
	ToggleTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error)
	AddSubtask(ctx context.Context, userID, taskID uuid.UUID, title string) (*task.Task, error)
	ToggleSubtask(ctx context.Context, userID, taskID, subtaskID uuid.UUID) (*task.Task, error)
	DeleteSubtask(ctx context.Context, userID, taskID, subtaskID uuid.UUID) (*task.Task, error)
	ApplyTimerUpdate(ctx context.Context, userID, taskID uuid.UUID, patch service.TimerPatch) (*task.Task, error)
}

type FocusService interface {
	History(ctx context.Context, userID uuid.UUID, date string) (map[string]int, error)
	WeeklyFocus(ctx context.Context, userID uuid.UUID) ([]service.DayFocus, error)
	SetFocus(ctx context.Context, userID uuid.UUID, date string, seconds int) error
}

type AuthService interface {
	Register(ctx context.Context, username, password string) (*auth.Session, error)
	Login(ctx context.Context, username, password string) (*auth.Session, error)
}
