package dto

import (
	"time"

	"focusTracker/internal/models/task"

	"github.com/google/uuid"
)

type SubTaskPayload struct {
	ID        uuid.UUID `json:"id,omitempty"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
}

type CreateTaskRequest struct {
	Title           string           `json:"title"`
	DurationMinutes int              `json:"durationMinutes"`
	Category        string           `json:"category"`
	ScheduledDate   string           `json:"scheduledDate"`
	Subtasks        []SubTaskPayload `json:"subtasks"`
}

type UpdateTaskRequest struct {
	Title           *string           `json:"title,omitempty"`
	DurationMinutes *int              `json:"durationMinutes,omitempty"`
	Category        *string           `json:"category,omitempty"`
	ScheduledDate   *string           `json:"scheduledDate,omitempty"`
	Subtasks        *[]SubTaskPayload `json:"subtasks,omitempty"`
}

type ReorderRequest struct {
	TaskIDs []uuid.UUID `json:"taskIds"`
}

type TimerUpdateRequest struct {
	RemainingMs   *int64  `json:"remainingMs,omitempty"`
	Status        *string `json:"status,omitempty"`
	LastResumedAt *int64  `json:"lastResumedAt,omitempty"`
	ExhaustedOn   *string `json:"exhaustedOn,omitempty"`
}

type AddSubtaskRequest struct {
	Title string `json:"title"`
}

type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type SetFocusRequest struct {
	Date    string `json:"date"`
	Seconds int    `json:"seconds"`
}

// TaskResponse is the wire shape. Timestamps travel as epoch milliseconds;
// completed and running are views derived from status.
type TaskResponse struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	DurationMinutes int              `json:"durationMinutes"`
	Category        string           `json:"category"`
	ScheduledDate   string           `json:"scheduledDate"`
	RemainingMs     int64            `json:"remainingMs"`
	Status          string           `json:"status"`
	Completed       bool             `json:"completed"`
	Running         bool             `json:"running"`
	CreatedAt       int64            `json:"createdAt"`
	StartedAt       *int64           `json:"startedAt,omitempty"`
	LastResumedAt   *int64           `json:"lastResumedAt,omitempty"`
	ExhaustedOn     string           `json:"exhaustedOn,omitempty"`
	Subtasks        []SubTaskPayload `json:"subtasks"`
}

func FromTask(t *task.Task) TaskResponse {
	subtasks := make([]SubTaskPayload, len(t.Subtasks))
	for i, st := range t.Subtasks {
		subtasks[i] = SubTaskPayload{ID: st.ID, Title: st.Title, Completed: st.Completed}
	}

	return TaskResponse{
		ID:              t.ID,
		Title:           t.Title,
		DurationMinutes: t.DurationMinutes,
		Category:        string(t.Category),
		ScheduledDate:   t.ScheduledDate,
		RemainingMs:     t.RemainingMs,
		Status:          string(t.Status),
		Completed:       t.Completed(),
		Running:         t.Running(),
		CreatedAt:       t.CreatedAt.UnixMilli(),
		StartedAt:       toMillis(t.StartedAt),
		LastResumedAt:   toMillis(t.LastResumedAt),
		ExhaustedOn:     t.ExhaustedOn,
		Subtasks:        subtasks,
	}
}

func FromTaskList(tasks []*task.Task) []TaskResponse {
	result := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		result[i] = FromTask(t)
	}
	return result
}

func (p SubTaskPayload) ToModel() *task.SubTask {
	return &task.SubTask{ID: p.ID, Title: p.Title, Completed: p.Completed}
}

func SubtasksToModel(payloads []SubTaskPayload) []*task.SubTask {
	result := make([]*task.SubTask, len(payloads))
	for i, p := range payloads {
		result[i] = p.ToModel()
	}
	return result
}

func toMillis(t *time.Time) *int64 {
	if t == nil {
		return nil
	}
	ms := t.UnixMilli()
	return &ms
}

func MillisToTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time.UnixMilli(*ms)
	return &t
}
