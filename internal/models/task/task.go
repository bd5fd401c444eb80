package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const DayLayout = "2006-01-02"

type Status string

const (
	StatusPaused    Status = "PAUSED"
	StatusRunning   Status = "RUNNING"
	StatusCompleted Status = "COMPLETED"
)

type Category string

const (
	CategoryPersonal     Category = "personal"
	CategoryProfessional Category = "professional"
	CategoryStudy        Category = "study"
)

func ValidCategory(c Category) bool {
	switch c {
	case CategoryPersonal, CategoryProfessional, CategoryStudy:
		return true
	}
	return false
}

type SubTask struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Title     string    `json:"title" db:"title"`
	Completed bool      `json:"completed" db:"completed"`
}

// Task is the canonical model. Status is the single source of truth for the
// lifecycle; the legacy completed/running booleans of the wire format are
// derived views, never stored.
type Task struct {
	ID              uuid.UUID  `json:"id" db:"id"`
	UserID          uuid.UUID  `json:"-" db:"user_id"`
	Title           string     `json:"title" db:"title"`
	DurationMinutes int        `json:"durationMinutes" db:"duration_minutes"`
	Category        Category   `json:"category" db:"category"`
	ScheduledDate   string     `json:"scheduledDate" db:"scheduled_date"`
	RemainingMs     int64      `json:"remainingMs" db:"remaining_ms"`
	Status          Status     `json:"status" db:"status"`
	CreatedAt       time.Time  `json:"createdAt" db:"created_at"`
	StartedAt       *time.Time `json:"startedAt,omitempty" db:"started_at"`
	LastResumedAt   *time.Time `json:"lastResumedAt,omitempty" db:"last_resumed_at"`
	ExhaustedOn     string     `json:"exhaustedOn,omitempty" db:"exhausted_on"`
	Subtasks        []*SubTask `json:"subtasks"`
}

func (t *Task) TotalMs() int64 {
	return int64(t.DurationMinutes) * 60_000
}

func (t *Task) Completed() bool {
	return t.Status == StatusCompleted
}

func (t *Task) Running() bool {
	return t.Status == StatusRunning
}

// AllSubtasksDone reports whether the task has at least one subtask and every
// one of them is completed.
func (t *Task) AllSubtasksDone() bool {
	if len(t.Subtasks) == 0 {
		return false
	}
	for _, st := range t.Subtasks {
		if !st.Completed {
			return false
		}
	}
	return true
}

// HasSubtaskTitled matches sibling titles case-insensitively.
func (t *Task) HasSubtaskTitled(title string) bool {
	for _, st := range t.Subtasks {
		if strings.EqualFold(st.Title, title) {
			return true
		}
	}
	return false
}

func (t *Task) Clone() *Task {
	clone := *t
	clone.Subtasks = make([]*SubTask, len(t.Subtasks))
	for i, st := range t.Subtasks {
		stCopy := *st
		clone.Subtasks[i] = &stCopy
	}
	return &clone
}

func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}
