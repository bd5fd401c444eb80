package task_test

import (
	"testing"
	"time"

	"focusTracker/internal/models/task"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_TotalMs(t *testing.T) {
	tk := &task.Task{DurationMinutes: 25}
	assert.Equal(t, int64(1_500_000), tk.TotalMs())
}

func TestTask_AllSubtasksDone(t *testing.T) {
	tk := &task.Task{}
	assert.False(t, tk.AllSubtasksDone(), "no subtasks means nothing to propagate from")

	tk.Subtasks = []*task.SubTask{
		{ID: uuid.New(), Title: "a", Completed: true},
		{ID: uuid.New(), Title: "b"},
	}
	assert.False(t, tk.AllSubtasksDone())

	tk.Subtasks[1].Completed = true
	assert.True(t, tk.AllSubtasksDone())
}

func TestTask_HasSubtaskTitled(t *testing.T) {
	tk := &task.Task{Subtasks: []*task.SubTask{{Title: "Chapter One"}}}

	assert.True(t, tk.HasSubtaskTitled("chapter one"))
	assert.False(t, tk.HasSubtaskTitled("chapter two"))
}

func TestTask_Clone(t *testing.T) {
	now := time.Now()
	original := &task.Task{
		ID:            uuid.New(),
		Title:         "original",
		LastResumedAt: &now,
		Subtasks:      []*task.SubTask{{ID: uuid.New(), Title: "sub"}},
	}

	clone := original.Clone()
	clone.Title = "changed"
	clone.Subtasks[0].Completed = true

	assert.Equal(t, "original", original.Title)
	assert.False(t, original.Subtasks[0].Completed)
}

func TestValidCategory(t *testing.T) {
	assert.True(t, task.ValidCategory(task.CategoryPersonal))
	assert.True(t, task.ValidCategory(task.CategoryProfessional))
	assert.True(t, task.ValidCategory(task.CategoryStudy))
	assert.False(t, task.ValidCategory("chores"))
	assert.False(t, task.ValidCategory(""))
}

func TestDayKey(t *testing.T) {
	newYearsEve := time.Date(2026, 12, 31, 23, 59, 0, 0, time.UTC)

	assert.Equal(t, "2026-12-31", task.DayKey(newYearsEve))
	assert.Equal(t, "2027-01-01", task.DayKey(newYearsEve.AddDate(0, 0, 1)))
}

func TestTaskOptions(t *testing.T) {
	t.Run("invalid inputs yield nil options", func(t *testing.T) {
		assert.Nil(t, task.WithTitle(""))
		assert.Nil(t, task.WithDurationMinutes(0))
		assert.Nil(t, task.WithDurationMinutes(-1))
		assert.Nil(t, task.WithCategory("chores"))
		assert.Nil(t, task.WithSubtasks(nil))
		assert.Nil(t, task.WithScheduledDate(""))
	})

	t.Run("duration change clamps the countdown", func(t *testing.T) {
		tk := &task.Task{DurationMinutes: 60, RemainingMs: 60 * 60_000}

		opt := task.WithDurationMinutes(10)
		require.NotNil(t, opt)
		opt(tk)

		assert.Equal(t, 10, tk.DurationMinutes)
		assert.Equal(t, int64(10*60_000), tk.RemainingMs)
	})

	t.Run("growing the duration keeps the countdown", func(t *testing.T) {
		tk := &task.Task{DurationMinutes: 10, RemainingMs: 4 * 60_000}

		task.WithDurationMinutes(60)(tk)

		assert.Equal(t, int64(4*60_000), tk.RemainingMs)
	})
}
