package task

type TaskOption func(*Task)

func WithTitle(title string) TaskOption {
	if title == "" {
		return nil
	}
	return func(t *Task) {
		t.Title = title
	}
}

// WithDurationMinutes changes the planned duration and clamps the countdown
// back into [0, duration].
func WithDurationMinutes(minutes int) TaskOption {
	if minutes <= 0 {
		return nil
	}
	return func(t *Task) {
		t.DurationMinutes = minutes
		if total := t.TotalMs(); t.RemainingMs > total {
			t.RemainingMs = total
		}
	}
}

func WithCategory(category Category) TaskOption {
	if !ValidCategory(category) {
		return nil
	}
	return func(t *Task) {
		t.Category = category
	}
}

// WithSubtasks replaces the whole subtask list.
func WithSubtasks(subtasks []*SubTask) TaskOption {
	if subtasks == nil {
		return nil
	}
	return func(t *Task) {
		t.Subtasks = subtasks
	}
}

func WithScheduledDate(date string) TaskOption {
	if date == "" {
		return nil
	}
	return func(t *Task) {
		t.ScheduledDate = date
	}
}
