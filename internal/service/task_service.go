package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"focusTracker/internal/alarm"
	"focusTracker/internal/logger"
	"focusTracker/internal/models/task"
	rep "focusTracker/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Policy holds the status-machine decisions the product has not fully settled
// on. Both are config-driven rather than hardcoded.
type Policy struct {
	// CompleteOnExhaust marks a task COMPLETED when the countdown hits zero.
	// Default is false: the task is paused and flagged exhausted so the
	// rollover sweep can carry it forward.
	CompleteOnExhaust bool
	// ResetRemainingOnUncomplete restores the full duration when a COMPLETED
	// task is toggled back to PAUSED.
	ResetRemainingOnUncomplete bool
}

func DefaultPolicy() Policy {
	return Policy{
		CompleteOnExhaust:          false,
		ResetRemainingOnUncomplete: true,
	}
}

// TaskService is the task timer engine: it owns the status state machine, the
// single-runner invariant, the countdown tick and the day-rollover sweep.
// Every read-modify-write goes through one mutex, so a tick, a sweep and a
// user action never interleave on a half-applied task list.
type TaskService struct {
	repo   TaskRepository
	focus  *FocusService
	alarm  alarm.Alarm
	policy Policy

	mtx sync.Mutex
	now func() time.Time
}

type TaskServiceOption func(*TaskService)

// WithClock replaces the wall clock, used by tests.
func WithClock(now func() time.Time) TaskServiceOption {
	return func(s *TaskService) {
		s.now = now
	}
}

func NewTaskService(repo TaskRepository, focus *FocusService, al alarm.Alarm, policy Policy, opts ...TaskServiceOption) *TaskService {
	s := &TaskService{
		repo:   repo,
		focus:  focus,
		alarm:  al,
		policy: policy,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *TaskService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

/* ================================
   CRUD
================================ */

func (s *TaskService) CreateTask(ctx context.Context, userID uuid.UUID, title string, durationMinutes int, category task.Category, subtasks []*task.SubTask, scheduledDate string) (*task.Task, error) {
	if title == "" {
		return nil, NewValidationError("title", "must not be empty")
	}
	if durationMinutes <= 0 {
		return nil, NewValidationError("durationMinutes", "must be positive")
	}
	if category == "" {
		category = task.CategoryPersonal
	}
	if !task.ValidCategory(category) {
		return nil, NewValidationError("category", "unknown category")
	}

	now := s.now()
	if scheduledDate == "" {
		scheduledDate = task.DayKey(now)
	}

	t := &task.Task{
		ID:              uuid.New(),
		UserID:          userID,
		Title:           title,
		DurationMinutes: durationMinutes,
		Category:        category,
		ScheduledDate:   scheduledDate,
		RemainingMs:     int64(durationMinutes) * 60_000,
		Status:          task.StatusPaused,
		CreatedAt:       now,
		Subtasks:        []*task.SubTask{},
	}

	for _, st := range subtasks {
		if st.Title == "" {
			return nil, NewValidationError("subtasks", "subtask title must not be empty")
		}
		if t.HasSubtaskTitled(st.Title) {
			return nil, NewValidationError("subtasks", "subtask titles must be unique")
		}
		id := st.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		t.Subtasks = append(t.Subtasks, &task.SubTask{ID: id, Title: st.Title, Completed: st.Completed})
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}

	s.alarm.ScheduleTimerNotification(ctx, t.Title, t.DurationMinutes)
	logger.Info("Service: task created",
		zap.String("task_id", t.ID.String()),
		zap.Int("duration_minutes", t.DurationMinutes))
	return t, nil
}

func (s *TaskService) GetTasks(ctx context.Context, userID uuid.UUID, scheduledDate string) ([]*task.Task, error) {
	tasks, err := s.repo.GetByUser(ctx, userID, scheduledDate)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

func (s *TaskService) GetTaskByID(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	t, err := s.repo.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil, NewNotFound("task", taskID.String())
		}
		return nil, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// UpdateTask applies the given options. A COMPLETED task is immutable: the
// call is a no-op that returns the task unchanged.
func (s *TaskService) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, options ...task.TaskOption) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, err := s.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Completed() {
		logger.Info("Service: update ignored, task is completed",
			zap.String("task_id", taskID.String()))
		return t, nil
	}

	for _, opt := range options {
		if opt != nil {
			opt(t)
		}
	}
	// a replacement subtask list obeys the same rules as at creation
	seen := make(map[string]struct{}, len(t.Subtasks))
	for _, st := range t.Subtasks {
		if st.Title == "" {
			return nil, NewValidationError("subtasks", "subtask title must not be empty")
		}
		key := strings.ToLower(st.Title)
		if _, dup := seen[key]; dup {
			return nil, NewValidationError("subtasks", "subtask titles must be unique")
		}
		seen[key] = struct{}{}
		if st.ID == uuid.Nil {
			st.ID = uuid.New()
		}
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update task: %w", err)
	}
	return t, nil
}

// DeleteTask removes the task and its subtasks. Deleting a RUNNING task is an
// implicit pause: once the row is gone the tick has nothing to advance.
// Deleting an id that is already gone is a no-op.
func (s *TaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	err := s.repo.Delete(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, rep.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete task: %w", err)
	}

	logger.Info("Service: task deleted", zap.String("task_id", taskID.String()))
	return nil
}

// Reorder reassigns the createdAt sort keys so that listing (newest-first)
// returns tasks in exactly the requested order. Unknown ids are skipped.
func (s *TaskService) Reorder(ctx context.Context, userID uuid.UUID, orderedIDs []uuid.UUID) ([]*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	base := s.now()
	for i, id := range orderedIDs {
		t, err := s.repo.GetByID(ctx, userID, id)
		if err != nil {
			if errors.Is(err, rep.ErrNotFound) {
				continue
			}
			return nil, fmt.Errorf("reorder: %w", err)
		}

		t.CreatedAt = base.Add(-time.Duration(i) * time.Millisecond)
		if err := s.repo.Update(ctx, t); err != nil {
			return nil, fmt.Errorf("reorder: %w", err)
		}
	}

	return s.GetTasks(ctx, userID, "")
}

/* ================================
   Status reconciler
================================ */

// StartTask moves the task to RUNNING and pauses any other RUNNING task of
// the same user inside the same locked transition, so the single-runner
// invariant holds after every call. Guards (already completed, countdown at
// zero, not scheduled for today) make the call a no-op, not an error.
func (s *TaskService) StartTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, err := s.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if t.Completed() || t.RemainingMs == 0 || t.ScheduledDate != task.DayKey(now) {
		logger.Info("Service: start ignored",
			zap.String("task_id", taskID.String()),
			zap.String("status", string(t.Status)),
			zap.Int64("remaining_ms", t.RemainingMs))
		return t, nil
	}
	if t.Running() {
		return t, nil
	}

	if err := s.pauseOtherRunning(ctx, userID, taskID); err != nil {
		return nil, err
	}

	t.Status = task.StatusRunning
	t.LastResumedAt = &now
	if t.StartedAt == nil {
		t.StartedAt = &now
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("start task: %w", err)
	}

	logger.Info("Service: task started", zap.String("task_id", taskID.String()))
	return t, nil
}

func (s *TaskService) pauseOtherRunning(ctx context.Context, userID, exceptID uuid.UUID) error {
	running, err := s.repo.GetRunning(ctx)
	if err != nil {
		return fmt.Errorf("list running tasks: %w", err)
	}

	for _, other := range running {
		if other.UserID != userID || other.ID == exceptID {
			continue
		}
		other.Status = task.StatusPaused
		other.LastResumedAt = nil
		if err := s.repo.Update(ctx, other); err != nil {
			return fmt.Errorf("pause running task: %w", err)
		}
		logger.Info("Service: paused previously running task",
			zap.String("task_id", other.ID.String()))
	}
	return nil
}

// PauseTask is a safe no-op on anything that is not RUNNING.
func (s *TaskService) PauseTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, err := s.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if !t.Running() {
		return t, nil
	}

	t.Status = task.StatusPaused
	t.LastResumedAt = nil

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("pause task: %w", err)
	}
	return t, nil
}

// StopTask pauses the task and winds the countdown back to the full duration.
func (s *TaskService) StopTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, err := s.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Completed() {
		return t, nil
	}

	t.Status = task.StatusPaused
	t.LastResumedAt = nil
	t.RemainingMs = t.TotalMs()
	t.ExhaustedOn = ""

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("stop task: %w", err)
	}
	return t, nil
}

// ToggleTask flips between COMPLETED and PAUSED. Completing zeroes the
// countdown; un-completing restores the full duration when the policy says so.
func (s *TaskService) ToggleTask(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, err := s.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	if t.Completed() {
		t.Status = task.StatusPaused
		if s.policy.ResetRemainingOnUncomplete {
			t.RemainingMs = t.TotalMs()
		}
	} else {
		s.completeLocked(t)
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("toggle task: %w", err)
	}

	logger.Info("Service: task toggled",
		zap.String("task_id", taskID.String()),
		zap.String("status", string(t.Status)))
	return t, nil
}

func (s *TaskService) completeLocked(t *task.Task) {
	t.Status = task.StatusCompleted
	t.RemainingMs = 0
	t.LastResumedAt = nil
	t.ExhaustedOn = ""
}

/* ================================
   Subtasks
================================ */

func (s *TaskService) AddSubtask(ctx context.Context, userID, taskID uuid.UUID, title string) (*task.Task, error) {
	if title == "" {
		return nil, NewValidationError("title", "must not be empty")
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, err := s.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Completed() {
		return t, nil
	}
	if t.HasSubtaskTitled(title) {
		return nil, NewValidationError("title", "subtask titles must be unique")
	}

	t.Subtasks = append(t.Subtasks, &task.SubTask{
		ID:    uuid.New(),
		Title: title,
	})

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("add subtask: %w", err)
	}
	return t, nil
}

// ToggleSubtask flips one subtask and then runs the completion propagator:
// once every subtask of a task is done, the task itself becomes COMPLETED.
// Unchecking afterwards does not revert the task.
func (s *TaskService) ToggleSubtask(ctx context.Context, userID, taskID, subtaskID uuid.UUID) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, err := s.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Completed() {
		return t, nil
	}

	found := false
	for _, st := range t.Subtasks {
		if st.ID == subtaskID {
			st.Completed = !st.Completed
			found = true
			break
		}
	}
	if !found {
		return nil, NewNotFound("subtask", subtaskID.String())
	}

	if t.AllSubtasksDone() {
		s.completeLocked(t)
		logger.Info("Service: all subtasks done, task completed",
			zap.String("task_id", taskID.String()))
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("toggle subtask: %w", err)
	}
	return t, nil
}

func (s *TaskService) DeleteSubtask(ctx context.Context, userID, taskID, subtaskID uuid.UUID) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, err := s.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Completed() {
		return t, nil
	}

	next := t.Subtasks[:0]
	for _, st := range t.Subtasks {
		if st.ID != subtaskID {
			next = append(next, st)
		}
	}
	t.Subtasks = next

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("delete subtask: %w", err)
	}
	return t, nil
}

/* ================================
   Timer clock
================================ */

// Tick advances the countdown of every RUNNING task scheduled for today.
// Invariants: remaining stays in [0, total]; the half-time alarm fires only on
// the tick whose crossing takes remaining from above to at-or-below the
// midpoint, so pause/resume cycles cannot re-fire it; a RUNNING task whose
// scheduledDate has rolled past today does not advance.
func (s *TaskService) Tick(ctx context.Context, now time.Time) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	running, err := s.repo.GetRunning(ctx)
	if err != nil {
		logger.Warn("Service: tick could not list running tasks", zap.Error(err))
		return
	}

	today := task.DayKey(now)
	for _, t := range running {
		if t.ScheduledDate != today {
			continue
		}

		elapsed := time.Duration(0)
		if t.LastResumedAt != nil {
			elapsed = now.Sub(*t.LastResumedAt)
		}
		if elapsed < 0 {
			elapsed = 0
		}

		total := t.TotalMs()
		prevRemaining := t.RemainingMs
		nextRemaining := prevRemaining - elapsed.Milliseconds()
		if nextRemaining < 0 {
			nextRemaining = 0
		}

		if prevRemaining > total/2 && nextRemaining <= total/2 {
			s.alarm.PlayAlarm(ctx, t.Title, alarm.ReasonHalfTime)
		}

		// a gap longer than the countdown credits only what the task had left
		creditMs := elapsed.Milliseconds()
		if creditMs > prevRemaining {
			creditMs = prevRemaining
		}
		if seconds := int(creditMs / 1000); seconds > 0 {
			s.focus.Increment(ctx, t.UserID, today, seconds)
		}

		if nextRemaining == 0 {
			s.alarm.PlayAlarm(ctx, t.Title, alarm.ReasonCompleted)
			t.RemainingMs = 0
			t.LastResumedAt = nil
			if s.policy.CompleteOnExhaust {
				s.completeLocked(t)
			} else {
				t.Status = task.StatusPaused
				t.ExhaustedOn = today
			}
		} else {
			t.RemainingMs = nextRemaining
			t.LastResumedAt = &now
		}

		// persistence failure is logged, never rolled back: the running
		// countdown beats strict durability
		if err := s.repo.Update(ctx, t); err != nil {
			logger.Error("Service: tick persist failed", err,
				zap.String("task_id", t.ID.String()))
		}
	}
}

/* ================================
   Day rollover sweep
================================ */

// RolloverSweep moves tasks that ran out of time on a previous day onto the
// current one, clearing the exhausted flag, so they resurface instead of
// silently vanishing. COMPLETED tasks never move.
func (s *TaskService) RolloverSweep(ctx context.Context, now time.Time) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	today := task.DayKey(now)
	exhausted, err := s.repo.GetExhaustedBefore(ctx, today)
	if err != nil {
		logger.Warn("Service: rollover sweep could not list tasks", zap.Error(err))
		return
	}

	for _, t := range exhausted {
		t.ScheduledDate = today
		t.ExhaustedOn = ""
		t.RemainingMs = t.TotalMs()

		if err := s.repo.Update(ctx, t); err != nil {
			logger.Error("Service: rollover persist failed", err,
				zap.String("task_id", t.ID.String()))
			continue
		}
		logger.Info("Service: rolled exhausted task over",
			zap.String("task_id", t.ID.String()),
			zap.String("scheduled_date", today))
	}
}

/* ================================
   Thin-client timer sync
================================ */

// TimerPatch is the partial update a thin client pushes while it predicts the
// countdown locally. Patching to PAUSED clears the resume mark, so a client
// never needs to null it out explicitly.
type TimerPatch struct {
	RemainingMs   *int64
	Status        *task.Status
	LastResumedAt *time.Time
	ExhaustedOn   *string
}

// ApplyTimerUpdate reconciles a client-predicted countdown with the
// authoritative state. Values are clamped into bounds and a COMPLETED task is
// never resurrected. Patching to RUNNING goes through the same transition as
// StartTask, pausing whatever else the user had running.
func (s *TaskService) ApplyTimerUpdate(ctx context.Context, userID, taskID uuid.UUID, patch TimerPatch) (*task.Task, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	t, err := s.GetTaskByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}
	if t.Completed() {
		return t, nil
	}

	if patch.RemainingMs != nil {
		remaining := *patch.RemainingMs
		if remaining < 0 {
			remaining = 0
		}
		if total := t.TotalMs(); remaining > total {
			remaining = total
		}
		t.RemainingMs = remaining
	}

	if patch.Status != nil {
		switch *patch.Status {
		case task.StatusPaused:
			t.Status = task.StatusPaused
			t.LastResumedAt = nil
		case task.StatusRunning:
			now := s.now()
			if t.RemainingMs > 0 && t.ScheduledDate == task.DayKey(now) {
				// same single-runner transition as StartTask
				if err := s.pauseOtherRunning(ctx, userID, taskID); err != nil {
					return nil, err
				}
				t.Status = task.StatusRunning
				t.LastResumedAt = &now
				if t.StartedAt == nil {
					t.StartedAt = &now
				}
			}
		case task.StatusCompleted:
			s.completeLocked(t)
		}
	}

	if patch.LastResumedAt != nil {
		t.LastResumedAt = patch.LastResumedAt
	}

	if patch.ExhaustedOn != nil && !t.Completed() {
		t.ExhaustedOn = *patch.ExhaustedOn
	}

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("timer update: %w", err)
	}
	return t, nil
}
