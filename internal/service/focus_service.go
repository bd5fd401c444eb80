package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"focusTracker/internal/logger"
	"focusTracker/internal/models/task"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type DayFocus struct {
	Date    string `json:"date"`
	Seconds int    `json:"seconds"`
}

// FocusService is the per-day ledger of seconds spent with a task RUNNING.
// Tick increments land in an in-memory pending map and are flushed to the
// durable store every flushEvery increments, trading a small crash-loss
// window for far fewer writes.
type FocusService struct {
	repo FocusRepository

	mtx          sync.Mutex
	pending      map[uuid.UUID]map[string]int
	pendingTicks int
	flushEvery   int
	now          func() time.Time
}

type FocusServiceOption func(*FocusService)

func WithFocusClock(now func() time.Time) FocusServiceOption {
	return func(s *FocusService) {
		s.now = now
	}
}

func NewFocusService(repo FocusRepository, flushEvery int, opts ...FocusServiceOption) *FocusService {
	if flushEvery <= 0 {
		flushEvery = 10
	}
	s := &FocusService{
		repo:       repo,
		pending:    make(map[uuid.UUID]map[string]int),
		flushEvery: flushEvery,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Increment accumulates focus seconds in memory and flushes once enough
// increments piled up.
func (s *FocusService) Increment(ctx context.Context, userID uuid.UUID, date string, seconds int) {
	if seconds <= 0 {
		return
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	days, ok := s.pending[userID]
	if !ok {
		days = make(map[string]int)
		s.pending[userID] = days
	}
	days[date] += seconds

	s.pendingTicks++
	if s.pendingTicks >= s.flushEvery {
		s.flushLocked(ctx)
	}
}

// Flush writes all pending counters to the durable store. Failed users keep
// their pending counters and are retried on the next flush.
func (s *FocusService) Flush(ctx context.Context) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.flushLocked(ctx)
}

func (s *FocusService) flushLocked(ctx context.Context) {
	s.pendingTicks = 0

	for userID, days := range s.pending {
		failed := make(map[string]int)
		for date, seconds := range days {
			if err := s.repo.Increment(ctx, userID, date, seconds); err != nil {
				logger.Error("Service: focus flush failed", err,
					zap.String("user_id", userID.String()),
					zap.String("date", date))
				failed[date] = seconds
			}
		}
		if len(failed) > 0 {
			s.pending[userID] = failed
		} else {
			delete(s.pending, userID)
		}
	}
}

// History returns date->seconds with unflushed pending counters overlaid, so
// readers always observe tick-fresh numbers.
func (s *FocusService) History(ctx context.Context, userID uuid.UUID, date string) (map[string]int, error) {
	durable, err := s.repo.GetHistory(ctx, userID, date)
	if err != nil {
		return nil, fmt.Errorf("focus history: %w", err)
	}

	s.mtx.Lock()
	defer s.mtx.Unlock()

	for day, seconds := range s.pending[userID] {
		if date != "" && day != date {
			continue
		}
		durable[day] += seconds
	}
	return durable, nil
}

// SetFocus overwrites one day's value, dropping any pending increment for
// that day so the absolute value sticks.
func (s *FocusService) SetFocus(ctx context.Context, userID uuid.UUID, date string, seconds int) error {
	if date == "" {
		return NewValidationError("date", "must not be empty")
	}
	if seconds < 0 {
		return NewValidationError("seconds", "must not be negative")
	}

	s.mtx.Lock()
	if days, ok := s.pending[userID]; ok {
		delete(days, date)
	}
	s.mtx.Unlock()

	if err := s.repo.Set(ctx, userID, date, seconds); err != nil {
		return fmt.Errorf("set focus: %w", err)
	}
	return nil
}

// WeeklyFocus reports the last 7 calendar days (today and 6 prior) in
// ascending order. Days without focus are zero-filled, never omitted.
func (s *FocusService) WeeklyFocus(ctx context.Context, userID uuid.UUID) ([]DayFocus, error) {
	history, err := s.History(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := make([]DayFocus, 0, 7)
	for i := 6; i >= 0; i-- {
		key := task.DayKey(now.AddDate(0, 0, -i))
		out = append(out, DayFocus{Date: key, Seconds: history[key]})
	}
	return out, nil
}

// FocusedToday is today's ledger entry, pending included.
func (s *FocusService) FocusedToday(ctx context.Context, userID uuid.UUID) (int, error) {
	today := task.DayKey(s.now())
	history, err := s.History(ctx, userID, today)
	if err != nil {
		return 0, err
	}
	return history[today], nil
}
