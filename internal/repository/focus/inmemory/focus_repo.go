package inmemory

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// FocusStorage keeps the per-user, per-day focus seconds in memory.
type FocusStorage struct {
	storage map[uuid.UUID]map[string]int
	mtx     *sync.RWMutex
}

func NewFocusStorage() *FocusStorage {
	return &FocusStorage{
		storage: make(map[uuid.UUID]map[string]int),
		mtx:     &sync.RWMutex{},
	}
}

func (s *FocusStorage) HealthCheck(ctx context.Context) error {
	return nil
}

func (s *FocusStorage) Increment(ctx context.Context, userID uuid.UUID, date string, seconds int) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	days, ok := s.storage[userID]
	if !ok {
		days = make(map[string]int)
		s.storage[userID] = days
	}
	days[date] += seconds
	return nil
}

func (s *FocusStorage) Set(ctx context.Context, userID uuid.UUID, date string, seconds int) error {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	days, ok := s.storage[userID]
	if !ok {
		days = make(map[string]int)
		s.storage[userID] = days
	}
	days[date] = seconds
	return nil
}

// GetHistory returns date->seconds for the user. date filters to a single day
// when non-empty; missing days are simply absent, never zero-filled here.
func (s *FocusStorage) GetHistory(ctx context.Context, userID uuid.UUID, date string) (map[string]int, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()

	res := make(map[string]int)
	for day, seconds := range s.storage[userID] {
		if date != "" && day != date {
			continue
		}
		res[day] = seconds
	}
	return res, nil
}
