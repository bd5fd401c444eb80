package worker

import (
	"context"
	"time"

	"focusTracker/internal/logger"
	"focusTracker/internal/service"
)

// TimerWorker drives the countdown engine, one tick per interval, advancing
// whichever tasks are RUNNING.
type TimerWorker struct {
	service  *service.TaskService
	interval time.Duration
}

func NewTimerWorker(svc *service.TaskService, interval time.Duration) *TimerWorker {
	if interval <= 0 {
		interval = time.Second
	}
	return &TimerWorker{
		service:  svc,
		interval: interval,
	}
}

func (w *TimerWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: timer clock started")
	for {
		select {
		case now := <-ticker.C:
			w.service.Tick(ctx, now)
		case <-ctx.Done():
			logger.Info("Worker: timer clock stopping")
			return
		}
	}
}
