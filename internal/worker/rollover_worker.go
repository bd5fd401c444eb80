package worker

import (
	"context"
	"time"

	"focusTracker/internal/logger"
	"focusTracker/internal/service"
)

// RolloverWorker runs the low-frequency day-rollover sweep, independent of
// the timer clock: exhausted-but-unfinished tasks from previous days get
// carried onto today.
type RolloverWorker struct {
	service  *service.TaskService
	interval time.Duration
}

func NewRolloverWorker(svc *service.TaskService, interval time.Duration) *RolloverWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &RolloverWorker{
		service:  svc,
		interval: interval,
	}
}

func (w *RolloverWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	logger.Info("Worker: rollover sweep started")
	for {
		select {
		case now := <-ticker.C:
			w.service.RolloverSweep(ctx, now)
		case <-ctx.Done():
			logger.Info("Worker: rollover sweep stopping")
			return
		}
	}
}
