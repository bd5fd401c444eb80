package alarm

import (
	"context"

	"focusTracker/internal/logger"

	"go.uber.org/zap"
)

// Alarm is the audio/notification collaborator of the timer engine. The
// engine only decides WHEN to fire; delivery is somebody else's problem.
type Alarm interface {
	PlayAlarm(ctx context.Context, taskTitle, reason string)
	ScheduleTimerNotification(ctx context.Context, taskTitle string, durationMinutes int)
}

const (
	ReasonHalfTime  = "half_time"
	ReasonCompleted = "completed"
)

// LogAlarm writes alarm events to the log. Stands in for the sound/push
// implementations on deployments without a delivery channel.
type LogAlarm struct{}

func NewLogAlarm() *LogAlarm {
	return &LogAlarm{}
}

func (a *LogAlarm) PlayAlarm(ctx context.Context, taskTitle, reason string) {
	logger.Info("Alarm: ring",
		zap.String("task", taskTitle),
		zap.String("reason", reason))
}

func (a *LogAlarm) ScheduleTimerNotification(ctx context.Context, taskTitle string, durationMinutes int) {
	logger.Info("Alarm: notification scheduled",
		zap.String("task", taskTitle),
		zap.Int("duration_minutes", durationMinutes))
}
