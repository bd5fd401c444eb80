package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"focusTracker/internal/handlers/dto"
	"focusTracker/internal/logger"
	"focusTracker/internal/middleware"
	"focusTracker/internal/models/task"
	"focusTracker/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TaskHandler struct {
	TaskService TaskService
}

func NewTaskHandler(taskService TaskService) TaskHandler {
	return TaskHandler{
		TaskService: taskService,
	}
}

func (h *TaskHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.TaskService.HealthCheck(r.Context()); err != nil {
		responseWithError(w, http.StatusServiceUnavailable, "unhealthy")
		return
	}
	responseWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	tasks, err := h.TaskService.GetTasks(r.Context(), userID, r.URL.Query().Get("scheduledDate"))
	if err != nil {
		serviceError(w, err, "get_tasks")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	t, err := h.TaskService.GetTaskByID(r.Context(), userID, taskID)
	if err != nil {
		serviceError(w, err, "get_task")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) PostTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	if !checkContentType(r, "application/json") {
		responseWithError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}

	var request dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		logger.Warn("HTTP: malformed JSON body",
			zap.Error(err),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.TaskService.CreateTask(r.Context(), userID,
		request.Title, request.DurationMinutes, task.Category(request.Category),
		dto.SubtasksToModel(request.Subtasks), request.ScheduledDate)
	if err != nil {
		serviceError(w, err, "create_task")
		return
	}

	logger.Info("HTTP: task created",
		zap.String("task_id", t.ID.String()),
		zap.Int("http_status", http.StatusCreated))
	responseWithJSON(w, http.StatusCreated, dto.FromTask(t))
}

func (h *TaskHandler) UpdateTaskByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	options := []task.TaskOption{}
	if request.Title != nil {
		options = append(options, task.WithTitle(*request.Title))
	}
	if request.DurationMinutes != nil {
		options = append(options, task.WithDurationMinutes(*request.DurationMinutes))
	}
	if request.Category != nil {
		options = append(options, task.WithCategory(task.Category(*request.Category)))
	}
	if request.ScheduledDate != nil {
		options = append(options, task.WithScheduledDate(*request.ScheduledDate))
	}
	if request.Subtasks != nil {
		options = append(options, task.WithSubtasks(dto.SubtasksToModel(*request.Subtasks)))
	}

	t, err := h.TaskService.UpdateTask(r.Context(), userID, taskID, options...)
	if err != nil {
		serviceError(w, err, "update_task")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) DeleteTaskByID(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.TaskService.DeleteTask(r.Context(), userID, taskID); err != nil {
		serviceError(w, err, "delete_task")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var request dto.ReorderRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	tasks, err := h.TaskService.Reorder(r.Context(), userID, request.TaskIDs)
	if err != nil {
		serviceError(w, err, "reorder_tasks")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTaskList(tasks))
}

func (h *TaskHandler) StartTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, "start_task", h.TaskService.StartTask)
}

func (h *TaskHandler) PauseTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, "pause_task", h.TaskService.PauseTask)
}

func (h *TaskHandler) StopTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, "stop_task", h.TaskService.StopTask)
}

func (h *TaskHandler) ToggleTask(w http.ResponseWriter, r *http.Request) {
	h.taskAction(w, r, "toggle_task", h.TaskService.ToggleTask)
}

type taskActionFunc func(ctx context.Context, userID, taskID uuid.UUID) (*task.Task, error)

func (h *TaskHandler) taskAction(w http.ResponseWriter, r *http.Request, operation string, action taskActionFunc) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	t, err := action(r.Context(), userID, taskID)
	if err != nil {
		serviceError(w, err, operation)
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) UpdateTimer(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.TimerUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	patch := service.TimerPatch{
		RemainingMs:   request.RemainingMs,
		LastResumedAt: dto.MillisToTime(request.LastResumedAt),
		ExhaustedOn:   request.ExhaustedOn,
	}
	if request.Status != nil {
		status := task.Status(*request.Status)
		patch.Status = &status
	}

	t, err := h.TaskService.ApplyTimerUpdate(r.Context(), userID, taskID, patch)
	if err != nil {
		serviceError(w, err, "update_timer")
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func (h *TaskHandler) AddSubtask(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}

	var request dto.AddSubtaskRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	t, err := h.TaskService.AddSubtask(r.Context(), userID, taskID, request.Title)
	if err != nil {
		serviceError(w, err, "add_subtask")
		return
	}

	responseWithJSON(w, http.StatusCreated, dto.FromTask(t))
}

func (h *TaskHandler) ToggleSubtask(w http.ResponseWriter, r *http.Request) {
	h.subtaskAction(w, r, "toggle_subtask", h.TaskService.ToggleSubtask)
}

func (h *TaskHandler) DeleteSubtask(w http.ResponseWriter, r *http.Request) {
	h.subtaskAction(w, r, "delete_subtask", h.TaskService.DeleteSubtask)
}

type subtaskActionFunc func(ctx context.Context, userID, taskID, subtaskID uuid.UUID) (*task.Task, error)

func (h *TaskHandler) subtaskAction(w http.ResponseWriter, r *http.Request, operation string, action subtaskActionFunc) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}
	taskID, ok := parseIDParam(w, r, "id")
	if !ok {
		return
	}
	subtaskID, ok := parseIDParam(w, r, "subtaskId")
	if !ok {
		return
	}

	t, err := action(r.Context(), userID, taskID, subtaskID)
	if err != nil {
		serviceError(w, err, operation)
		return
	}

	responseWithJSON(w, http.StatusOK, dto.FromTask(t))
}

func requireUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		responseWithError(w, http.StatusUnauthorized, "Unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

func parseIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	idParam := chi.URLParam(r, name)
	id, err := uuid.Parse(idParam)
	if err != nil || id == uuid.Nil {
		logger.Warn("HTTP: invalid id parameter",
			zap.String("param", name),
			zap.String("value", idParam),
			zap.String("client_ip", r.RemoteAddr))
		responseWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}
