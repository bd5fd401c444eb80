package handlers

import (
	"encoding/json"
	"net/http"

	"focusTracker/internal/handlers/dto"
)

type FocusHandler struct {
	FocusService FocusService
}

func NewFocusHandler(focusService FocusService) FocusHandler {
	return FocusHandler{
		FocusService: focusService,
	}
}

// GetHistory returns the focus ledger as a date -> seconds map. An optional
// ?date=YYYY-MM-DD query narrows it to a single day.
func (h *FocusHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	history, err := h.FocusService.History(r.Context(), userID, r.URL.Query().Get("date"))
	if err != nil {
		serviceError(w, err, "get_focus_history")
		return
	}

	responseWithJSON(w, http.StatusOK, history)
}

func (h *FocusHandler) GetWeekly(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	week, err := h.FocusService.WeeklyFocus(r.Context(), userID)
	if err != nil {
		serviceError(w, err, "get_weekly_focus")
		return
	}

	responseWithJSON(w, http.StatusOK, week)
}

func (h *FocusHandler) SetFocus(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var request dto.SetFocusRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	if err := h.FocusService.SetFocus(r.Context(), userID, request.Date, request.Seconds); err != nil {
		serviceError(w, err, "set_focus")
		return
	}

	responseWithJSON(w, http.StatusOK, map[string]bool{"success": true})
}
