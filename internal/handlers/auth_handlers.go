package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"focusTracker/internal/auth"
	"focusTracker/internal/handlers/dto"
	"focusTracker/internal/logger"

	"go.uber.org/zap"
)

type AuthHandler struct {
	AuthService AuthService
}

func NewAuthHandler(authService AuthService) AuthHandler {
	return AuthHandler{
		AuthService: authService,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var request dto.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	session, err := h.AuthService.Register(r.Context(), request.Username, request.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrMissingFields):
			responseWithError(w, http.StatusBadRequest, "username and password are required")
		case errors.Is(err, auth.ErrUserExists):
			responseWithError(w, http.StatusBadRequest, "username is already taken")
		default:
			serviceError(w, err, "register")
		}
		return
	}

	logger.Info("HTTP: user registered",
		zap.String("user_id", session.UserID.String()),
		zap.Int("http_status", http.StatusCreated))
	responseWithJSON(w, http.StatusCreated, session)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var request dto.AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		responseWithError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	session, err := h.AuthService.Login(r.Context(), request.Username, request.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) || errors.Is(err, auth.ErrMissingFields) {
			responseWithError(w, http.StatusUnauthorized, "invalid username or password")
			return
		}
		serviceError(w, err, "login")
		return
	}

	responseWithJSON(w, http.StatusOK, session)
}
