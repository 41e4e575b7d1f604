package handlers

import (
	"net/http"

	"library-catalog/internal/middleware"
	"library-catalog/internal/models"
	"library-catalog/internal/services"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// UserHandler serves the admin-only account management routes. Routing
// guarantees an admin session before any of these run.
type UserHandler struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

func NewUserHandler(authService *services.AuthService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		authService: authService,
		logger:      logger,
	}
}

func (h *UserHandler) GetUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.authService.ListUsers()
	if err != nil {
		respondWithServiceError(w, h.logger, err, http.StatusNotFound)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	var changes models.AccountChanges
	if !decodeJSON(w, r, &changes) {
		return
	}

	user, err := h.authService.UpdateUser(session.User, mux.Vars(r)["username"], changes)
	if err != nil {
		respondWithServiceError(w, h.logger, err, http.StatusBadRequest)
		return
	}

	respondWithJSON(w, http.StatusOK, models.AuthResponse{User: *user})
}

func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	if err := h.authService.DeleteUser(session.User, mux.Vars(r)["username"]); err != nil {
		respondWithServiceError(w, h.logger, err, http.StatusBadRequest)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
