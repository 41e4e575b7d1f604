package handlers

import (
	"errors"
	"net/http"

	"library-catalog/internal/middleware"
	"library-catalog/internal/models"
	"library-catalog/internal/services"

	"github.com/rs/zerolog"
)

type AuthHandler struct {
	authService *services.AuthService
	logger      zerolog.Logger
}

func NewAuthHandler(authService *services.AuthService, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.authService.Register(req)
	if err != nil {
		h.logger.Warn().Err(err).Str("username", req.Username).Msg("Registration failed")
		respondWithServiceError(w, h.logger, err, http.StatusBadRequest)
		return
	}

	respondWithJSON(w, http.StatusCreated, models.AuthResponse{User: *user})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.authService.Login(req.Username, req.Password)
	if errors.Is(err, models.ErrUnauthenticated) {
		respondWithError(w, http.StatusUnauthorized, "authentication_failed", "Invalid username or password")
		return
	}
	if err != nil {
		respondWithServiceError(w, h.logger, err, http.StatusBadRequest)
		return
	}

	respondWithJSON(w, http.StatusOK, models.AuthResponse{
		User:  session.User,
		Token: session.Token,
	})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.GetSession(r)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "unauthorized", "User not authenticated")
		return
	}

	respondWithJSON(w, http.StatusOK, models.AuthResponse{User: session.User})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.Logout(middleware.ParseToken(r))
	respondWithJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
