package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/service"
)

// AuthHandler handles authentication and profile endpoints
type AuthHandler struct {
	guard
	authService *service.AuthService
	users       domain.UserRepository
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, users domain.UserRepository, auditLog *audit.Logger, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		guard:       newGuard(logger, auditLog),
		authService: authService,
		users:       users,
		logger:      logger,
	}
}

// AuthLoginRequest represents a login request
type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ChangePasswordRequest represents a password change
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// JoinGymRequest names the gym a client wants to join
type JoinGymRequest struct {
	BusinessName string `json:"businessName"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if err := decodeJSON(r, &req); err != nil {
		h.logger.Warn("failed to decode register request", slog.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	result, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.logger.Info("registration failed",
			slog.String("email", domain.NormalizeEmail(req.Email)),
			slog.String("error", err.Error()),
		)
		fail(w, h.logger, "register", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req AuthLoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	result, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		fail(w, h.logger, "login", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Me handles GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEditProfile)
	if !ok {
		return
	}
	u, found := h.users.GetUserByID(r.Context(), claims.UserID)
	if !found {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	writeJSON(w, http.StatusOK, u.Sanitized())
}

// UpdateProfile handles PATCH /api/me with a partial user object. Fields that
// tie records together are not editable here.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEditProfile)
	if !ok {
		return
	}
	var partial map[string]any
	if err := decodeJSON(r, &partial); err != nil || len(partial) == 0 {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	for _, k := range []string{"password", "gymId", "clients", "classes", "attendance", "weeklyStreak", "isPaymentUpToDate"} {
		delete(partial, k)
	}
	if email, ok := partial["email"].(string); ok && strings.TrimSpace(email) == "" {
		writeError(w, http.StatusBadRequest, "email cannot be empty")
		return
	}

	u, err := h.users.UpdateUserProfile(r.Context(), claims.UserID, partial)
	if err != nil {
		fail(w, h.logger, "update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, u.Sanitized())
}

// ChangePassword handles POST /api/me/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEditProfile)
	if !ok {
		return
	}
	var req ChangePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.authService.ChangePassword(r.Context(), claims.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		fail(w, h.logger, "change password", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// JoinGym handles POST /api/me/gym
func (h *AuthHandler) JoinGym(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermJoinGym)
	if !ok {
		return
	}
	var req JoinGymRequest
	if err := decodeJSON(r, &req); err != nil || strings.TrimSpace(req.BusinessName) == "" {
		writeError(w, http.StatusBadRequest, "businessName is required")
		return
	}
	gym, found := h.users.GetGymUserByBusinessName(r.Context(), req.BusinessName)
	if !found {
		writeError(w, http.StatusNotFound, "gym not found")
		return
	}
	if err := h.users.AssignClientToGym(r.Context(), claims.UserID, gym.ID()); err != nil {
		fail(w, h.logger, "join gym", err)
		return
	}
	u, _ := h.users.GetUserByID(r.Context(), claims.UserID)
	writeJSON(w, http.StatusOK, u.Sanitized())
}

// Members handles GET /api/gym/clients
func (h *AuthHandler) Members(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermViewGymMembers)
	if !ok {
		return
	}
	clients := h.users.ListGymClients(r.Context(), claims.UserID)
	out := make([]*domain.User, 0, len(clients))
	for _, c := range clients {
		out = append(out, c.Sanitized())
	}
	writeJSON(w, http.StatusOK, out)
}
