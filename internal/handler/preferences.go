package handler

import (
	"log/slog"
	"net/http"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
)

// PreferenceHandler serves per-user UI preferences
type PreferenceHandler struct {
	guard
	prefs  domain.PreferenceStore
	logger *slog.Logger
}

// NewPreferenceHandler creates a new preference handler
func NewPreferenceHandler(prefs domain.PreferenceStore, auditLog *audit.Logger, logger *slog.Logger) *PreferenceHandler {
	return &PreferenceHandler{guard: newGuard(logger, auditLog), prefs: prefs, logger: logger}
}

// ThemeBody is the theme preference payload
type ThemeBody struct {
	DarkMode bool `json:"darkMode"`
}

// GetTheme handles GET /api/me/preferences/theme
func (h *PreferenceHandler) GetTheme(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEditProfile)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ThemeBody{DarkMode: h.prefs.GetDarkMode(r.Context(), claims.UserID)})
}

// PutTheme handles PUT /api/me/preferences/theme
func (h *PreferenceHandler) PutTheme(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEditProfile)
	if !ok {
		return
	}
	var body ThemeBody
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.prefs.SetDarkMode(r.Context(), claims.UserID, body.DarkMode); err != nil {
		fail(w, h.logger, "set theme", err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

// GetStopwatch handles GET /api/me/preferences/stopwatch
func (h *PreferenceHandler) GetStopwatch(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEditProfile)
	if !ok {
		return
	}
	s, found := h.prefs.GetStopwatch(r.Context(), claims.UserID)
	if !found {
		s = &domain.StopwatchState{Laps: []int64{}}
	}
	writeJSON(w, http.StatusOK, s)
}

// PutStopwatch handles PUT /api/me/preferences/stopwatch
func (h *PreferenceHandler) PutStopwatch(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEditProfile)
	if !ok {
		return
	}
	var s domain.StopwatchState
	if err := decodeJSON(r, &s); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.prefs.SaveStopwatch(r.Context(), claims.UserID, s); err != nil {
		fail(w, h.logger, "save stopwatch", err)
		return
	}
	saved, _ := h.prefs.GetStopwatch(r.Context(), claims.UserID)
	writeJSON(w, http.StatusOK, saved)
}

// ClearStopwatch handles DELETE /api/me/preferences/stopwatch
func (h *PreferenceHandler) ClearStopwatch(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEditProfile)
	if !ok {
		return
	}
	if err := h.prefs.ClearStopwatch(r.Context(), claims.UserID); err != nil {
		fail(w, h.logger, "clear stopwatch", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
