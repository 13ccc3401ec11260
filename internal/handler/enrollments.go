package handler

import (
	"log/slog"
	"net/http"

	"github.com/MartinaC181/MiGymApp-sub000/internal/security"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/service"
)

// EnrollmentHandler serves the caller's own enrollments
type EnrollmentHandler struct {
	guard
	service *service.EnrollmentService
	logger  *slog.Logger
}

// NewEnrollmentHandler creates a new enrollment handler
func NewEnrollmentHandler(svc *service.EnrollmentService, auditLog *audit.Logger, logger *slog.Logger) *EnrollmentHandler {
	return &EnrollmentHandler{guard: newGuard(logger, auditLog), service: svc, logger: logger}
}

// EnrollRequest represents an enrollment request
type EnrollRequest struct {
	GymID    string   `json:"gymId,omitempty"`
	ClaseID  int64    `json:"claseId"`
	Horarios []string `json:"horarios"`
}

// List handles GET /api/me/classes
func (h *EnrollmentHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEnroll)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.service.MyClasses(r.Context(), claims.UserID))
}

// Enroll handles POST /api/me/classes
func (h *EnrollmentHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEnroll)
	if !ok {
		return
	}
	var req EnrollRequest
	if err := decodeJSON(r, &req); err != nil || req.ClaseID == 0 {
		writeError(w, http.StatusBadRequest, "claseId is required")
		return
	}
	e, err := h.service.Enroll(r.Context(), claims.UserID, req.GymID, req.ClaseID, req.Horarios)
	if err != nil {
		fail(w, h.logger, "enroll", err)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// Cancel handles DELETE /api/me/classes/{classId}?gymId=
func (h *EnrollmentHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermEnroll)
	if !ok {
		return
	}
	classID, valid := int64Param(r, "classId")
	if !valid {
		writeError(w, http.StatusBadRequest, "invalid class id")
		return
	}
	if err := h.service.Cancel(r.Context(), claims.UserID, r.URL.Query().Get("gymId"), classID); err != nil {
		fail(w, h.logger, "cancel enrollment", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
