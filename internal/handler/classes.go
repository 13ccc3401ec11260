package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/service"
)

// ClassHandler serves the class catalog. Gym routes always act on the
// caller's own gym.
type ClassHandler struct {
	guard
	classes     domain.ClassRepository
	enrollments *service.EnrollmentService
	logger      *slog.Logger
}

// NewClassHandler creates a new class handler
func NewClassHandler(classes domain.ClassRepository, enrollments *service.EnrollmentService, auditLog *audit.Logger, logger *slog.Logger) *ClassHandler {
	return &ClassHandler{
		guard:       newGuard(logger, auditLog),
		classes:     classes,
		enrollments: enrollments,
		logger:      logger,
	}
}

// Available handles GET /api/classes
func (h *ClassHandler) Available(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r, security.PermBrowseClasses); !ok {
		return
	}
	classes := h.classes.GetAvailableClasses(r.Context())
	if classes == nil {
		classes = []domain.AvailableClass{}
	}
	writeJSON(w, http.StatusOK, classes)
}

// GymClasses handles GET /api/gyms/{gymId}/classes
func (h *ClassHandler) GymClasses(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.caller(w, r, security.PermBrowseClasses); !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.classes.GetGymClasses(r.Context(), chi.URLParam(r, "gymId")))
}

// List handles GET /api/gym/classes
func (h *ClassHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermManageClasses)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.classes.GetGymClasses(r.Context(), claims.UserID))
}

// Create handles POST /api/gym/classes
func (h *ClassHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermManageClasses)
	if !ok {
		return
	}
	var c domain.Class
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	saved, err := h.classes.AddGymClass(r.Context(), claims.UserID, c)
	if err != nil {
		fail(w, h.logger, "add class", err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

// Update handles PUT /api/gym/classes/{classId}
func (h *ClassHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermManageClasses)
	if !ok {
		return
	}
	classID, valid := int64Param(r, "classId")
	if !valid {
		writeError(w, http.StatusBadRequest, "invalid class id")
		return
	}
	var c domain.Class
	if err := decodeJSON(r, &c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := c.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.classes.UpdateGymClass(r.Context(), claims.UserID, classID, c); err != nil {
		fail(w, h.logger, "update class", err)
		return
	}
	updated, _ := h.classes.GetGymClass(r.Context(), claims.UserID, classID)
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/gym/classes/{classId}
func (h *ClassHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermManageClasses)
	if !ok {
		return
	}
	classID, valid := int64Param(r, "classId")
	if !valid {
		writeError(w, http.StatusBadRequest, "invalid class id")
		return
	}
	if err := h.classes.DeleteGymClass(r.Context(), claims.UserID, classID); err != nil {
		fail(w, h.logger, "delete class", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Roster handles GET /api/gym/classes/{classId}/roster
func (h *ClassHandler) Roster(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermViewRoster)
	if !ok {
		return
	}
	classID, valid := int64Param(r, "classId")
	if !valid {
		writeError(w, http.StatusBadRequest, "invalid class id")
		return
	}
	roster, err := h.enrollments.Roster(r.Context(), claims.UserID, classID)
	if err != nil {
		fail(w, h.logger, "roster", err)
		return
	}
	writeJSON(w, http.StatusOK, roster)
}
