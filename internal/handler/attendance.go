package handler

import (
	"log/slog"
	"net/http"

	"github.com/MartinaC181/MiGymApp-sub000/internal/security"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/service"
)

// AttendanceHandler serves the front-desk QR and client check-ins
type AttendanceHandler struct {
	guard
	service *service.AttendanceService
	logger  *slog.Logger
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(svc *service.AttendanceService, auditLog *audit.Logger, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{guard: newGuard(logger, auditLog), service: svc, logger: logger}
}

// CheckInRequest carries the token scanned from the gym's QR
type CheckInRequest struct {
	Token string `json:"token"`
}

// QR handles GET /api/gym/check-in/qr
func (h *AttendanceHandler) QR(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermIssueCheckIn)
	if !ok {
		return
	}
	png, err := h.service.CheckInQR(r.Context(), claims.UserID)
	if err != nil {
		fail(w, h.logger, "check-in qr", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// CheckIn handles POST /api/me/check-in
func (h *AttendanceHandler) CheckIn(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermCheckIn)
	if !ok {
		return
	}
	var req CheckInRequest
	if err := decodeJSON(r, &req); err != nil || req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}
	u, err := h.service.CheckIn(r.Context(), claims.UserID, req.Token)
	if err != nil {
		fail(w, h.logger, "check-in", err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}
