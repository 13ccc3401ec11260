package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/infrastructure/gateway"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/auth"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/middleware"
	"github.com/MartinaC181/MiGymApp-sub000/internal/service"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// decodeJSON reads the body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst any) error {
	err := json.NewDecoder(r.Body).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func int64Param(r *http.Request, name string) (int64, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, name)), 10, 64)
	return v, err == nil
}

// statusFor maps domain and service errors onto HTTP statuses
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, security.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrBusinessNameTaken),
		errors.Is(err, domain.ErrClassExists),
		errors.Is(err, domain.ErrClassFull),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidQuota),
		errors.Is(err, domain.ErrInvalidSchedule),
		errors.Is(err, domain.ErrInvalidUser),
		errors.Is(err, domain.ErrSlotNotOffered):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNoGym),
		errors.Is(err, domain.ErrClassInactive):
		return http.StatusUnprocessableEntity
	case errors.Is(err, gateway.ErrRejected),
		errors.Is(err, gateway.ErrUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, domain.ErrStorageUnavailable),
		errors.Is(err, service.ErrGatewayDisabled):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// fail writes err with its mapped status. Server-side failures are logged and
// their detail hidden from the caller.
func fail(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Error(op+" failed", slog.String("error", err.Error()))
		writeError(w, status, http.StatusText(status))
		return
	}
	writeError(w, status, err.Error())
}

// guard resolves the caller and checks role permissions and gym scope
type guard struct {
	authz  *security.AuthorizationService
	scopes *security.ScopeChecker
	audit  *audit.Logger
}

func newGuard(log *slog.Logger, auditLog *audit.Logger) guard {
	return guard{
		authz:  security.NewAuthorizationService(log),
		scopes: security.NewScopeChecker(log),
		audit:  auditLog,
	}
}

// caller returns the token claims when the caller holds perm; otherwise it
// writes the error response and returns false
func (g guard) caller(w http.ResponseWriter, r *http.Request, perm security.Permission) (*auth.Claims, bool) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing auth")
		return nil, false
	}
	if err := g.authz.ValidatePermission(claims.Role, perm); err != nil {
		g.audit.LogDenied(r.Context(), claims.UserID, string(claims.Role), string(perm))
		writeError(w, http.StatusForbidden, "forbidden")
		return nil, false
	}
	return claims, true
}

// owns checks that the resource belongs to the caller
func (g guard) owns(w http.ResponseWriter, r *http.Request, claims *auth.Claims, perm security.ResourcePermission) bool {
	if err := g.scopes.ValidateResourceAccess(claims.UserID, claims.Role, claims.GymID, perm); err != nil {
		g.audit.LogDenied(r.Context(), claims.UserID, string(claims.Role), string(perm.ResourceType)+":"+perm.ResourceID)
		writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
}
