package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
	"github.com/MartinaC181/MiGymApp-sub000/internal/service"
)

// PaymentHandler serves quotas, payments and the gym's billing views
type PaymentHandler struct {
	guard
	payments domain.PaymentRepository
	users    domain.UserRepository
	billing  *service.BillingService
	logger   *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(payments domain.PaymentRepository, users domain.UserRepository, billing *service.BillingService, auditLog *audit.Logger, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		guard:    newGuard(logger, auditLog),
		payments: payments,
		users:    users,
		billing:  billing,
		logger:   logger,
	}
}

// PaymentResponse wraps a payment result with a warning for partial outcomes
type PaymentResponse struct {
	*domain.PaymentResult
	Warning string `json:"warning,omitempty"`
}

// CheckoutRequest optionally carries the id of an earlier checkout attempt
type CheckoutRequest struct {
	PaymentID string `json:"paymentId,omitempty"`
}

// GetQuota handles GET /api/gym/quota
func (h *PaymentHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermManageQuota)
	if !ok {
		return
	}
	q, found := h.payments.GetGymQuotaSettings(r.Context(), claims.UserID)
	if !found {
		writeError(w, http.StatusNotFound, "quota not configured")
		return
	}
	writeJSON(w, http.StatusOK, q)
}

// PutQuota handles PUT /api/gym/quota
func (h *PaymentHandler) PutQuota(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermManageQuota)
	if !ok {
		return
	}
	var q domain.QuotaSettings
	if err := decodeJSON(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if err := h.payments.UpdateGymQuotaSettings(r.Context(), claims.UserID, q); err != nil {
		fail(w, h.logger, "update quota", err)
		return
	}
	saved, _ := h.payments.GetGymQuotaSettings(r.Context(), claims.UserID)
	writeJSON(w, http.StatusOK, saved)
}

// Info handles GET /api/me/payment-info
func (h *PaymentHandler) Info(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermPay)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.payments.GetUserPaymentInfo(r.Context(), claims.UserID))
}

// Pay handles POST /api/me/payments. A payment whose flag update failed is
// answered with 202 and a warning; resending the same id completes it.
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermPay)
	if !ok {
		return
	}
	var in domain.PaymentInput
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	res, err := h.billing.Pay(r.Context(), claims.UserID, in)
	h.writePaymentResult(w, res, err)
}

// MyHistory handles GET /api/me/payments
func (h *PaymentHandler) MyHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermPay)
	if !ok {
		return
	}
	info := h.payments.GetUserPaymentInfo(r.Context(), claims.UserID)
	if info.GymID == "" {
		writeJSON(w, http.StatusOK, []domain.PaymentRecord{})
		return
	}
	writeJSON(w, http.StatusOK, h.payments.GetClientPaymentHistory(r.Context(), info.GymID, claims.UserID))
}

// StartCheckout handles POST /api/me/checkout
func (h *PaymentHandler) StartCheckout(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermPay)
	if !ok {
		return
	}
	var req CheckoutRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	co, err := h.billing.StartCheckout(r.Context(), claims.UserID, req.PaymentID)
	if err != nil {
		fail(w, h.logger, "start checkout", err)
		return
	}
	writeJSON(w, http.StatusCreated, co)
}

// ConfirmCheckout handles POST /api/me/checkout/{paymentId}/confirm
func (h *PaymentHandler) ConfirmCheckout(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermPay)
	if !ok {
		return
	}
	res, err := h.billing.ConfirmCheckout(r.Context(), claims.UserID, chi.URLParam(r, "paymentId"))
	h.writePaymentResult(w, res, err)
}

func (h *PaymentHandler) writePaymentResult(w http.ResponseWriter, res *domain.PaymentResult, err error) {
	switch {
	case err == nil:
		status := http.StatusCreated
		if res.Replayed {
			status = http.StatusOK
		}
		writeJSON(w, status, PaymentResponse{PaymentResult: res})
	case res != nil && errors.Is(err, domain.ErrPaymentFlagNotUpdated):
		writeJSON(w, http.StatusAccepted, PaymentResponse{PaymentResult: res, Warning: err.Error()})
	default:
		fail(w, h.logger, "process payment", err)
	}
}

// History handles GET /api/gym/payments
func (h *PaymentHandler) History(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermViewPayments)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.payments.GetGymPaymentHistory(r.Context(), claims.UserID))
}

// Summary handles GET /api/gym/payments/summary
func (h *PaymentHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermViewPayments)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.payments.GetGymPaymentsSummary(r.Context(), claims.UserID))
}

// Complete handles POST /api/gym/payments/{paymentId}/complete
func (h *PaymentHandler) Complete(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermViewPayments)
	if !ok {
		return
	}
	rec, err := h.payments.CompletePayment(r.Context(), claims.UserID, chi.URLParam(r, "paymentId"))
	if err != nil {
		fail(w, h.logger, "complete payment", err)
		return
	}
	h.audit.LogPayment(r.Context(), claims.UserID, rec.ID, "completed_by_gym", "")
	writeJSON(w, http.StatusOK, rec)
}

// ClientHistory handles GET /api/gym/clients/{clientId}/payments
func (h *PaymentHandler) ClientHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.caller(w, r, security.PermViewPayments)
	if !ok {
		return
	}
	clientID := chi.URLParam(r, "clientId")
	u, found := h.users.GetUserByID(r.Context(), clientID)
	if !found || u.Role() != domain.RoleClient {
		writeError(w, http.StatusNotFound, "client not found")
		return
	}
	if !h.owns(w, r, claims, security.ResourcePermission{
		ResourceType: security.ResourceClient,
		ResourceID:   clientID,
		OwnerID:      u.Client.GymID,
	}) {
		return
	}
	writeJSON(w, http.StatusOK, h.payments.GetClientPaymentHistory(r.Context(), claims.UserID, clientID))
}
