package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/security/audit"
)

// MethodGateway is the metodoPago recorded for hosted checkouts
const MethodGateway = "mercadopago"

// BillingService drives quota payments, either recorded directly or through
// the hosted checkout of the payment gateway
type BillingService struct {
	payments domain.PaymentRepository
	gateway  domain.PaymentGateway
	audit    *audit.Logger
	logger   *slog.Logger
}

// NewBillingService creates a new billing service. gateway may be nil when
// no provider is configured; StartCheckout then fails.
func NewBillingService(payments domain.PaymentRepository, gateway domain.PaymentGateway, auditLog *audit.Logger, logger *slog.Logger) *BillingService {
	return &BillingService{payments: payments, gateway: gateway, audit: auditLog, logger: logger}
}

// ErrGatewayDisabled is returned by StartCheckout when no gateway is configured
var ErrGatewayDisabled = errors.New("payment gateway not configured")

// Checkout is a started hosted payment
type Checkout struct {
	Payment     domain.PaymentRecord `json:"payment"`
	RedirectURL string               `json:"redirectUrl"`
}

// Pay records a payment made outside the gateway (cash, transfer)
func (s *BillingService) Pay(ctx context.Context, clientID string, in domain.PaymentInput) (*domain.PaymentResult, error) {
	res, err := s.payments.ProcessPayment(ctx, clientID, in)
	s.logOutcome(ctx, clientID, res, err)
	return res, err
}

// StartCheckout records a pendiente payment for the client's current quota
// and asks the gateway for a redirect URL. The pending record is kept when the
// gateway fails so a later attempt can reuse its id.
func (s *BillingService) StartCheckout(ctx context.Context, clientID, paymentID string) (*Checkout, error) {
	if s.gateway == nil {
		return nil, ErrGatewayDisabled
	}
	info := s.payments.GetUserPaymentInfo(ctx, clientID)
	if info.GymID == "" {
		return nil, domain.ErrNoGym
	}

	rec, err := s.payments.RecordPendingPayment(ctx, clientID, domain.PaymentInput{
		ID:         paymentID,
		Monto:      info.Monto,
		MetodoPago: MethodGateway,
	})
	if err != nil {
		return nil, err
	}
	if rec.Estado == domain.PaymentCompleted {
		return nil, fmt.Errorf("payment %s: %w", rec.ID, domain.ErrInvalidTransition)
	}

	url, err := s.gateway.CreateCheckout(ctx, domain.CheckoutRequest{
		Description: info.Descripcion,
		Amount:      rec.Monto,
		Reference:   rec.ID,
	})
	if err != nil {
		s.audit.LogPayment(ctx, clientID, rec.ID, "gateway_error", err.Error())
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}
	s.audit.LogPayment(ctx, clientID, rec.ID, "checkout_started", "")
	return &Checkout{Payment: *rec, RedirectURL: url}, nil
}

// ConfirmCheckout completes a pending checkout payment and marks the client up
// to date. Confirming twice is idempotent.
func (s *BillingService) ConfirmCheckout(ctx context.Context, clientID, paymentID string) (*domain.PaymentResult, error) {
	info := s.payments.GetUserPaymentInfo(ctx, clientID)
	if info.GymID == "" {
		return nil, domain.ErrNoGym
	}
	var pending *domain.PaymentRecord
	for _, p := range s.payments.GetClientPaymentHistory(ctx, info.GymID, clientID) {
		if p.ID == paymentID {
			pending = &p
			break
		}
	}
	if pending == nil {
		return nil, fmt.Errorf("payment %s: %w", paymentID, domain.ErrNotFound)
	}

	res, err := s.payments.ProcessPayment(ctx, clientID, domain.PaymentInput{
		ID:         pending.ID,
		Monto:      pending.Monto,
		MetodoPago: pending.MetodoPago,
		Periodo:    pending.Periodo,
	})
	s.logOutcome(ctx, clientID, res, err)
	return res, err
}

func (s *BillingService) logOutcome(ctx context.Context, clientID string, res *domain.PaymentResult, err error) {
	switch {
	case err == nil:
		s.audit.LogPayment(ctx, clientID, res.Record.ID, "completed", "")
	case res != nil:
		s.audit.LogPayment(ctx, clientID, res.Record.ID, "partial", err.Error())
	default:
		s.audit.LogPayment(ctx, clientID, "", "failed", err.Error())
	}
}
