package repository

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
	"github.com/MartinaC181/MiGymApp-sub000/internal/observability/metrics"
)

const defaultPaymentMethod = "efectivo"

// PaymentRepository keeps quota settings at gymQuota:{gymId} and each gym's
// payment history at gymPayments:{gymId}
type PaymentRepository struct {
	base
	users        *UserRepository
	defaultQuota domain.QuotaSettings
}

// NewPaymentRepository creates a new payment repository. defaultQuota is
// reported for clients whose gym has no settings.
func NewPaymentRepository(store kvstore.Store, locks *kvstore.KeyLocks, logger *slog.Logger, users *UserRepository, defaultQuota domain.QuotaSettings) *PaymentRepository {
	return &PaymentRepository{
		base:         newBase(store, locks, logger),
		users:        users,
		defaultQuota: defaultQuota,
	}
}

// GetGymQuotaSettings returns the gym's quota; false means unconfigured
func (r *PaymentRepository) GetGymQuotaSettings(ctx context.Context, gymID string) (*domain.QuotaSettings, bool) {
	var q domain.QuotaSettings
	if !r.read(ctx, gymQuotaKey(gymID), prefixGymQuota, &q) {
		return nil, false
	}
	return &q, true
}

// UpdateGymQuotaSettings upserts the gym's quota
func (r *PaymentRepository) UpdateGymQuotaSettings(ctx context.Context, gymID string, q domain.QuotaSettings) error {
	if q.Monto <= 0 {
		return domain.ErrInvalidQuota
	}
	q.Descripcion = strings.TrimSpace(q.Descripcion)
	if q.Descripcion == "" {
		q.Descripcion = r.defaultQuota.Descripcion
	}
	if err := r.write(ctx, gymQuotaKey(gymID), q); err != nil {
		return fmt.Errorf("failed to update quota settings: %w", err)
	}
	r.logger.Info("quota updated", slog.String("gym_id", gymID), slog.Float64("monto", q.Monto))
	return nil
}

// GetUserPaymentInfo reports what the client owes. Clients without a gym, or
// whose gym has no settings, see the default quota with Configured=false.
func (r *PaymentRepository) GetUserPaymentInfo(ctx context.Context, userID string) domain.PaymentInfo {
	info := domain.PaymentInfo{
		Monto:       r.defaultQuota.Monto,
		Descripcion: r.defaultQuota.Descripcion,
	}
	u, ok := r.users.GetUserByID(ctx, userID)
	if !ok || u.Role() != domain.RoleClient {
		return info
	}
	info.IsPaymentUpToDate = u.Client.IsPaymentUpToDate
	info.GymID = u.Client.GymID
	if info.GymID == "" {
		return info
	}
	if q, ok := r.GetGymQuotaSettings(ctx, info.GymID); ok {
		info.Monto = q.Monto
		info.Descripcion = q.Descripcion
		info.Configured = true
	}
	return info
}

// GetGymPaymentHistory returns the gym's ledger in insertion order
func (r *PaymentRepository) GetGymPaymentHistory(ctx context.Context, gymID string) []domain.PaymentRecord {
	var history []domain.PaymentRecord
	r.read(ctx, gymPaymentsKey(gymID), prefixGymPayments, &history)
	if history == nil {
		return []domain.PaymentRecord{}
	}
	return history
}

// GetClientPaymentHistory filters the gym's ledger to one client
func (r *PaymentRepository) GetClientPaymentHistory(ctx context.Context, gymID, clientID string) []domain.PaymentRecord {
	out := []domain.PaymentRecord{}
	for _, p := range r.GetGymPaymentHistory(ctx, gymID) {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	return out
}

// GetGymPaymentsSummary folds the current history
func (r *PaymentRepository) GetGymPaymentsSummary(ctx context.Context, gymID string) domain.PaymentsSummary {
	return domain.Summarize(r.GetGymPaymentHistory(ctx, gymID))
}

// ListGymsWithPayments returns the ids of gyms that have a payment history
func (r *PaymentRepository) ListGymsWithPayments(ctx context.Context) []string {
	var out []string
	for _, key := range r.scan(ctx, prefixGymPayments) {
		if id := strings.TrimPrefix(key, prefixGymPayments); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// payer resolves the client and their gym
func (r *PaymentRepository) payer(ctx context.Context, userID string) (*domain.ClientUser, error) {
	u, ok := r.users.GetUserByID(ctx, userID)
	if !ok || u.Role() != domain.RoleClient {
		return nil, domain.ErrNotFound
	}
	if u.Client.GymID == "" {
		return nil, domain.ErrNoGym
	}
	return u.Client, nil
}

// newRecord fills in the defaults of a caller-supplied payment
func (r *PaymentRepository) newRecord(ctx context.Context, client *domain.ClientUser, in domain.PaymentInput, status domain.PaymentStatus) (domain.PaymentRecord, error) {
	now := r.now().UTC()
	rec := domain.PaymentRecord{
		ID:            in.ID,
		ClientID:      client.ID,
		Monto:         in.Monto,
		FechaPago:     in.FechaPago,
		MetodoPago:    in.MetodoPago,
		NumeroFactura: in.NumeroFactura,
		Periodo:       in.Periodo,
		Estado:        status,
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Monto <= 0 {
		if q, ok := r.GetGymQuotaSettings(ctx, client.GymID); ok {
			rec.Monto = q.Monto
		} else {
			rec.Monto = r.defaultQuota.Monto
		}
	}
	if rec.Monto <= 0 {
		return rec, domain.ErrInvalidQuota
	}
	if rec.FechaPago.IsZero() {
		rec.FechaPago = now
	}
	if rec.Periodo == "" {
		rec.Periodo = domain.PeriodOf(rec.FechaPago)
	}
	if rec.MetodoPago == "" {
		rec.MetodoPago = defaultPaymentMethod
	}
	if rec.NumeroFactura == "" {
		rec.NumeroFactura = invoiceNumber(rec)
	}
	return rec, nil
}

func invoiceNumber(rec domain.PaymentRecord) string {
	id := strings.ReplaceAll(rec.ID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("F-%s-%s", strings.ReplaceAll(rec.Periodo, "-", ""), strings.ToUpper(id))
}

// ProcessPayment records a completed payment and then marks the client as up
// to date. The two writes are separate: if the second fails the returned
// result holds the recorded payment, FlagUpdated is false, and the error wraps
// ErrPaymentFlagNotUpdated. Calling again with the same input ID finishes the
// job without adding a second record.
func (r *PaymentRepository) ProcessPayment(ctx context.Context, userID string, in domain.PaymentInput) (*domain.PaymentResult, error) {
	client, err := r.payer(ctx, userID)
	if err != nil {
		metrics.ObservePayment("failed")
		return nil, err
	}
	rec, err := r.newRecord(ctx, client, in, domain.PaymentCompleted)
	if err != nil {
		metrics.ObservePayment("failed")
		return nil, err
	}

	result := &domain.PaymentResult{GymID: client.GymID}
	stored, replayed, err := r.upsertCompleted(ctx, client.GymID, rec)
	if err != nil {
		metrics.ObservePayment("failed")
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	result.Record = stored
	result.Replayed = replayed

	if err := r.users.SetPaymentUpToDate(ctx, client.ID, true); err != nil {
		metrics.ObservePayment("partial")
		r.logger.Warn("payment recorded but client flag not updated",
			slog.String("payment_id", stored.ID),
			slog.String("client_id", client.ID),
			slog.String("error", err.Error()),
		)
		return result, fmt.Errorf("%w: %v", domain.ErrPaymentFlagNotUpdated, err)
	}
	result.FlagUpdated = true

	if replayed {
		metrics.ObservePayment("replayed")
	} else {
		metrics.ObservePayment("completed")
	}
	r.logger.Info("payment processed",
		slog.String("payment_id", stored.ID),
		slog.String("client_id", client.ID),
		slog.String("gym_id", client.GymID),
		slog.Bool("replayed", replayed),
	)
	return result, nil
}

// upsertCompleted appends rec, or completes the pending record with the same
// id. An already completed record is returned untouched.
func (r *PaymentRepository) upsertCompleted(ctx context.Context, gymID string, rec domain.PaymentRecord) (domain.PaymentRecord, bool, error) {
	key := gymPaymentsKey(gymID)
	unlock := r.locks.Lock(key)
	defer unlock()

	var history []domain.PaymentRecord
	if _, err := r.readForUpdate(ctx, key, &history); err != nil {
		return rec, false, err
	}
	for i := range history {
		if history[i].ID != rec.ID {
			continue
		}
		if history[i].ClientID != rec.ClientID {
			return rec, false, domain.ErrNotFound
		}
		if history[i].Estado == domain.PaymentCompleted {
			return history[i], true, nil
		}
		history[i].Estado = domain.PaymentCompleted
		history[i].FechaPago = rec.FechaPago
		if err := r.write(ctx, key, history); err != nil {
			return rec, false, err
		}
		return history[i], false, nil
	}

	history = append(history, rec)
	if err := r.write(ctx, key, history); err != nil {
		return rec, false, err
	}
	return rec, false, nil
}

// RecordPendingPayment appends a pendiente record, used when a checkout is
// started but not yet confirmed. An existing record of the same client with
// the same id is returned as is; one owned by another client is ErrNotFound.
func (r *PaymentRepository) RecordPendingPayment(ctx context.Context, userID string, in domain.PaymentInput) (*domain.PaymentRecord, error) {
	client, err := r.payer(ctx, userID)
	if err != nil {
		return nil, err
	}
	rec, err := r.newRecord(ctx, client, in, domain.PaymentPending)
	if err != nil {
		return nil, err
	}

	key := gymPaymentsKey(client.GymID)
	unlock := r.locks.Lock(key)
	defer unlock()

	var history []domain.PaymentRecord
	if _, err := r.readForUpdate(ctx, key, &history); err != nil {
		return nil, err
	}
	for _, p := range history {
		if p.ID != rec.ID {
			continue
		}
		if p.ClientID != rec.ClientID {
			return nil, domain.ErrNotFound
		}
		return &p, nil
	}
	history = append(history, rec)
	if err := r.write(ctx, key, history); err != nil {
		return nil, fmt.Errorf("failed to record pending payment: %w", err)
	}
	return &rec, nil
}

// UpdatePaymentStatus moves a record to status. Setting the current status
// again is a no-op; completado can never go back to pendiente.
func (r *PaymentRepository) UpdatePaymentStatus(ctx context.Context, gymID, paymentID string, status domain.PaymentStatus) (*domain.PaymentRecord, error) {
	return r.transition(ctx, gymID, paymentID, status, true)
}

// CompletePayment moves a pendiente record to completado. It does not touch
// the client's flag; use ProcessPayment with the same id for that.
func (r *PaymentRepository) CompletePayment(ctx context.Context, gymID, paymentID string) (*domain.PaymentRecord, error) {
	return r.transition(ctx, gymID, paymentID, domain.PaymentCompleted, false)
}

func (r *PaymentRepository) transition(ctx context.Context, gymID, paymentID string, status domain.PaymentStatus, allowSame bool) (*domain.PaymentRecord, error) {
	key := gymPaymentsKey(gymID)
	unlock := r.locks.Lock(key)
	defer unlock()

	var history []domain.PaymentRecord
	if _, err := r.readForUpdate(ctx, key, &history); err != nil {
		return nil, err
	}
	for i := range history {
		if history[i].ID != paymentID {
			continue
		}
		switch {
		case history[i].Estado == status && allowSame:
			return &history[i], nil
		case history[i].Estado == domain.PaymentPending && status == domain.PaymentCompleted:
			history[i].Estado = status
			history[i].FechaPago = r.now().UTC()
		default:
			return nil, domain.ErrInvalidTransition
		}
		if err := r.write(ctx, key, history); err != nil {
			return nil, fmt.Errorf("failed to update payment status: %w", err)
		}
		return &history[i], nil
	}
	return nil, domain.ErrNotFound
}
