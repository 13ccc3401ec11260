package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/observability/metrics"
)

// ReconcileWorker repairs clients whose payment was recorded but whose
// isPaymentUpToDate flag was never set, which happens when the second write
// of ProcessPayment fails
type ReconcileWorker struct {
	payments domain.PaymentRepository
	users    domain.UserRepository
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// NewReconcileWorker creates a new reconcile worker
func NewReconcileWorker(
	payments domain.PaymentRepository,
	users domain.UserRepository,
	logger *slog.Logger,
	interval time.Duration,
) *ReconcileWorker {
	return &ReconcileWorker{
		payments: payments,
		users:    users,
		logger:   logger,
		interval: interval,
		now:      time.Now,
	}
}

// Start runs a pass immediately and then on every tick until ctx is done
func (w *ReconcileWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.Info("reconcile worker started", slog.Duration("interval", w.interval))
	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("reconcile worker stopped")
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce scans every gym's history for the current period and returns how
// many client flags it repaired
func (w *ReconcileWorker) RunOnce(ctx context.Context) int {
	period := domain.PeriodOf(w.now().UTC())
	repaired := 0

	for _, gymID := range w.payments.ListGymsWithPayments(ctx) {
		if ctx.Err() != nil {
			break
		}
		paid := make(map[string]bool)
		for _, p := range w.payments.GetGymPaymentHistory(ctx, gymID) {
			if p.Estado == domain.PaymentCompleted && p.Periodo == period {
				paid[p.ClientID] = true
			}
		}

		for clientID := range paid {
			u, ok := w.users.GetUserByID(ctx, clientID)
			if !ok || u.Role() != domain.RoleClient || u.Client.IsPaymentUpToDate {
				continue
			}
			// a payment to a gym the client has since left does not count
			if u.Client.GymID != gymID {
				continue
			}
			logger := w.logger.With(slog.String("client_id", clientID), slog.String("gym_id", gymID))
			if err := w.users.SetPaymentUpToDate(ctx, clientID, true); err != nil {
				if !errors.Is(err, domain.ErrNotFound) {
					logger.Error("failed to repair payment flag", slog.String("error", err.Error()))
				}
				continue
			}
			logger.Info("payment flag repaired", slog.String("period", period))
			repaired++
		}
	}

	if repaired > 0 {
		metrics.ObserveReconcileRepairs(repaired)
	}
	w.logger.Debug("reconcile pass finished", slog.Int("repaired", repaired))
	return repaired
}
