package repository

import (
	"log/slog"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
)

// Options tune the repository set
type Options struct {
	BcryptCost         int
	DefaultQuota       domain.QuotaSettings
	IncludeLegacyLists bool
}

// Repositories bundles every repository over one store. They share a lock
// table so read-modify-write cycles on the same key never interleave.
type Repositories struct {
	Users       *UserRepository
	Sessions    *SessionRepository
	Classes     *ClassRepository
	Enrollments *EnrollmentRepository
	Payments    *PaymentRepository
	Preferences *PreferenceRepository
}

// New wires all repositories
func New(store kvstore.Store, logger *slog.Logger, opts Options) *Repositories {
	locks := kvstore.NewKeyLocks()
	users := NewUserRepository(store, locks, logger.With(slog.String("repository", "users")), opts.BcryptCost)
	classes := NewClassRepository(store, locks, logger.With(slog.String("repository", "classes")), users)
	return &Repositories{
		Users:       users,
		Sessions:    NewSessionRepository(store, locks, logger.With(slog.String("repository", "session"))),
		Classes:     classes,
		Enrollments: NewEnrollmentRepository(store, locks, logger.With(slog.String("repository", "enrollments")), classes, users, opts.IncludeLegacyLists),
		Payments:    NewPaymentRepository(store, locks, logger.With(slog.String("repository", "payments")), users, opts.DefaultQuota),
		Preferences: NewPreferenceRepository(store, locks, logger.With(slog.String("repository", "preferences"))),
	}
}

var (
	_ domain.UserRepository       = (*UserRepository)(nil)
	_ domain.ClassRepository      = (*ClassRepository)(nil)
	_ domain.EnrollmentRepository = (*EnrollmentRepository)(nil)
	_ domain.PaymentRepository    = (*PaymentRepository)(nil)
	_ domain.SessionStore         = (*SessionRepository)(nil)
	_ domain.PreferenceStore      = (*PreferenceRepository)(nil)
)
