package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
)

// SessionRepository keeps the device-wide login state under the session and
// currentUser keys
type SessionRepository struct {
	base
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(store kvstore.Store, locks *kvstore.KeyLocks, logger *slog.Logger) *SessionRepository {
	return &SessionRepository{base: newBase(store, locks, logger)}
}

// SaveSession marks user as logged in. The stored user copy carries no password.
func (r *SessionRepository) SaveSession(ctx context.Context, user *domain.User, rememberMe bool) (*domain.Session, error) {
	if !user.Role().Valid() || user.ID() == "" {
		return nil, domain.ErrInvalidUser
	}
	session := &domain.Session{
		CurrentUserID:   user.ID(),
		Role:            user.Role(),
		IsAuthenticated: true,
		RememberMe:      rememberMe,
		CreatedAt:       r.now().UTC(),
	}

	unlock := r.locks.Lock(keySession)
	defer unlock()

	if err := r.write(ctx, keySession, session); err != nil {
		return nil, fmt.Errorf("failed to save session: %w", err)
	}
	if err := r.write(ctx, keyCurrentUser, user.Sanitized()); err != nil {
		return nil, fmt.Errorf("failed to save current user: %w", err)
	}

	r.logger.Info("session started",
		slog.String("user_id", user.ID()),
		slog.Bool("remember_me", rememberMe),
	)
	return session, nil
}

// GetSession returns the stored session, if any
func (r *SessionRepository) GetSession(ctx context.Context) (*domain.Session, bool) {
	var s domain.Session
	if !r.read(ctx, keySession, keySession, &s) {
		return nil, false
	}
	return &s, true
}

// GetCurrentUser returns the cached logged-in user
func (r *SessionRepository) GetCurrentUser(ctx context.Context) (*domain.User, bool) {
	var u domain.User
	if !r.read(ctx, keyCurrentUser, keyCurrentUser, &u) || !u.Role().Valid() {
		return nil, false
	}
	return &u, true
}

// RefreshCurrentUser rewrites the cached user when it is the one logged in
func (r *SessionRepository) RefreshCurrentUser(ctx context.Context, user *domain.User) error {
	current, ok := r.GetCurrentUser(ctx)
	if !ok || current.ID() != user.ID() {
		return nil
	}
	return r.write(ctx, keyCurrentUser, user.Sanitized())
}

// AttachToken stores the bearer token issued for the current session
func (r *SessionRepository) AttachToken(ctx context.Context, token string, expiresAt time.Time) error {
	unlock := r.locks.Lock(keySession)
	defer unlock()

	var s domain.Session
	found, err := r.readForUpdate(ctx, keySession, &s)
	if err != nil {
		return err
	}
	if !found || !s.IsAuthenticated {
		return domain.ErrNotFound
	}
	s.Token = token
	s.TokenExpiresAt = expiresAt.UTC()
	return r.write(ctx, keySession, &s)
}

// ShouldRestore reports whether a saved session should be resumed on startup:
// it must be authenticated, remembered, and its token (if any) unexpired
func (r *SessionRepository) ShouldRestore(ctx context.Context) bool {
	s, ok := r.GetSession(ctx)
	if !ok || !s.IsAuthenticated || !s.RememberMe {
		return false
	}
	if !s.TokenExpiresAt.IsZero() && !r.now().Before(s.TokenExpiresAt) {
		return false
	}
	_, ok = r.GetCurrentUser(ctx)
	return ok
}

// ClearSession logs out by removing both keys
func (r *SessionRepository) ClearSession(ctx context.Context) error {
	unlock := r.locks.Lock(keySession)
	defer unlock()

	if err := r.store.RemoveMany(ctx, []string{keySession, keyCurrentUser}); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	r.logger.Info("session cleared")
	return nil
}
