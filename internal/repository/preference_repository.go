package repository

import (
	"context"
	"log/slog"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
)

// PreferenceRepository stores UI preferences. An empty userID addresses the
// device-wide keys; otherwise the key is suffixed with ":{userId}".
type PreferenceRepository struct {
	base
}

// NewPreferenceRepository creates a new preference repository
func NewPreferenceRepository(store kvstore.Store, locks *kvstore.KeyLocks, logger *slog.Logger) *PreferenceRepository {
	return &PreferenceRepository{base: newBase(store, locks, logger)}
}

func scopedKey(key, userID string) string {
	if userID == "" {
		return key
	}
	return key + ":" + userID
}

// GetDarkMode returns the stored dark-mode flag; absent means light
func (r *PreferenceRepository) GetDarkMode(ctx context.Context, userID string) bool {
	var dark bool
	r.read(ctx, scopedKey(keyTheme, userID), keyTheme, &dark)
	return dark
}

// SetDarkMode persists the dark-mode flag
func (r *PreferenceRepository) SetDarkMode(ctx context.Context, userID string, dark bool) error {
	return r.write(ctx, scopedKey(keyTheme, userID), dark)
}

// GetStopwatch returns the saved timer snapshot
func (r *PreferenceRepository) GetStopwatch(ctx context.Context, userID string) (*domain.StopwatchState, bool) {
	var s domain.StopwatchState
	if !r.read(ctx, scopedKey(keyStopwatch, userID), keyStopwatch, &s) {
		return nil, false
	}
	return &s, true
}

// SaveStopwatch persists the timer snapshot
func (r *PreferenceRepository) SaveStopwatch(ctx context.Context, userID string, s domain.StopwatchState) error {
	if s.Centiseconds < 0 {
		s.Centiseconds = 0
	}
	if s.Laps == nil {
		s.Laps = []int64{}
	}
	return r.write(ctx, scopedKey(keyStopwatch, userID), s)
}

// ClearStopwatch removes the timer snapshot
func (r *PreferenceRepository) ClearStopwatch(ctx context.Context, userID string) error {
	return r.remove(ctx, scopedKey(keyStopwatch, userID))
}
