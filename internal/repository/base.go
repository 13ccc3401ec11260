package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/MartinaC181/MiGymApp-sub000/internal/domain"
	"github.com/MartinaC181/MiGymApp-sub000/internal/kvstore"
	"github.com/MartinaC181/MiGymApp-sub000/internal/observability/metrics"
)

// base carries what every repository needs: the medium, the shared key locks,
// a logger and a clock
type base struct {
	store  kvstore.Store
	locks  *kvstore.KeyLocks
	logger *slog.Logger
	now    func() time.Time
}

func newBase(store kvstore.Store, locks *kvstore.KeyLocks, logger *slog.Logger) base {
	if logger == nil {
		logger = slog.Default()
	}
	if locks == nil {
		locks = kvstore.NewKeyLocks()
	}
	return base{store: store, locks: locks, logger: logger, now: time.Now}
}

// read loads key for a read-only view. Medium failures are logged and the
// destination is left at its zero value.
func (b *base) read(ctx context.Context, key, collection string, dst any) bool {
	found, err := kvstore.ReadJSON(ctx, b.store, key, dst, b.logger)
	if err != nil {
		b.logger.Error("storage read failed, serving empty",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		metrics.ObserveDegradedRead(collection)
		return false
	}
	return found
}

// readForUpdate loads key ahead of a write. Unlike read, a medium failure is
// returned so the caller does not overwrite data it could not see.
func (b *base) readForUpdate(ctx context.Context, key string, dst any) (bool, error) {
	found, err := kvstore.ReadJSON(ctx, b.store, key, dst, b.logger)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return found, nil
}

func (b *base) write(ctx context.Context, key string, v any) error {
	if err := kvstore.WriteJSON(ctx, b.store, key, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

func (b *base) remove(ctx context.Context, key string) error {
	if err := b.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// scan lists the keys of one family; failures degrade to none
func (b *base) scan(ctx context.Context, prefix string) []string {
	keys, err := kvstore.KeysWithPrefix(ctx, b.store, prefix)
	if err != nil {
		b.logger.Error("storage key scan failed",
			slog.String("prefix", prefix),
			slog.String("error", err.Error()),
		)
		metrics.ObserveDegradedRead(prefix)
		return nil
	}
	return keys
}
