package kvstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/MartinaC181/MiGymApp-sub000/internal/infrastructure/redis"
	"github.com/MartinaC181/MiGymApp-sub000/pkg/config"
	"github.com/MartinaC181/MiGymApp-sub000/pkg/database"
)

// Open builds the configured backend wrapped with instrumentation
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	var s Store
	switch cfg.StoreBackend {
	case config.BackendMemory:
		s = NewMemory()
	case config.BackendRedis:
		client, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		s = NewRedis(client, "migym:")
	case config.BackendSQLite:
		sq, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s = sq
	case config.BackendPostgres:
		pool, err := database.NewConnectionPool(ctx, database.ConfigFromURL(cfg.DatabaseURL), logger)
		if err != nil {
			return nil, err
		}
		pg := NewPostgres(pool.GetDB())
		if err := pg.EnsureSchema(ctx); err != nil {
			_ = pool.Close()
			return nil, err
		}
		s = pg
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}

	logger.Info("key-value store ready", slog.String("backend", cfg.StoreBackend))
	return Instrument(s, cfg.StoreBackend), nil
}
