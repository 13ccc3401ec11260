package kvstore

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/MartinaC181/MiGymApp-sub000/internal/infrastructure/redis"
)

// Redis stores entries as plain string keys, optionally under a namespace so
// the database can be shared with other applications
type Redis struct {
	client    *redis.Client
	namespace string
}

// NewRedis creates a Redis-backed store. namespace may be empty.
func NewRedis(client *redis.Client, namespace string) *Redis {
	return &Redis{client: client, namespace: namespace}
}

func (r *Redis) key(k string) string {
	return r.namespace + k
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	v, ok, err := r.client.Get(ctx, r.key(key))
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return v, ok, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Delete(ctx, r.key(key)); err != nil {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	return nil
}

// Keys returns every key under the namespace once. SCAN may yield a key more
// than once while the keyspace is rehashing.
func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	keys, err := r.client.Scan(ctx, r.namespace+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	sort.Strings(keys)
	keys = slices.Compact(keys)
	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, r.namespace)
	}
	return keys, nil
}

func (r *Redis) RemoveMany(ctx context.Context, keys []string) error {
	full := make([]string, 0, len(keys))
	for _, k := range keys {
		full = append(full, r.key(k))
	}
	if err := r.client.Delete(ctx, full...); err != nil {
		return fmt.Errorf("failed to remove keys: %w", err)
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx)
}

func (r *Redis) Close() error {
	return r.client.Close()
}
