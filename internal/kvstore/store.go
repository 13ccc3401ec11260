// Package kvstore is the flat key-value medium every repository persists through.
// Values are opaque strings; callers serialize domain objects as JSON.
package kvstore

import (
	"context"
	"slices"
	"sort"
	"strings"
)

// Store is the asynchronous key-value medium. Each call is atomic on its own;
// nothing is atomic across calls or keys.
type Store interface {
	// Get returns ok=false for a missing key; that is never an error
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	// Remove deletes a key; removing a missing key succeeds
	Remove(ctx context.Context, key string) error
	Keys(ctx context.Context) ([]string, error)
	RemoveMany(ctx context.Context, keys []string) error
}

// Pinger is implemented by backends that can report liveness
type Pinger interface {
	Ping(ctx context.Context) error
}

// Closer is implemented by backends holding connections
type Closer interface {
	Close() error
}

// Ping checks a store if it supports it; stores without a liveness check are always ready
func Ping(ctx context.Context, s Store) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close releases a store's connections if it holds any
func Close(s Store) error {
	if c, ok := s.(Closer); ok {
		return c.Close()
	}
	return nil
}

// KeysWithPrefix filters Keys down to one key family, e.g. "gymClasses:".
// Each key appears once, in sorted order.
func KeysWithPrefix(ctx context.Context, s Store, prefix string) ([]string, error) {
	keys, err := s.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return slices.Compact(out), nil
}
