package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// ReadJSON loads key into dst. A missing key and a malformed value both come
// back as found=false with a nil error; the malformed case is logged. A
// non-nil error means the medium itself failed.
func ReadJSON(ctx context.Context, s Store, key string, dst any, logger *slog.Logger) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		if logger != nil {
			logger.Warn("discarding malformed value",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return false, nil
	}
	return true, nil
}

// WriteJSON marshals v and stores it under key
func WriteJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}
