// Package toolutil provides shared helper functions for the MCP tools.
package toolutil

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

// CacheLoadJSON decodes the cached tool output under key. An entry that no
// longer decodes into T counts as a miss.
func CacheLoadJSON[T any](ctx context.Context, key string) (T, bool) {
	var zero T
	cached, ok := engine.CacheGet(ctx, key)
	if !ok {
		return zero, false
	}
	var out T
	if err := json.Unmarshal(cached, &out); err != nil {
		slog.Debug("toolutil: cached value undecodable", slog.String("key", key), slog.Any("error", err))
		return zero, false
	}
	return out, true
}

// CacheStoreJSON caches v as JSON. Encoding failures are logged and dropped.
func CacheStoreJSON[T any](ctx context.Context, key string, v T) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Debug("toolutil: output not cached", slog.String("key", key), slog.Any("error", err))
		return
	}
	engine.CacheSet(ctx, key, data)
}
