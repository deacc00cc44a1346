package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	FetchRequests      atomic.Int64
	FetchErrors        atomic.Int64
	CatalogRequests    atomic.Int64
	TranscriptRequests atomic.Int64
	ToolCalls          atomic.Int64
	ToolErrors         atomic.Int64
}

// metricKeys fixes the output order of FormatMetrics.
var metricKeys = []string{
	"fetch_requests", "fetch_errors",
	"catalog_requests", "transcript_requests",
	"tool_calls", "tool_errors",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"fetch_requests":      metrics.FetchRequests.Load(),
		"fetch_errors":        metrics.FetchErrors.Load(),
		"catalog_requests":    metrics.CatalogRequests.Load(),
		"transcript_requests": metrics.TranscriptRequests.Load(),
		"tool_calls":          metrics.ToolCalls.Load(),
		"tool_errors":         metrics.ToolErrors.Load(),
		"cache_hits":          hits,
		"cache_misses":        misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for sources/ sub-package.
func IncrCatalogRequests()    { metrics.CatalogRequests.Add(1) }
func IncrTranscriptRequests() { metrics.TranscriptRequests.Add(1) }

// Incrementors for the tool server.
func IncrToolCalls()  { metrics.ToolCalls.Add(1) }
func IncrToolErrors() { metrics.ToolErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > 5*time.Second {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
