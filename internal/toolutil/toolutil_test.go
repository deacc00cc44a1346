package toolutil

import (
	"context"
	"testing"
	"time"

	"github.com/anatolykoptev/go_transcript/internal/engine"
)

type payload struct {
	VideoID string `json:"video_id"`
	Lines   int    `json:"lines"`
}

func TestCacheJSONRoundTrip(t *testing.T) {
	engine.InitCache("", time.Minute, 10, time.Minute)
	ctx := context.Background()
	key := engine.CacheKey("toolutil", "round-trip")

	if _, ok := CacheLoadJSON[payload](ctx, key); ok {
		t.Fatal("expected miss before store")
	}

	CacheStoreJSON(ctx, key, payload{VideoID: "dQw4w9WgXcQ", Lines: 3})

	got, ok := CacheLoadJSON[payload](ctx, key)
	if !ok {
		t.Fatal("expected hit after store")
	}
	if got.VideoID != "dQw4w9WgXcQ" || got.Lines != 3 {
		t.Errorf("got %+v", got)
	}
}

func TestCacheLoadJSONUndecodable(t *testing.T) {
	engine.InitCache("", time.Minute, 10, time.Minute)
	ctx := context.Background()
	key := engine.CacheKey("toolutil", "garbage")

	engine.CacheSet(ctx, key, []byte("not json"))
	if _, ok := CacheLoadJSON[payload](ctx, key); ok {
		t.Error("expected miss for undecodable entry")
	}
}
