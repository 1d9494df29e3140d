package drafts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestRedisCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	cache := NewRedisCache(rdb, time.Minute)
	cache.prefix = fmt.Sprintf("aper:test:%d:", time.Now().UnixNano())
	key := Key{RecordID: "rec-1", Stage: "draft"}

	if err := cache.Save(ctx, Entry{Key: key, Payload: []byte(`{"fullName":"A"}`), UpdatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	entry, err := cache.Load(ctx, key)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(entry.Payload) != `{"fullName":"A"}` {
		t.Fatalf("unexpected payload %s", entry.Payload)
	}

	keys, err := cache.Keys(ctx)
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	if len(keys) != 1 || keys[0] != key {
		t.Fatalf("unexpected keys %+v", keys)
	}

	if err := cache.Clear(ctx, key); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, err := cache.Load(ctx, key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after clear, got %v", err)
	}
}

func TestRedisCacheCorruptEntryIsUnavailable(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	cache := NewRedisCache(rdb, 0)
	cache.prefix = fmt.Sprintf("aper:test:%d:", time.Now().UnixNano())
	key := Key{RecordID: "rec-2", Stage: "draft"}
	if err := rdb.Set(ctx, cache.key(key), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed: %v", err)
	}
	defer rdb.Del(ctx, cache.key(key))

	if _, err := cache.Load(ctx, key); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable for a corrupt entry, got %v", err)
	}
}

func TestRedisCacheZeroTTLKeepsEntry(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	defer rdb.Close()

	ctx := context.Background()
	cache := NewRedisCache(rdb, 0)
	cache.prefix = fmt.Sprintf("aper:test:%d:", time.Now().UnixNano())
	key := Key{RecordID: "rec-3", Stage: "draft"}
	if err := cache.Save(ctx, Entry{Key: key, Payload: []byte(`{}`), UpdatedAt: time.Now().UTC()}); err != nil {
		t.Fatalf("save: %v", err)
	}
	defer cache.Clear(ctx, key)

	ttl, err := rdb.TTL(ctx, cache.key(key)).Result()
	if err != nil {
		t.Fatalf("ttl: %v", err)
	}
	if ttl != -1 {
		t.Fatalf("expected no expiry, got %v", ttl)
	}
}
