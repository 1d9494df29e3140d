package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "aper:draft:"

type RedisCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache stores drafts as JSON values. A zero ttl keeps entries
// until they are cleared.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, prefix: defaultRedisPrefix}
}

func (c *RedisCache) key(k Key) string {
	return c.prefix + k.RecordID + ":" + k.Stage
}

func (c *RedisCache) Save(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	if err := c.rdb.Set(ctx, c.key(entry.Key), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Load(ctx context.Context, key Key) (Entry, error) {
	raw, err := c.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return Entry{}, fmt.Errorf("%w: decode %s: %w", ErrUnavailable, c.key(key), err)
	}
	return entry, nil
}

func (c *RedisCache) Clear(ctx context.Context, key Key) error {
	if err := c.rdb.Del(ctx, c.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return nil
}

func (c *RedisCache) Keys(ctx context.Context) ([]Key, error) {
	var keys []Key
	iter := c.rdb.Scan(ctx, 0, c.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		recordID, stage, ok := strings.Cut(strings.TrimPrefix(iter.Val(), c.prefix), ":")
		if !ok {
			continue
		}
		keys = append(keys, Key{RecordID: recordID, Stage: stage})
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return keys, nil
}
