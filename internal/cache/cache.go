package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// Cache stores rendered read models, e.g. a teacher's projected timetable.
// Entries are addressed by revision: writers bump a counter, so a reader
// that rendered before the bump can only fill a key nobody reads again.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
	// Revision returns the counter stored at key, 0 when unset.
	Revision(ctx context.Context, key string) (int64, error)
	// Bump increments the counter at key and returns the new value.
	Bump(ctx context.Context, key string) (int64, error)
}

// TimetableKey is the cache key of a teacher's weekly projection at rev.
func TimetableKey(teacherID string, rev int64) string {
	return fmt.Sprintf("timetable:%s:%d", teacherID, rev)
}

// TimetableRevisionKey holds the revision counter of a teacher's timetable.
func TimetableRevisionKey(teacherID string) string {
	return "timetable-rev:" + teacherID
}

// RedisCache keeps entries in Redis with a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects and pings the server before returning.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte) error {
	return c.client.Set(ctx, key, value, c.ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *RedisCache) Revision(ctx context.Context, key string) (int64, error) {
	n, err := c.client.Get(ctx, key).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (c *RedisCache) Bump(ctx context.Context, key string) (int64, error) {
	return c.client.Incr(ctx, key).Result()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop is used when no Redis address is configured.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte) error { return nil }
func (Nop) Delete(context.Context, ...string) error { return nil }
func (Nop) Revision(context.Context, string) (int64, error) { return 0, nil }
func (Nop) Bump(context.Context, string) (int64, error) { return 0, nil }
