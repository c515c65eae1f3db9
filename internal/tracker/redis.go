package tracker

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisTracker stores in-flight batches in one Redis hash per owner,
// refreshing the key expiry on every write.
type RedisTracker struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisTracker connects to Redis and verifies the connection.
func NewRedisTracker(addr, password string, db int, ttl time.Duration) (*RedisTracker, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	log.Printf("[INFO] redis tracker connected: %s", addr)
	return &RedisTracker{rdb: rdb, ttl: ttl}, nil
}

func key(owner string) string { return "owners:" + owner + ":batches" }

func (t *RedisTracker) Add(ctx context.Context, owner, batchID, params string) error {
	if err := t.rdb.HSet(ctx, key(owner), batchID, params).Err(); err != nil {
		return fmt.Errorf("track batch %s: %w", batchID, err)
	}
	return t.rdb.Expire(ctx, key(owner), t.ttl).Err()
}

func (t *RedisTracker) Pending(ctx context.Context, owner string) (map[string]string, error) {
	res, err := t.rdb.HGetAll(ctx, key(owner)).Result()
	if err != nil {
		return nil, fmt.Errorf("list pending batches: %w", err)
	}
	return res, nil
}

func (t *RedisTracker) Remove(ctx context.Context, owner, batchID string) error {
	return t.rdb.HDel(ctx, key(owner), batchID).Err()
}

func (t *RedisTracker) Close() error {
	log.Println("[INFO] closing redis tracker")
	return t.rdb.Close()
}
