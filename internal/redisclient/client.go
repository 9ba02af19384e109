package redisclient

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

// Client caches pool availability snapshots and holds idempotency keys.
// The database rows stay authoritative for every reservation; Redis only
// serves reads that tolerate staleness (capacity display, duplicate-order
// detection).
type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client.
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client.
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SetAvailability mirrors one pool's available counts into a hash.
func (c *Client) SetAvailability(ctx context.Context, pool string, counts map[string]int) error {
	key := fmt.Sprintf("availability:%s", pool)

	pipe := c.rdb.Pipeline()
	for item, count := range counts {
		pipe.HSet(ctx, key, item, count)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// GetAvailability returns one pool's cached available counts. An empty map
// means the snapshot was never written.
func (c *Client) GetAvailability(ctx context.Context, pool string) (map[string]int, error) {
	key := fmt.Sprintf("availability:%s", pool)

	raw, err := c.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int, len(raw))
	for item, value := range raw {
		count, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("bad availability value for %s/%s: %w", pool, item, err)
		}
		counts[item] = count
	}
	return counts, nil
}

// SetHoneyAvailability mirrors a flavor's available weight.
func (c *Client) SetHoneyAvailability(ctx context.Context, flavor, kg string) error {
	return c.rdb.HSet(ctx, "availability:HONEY", flavor, kg).Err()
}

// GetHoneyAvailability returns a flavor's cached available weight, or ""
// when never written.
func (c *Client) GetHoneyAvailability(ctx context.Context, flavor string) (string, error) {
	kg, err := c.rdb.HGet(ctx, "availability:HONEY", flavor).Result()
	if err == redis.Nil {
		return "", nil
	}
	return kg, err
}

// SetIdempotencyKey stores an idempotency key with TTL.
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.rdb.Set(ctx, fmt.Sprintf("idempotency:%s", key), value, ttl).Err()
}

// CheckIdempotencyKey checks if an idempotency key exists.
func (c *Client) CheckIdempotencyKey(ctx context.Context, key string) (bool, error) {
	result, err := c.rdb.Exists(ctx, fmt.Sprintf("idempotency:%s", key)).Result()
	if err != nil {
		return false, err
	}
	return result > 0, nil
}
