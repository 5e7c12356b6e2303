package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Client struct {
	rdb *redis.Client
}

func Initialize(redisURL string) (*Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	// Test connection
	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// Batch run lock. Only one fulfillment run may hold the lock at a time;
// overlapping cron ticks and manual triggers contend on the same key.
func (c *Client) AcquireBatchLock(ctx context.Context, owner string, ttl time.Duration) (bool, error) {
	ok, err := c.rdb.SetNX(ctx, "fulfillment:lock", owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire batch lock: %w", err)
	}
	return ok, nil
}

func (c *Client) ReleaseBatchLock(ctx context.Context, owner string) error {
	// Release only if we still own the lock; a lock that expired mid-run
	// may have been taken over by another worker.
	val, err := c.rdb.Get(ctx, "fulfillment:lock").Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read batch lock: %w", err)
	}
	if val != owner {
		return nil
	}
	return c.rdb.Del(ctx, "fulfillment:lock").Err()
}

// Stock read cache
func (c *Client) SetStock(productID uint, qty int, ttl time.Duration) error {
	ctx := context.Background()
	key := fmt.Sprintf("stock:%d", productID)
	return c.rdb.Set(ctx, key, qty, ttl).Err()
}

func (c *Client) GetStock(productID uint) (int, error) {
	ctx := context.Background()
	key := fmt.Sprintf("stock:%d", productID)
	val, err := c.rdb.Get(ctx, key).Int()
	if err != nil {
		if err == redis.Nil {
			return 0, fmt.Errorf("stock not cached")
		}
		return 0, fmt.Errorf("failed to get cached stock: %w", err)
	}
	return val, nil
}

func (c *Client) InvalidateStock(productIDs ...uint) error {
	if len(productIDs) == 0 {
		return nil
	}
	ctx := context.Background()
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, fmt.Sprintf("stock:%d", id))
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Close Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}
