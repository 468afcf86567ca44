package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Freelancing-tuhin/Hobi-app-server/pkg/redis"
)

const (
	inventoryKeyPrefix = "inventory:remaining:"
	inventoryTTL       = 30 * time.Second
)

// consumeScript decrements a cached remaining count only while it stays
// consistent; a count that would go negative drops the key so the next
// read refills from the database.
const consumeScript = `
local key = KEYS[1]
local count = tonumber(ARGV[1])

local remaining = redis.call("GET", key)
if not remaining then
    return -1
end

remaining = tonumber(remaining)
if remaining < count then
    redis.call("DEL", key)
    return -1
end

return redis.call("DECRBY", key, count)
`

// RedisInventoryCache is an advisory cache of per-tier remaining capacity.
// It sheds obviously sold-out requests before they reach the database;
// the database conditional update stays the source of truth.
type RedisInventoryCache struct {
	client *redis.Client
}

// NewRedisInventoryCache creates a new inventory cache and preloads its script
func NewRedisInventoryCache(ctx context.Context, client *redis.Client) (*RedisInventoryCache, error) {
	if _, err := client.LoadScript(ctx, "inventory_consume", consumeScript); err != nil {
		return nil, fmt.Errorf("failed to load inventory script: %w", err)
	}
	return &RedisInventoryCache{client: client}, nil
}

// Remaining returns the cached remaining count for a tier. The second
// return value is false on a cache miss.
func (c *RedisInventoryCache) Remaining(ctx context.Context, ticketID string) (int, bool) {
	val, err := c.client.Get(ctx, inventoryKeyPrefix+ticketID).Result()
	if err != nil {
		return 0, false
	}
	remaining, err := strconv.Atoi(val)
	if err != nil {
		return 0, false
	}
	return remaining, true
}

// SetRemaining refreshes the cached remaining count for a tier
func (c *RedisInventoryCache) SetRemaining(ctx context.Context, ticketID string, remaining int) error {
	return c.client.Set(ctx, inventoryKeyPrefix+ticketID, remaining, inventoryTTL).Err()
}

// Consume decrements the cached count after a successful settlement.
// A stale or missing entry is dropped rather than corrected.
func (c *RedisInventoryCache) Consume(ctx context.Context, ticketID string, count int) error {
	cmd := c.client.EvalWithFallback(ctx, "inventory_consume", consumeScript,
		[]string{inventoryKeyPrefix + ticketID},
		strconv.Itoa(count),
	)
	if err := cmd.Err(); err != nil && !errors.Is(err, goredis.Nil) {
		return fmt.Errorf("failed to consume cached inventory: %w", err)
	}
	return nil
}

// Invalidate drops the cached count for a tier
func (c *RedisInventoryCache) Invalidate(ctx context.Context, ticketID string) error {
	return c.client.Del(ctx, inventoryKeyPrefix+ticketID).Err()
}
