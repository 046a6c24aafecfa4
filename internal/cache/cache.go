// Package cache is a redis read-through cache for the public listing
// endpoints. Invalidation bumps a version number instead of scanning keys, so
// stale entries simply age out through their TTL.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-charity/internal/logger"
)

const (
	keyPrefix  = "charity:listing"
	versionKey = keyPrefix + ":version"
)

type Cache struct {
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

// Connect dials redis and checks it answers within five seconds.
func Connect(addr string, log *logger.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "",
		DB:       0,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Error("CACHE", fmt.Sprintf("Failed to connect to Redis at %s: %v", addr, err))
		client.Close()
		return nil, err
	}

	log.Info("CACHE", fmt.Sprintf("Connected to Redis at %s for listing cache", addr))
	return client, nil
}

func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	return &Cache{Client: client, TTL: ttl, Logger: log}
}

func (c *Cache) version(ctx context.Context) (int64, error) {
	v, err := c.Client.Get(ctx, versionKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

func entryKey(version int64, name string) string {
	return fmt.Sprintf("%s:v%d:%s", keyPrefix, version, name)
}

// Get decodes the cached value for name into dst. The bool is false on a
// miss. The returned version is the one the lookup ran under; pass it back to
// Set so a fill computed before an Invalidate lands under the retired version.
func (c *Cache) Get(ctx context.Context, name string, dst interface{}) (int64, bool, error) {
	version, err := c.version(ctx)
	if err != nil {
		return 0, false, err
	}
	key := entryKey(version, name)
	raw, err := c.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return version, false, nil
	}
	if err != nil {
		return version, false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		// A value we cannot decode is treated as a miss and overwritten later.
		c.Client.Del(ctx, key)
		return version, false, nil
	}
	return version, true, nil
}

// Set stores v for name under version, normally the one Get returned.
func (c *Cache) Set(ctx context.Context, name string, version int64, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	return c.Client.Set(ctx, entryKey(version, name), raw, c.TTL).Err()
}

// Invalidate makes every cached listing unreachable.
func (c *Cache) Invalidate(ctx context.Context) error {
	if err := c.Client.Incr(ctx, versionKey).Err(); err != nil {
		return err
	}
	if c.Logger != nil {
		c.Logger.Debug("CACHE", "listing cache invalidated")
	}
	return nil
}
