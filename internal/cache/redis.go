package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

type Cache struct {
	client *redis.Client
	prefix string
}

func NewCache(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return fmt.Errorf("cache get %s: %w", key, ErrMiss)
	}
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	return json.Unmarshal(val, dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.client.Set(ctx, c.prefix+key, data, ttl).Err()
}

// SetNX stores value only if key is absent and reports whether it did.
func (c *Cache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal value: %w", err)
	}
	return c.client.SetNX(ctx, c.prefix+key, data, ttl).Result()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Key builds a fixed-size key from arbitrary parts. Each part is length-prefixed
// before hashing so ("ab", "c") and ("a", "bc") never share a key.
func Key(namespace string, parts ...string) string {
	d := xxhash.New()
	for _, p := range parts {
		d.WriteString(strconv.Itoa(len(p)))
		d.WriteString(":")
		d.WriteString(p)
	}
	return namespace + ":" + strconv.FormatUint(d.Sum64(), 16)
}
