package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/redis/go-redis/v9"
)

// Nil is returned by Get when the key does not exist.
const Nil = redis.Nil

type Config struct {
	Host     string
	Port     int
	Password string
	DB       int
	// KeyPrefix namespaces every key so several services can share one instance
	KeyPrefix string
}

// Client is the reference data cache. Every key it reads or writes carries the
// configured prefix.
type Client struct {
	rdb    *redis.Client
	prefix string
	logger ectologger.Logger
}

// NewClient connects and pings before returning.
func NewClient(cfg Config, logger ectologger.Logger) (*Client, error) {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	logger.WithFields(map[string]any{
		"addr":       addr,
		"db":         cfg.DB,
		"key_prefix": cfg.KeyPrefix,
	}).Info("Connected to Redis")

	return &Client{
		rdb:    rdb,
		prefix: cfg.KeyPrefix,
		logger: logger,
	}, nil
}

func (c *Client) Close() error {
	return c.rdb.Close()
}

// Ping is used by the readiness check.
func (c *Client) Ping() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, c.prefix+key).Result()
}

func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.rdb.Set(ctx, c.prefix+key, value, ttl).Err()
}

// Invalidate drops cached keys, e.g. after reference codes are edited.
func (c *Client) Invalidate(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, key := range keys {
		prefixed[i] = c.prefix + key
	}
	return c.rdb.Del(ctx, prefixed...).Err()
}
