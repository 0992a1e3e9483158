package common

import (
	"context"
	"fmt"
	"time"

	"github.com/lgulliver/cargolifter/pkg/config"
	"github.com/redis/go-redis/v9"
)

const publishedKeyPrefix = "cargolifter:published:"

// Cache remembers crate versions known to be in the index
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects to Redis and checks the connection
func NewCache(cfg *config.RedisConfig) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Cache{client: client, ttl: cfg.TTL}, nil
}

func publishedKey(name, vers string) string {
	return publishedKeyPrefix + name + ":" + vers
}

// IsPublished reports whether the version was marked as published
func (c *Cache) IsPublished(ctx context.Context, name, vers string) (bool, error) {
	count, err := c.client.Exists(ctx, publishedKey(name, vers)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to query cache: %w", err)
	}
	return count > 0, nil
}

// MarkPublished records the version for the configured TTL; a zero TTL
// keeps it forever
func (c *Cache) MarkPublished(ctx context.Context, name, vers string) error {
	if err := c.client.Set(ctx, publishedKey(name, vers), "1", c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to update cache: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *Cache) Close() error {
	return c.client.Close()
}
