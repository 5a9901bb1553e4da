package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"product-catalog/internal/domain"

	"github.com/redis/go-redis/v9"
)

const categoriesKey = "categories:all"

// CategoryCache caches the full category list. Implementations must treat a
// miss as (nil, nil) so callers can fall through to storage.
type CategoryCache interface {
	Get(ctx context.Context) ([]*domain.Category, error)
	Set(ctx context.Context, categories []*domain.Category) error
	Invalidate(ctx context.Context) error
	Close() error
}

// RedisCategoryCache stores the category list as a JSON blob with a TTL
type RedisCategoryCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCategoryCache connects to Redis and verifies the connection
func NewRedisCategoryCache(addr, password string, db int, ttl time.Duration) (*RedisCategoryCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCategoryCache{client: client, ttl: ttl}, nil
}

// Client exposes the underlying connection for shared use (rate limiting)
func (c *RedisCategoryCache) Client() *redis.Client {
	return c.client
}

func (c *RedisCategoryCache) Get(ctx context.Context) ([]*domain.Category, error) {
	data, err := c.client.Get(ctx, categoriesKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get categories from cache: %w", err)
	}

	var categories []*domain.Category
	if err := json.Unmarshal(data, &categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached categories: %w", err)
	}

	return categories, nil
}

func (c *RedisCategoryCache) Set(ctx context.Context, categories []*domain.Category) error {
	data, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("failed to marshal categories: %w", err)
	}

	if err := c.client.Set(ctx, categoriesKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to set categories in cache: %w", err)
	}

	return nil
}

func (c *RedisCategoryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, categoriesKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate category cache: %w", err)
	}
	return nil
}

func (c *RedisCategoryCache) Close() error {
	return c.client.Close()
}
