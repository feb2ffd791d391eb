package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"doc-embeddings/internal/embeddings"
)

// Key prefix for cached vectors
const cacheKeyPrefix = "emb:"

type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new Redis cache client
func NewRedisCache(addr, password string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// GetVectors fetches all keys in one MGET.
func (c *RedisCache) GetVectors(ctx context.Context, model string, texts []string) ([]embeddings.Vector, error) {
	out := make([]embeddings.Vector, len(texts))
	if len(texts) == 0 {
		return out, nil
	}
	keys := make([]string, len(texts))
	for i, t := range texts {
		keys[i] = Key(model, t)
	}

	vals, err := c.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue // miss
		}
		var vec embeddings.Vector
		if err := json.Unmarshal([]byte(s), &vec); err != nil {
			continue // treat corrupt entries as misses
		}
		out[i] = vec
	}
	return out, nil
}

// SetVectors writes all entries in one pipeline.
func (c *RedisCache) SetVectors(ctx context.Context, model string, texts []string, vectors []embeddings.Vector, ttl time.Duration) error {
	if len(texts) != len(vectors) {
		return fmt.Errorf("cache: %d texts but %d vectors", len(texts), len(vectors))
	}
	pipe := c.client.Pipeline()
	for i, t := range texts {
		data, err := json.Marshal(vectors[i])
		if err != nil {
			return err
		}
		pipe.Set(ctx, Key(model, t), data, ttl)
	}
	if len(texts) == 0 {
		return nil
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Close closes the cache connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
