// Package cachestore picks the store behind the HTTP response cache
package cachestore

import (
	"context"
	"fmt"
	"time"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/go-redis/redis/v8"

	"luxwise/cv-back/config"
)

const dialTimeout = 2 * time.Second

// New returns the store selected by cache.type. The returned close func
// releases the redis connection pool and is a no-op for the memory store.
func New(ctx context.Context, cfg *config.Config) (persist.CacheStore, func() error, error) {
	if cfg.CacheType != "redis" {
		return persist.NewMemoryStore(time.Minute), func() error { return nil }, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.CacheRedisAddr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  dialTimeout,
		WriteTimeout: dialTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis ping failed, %w", err)
	}

	return persist.NewRedisStore(client), client.Close, nil
}
