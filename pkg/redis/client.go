// Package redis builds the shared go-redis client.
package redis

import (
	"context"
	"fmt"

	"github.com/frahmantamala/user-rbac/internal"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient connects to redis and pings it once so a bad address fails at
// startup instead of on the first logout.
func NewClient(ctx context.Context, cfg internal.RedisConfig) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := internal.WithTimeout(ctx, 0)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}
