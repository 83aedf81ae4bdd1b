package store

import (
	"context"
	"fmt"
	"time"

	"firesafe-engine/internal/config"

	"github.com/go-redis/redis/v8"
)

const pingTimeout = 3 * time.Second

// OpenRedis 创建客户端并 Ping；失败时关闭客户端
func OpenRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis at %s: %w", cfg.Addr, err)
	}
	return client, nil
}
