package redisx

import (
	"context"

	"github.com/redis/go-redis/v9"
)

func New(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// SetNX for dedup: true kalau key baru (event belum pernah diproses).
func MarkOnce(ctx context.Context, rdb *redis.Client, key string) (bool, error) {
	return rdb.SetNX(ctx, key, "1", TTLDedup).Result()
}
