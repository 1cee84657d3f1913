package main

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/marina-inventario/internal/infrastructure/redisstore"
	"github.com/jhoicas/marina-inventario/pkg/config"
)

// connectRedis devuelve nil, nil si Redis no está configurado.
func connectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	if cfg.Addr == "" {
		return nil, nil
	}
	return redisstore.New(ctx, redisstore.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}
