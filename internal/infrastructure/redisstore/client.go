// Package redisstore guarda en Redis las sesiones de importación/conteo y la caché del portal de precios.
package redisstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix separa las claves del servicio dentro de una instancia compartida.
const keyPrefix = "marina:"

// Options conexión a Redis.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// New abre el cliente y verifica la conexión.
func New(ctx context.Context, opts Options) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}
