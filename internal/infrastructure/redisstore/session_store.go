package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore sesiones serializadas en JSON con vencimiento nativo de Redis.
type SessionStore struct {
	client redis.UniversalClient
}

// NewSessionStore construye el almacén.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

func sessionKey(kind, id string) string {
	return keyPrefix + "session:" + kind + ":" + id
}

// Save guarda el valor; ttl 0 deja la clave sin vencimiento.
func (s *SessionStore) Save(ctx context.Context, kind, id string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("serializar sesión: %w", err)
	}
	if err := s.client.Set(ctx, sessionKey(kind, id), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", kind, err)
	}
	return nil
}

// Load devuelve domain.ErrNotFound si la clave no existe o venció.
func (s *SessionStore) Load(ctx context.Context, kind, id string, dest any) error {
	data, err := s.client.Get(ctx, sessionKey(kind, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", kind, err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("leer sesión: %w", err)
	}
	return nil
}

// Delete elimina la sesión.
func (s *SessionStore) Delete(ctx context.Context, kind, id string) error {
	if err := s.client.Del(ctx, sessionKey(kind, id)).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", kind, err)
	}
	return nil
}
