package repository

import (
	"context"
	"time"
)

// SessionStore guarda objetos transitorios (sesiones de importación y de conteo) serializados.
// Load devuelve domain.ErrNotFound si la clave no existe o expiró.
type SessionStore interface {
	Save(ctx context.Context, kind, id string, value any, ttl time.Duration) error
	Load(ctx context.Context, kind, id string, dest any) error
	Delete(ctx context.Context, kind, id string) error
}
