package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

var _ repository.SessionStore = (*SessionStore)(nil)

type sessionEntry struct {
	data      []byte
	expiresAt time.Time
}

// SessionStore sesiones en memoria del proceso, serializadas en JSON como en Redis.
type SessionStore struct {
	mu      sync.Mutex
	entries map[string]sessionEntry
	now     func() time.Time
}

// NewSessionStore crea el almacén.
func NewSessionStore() *SessionStore {
	return &SessionStore{entries: make(map[string]sessionEntry), now: time.Now}
}

func sessionKey(kind, id string) string { return kind + ":" + id }

// Save guarda el valor con TTL (0 = sin vencimiento).
func (s *SessionStore) Save(_ context.Context, kind, id string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("serializar sesión: %w", err)
	}
	e := sessionEntry{data: data}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.entries[sessionKey(kind, id)] = e
	s.mu.Unlock()
	return nil
}

// Load devuelve domain.ErrNotFound si no existe o venció.
func (s *SessionStore) Load(_ context.Context, kind, id string, dest any) error {
	s.mu.Lock()
	e, ok := s.entries[sessionKey(kind, id)]
	if ok && !e.expiresAt.IsZero() && s.now().After(e.expiresAt) {
		delete(s.entries, sessionKey(kind, id))
		ok = false
	}
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}
	if err := json.Unmarshal(e.data, dest); err != nil {
		return fmt.Errorf("leer sesión: %w", err)
	}
	return nil
}

// Delete elimina la sesión; no falla si no existe.
func (s *SessionStore) Delete(_ context.Context, kind, id string) error {
	s.mu.Lock()
	delete(s.entries, sessionKey(kind, id))
	s.mu.Unlock()
	return nil
}
