// Package memory implementa los puertos de persistencia en memoria.
// Se usa en tests y como almacén de sesiones cuando no hay Redis.
package memory

import (
	"sync"

	"github.com/jhoicas/marina-inventario/internal/domain/entity"
)

// Store estado compartido por los repositorios en memoria.
type Store struct {
	mu        sync.Mutex
	parts     map[string]*entity.Part
	order     []string // orden de catálogo (inserción)
	movements []*entity.StockMovement

	// FailSetQuantity si no es nil, SetQuantity devuelve este error (simula un fallo de escritura).
	FailSetQuantity error
	// FailUpdatePrices ids de piezas cuya actualización de precios falla.
	FailUpdatePrices map[string]error
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{parts: make(map[string]*entity.Part)}
}

// Parts repositorio de piezas sobre el store.
func (s *Store) Parts() *PartRepository { return &PartRepository{s: s} }

// Movements repositorio del kardex sobre el store.
func (s *Store) Movements() *StockMovementRepository { return &StockMovementRepository{s: s} }

// TxRunner runner transaccional sobre el store.
func (s *Store) TxRunner() *TxRunner { return &TxRunner{s: s} }

// MovementCount cantidad total de movimientos (tests).
func (s *Store) MovementCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.movements)
}

func (s *Store) lock(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

type snapshot struct {
	parts     map[string]*entity.Part
	order     []string
	movements []*entity.StockMovement
}

func (s *Store) snapshot() snapshot {
	parts := make(map[string]*entity.Part, len(s.parts))
	for id, p := range s.parts {
		parts[id] = clonePart(p)
	}
	return snapshot{
		parts:     parts,
		order:     append([]string(nil), s.order...),
		movements: append([]*entity.StockMovement(nil), s.movements...),
	}
}

func (s *Store) restore(snap snapshot) {
	s.parts = snap.parts
	s.order = snap.order
	s.movements = snap.movements
}

func clonePart(p *entity.Part) *entity.Part {
	if p == nil {
		return nil
	}
	c := *p
	c.Compatibility = append([]string(nil), p.Compatibility...)
	if p.LastPriceSyncAt != nil {
		t := *p.LastPriceSyncAt
		c.LastPriceSyncAt = &t
	}
	if p.DeletedAt != nil {
		t := *p.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}
