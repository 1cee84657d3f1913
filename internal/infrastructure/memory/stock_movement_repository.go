package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

var _ repository.StockMovementRepository = (*StockMovementRepository)(nil)

// StockMovementRepository kardex en memoria: solo inserción y lectura.
type StockMovementRepository struct {
	s    *Store
	inTx bool
}

// Create agrega el movimiento.
func (r *StockMovementRepository) Create(_ context.Context, m *entity.StockMovement) error {
	defer r.s.lock(r.inTx)()
	c := *m
	r.s.movements = append(r.s.movements, &c)
	return nil
}

// List del más reciente al más antiguo.
func (r *StockMovementRepository) List(_ context.Context, tenantID string, f repository.MovementFilter) ([]*entity.StockMovement, error) {
	defer r.s.lock(r.inTx)()
	out := make([]*entity.StockMovement, 0)
	for i := len(r.s.movements) - 1; i >= 0; i-- {
		m := r.s.movements[i]
		if !matches(m, tenantID, f) {
			continue
		}
		c := *m
		out = append(out, &c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date.After(out[j].Date) })

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []*entity.StockMovement{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// Count movimientos del filtro sin paginar.
func (r *StockMovementRepository) Count(_ context.Context, tenantID string, f repository.MovementFilter) (int, error) {
	defer r.s.lock(r.inTx)()
	n := 0
	for _, m := range r.s.movements {
		if matches(m, tenantID, f) {
			n++
		}
	}
	return n, nil
}

func matches(m *entity.StockMovement, tenantID string, f repository.MovementFilter) bool {
	switch {
	case m.TenantID != tenantID:
		return false
	case f.PartID != "" && m.PartID != f.PartID:
		return false
	case f.From != nil && m.Date.Before(*f.From):
		return false
	case f.To != nil && m.Date.After(*f.To):
		return false
	}
	return true
}
