package memory

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

var _ repository.PartRepository = (*PartRepository)(nil)

// PartRepository implementación en memoria de repository.PartRepository.
type PartRepository struct {
	s    *Store
	inTx bool
}

// Create inserta la pieza. SKU y código de barras son únicos entre las piezas vivas.
func (r *PartRepository) Create(_ context.Context, part *entity.Part) error {
	defer r.s.lock(r.inTx)()
	if _, ok := r.s.parts[part.ID]; ok {
		return domain.ErrDuplicate
	}
	if r.conflicts(part) {
		return domain.ErrDuplicate
	}
	r.s.parts[part.ID] = clonePart(part)
	r.s.order = append(r.s.order, part.ID)
	return nil
}

func (r *PartRepository) conflicts(part *entity.Part) bool {
	for _, p := range r.s.parts {
		if p.ID == part.ID || p.IsDeleted() || p.TenantID != part.TenantID {
			continue
		}
		if p.SKU == part.SKU || (part.Barcode != "" && p.Barcode == part.Barcode) {
			return true
		}
	}
	return false
}

func (r *PartRepository) live(tenantID, id string) *entity.Part {
	p, ok := r.s.parts[id]
	if !ok || p.TenantID != tenantID || p.IsDeleted() {
		return nil
	}
	return p
}

// GetByID devuelve (nil, nil) si no existe o fue eliminada.
func (r *PartRepository) GetByID(_ context.Context, tenantID, id string) (*entity.Part, error) {
	defer r.s.lock(r.inTx)()
	return clonePart(r.live(tenantID, id)), nil
}

// GetForUpdate en memoria el bloqueo lo da el TxRunner.
func (r *PartRepository) GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Part, error) {
	return r.GetByID(ctx, tenantID, id)
}

// GetBySKU pieza viva con el SKU dado.
func (r *PartRepository) GetBySKU(_ context.Context, tenantID, sku string) (*entity.Part, error) {
	defer r.s.lock(r.inTx)()
	for _, id := range r.s.order {
		if p := r.live(tenantID, id); p != nil && p.SKU == sku {
			return clonePart(p), nil
		}
	}
	return nil, nil
}

// FindByCode piezas vivas con SKU o código de barras igual a code, en orden de catálogo.
func (r *PartRepository) FindByCode(_ context.Context, tenantID, code string) ([]*entity.Part, error) {
	defer r.s.lock(r.inTx)()
	var out []*entity.Part
	for _, id := range r.s.order {
		if p := r.live(tenantID, id); p != nil && p.MatchesCode(code) {
			out = append(out, clonePart(p))
		}
	}
	return out, nil
}

// ListByTenant piezas vivas filtradas, en orden de catálogo.
func (r *PartRepository) ListByTenant(_ context.Context, tenantID string, f repository.PartFilter) ([]*entity.Part, error) {
	defer r.s.lock(r.inTx)()
	out := make([]*entity.Part, 0)
	for _, id := range r.s.order {
		p := r.live(tenantID, id)
		if p == nil || !matchesFilter(p, f) {
			continue
		}
		out = append(out, clonePart(p))
	}
	return out, nil
}

func matchesFilter(p *entity.Part, f repository.PartFilter) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.SKU), q) &&
			!strings.Contains(strings.ToLower(p.Barcode), q) {
			return false
		}
	}
	if f.Group != "" && !strings.EqualFold(p.Group, f.Group) {
		return false
	}
	if f.Subgroup != "" && !strings.EqualFold(p.Subgroup, f.Subgroup) {
		return false
	}
	if f.Compatibility != "" {
		q := strings.ToLower(f.Compatibility)
		found := false
		for _, tag := range p.Compatibility {
			if strings.Contains(strings.ToLower(tag), q) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// ListByIDs incluye piezas eliminadas.
func (r *PartRepository) ListByIDs(_ context.Context, tenantID string, ids []string) ([]*entity.Part, error) {
	defer r.s.lock(r.inTx)()
	out := make([]*entity.Part, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.parts[id]; ok && p.TenantID == tenantID {
			out = append(out, clonePart(p))
		}
	}
	return out, nil
}

// Update persiste campos de catálogo (no la cantidad) y avanza la versión.
func (r *PartRepository) Update(_ context.Context, part *entity.Part) error {
	defer r.s.lock(r.inTx)()
	stored := r.live(part.TenantID, part.ID)
	if stored == nil {
		return domain.ErrNotFound
	}
	if stored.Version != part.Version {
		return domain.ErrConflict
	}
	if r.conflicts(part) {
		return domain.ErrDuplicate
	}
	qty, initial, created := stored.Quantity, stored.InitialQuantity, stored.CreatedAt
	next := clonePart(part)
	next.Quantity, next.InitialQuantity, next.CreatedAt = qty, initial, created
	next.Version = stored.Version + 1
	r.s.parts[part.ID] = next
	part.Version = next.Version
	part.Quantity = qty
	return nil
}

// UpdatePrices actualiza costo y precio y marca la fecha de sincronización.
func (r *PartRepository) UpdatePrices(_ context.Context, tenantID, id string, cost, price decimal.Decimal, syncedAt time.Time) error {
	defer r.s.lock(r.inTx)()
	if err := r.s.FailUpdatePrices[id]; err != nil {
		return err
	}
	p := r.live(tenantID, id)
	if p == nil {
		return domain.ErrNotFound
	}
	p.Cost, p.Price = cost, price
	t := syncedAt
	p.LastPriceSyncAt = &t
	p.UpdatedAt = syncedAt
	return nil
}

// SetQuantity fija la cantidad. Solo la usa el motor del kardex.
func (r *PartRepository) SetQuantity(_ context.Context, tenantID, id string, quantity int) error {
	defer r.s.lock(r.inTx)()
	if r.s.FailSetQuantity != nil {
		return r.s.FailSetQuantity
	}
	p := r.live(tenantID, id)
	if p == nil {
		return domain.ErrNotFound
	}
	p.Quantity = quantity
	return nil
}

// SoftDelete marca la pieza como eliminada. false si no existía o ya estaba eliminada.
func (r *PartRepository) SoftDelete(_ context.Context, tenantID, id string, at time.Time) (bool, error) {
	defer r.s.lock(r.inTx)()
	p := r.live(tenantID, id)
	if p == nil {
		return false, nil
	}
	t := at
	p.DeletedAt = &t
	return true, nil
}
