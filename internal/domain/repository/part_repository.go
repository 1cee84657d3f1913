package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marina-inventario/internal/domain/entity"
)

// PartFilter filtros opcionales del listado de piezas.
type PartFilter struct {
	Search        string // nombre, SKU o código de barras
	Group         string
	Subgroup      string
	Compatibility string
}

// PartRepository define el puerto de persistencia para Part (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si la pieza no existe o fue eliminada.
type PartRepository interface {
	Create(ctx context.Context, part *entity.Part) error
	GetByID(ctx context.Context, tenantID, id string) (*entity.Part, error)
	// GetForUpdate bloquea la fila (SELECT FOR UPDATE); solo dentro de una transacción.
	GetForUpdate(ctx context.Context, tenantID, id string) (*entity.Part, error)
	GetBySKU(ctx context.Context, tenantID, sku string) (*entity.Part, error)
	// FindByCode piezas vivas cuyo SKU o código de barras coincide, en orden de catálogo.
	FindByCode(ctx context.Context, tenantID, code string) ([]*entity.Part, error)
	ListByTenant(ctx context.Context, tenantID string, filter PartFilter) ([]*entity.Part, error)
	// ListByIDs incluye piezas eliminadas (para resolver el kardex histórico).
	ListByIDs(ctx context.Context, tenantID string, ids []string) ([]*entity.Part, error)
	// Update persiste campos de catálogo; falla con ErrConflict si Version no coincide.
	Update(ctx context.Context, part *entity.Part) error
	UpdatePrices(ctx context.Context, tenantID, id string, cost, price decimal.Decimal, syncedAt time.Time) error
	SetQuantity(ctx context.Context, tenantID, id string, quantity int) error
	SoftDelete(ctx context.Context, tenantID, id string, at time.Time) (bool, error)
}
