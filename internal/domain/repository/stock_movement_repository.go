package repository

import (
	"context"
	"time"

	"github.com/jhoicas/marina-inventario/internal/domain/entity"
)

// MovementFilter filtros del kardex. Limit 0 = sin límite.
type MovementFilter struct {
	PartID string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// StockMovementRepository puerto del kardex. Solo inserción y lectura: no hay update ni delete.
type StockMovementRepository interface {
	Create(ctx context.Context, movement *entity.StockMovement) error
	// List devuelve los movimientos del más reciente al más antiguo.
	List(ctx context.Context, tenantID string, filter MovementFilter) ([]*entity.StockMovement, error)
	// Count cuenta los movimientos del filtro ignorando Limit y Offset.
	Count(ctx context.Context, tenantID string, filter MovementFilter) (int, error)
}
