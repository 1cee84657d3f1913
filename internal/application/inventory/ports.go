package inventory

import (
	"context"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad entre el kardex y la cantidad de la pieza.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		movRepo repository.StockMovementRepository,
		partRepo repository.PartRepository,
	) error) error
}

// Tipos de sesión en el almacén de sesiones.
const (
	sessionKindImport = "import"
	sessionKindCount  = "count"
)

// PartCreator crea piezas con las mismas validaciones del catálogo.
type PartCreator interface {
	CreatePart(ctx context.Context, tenantID string, in dto.CreatePartRequest) (*dto.PartResponse, error)
}
