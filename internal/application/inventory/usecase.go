package inventory

import (
	"context"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
)

// RegisterMovementFromRequest adapta el request HTTP al caso de uso RegisterMovement.
// Devuelve el movimiento creado con el resumen de la pieza.
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(ctx context.Context, tenantID, actor string, in dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	mov, part, err := uc.record(ctx, MovementInput{
		TenantID:    tenantID,
		Actor:       actor,
		PartID:      in.PartID,
		Type:        entity.MovementType(in.Type),
		Quantity:    in.Quantity,
		Description: in.Description,
	})
	if err != nil {
		return nil, err
	}
	out := toMovementResponse(mov, part)
	return &out, nil
}

// removedPartName texto que se muestra para movimientos de piezas eliminadas.
const removedPartName = "ítem eliminado"

func toMovementResponse(m *entity.StockMovement, part *entity.Part) dto.MovementResponse {
	out := dto.MovementResponse{
		ID:          m.ID,
		PartID:      m.PartID,
		Type:        string(m.Type),
		Quantity:    m.Quantity,
		Delta:       m.SignedDelta(),
		Description: m.Description,
		User:        m.User,
		Date:        m.Date,
	}
	switch {
	case part == nil:
		out.PartName = removedPartName
		out.PartRemoved = true
	case part.IsDeleted():
		out.PartName = removedPartName
		out.PartSKU = part.SKU
		out.PartRemoved = true
	default:
		out.PartName = part.Name
		out.PartSKU = part.SKU
	}
	return out
}
