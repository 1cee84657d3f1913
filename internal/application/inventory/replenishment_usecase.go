package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	domaininv "github.com/jhoicas/marina-inventario/internal/domain/inventory"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

// ReplenishmentUseCase genera la lista de reposición del taller.
type ReplenishmentUseCase struct {
	partRepo repository.PartRepository
}

// NewReplenishmentUseCase construye el caso de uso de reposición.
func NewReplenishmentUseCase(partRepo repository.PartRepository) *ReplenishmentUseCase {
	return &ReplenishmentUseCase{partRepo: partRepo}
}

// GenerateReplenishmentList devuelve las piezas en o bajo el stock mínimo con la cantidad
// sugerida de pedido. Orden: mayor déficit bajo el mínimo, luego menor cantidad, luego SKU.
func (uc *ReplenishmentUseCase) GenerateReplenishmentList(ctx context.Context, tenantID string) ([]dto.ReplenishmentSuggestionDTO, error) {
	parts, err := uc.partRepo.ListByTenant(ctx, tenantID, repository.PartFilter{})
	if err != nil {
		return nil, fmt.Errorf("listar piezas: %w", err)
	}

	suggestions := make([]dto.ReplenishmentSuggestionDTO, 0)
	for _, p := range parts {
		if !p.IsLowStock() {
			continue
		}
		qty := domaininv.SuggestedOrderQty(p.Quantity, p.MinStock)
		suggestions = append(suggestions, dto.ReplenishmentSuggestionDTO{
			PartID:             p.ID,
			SKU:                p.SKU,
			Name:               p.Name,
			Location:           p.Location,
			Quantity:           p.Quantity,
			MinStock:           p.MinStock,
			SuggestedOrderQty:  qty,
			UnitCost:           p.Cost,
			EstimatedOrderCost: p.Cost.Mul(decimal.NewFromInt(int64(qty))),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		a, b := suggestions[i], suggestions[j]
		defA, defB := a.MinStock-a.Quantity, b.MinStock-b.Quantity
		if defA != defB {
			return defA > defB
		}
		if a.Quantity != b.Quantity {
			return a.Quantity < b.Quantity
		}
		return a.SKU < b.SKU
	})
	for i := range suggestions {
		suggestions[i].Priority = i + 1
	}
	return suggestions, nil
}
