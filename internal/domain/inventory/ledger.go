package inventory

import "github.com/jhoicas/marina-inventario/internal/domain/entity"

// Replay reconstruye la cantidad de una pieza a partir de su cantidad inicial y del kardex.
// Los movimientos de otras piezas se ignoran.
func Replay(partID string, initial int, movements []*entity.StockMovement) int {
	qty := initial
	for _, m := range movements {
		if m == nil || m.PartID != partID {
			continue
		}
		qty += m.SignedDelta()
	}
	return qty
}

// SuggestedOrderQty cantidad sugerida de reposición: max(10, 2*mínimo) - actual, nunca negativa.
func SuggestedOrderQty(quantity, minStock int) int {
	target := minStock * 2
	if target < 10 {
		target = 10
	}
	if s := target - quantity; s > 0 {
		return s
	}
	return 0
}
