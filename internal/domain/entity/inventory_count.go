package entity

import "time"

// CountSession sesión de inventario físico: foto de cantidades al iniciar el conteo.
type CountSession struct {
	ID        string         `json:"id"`
	TenantID  string         `json:"tenant_id"`
	StartedAt time.Time      `json:"started_at"`
	Baseline  map[string]int `json:"baseline"` // partID -> cantidad al iniciar
}

// CountAdjustment diferencia detectada para una pieza al cerrar el conteo.
type CountAdjustment struct {
	PartID   string
	Counted  int
	Current  int
	Type     MovementType
	Quantity int
}

// DiffCount compara lo contado con la cantidad actual.
// Devuelve ok=false si no hay divergencia.
func DiffCount(partID string, counted, current int) (CountAdjustment, bool) {
	diff := counted - current
	if diff == 0 {
		return CountAdjustment{}, false
	}
	adj := CountAdjustment{PartID: partID, Counted: counted, Current: current}
	if diff > 0 {
		adj.Type = MovementAdjustmentPlus
		adj.Quantity = diff
	} else {
		adj.Type = MovementAdjustmentMinus
		adj.Quantity = -diff
	}
	return adj, true
}
