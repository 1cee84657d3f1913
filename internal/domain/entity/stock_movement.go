package entity

import "time"

// MovementType tipo de movimiento del kardex. El signo lo determina el tipo.
type MovementType string

// Tipos de movimiento de stock.
const (
	MovementInInvoice       MovementType = "IN_INVOICE"       // entrada por nota fiscal de proveedor
	MovementOutOS           MovementType = "OUT_OS"           // salida por orden de servicio
	MovementAdjustmentPlus  MovementType = "ADJUSTMENT_PLUS"  // ajuste positivo (conteo físico)
	MovementAdjustmentMinus MovementType = "ADJUSTMENT_MINUS" // ajuste negativo (conteo físico)
	MovementReturnOS        MovementType = "RETURN_OS"        // devolución de una orden de servicio
	MovementSaleDirect      MovementType = "SALE_DIRECT"      // venta de mostrador
)

// Valid indica si el tipo es conocido.
func (t MovementType) Valid() bool {
	switch t {
	case MovementInInvoice, MovementOutOS, MovementAdjustmentPlus,
		MovementAdjustmentMinus, MovementReturnOS, MovementSaleDirect:
		return true
	}
	return false
}

// Sign devuelve +1 para entradas y -1 para salidas.
func (t MovementType) Sign() int {
	switch t {
	case MovementInInvoice, MovementAdjustmentPlus, MovementReturnOS:
		return 1
	case MovementOutOS, MovementAdjustmentMinus, MovementSaleDirect:
		return -1
	}
	return 0
}

// StockMovement es una entrada inmutable del kardex.
// Quantity siempre es positiva; el signo lo implica Type.
type StockMovement struct {
	ID          string
	TenantID    string
	PartID      string // se conserva aunque la pieza sea eliminada
	Type        MovementType
	Quantity    int
	Description string
	User        string
	Date        time.Time
}

// SignedDelta devuelve la variación de cantidad que aplica el movimiento.
func (m *StockMovement) SignedDelta() int {
	return m.Type.Sign() * m.Quantity
}
