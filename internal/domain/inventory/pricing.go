package inventory

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// MarkupFactor margen aplicado cuando costo y precio se guardan iguales (60%).
	MarkupFactor = decimal.RequireFromString("1.60")
	// InvoiceDraftFactor margen por defecto al crear una pieza desde una nota (100%).
	InvoiceDraftFactor = decimal.NewFromInt(2)
)

// ApplyMarkupGuard corrige el precio cuando la edición lo deja igual al costo.
// Solo actúa si cost == price y cost > 0; devuelve el precio a persistir y si hubo corrección.
func ApplyMarkupGuard(cost, price decimal.Decimal) (decimal.Decimal, bool) {
	if cost.Equal(price) && cost.GreaterThan(decimal.Zero) {
		return cost.Mul(MarkupFactor), true
	}
	return price, false
}

// DraftPrice precio sugerido para una pieza nueva creada desde una nota fiscal.
func DraftPrice(unitCost decimal.Decimal) decimal.Decimal {
	return unitCost.Mul(InvoiceDraftFactor)
}

// ParseCurrency interpreta montos con formato brasileño ("R$ 1.234,56" -> 1234.56).
// Quita el símbolo, los separadores de miles y usa la coma como separador decimal.
// Una cadena vacía vale cero.
func ParseCurrency(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "R$", "")
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, nil
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("monto %q: %w", raw, err)
	}
	return d, nil
}

// DefaultManufacturer fabricante asumido para piezas del catálogo del concesionario.
const DefaultManufacturer = "Mercury"

// accessoryBrands marcas de accesorios reconocibles por el nombre de la pieza.
var accessoryBrands = []string{"ATTWOOD", "SEACHOICE", "QUICKSILVER"}

// InferManufacturer deduce el fabricante por el nombre; si no reconoce ninguna marca devuelve fallback.
func InferManufacturer(name, fallback string) string {
	upper := strings.ToUpper(name)
	for _, b := range accessoryBrands {
		if strings.Contains(upper, b) {
			return strings.ToUpper(b[:1]) + strings.ToLower(b[1:])
		}
	}
	return fallback
}
