package entity

// EngineWarranty situación de garantía de un motor según el portal del fabricante.
// Las fechas se conservan tal como las muestra el portal (dd/mm/aaaa).
type EngineWarranty struct {
	EngineNumber string `json:"engine_number"` // número consultado
	Serial       string `json:"serial"`
	Model        string `json:"model"`
	SaleDate     string `json:"sale_date"`
	Status       string `json:"status"`
	ValidUntil   string `json:"valid_until"`
	Customer     string `json:"customer,omitempty"`
}
