package entity

import "github.com/shopspring/decimal"

// CatalogHit resultado del portal de precios del fabricante.
// Los valores *Raw conservan el texto tal como lo devuelve el portal ("R$ 1.234,56").
type CatalogHit struct {
	Code         string          `json:"code"`
	Description  string          `json:"description"`
	RequestedQty string          `json:"requested_qty"`
	Availability string          `json:"availability"`
	SaleRaw      string          `json:"sale_raw"`
	ListRaw      string          `json:"list_raw"`
	CostRaw      string          `json:"cost_raw"`
	SalePrice    decimal.Decimal `json:"sale_price"`
	ListPrice    decimal.Decimal `json:"list_price"`
	CostPrice    decimal.Decimal `json:"cost_price"`
}
