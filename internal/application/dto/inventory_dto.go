package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterMovementRequest body para POST /api/inventory/movements.
type RegisterMovementRequest struct {
	PartID      string `json:"part_id" validate:"required"`
	Type        string `json:"type" validate:"required,oneof=IN_INVOICE OUT_OS ADJUSTMENT_PLUS ADJUSTMENT_MINUS RETURN_OS SALE_DIRECT"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	Description string `json:"description" validate:"max=500"`
}

// MovementResponse entrada del kardex con el resumen de la pieza.
// PartRemoved es true cuando la pieza fue eliminada del catálogo.
type MovementResponse struct {
	ID          string    `json:"id"`
	PartID      string    `json:"part_id"`
	PartName    string    `json:"part_name"`
	PartSKU     string    `json:"part_sku,omitempty"`
	PartRemoved bool      `json:"part_removed"`
	Type        string    `json:"type"`
	Quantity    int       `json:"quantity"`
	Delta       int       `json:"delta"`
	Description string    `json:"description"`
	User        string    `json:"user"`
	Date        time.Time `json:"date"`
}

// MovementListQuery filtros del kardex. Sin limit se devuelve el historial completo.
type MovementListQuery struct {
	PartID string `query:"part_id"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit" validate:"min=0"`
	Offset int    `query:"offset" validate:"min=0"`
}

// MovementListResponse página del kardex; Page.Total cuenta todos los movimientos del filtro.
type MovementListResponse struct {
	Items []MovementResponse `json:"items"`
	Page  PageResponse       `json:"page"`
}

// LedgerAuditResponse resultado de reconstruir la cantidad desde el kardex.
type LedgerAuditResponse struct {
	PartID          string `json:"part_id"`
	InitialQuantity int    `json:"initial_quantity"`
	LedgerDelta     int    `json:"ledger_delta"`
	Reconstructed   int    `json:"reconstructed"`
	Stored          int    `json:"stored"`
	Consistent      bool   `json:"consistent"`
	Movements       int    `json:"movements"`
}

// ReplenishmentSuggestionDTO pieza en o bajo el stock mínimo con la cantidad sugerida de pedido.
type ReplenishmentSuggestionDTO struct {
	PartID             string          `json:"part_id"`
	SKU                string          `json:"sku"`
	Name               string          `json:"name"`
	Location           string          `json:"location,omitempty"`
	Quantity           int             `json:"quantity"`
	MinStock           int             `json:"min_stock"`
	SuggestedOrderQty  int             `json:"suggested_order_qty"` // max(10, 2*mínimo) - actual
	UnitCost           decimal.Decimal `json:"unit_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"` // SuggestedOrderQty * UnitCost
	Priority           int             `json:"priority"`             // 1 = más urgente
}
