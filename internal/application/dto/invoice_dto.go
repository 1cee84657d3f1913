package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/marina-inventario/internal/domain/entity"
)

// LinkItemRequest body para vincular un ítem: part_id existente o "NEW".
type LinkItemRequest struct {
	PartID string `json:"part_id" validate:"required"`
}

// ConfirmItemRequest ajustes opcionales al borrador antes de crear la pieza.
type ConfirmItemRequest struct {
	Name     *string          `json:"name"`
	SKU      *string          `json:"sku"`
	Barcode  *string          `json:"barcode"`
	Location *string          `json:"location"`
	Cost     *decimal.Decimal `json:"cost"`
	Price    *decimal.Decimal `json:"price"`
	MinStock *int             `json:"min_stock" validate:"omitempty,min=0"`
}

// InvoiceItemResponse línea de la nota en staging.
type InvoiceItemResponse struct {
	Index    int               `json:"index"`
	Code     string            `json:"code"`
	Barcode  string            `json:"barcode,omitempty"`
	Name     string            `json:"name"`
	Quantity decimal.Decimal   `json:"quantity"`
	UnitCost decimal.Decimal   `json:"unit_cost"`
	Total    decimal.Decimal   `json:"total"`
	State    string            `json:"state"`
	PartID   string            `json:"part_id,omitempty"`
	Draft    *entity.PartDraft `json:"draft,omitempty"`
}

// ImportSessionResponse estado de una sesión de importación.
type ImportSessionResponse struct {
	SessionID  string                `json:"session_id"`
	State      string                `json:"state"`
	Number     string                `json:"number"`
	Supplier   string                `json:"supplier"`
	Date       time.Time             `json:"date"`
	AccessKey  string                `json:"access_key,omitempty"`
	TotalValue decimal.Decimal       `json:"total_value"`
	Linked     int                   `json:"linked"`
	Items      []InvoiceItemResponse `json:"items"`
}

// ItemResult resultado individual de un lote (nota o conteo).
type ItemResult struct {
	Index      int    `json:"index,omitempty"`
	PartID     string `json:"part_id"`
	MovementID string `json:"movement_id,omitempty"`
	Type       string `json:"type,omitempty"`
	Quantity   int    `json:"quantity"`
	Error      string `json:"error,omitempty"`
}

// SubmitInvoiceResponse resumen del envío de la nota al kardex.
type SubmitInvoiceResponse struct {
	SessionID string       `json:"session_id"`
	State     string       `json:"state"`
	Submitted int          `json:"submitted"`
	Failed    int          `json:"failed"`
	Skipped   int          `json:"skipped"`
	Results   []ItemResult `json:"results"`
}
