package dto

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/marina-inventario/internal/domain/entity"
)

// CatalogSearchResponse resultados del portal de precios.
type CatalogSearchResponse struct {
	Code    string              `json:"code"`
	Results []entity.CatalogHit `json:"results"`
}

// SyncPartRequest aplica un resultado del portal a la pieza con el mismo código.
type SyncPartRequest struct {
	Code        string `json:"code" validate:"required"`
	Description string `json:"description"`
	CostRaw     string `json:"cost_raw"`
	SaleRaw     string `json:"sale_raw"`
	Confirm     bool   `json:"confirm"`
}

// Estados de SyncPartResponse.
const (
	SyncConfirmationRequired = "CONFIRMATION_REQUIRED"
	SyncUpdated              = "UPDATED"
	SyncDraft                = "DRAFT"
)

// SyncPartResponse resultado de aplicar un resultado del portal.
type SyncPartResponse struct {
	Status   string            `json:"status"`
	PartID   string            `json:"part_id,omitempty"`
	OldCost  decimal.Decimal   `json:"old_cost"`
	OldPrice decimal.Decimal   `json:"old_price"`
	NewCost  decimal.Decimal   `json:"new_cost"`
	NewPrice decimal.Decimal   `json:"new_price"`
	Draft    *entity.PartDraft `json:"draft,omitempty"`
}

// BatchSyncRequest ids seleccionados; vacío = todas las piezas de la marca configurada.
type BatchSyncRequest struct {
	PartIDs []string `json:"part_ids"`
}

// Estados por pieza del lote.
const (
	BatchStatusLoading = "loading"
	BatchStatusSuccess = "success"
	BatchStatusError   = "error"
)

// BatchSyncItem estado final de una pieza del lote.
type BatchSyncItem struct {
	PartID   string          `json:"part_id"`
	SKU      string          `json:"sku"`
	Status   string          `json:"status"`
	Reason   string          `json:"reason,omitempty"` // not_found, parse_error, error
	NewCost  decimal.Decimal `json:"new_cost"`
	NewPrice decimal.Decimal `json:"new_price"`
}

// BatchSyncResponse resumen del lote.
type BatchSyncResponse struct {
	Updated int             `json:"updated"`
	Failed  int             `json:"failed"`
	Results []BatchSyncItem `json:"results"`
}
