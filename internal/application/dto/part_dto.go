package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreatePartRequest entrada para crear una pieza.
type CreatePartRequest struct {
	SKU           string          `json:"sku" validate:"required,max=100"`
	Barcode       string          `json:"barcode" validate:"max=100"`
	Name          string          `json:"name" validate:"required,max=200"`
	Manufacturer  string          `json:"manufacturer"`
	Group         string          `json:"group"`
	Subgroup      string          `json:"subgroup"`
	Compatibility []string        `json:"compatibility"`
	Location      string          `json:"location"`
	Cost          decimal.Decimal `json:"cost"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity" validate:"min=0"`
	MinStock      int             `json:"min_stock" validate:"min=0"`
}

// UpdatePartRequest entrada para editar una pieza (sin Quantity: solo cambia vía movimientos).
// Version es opcional; si viene, la edición falla con conflicto si otro usuario guardó antes.
type UpdatePartRequest struct {
	SKU           *string          `json:"sku" validate:"omitempty,min=1,max=100"`
	Barcode       *string          `json:"barcode"`
	Name          *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Manufacturer  *string          `json:"manufacturer"`
	Group         *string          `json:"group"`
	Subgroup      *string          `json:"subgroup"`
	Compatibility []string         `json:"compatibility"`
	Location      *string          `json:"location"`
	Cost          *decimal.Decimal `json:"cost"`
	Price         *decimal.Decimal `json:"price"`
	MinStock      *int             `json:"min_stock" validate:"omitempty,min=0"`
	Version       *int             `json:"version"`
}

// PartListQuery filtros del listado.
type PartListQuery struct {
	Search        string `query:"q"`
	Group         string `query:"group"`
	Subgroup      string `query:"subgroup"`
	Compatibility string `query:"compatibility"`
}

// PartResponse salida de una pieza.
type PartResponse struct {
	ID              string          `json:"id"`
	SKU             string          `json:"sku"`
	Barcode         string          `json:"barcode,omitempty"`
	Name            string          `json:"name"`
	Manufacturer    string          `json:"manufacturer,omitempty"`
	Group           string          `json:"group,omitempty"`
	Subgroup        string          `json:"subgroup,omitempty"`
	Compatibility   []string        `json:"compatibility"`
	Location        string          `json:"location,omitempty"`
	Cost            decimal.Decimal `json:"cost"`
	Price           decimal.Decimal `json:"price"`
	Quantity        int             `json:"quantity"`
	MinStock        int             `json:"min_stock"`
	LowStock        bool            `json:"low_stock"`
	Version         int             `json:"version"`
	LastPriceSyncAt *time.Time      `json:"last_price_sync_at,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// PartListResponse listado completo de piezas del tenant.
type PartListResponse struct {
	Items []PartResponse `json:"items"`
	Total int            `json:"total"`
}

// ImportRowError fila de la planilla que no se pudo cargar. Row es la fila de Excel (1 = encabezado).
type ImportRowError struct {
	Row   int    `json:"row"`
	SKU   string `json:"sku,omitempty"`
	Error string `json:"error"`
}

// ImportPartsResponse resumen de la carga masiva de piezas.
type ImportPartsResponse struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Failed  []ImportRowError `json:"failed"`
}
