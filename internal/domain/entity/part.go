package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Part representa una pieza del inventario del taller (un SKU por tenant).
// Quantity solo cambia a través de movimientos del kardex; las ediciones de catálogo no la tocan.
type Part struct {
	ID              string
	TenantID        string
	SKU             string // código único por tenant
	Barcode         string // opcional, único si está presente
	Name            string
	Manufacturer    string
	Group           string
	Subgroup        string
	Compatibility   []string // modelos de motor/embarcación compatibles
	Location        string   // estante o bin
	Cost            decimal.Decimal
	Price           decimal.Decimal
	Quantity        int
	InitialQuantity int // cantidad al crear; base para reconstruir desde el kardex
	MinStock        int
	Version         int // control optimista para ediciones de catálogo
	LastPriceSyncAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       *time.Time
}

// IsDeleted indica si la pieza fue dada de baja (borrado lógico).
func (p *Part) IsDeleted() bool {
	return p != nil && p.DeletedAt != nil
}

// IsLowStock indica si la cantidad está en o por debajo del mínimo.
func (p *Part) IsLowStock() bool {
	return p.Quantity <= p.MinStock
}

// MatchesCode compara el código de un documento externo contra SKU o código de barras.
func (p *Part) MatchesCode(code string) bool {
	if code == "" {
		return false
	}
	return p.SKU == code || (p.Barcode != "" && p.Barcode == code)
}
