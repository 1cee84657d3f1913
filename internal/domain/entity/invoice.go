package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice es la representación transitoria de una nota fiscal de proveedor (NF-e)
// mientras se concilian sus ítems contra el catálogo. No se persiste como entidad.
type Invoice struct {
	Number     string          `json:"number"`
	Supplier   string          `json:"supplier"`
	Date       time.Time       `json:"date"`
	AccessKey  string          `json:"access_key,omitempty"`
	Items      []InvoiceItem   `json:"items"`
	TotalValue decimal.Decimal `json:"total_value"`
}

// ImportState estado de una sesión de importación.
type ImportState string

const (
	ImportEmpty     ImportState = "EMPTY"
	ImportParsed    ImportState = "PARSED"
	ImportSubmitted ImportState = "SUBMITTED"
)

// ImportSession nota en conciliación, guardada con TTL en el almacén de sesiones.
type ImportSession struct {
	ID        string      `json:"id"`
	TenantID  string      `json:"tenant_id"`
	State     ImportState `json:"state"`
	Invoice   *Invoice    `json:"invoice"`
	CreatedAt time.Time   `json:"created_at"`
}

// LinkState estado de vinculación de un ítem de la nota.
type LinkState string

const (
	LinkUnlinked      LinkState = "UNLINKED"
	LinkLinked        LinkState = "LINKED"
	LinkPendingCreate LinkState = "PENDING_CREATE"
)

// InvoiceItem línea de la nota. Solo los ítems LINKED generan movimientos.
type InvoiceItem struct {
	Line     int             `json:"line"`              // posición original en la nota
	Code     string          `json:"code"`              // cProd del emisor
	Barcode  string          `json:"barcode,omitempty"` // cEAN, vacío si "SEM GTIN"
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	UnitCost decimal.Decimal `json:"unit_cost"`
	Total    decimal.Decimal `json:"total"`
	State    LinkState       `json:"state"`
	PartID   string          `json:"part_id,omitempty"` // solo con State == LINKED
	Draft    *PartDraft      `json:"draft,omitempty"`   // solo con State == PENDING_CREATE
}

// PartDraft borrador de pieza nueva a partir de un ítem de nota o de un resultado del catálogo externo.
type PartDraft struct {
	Name         string          `json:"name"`
	SKU          string          `json:"sku"`
	Barcode      string          `json:"barcode,omitempty"`
	Manufacturer string          `json:"manufacturer,omitempty"`
	Location     string          `json:"location,omitempty"`
	Cost         decimal.Decimal `json:"cost"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
	MinStock     int             `json:"min_stock"`
	Enriched     bool            `json:"enriched"`
}

// Link vincula el ítem a una pieza existente.
func (it *InvoiceItem) Link(partID string) {
	it.State = LinkLinked
	it.PartID = partID
	it.Draft = nil
}

// Stage deja el ítem pendiente de creación con el borrador dado.
func (it *InvoiceItem) Stage(draft *PartDraft) {
	it.State = LinkPendingCreate
	it.PartID = ""
	it.Draft = draft
}

// Unlink devuelve el ítem al estado sin vincular.
func (it *InvoiceItem) Unlink() {
	it.State = LinkUnlinked
	it.PartID = ""
	it.Draft = nil
}

// IsLinked indica si el ítem entra en el envío al kardex.
func (it *InvoiceItem) IsLinked() bool {
	return it.State == LinkLinked && it.PartID != ""
}

// Recalculate recalcula subtotales y el total de la nota.
func (inv *Invoice) Recalculate() {
	total := decimal.Zero
	for i := range inv.Items {
		inv.Items[i].Total = inv.Items[i].Quantity.Mul(inv.Items[i].UnitCost)
		total = total.Add(inv.Items[i].Total)
	}
	inv.TotalValue = total
}

// LinkedCount cantidad de ítems vinculados.
func (inv *Invoice) LinkedCount() int {
	n := 0
	for i := range inv.Items {
		if inv.Items[i].IsLinked() {
			n++
		}
	}
	return n
}
