package ports

import (
	"io"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
)

// InvoiceParser convierte un documento fiscal de proveedor en la nota de staging.
// Un documento malformado devuelve un error que envuelve domain.ErrParse.
type InvoiceParser interface {
	Parse(r io.Reader) (*entity.Invoice, error)
}

// CountSheetRenderer genera la planilla imprimible de un conteo físico.
type CountSheetRenderer interface {
	RenderCountSheet(sheet dto.StartCountResponse) ([]byte, error)
}

// PartsWorkbook genera la planilla de piezas para descarga y lee la misma planilla para carga masiva.
type PartsWorkbook interface {
	RenderParts(parts []*entity.Part) ([]byte, error)
	ReadParts(r io.Reader) ([]dto.CreatePartRequest, error)
}
