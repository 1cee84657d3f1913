// Package pdf genera la planilla imprimible del inventario físico.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Título + sesión         │  Fecha + total de piezas  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Ubicación | SKU | Descripción | Sistema | Contado    │
//	│  ─────────────────────────────────────────────────────────  │
//	│  FOOTER: QR de la sesión + firma del responsable             │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/pkg/money"
)

var _ ports.CountSheetRenderer = (*CountSheetRenderer)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorStripe  = &props.Color{Red: 235, Green: 240, Blue: 245}
)

// CountSheetRenderer planilla de conteo con Maroto v2.
type CountSheetRenderer struct {
	company string
}

// NewCountSheetRenderer construye el generador; company aparece como autor del documento.
func NewCountSheetRenderer(company string) *CountSheetRenderer {
	return &CountSheetRenderer{company: company}
}

// RenderCountSheet genera el PDF y devuelve sus bytes.
func (g *CountSheetRenderer) RenderCountSheet(sheet dto.StartCountResponse) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("Inventario Físico "+sheet.SessionID, true).
		WithAuthor(nonEmpty(g.company, "Taller"), true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(sheet))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))

	m.AddRows(tableHeaderRow())
	m.AddRows(tableLineRows(sheet.Lines)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(footerRow(sheet))

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar planilla: %w", err)
	}
	return doc.GetBytes(), nil
}

// headerRow: título y sesión (izq), fecha y total de piezas (der).
func headerRow(sheet dto.StartCountResponse) core.Row {
	return row.New(18).Add(
		col.New(7).Add(
			text.New("INVENTARIO FÍSICO", props.Text{
				Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1,
			}),
			text.New("Sesión: "+sheet.SessionID, props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(5).Add(
			text.New("Inicio: "+sheet.StartedAt.Format("02/01/2006 15:04"), props.Text{
				Size: 9, Align: align.Right, Top: 2,
			}),
			text.New("Piezas: "+money.Int(len(sheet.Lines)), props.Text{
				Style: fontstyle.Bold, Size: 9, Align: align.Right, Top: 9,
			}),
		),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Ubicación", 2, align.Left),
		h("SKU", 2, align.Left),
		h("Descripción", 5, align.Left),
		h("Sistema", 1, align.Center),
		h("Contado", 2, align.Center),
	)
}

// tableLineRows: una fila por pieza; la columna Contado queda en blanco para llenar a mano.
func tableLineRows(lines []dto.CountLine) []core.Row {
	result := make([]core.Row, 0, len(lines))
	for i, l := range lines {
		r := row.New(7).Add(
			col.New(2).Add(text.New(nonEmpty(l.Location, "-"), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(l.SKU, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(5).Add(text.New(l.Name, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(1).Add(text.New(money.Int(l.Quantity), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New("______", props.Text{Size: 8, Align: align.Center, Top: 1, Color: colorGray})),
		)
		if i%2 == 1 {
			r.WithStyle(&props.Cell{BackgroundColor: colorStripe})
		}
		result = append(result, r)
	}
	return result
}

// footerRow: QR con el id de sesión para ubicarla al cargar los resultados.
func footerRow(sheet dto.StartCountResponse) core.Row {
	return row.New(40).Add(
		col.New(3).Add(code.NewQr(sheet.SessionID, props.Rect{
			Percent: 90,
			Center:  true,
		})),
		col.New(9).Add(
			text.New("Registrar las cantidades contadas en la sesión indicada.", props.Text{
				Size: 8, Top: 4, Left: 3, Color: colorGray,
			}),
			text.New("Responsable: ______________________________", props.Text{
				Size: 9, Top: 20, Left: 3,
			}),
		),
	)
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
