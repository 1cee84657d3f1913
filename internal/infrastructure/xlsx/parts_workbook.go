// Package xlsx exporta e importa el catálogo de piezas en planilla Excel.
package xlsx

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/inventory"
)

var _ ports.PartsWorkbook = (*PartsWorkbook)(nil)

const sheetName = "Pecas"

var header = []interface{}{
	"sku", "codigo_barras", "nombre", "fabricante", "grupo", "subgrupo",
	"compatibilidad", "ubicacion", "costo", "precio", "cantidad", "minimo", "bajo_stock",
}

// PartsWorkbook genera el .xlsx con una fila por pieza.
type PartsWorkbook struct{}

// NewPartsWorkbook construye el exportador.
func NewPartsWorkbook() *PartsWorkbook { return &PartsWorkbook{} }

// RenderParts arma el libro en memoria y devuelve sus bytes.
func (w *PartsWorkbook) RenderParts(parts []*entity.Part) ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(f.GetActiveSheetIndex()), sheetName); err != nil {
		return nil, fmt.Errorf("xlsx: hoja: %w", err)
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return nil, fmt.Errorf("xlsx: encabezado: %w", err)
	}

	moneyFmt := "#,##0.00"
	moneyStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("xlsx: estilo: %w", err)
	}
	_ = f.SetRowStyle(sheetName, 1, 1, boldStyle)

	row := 2
	for _, p := range parts {
		cost, _ := p.Cost.Float64()
		price, _ := p.Price.Float64()
		lowStock := "no"
		if p.IsLowStock() {
			lowStock = "sí"
		}
		excelRow := []interface{}{
			p.SKU, p.Barcode, p.Name, p.Manufacturer, p.Group, p.Subgroup,
			strings.Join(p.Compatibility, ", "), p.Location,
			cost, price, p.Quantity, p.MinStock, lowStock,
		}
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return nil, fmt.Errorf("xlsx: celda: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &excelRow); err != nil {
			return nil, fmt.Errorf("xlsx: fila %d: %w", row, err)
		}
		row++
	}
	if row > 2 {
		if err := f.SetCellStyle(sheetName, "I2", fmt.Sprintf("J%d", row-1), moneyStyle); err != nil {
			return nil, fmt.Errorf("xlsx: formato: %w", err)
		}
	}
	_ = f.SetColWidth(sheetName, "C", "C", 40)
	_ = f.AutoFilter(sheetName, fmt.Sprintf("A1:M%d", max(row-1, 1)), nil)

	buf := &bytes.Buffer{}
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("xlsx: escribir: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadParts lee la primera hoja buscando las columnas por nombre de encabezado,
// así acepta tanto la planilla exportada como una con columnas reordenadas o de menos.
// Las filas sin sku ni nombre se saltan.
func (w *PartsWorkbook) ReadParts(r io.Reader) ([]dto.CreatePartRequest, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: planilla ilegible: %v", domain.ErrParse, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(f.GetSheetName(0), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: planilla vacía", domain.ErrParse)
	}
	cols := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := cols["sku"]; !ok {
		return nil, fmt.Errorf("%w: falta la columna sku", domain.ErrParse)
	}

	out := make([]dto.CreatePartRequest, 0, len(rows)-1)
	for n, row := range rows[1:] {
		get := func(col string) string {
			i, ok := cols[col]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}
		if get("sku") == "" && get("nombre") == "" {
			continue
		}
		in := dto.CreatePartRequest{
			SKU:          get("sku"),
			Barcode:      get("codigo_barras"),
			Name:         get("nombre"),
			Manufacturer: get("fabricante"),
			Group:        get("grupo"),
			Subgroup:     get("subgrupo"),
			Location:     get("ubicacion"),
		}
		if c := get("compatibilidad"); c != "" {
			for _, tag := range strings.Split(c, ",") {
				in.Compatibility = append(in.Compatibility, strings.TrimSpace(tag))
			}
		}
		excelRow := n + 2
		if in.Cost, err = cellDecimal(get("costo")); err != nil {
			return nil, fmt.Errorf("%w: fila %d costo: %v", domain.ErrParse, excelRow, err)
		}
		if in.Price, err = cellDecimal(get("precio")); err != nil {
			return nil, fmt.Errorf("%w: fila %d precio: %v", domain.ErrParse, excelRow, err)
		}
		if in.Quantity, err = cellInt(get("cantidad")); err != nil {
			return nil, fmt.Errorf("%w: fila %d cantidad: %v", domain.ErrParse, excelRow, err)
		}
		if in.MinStock, err = cellInt(get("minimo")); err != nil {
			return nil, fmt.Errorf("%w: fila %d minimo: %v", domain.ErrParse, excelRow, err)
		}
		out = append(out, in)
	}
	return out, nil
}

// cellDecimal acepta tanto "1234.5" o "1,234.50" como el formato brasileño "R$ 1.234,50".
func cellDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	if strings.Contains(s, "R$") || strings.LastIndex(s, ",") > strings.LastIndex(s, ".") {
		return inventory.ParseCurrency(s)
	}
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}

func cellInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, err
	}
	return int(d.IntPart()), nil
}
