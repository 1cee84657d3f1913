// Package nfe lee notas fiscales electrónicas brasileñas (NF-e, layout 3.10/4.00) de proveedores.
package nfe

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
)

var _ ports.InvoiceParser = (*Parser)(nil)

// noGTIN valor de cEAN cuando el producto no tiene código de barras.
const noGTIN = "SEM GTIN"

// Parser extrae encabezado e ítems de una NF-e (nfeProc o NFe sueltas).
type Parser struct{}

// NewParser construye el parser.
func NewParser() *Parser { return &Parser{} }

// Parse lee el XML. Acepta UTF-8 e ISO-8859-1 según la declaración del documento.
func (p *Parser) Parse(r io.Reader) (*entity.Invoice, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charsetReader
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: xml malformado: %v", domain.ErrParse, err)
	}

	inf := doc.FindElement("//infNFe")
	if inf == nil {
		return nil, fmt.Errorf("%w: no es una NF-e (falta infNFe)", domain.ErrParse)
	}

	inv := &entity.Invoice{
		Number:    childText(inf, "ide/nNF"),
		Supplier:  childText(inf, "emit/xNome"),
		AccessKey: strings.TrimPrefix(inf.SelectAttrValue("Id", ""), "NFe"),
	}
	date, err := issueDate(inf)
	if err != nil {
		return nil, err
	}
	inv.Date = date

	dets := inf.SelectElements("det")
	if len(dets) == 0 {
		return nil, fmt.Errorf("%w: la nota no tiene ítems (det)", domain.ErrParse)
	}
	for i, det := range dets {
		item, err := parseItem(det, i+1)
		if err != nil {
			return nil, err
		}
		inv.Items = append(inv.Items, item)
	}
	inv.Recalculate()
	return inv, nil
}

func parseItem(det *etree.Element, pos int) (entity.InvoiceItem, error) {
	prod := det.SelectElement("prod")
	if prod == nil {
		return entity.InvoiceItem{}, fmt.Errorf("%w: ítem %d sin prod", domain.ErrParse, pos)
	}
	line := pos
	if n := det.SelectAttrValue("nItem", ""); n != "" {
		if _, err := fmt.Sscanf(n, "%d", &line); err != nil {
			line = pos
		}
	}

	qty, err := decimalField(prod, "qCom", pos)
	if err != nil {
		return entity.InvoiceItem{}, err
	}
	unit, err := decimalField(prod, "vUnCom", pos)
	if err != nil {
		return entity.InvoiceItem{}, err
	}
	barcode := childText(prod, "cEAN")
	if strings.EqualFold(barcode, noGTIN) {
		barcode = ""
	}
	return entity.InvoiceItem{
		Line:     line,
		Code:     childText(prod, "cProd"),
		Barcode:  barcode,
		Name:     childText(prod, "xProd"),
		Quantity: qty,
		UnitCost: unit,
		State:    entity.LinkUnlinked,
	}, nil
}

func decimalField(prod *etree.Element, tag string, pos int) (decimal.Decimal, error) {
	raw := childText(prod, tag)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("%w: ítem %d sin %s", domain.ErrParse, pos, tag)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: ítem %d %s=%q", domain.ErrParse, pos, tag, raw)
	}
	return v, nil
}

// issueDate usa la parte de fecha de dhEmi (4.00) o dEmi (3.10).
func issueDate(inf *etree.Element) (time.Time, error) {
	raw := childText(inf, "ide/dhEmi")
	if raw == "" {
		raw = childText(inf, "ide/dEmi")
	}
	if raw == "" {
		return time.Time{}, nil
	}
	if len(raw) > 10 {
		raw = raw[:10]
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha de emisión %q", domain.ErrParse, raw)
	}
	return t, nil
}

func childText(e *etree.Element, path string) string {
	if c := e.FindElement(path); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToUpper(charset) {
	case "ISO-8859-1", "ISO8859-1", "LATIN1":
		return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
	case "WINDOWS-1252", "CP1252":
		return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
	}
	return input, nil
}
