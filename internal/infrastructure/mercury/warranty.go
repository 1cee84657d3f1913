package mercury

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
)

var _ ports.WarrantyClient = (*Client)(nil)

const (
	warrantyPath        = "/ewr010.asp"
	warrantyClientsPath = "/ewr010c.asp"
	warrantySerialID    = "warr_cardnr_serie_1"
	warrantyClientsID   = "warranty_clients"
)

// Warranty consulta la tarjeta de garantía del motor. El nombre del cliente sale de una
// segunda página; si esa consulta falla la garantía se devuelve sin cliente.
func (c *Client) Warranty(ctx context.Context, serial string) (*entity.EngineWarranty, error) {
	serial = strings.TrimSpace(serial)
	if serial == "" {
		return nil, domain.NewValidationError("serial", "requerido")
	}
	w, err := c.warranty(ctx, serial)
	if errors.Is(err, errSessionExpired) {
		c.log.Info().Str("serial", serial).Msg("sesión del portal expirada, reautenticando")
		c.resetSession()
		w, err = c.warranty(ctx, serial)
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}

	customer, err := c.warrantyCustomer(ctx, serial)
	if err != nil {
		c.log.Warn().Err(err).Str("serial", serial).Msg("cliente de la garantía no disponible")
	}
	w.Customer = customer
	return w, nil
}

func (c *Client) warranty(ctx context.Context, serial string) (*entity.EngineWarranty, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}
	body, err := c.get(ctx, warrantyPath, url.Values{"s_nr_serie": {serial}})
	if err != nil {
		return nil, err
	}
	if isLoginPage(body) {
		return nil, errSessionExpired
	}
	w, err := parseWarranty(body, serial)
	if err != nil {
		return nil, err
	}
	if w == nil {
		return nil, fmt.Errorf("%w: motor %s", domain.ErrNotFound, serial)
	}
	return w, nil
}

func (c *Client) warrantyCustomer(ctx context.Context, serial string) (string, error) {
	body, err := c.get(ctx, warrantyClientsPath, url.Values{"s_nr_serie": {serial}})
	if err != nil {
		return "", err
	}
	if isLoginPage(body) {
		return "", errSessionExpired
	}
	return parseWarrantyCustomer(body)
}

// parseWarranty devuelve nil si la página no menciona el número consultado.
// Los datos están en la tercera fila de la segunda tabla anidada del cuerpo:
// columnas 2 modelo, 3 fecha de venta, 5 estado, 6 vigencia.
func parseWarranty(body, serial string) (*entity.EngineWarranty, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("html inválido: %w", err)
	}
	if !strings.Contains(strings.ToUpper(text(doc)), strings.ToUpper(serial)) {
		return nil, nil
	}

	w := &entity.EngineWarranty{EngineNumber: serial, Serial: serial}
	if n := findFirst(doc, func(n *html.Node) bool { return attr(n, "id") == warrantySerialID }); n != nil {
		if s := clean(text(n)); s != "" {
			w.Serial = s
		}
	}
	if row := warrantyRow(doc); row != nil {
		cols := cells(row)
		w.Model = col(cols, 1)
		w.SaleDate = col(cols, 2)
		w.Status = col(cols, 4)
		w.ValidUntil = col(cols, 5)
	}
	return w, nil
}

// warrantyRow body > table > tr > td > table[2] > tr[3].
func warrantyRow(doc *html.Node) *html.Node {
	body := findFirst(doc, func(n *html.Node) bool { return n.DataAtom == atom.Body })
	if body == nil {
		return nil
	}
	outer := childElements(body, atom.Table)
	if len(outer) == 0 {
		return nil
	}
	for _, tr := range rows(outer[0]) {
		for _, td := range childElements(tr, atom.Td) {
			inner := childElements(td, atom.Table)
			if len(inner) < 2 {
				continue
			}
			if trs := rows(inner[1]); len(trs) >= 3 {
				return trs[2]
			}
		}
	}
	return nil
}

// parseWarrantyCustomer lee la tercera fila de la tabla de clientes sin el rótulo "NOME:".
func parseWarrantyCustomer(body string) (string, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("html inválido: %w", err)
	}
	box := findFirst(doc, func(n *html.Node) bool { return attr(n, "id") == warrantyClientsID })
	if box == nil {
		return "", nil
	}
	table := findFirst(box, func(n *html.Node) bool { return n.DataAtom == atom.Table })
	if table == nil {
		return "", nil
	}
	trs := rows(table)
	if len(trs) < 3 {
		return "", nil
	}
	name := clean(text(trs[2]))
	if strings.HasPrefix(strings.ToUpper(name), "NOME") {
		name = strings.TrimLeft(name[len("NOME"):], " :")
	}
	return name, nil
}

// rows filas directas de la tabla, atravesando tbody/thead.
func rows(table *html.Node) []*html.Node {
	var out []*html.Node
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		switch c.DataAtom {
		case atom.Tr:
			out = append(out, c)
		case atom.Tbody, atom.Thead, atom.Tfoot:
			out = append(out, childElements(c, atom.Tr)...)
		}
	}
	return out
}

func childElements(n *html.Node, a atom.Atom) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			out = append(out, c)
		}
	}
	return out
}

func col(cols []string, i int) string {
	if i < len(cols) {
		return cols[i]
	}
	return ""
}

func clean(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
