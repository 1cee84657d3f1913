package mercury

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/inventory"
)

const (
	resultsFormID = "preco_item_web"
	minColumns    = 8
)

// parseResults lee las filas tr.Row del formulario de precios.
// Columnas: 1 código, 2 cantidad pedida, 3 descripción, 4 disponibilidad, 5 venta, 6 tabla, 7 costo.
func parseResults(body string) ([]entity.CatalogHit, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("html inválido: %w", err)
	}
	form := findFirst(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Form && attr(n, "id") == resultsFormID
	})
	if form == nil {
		return []entity.CatalogHit{}, nil
	}

	hits := []entity.CatalogHit{}
	walk(form, func(n *html.Node) {
		if n.DataAtom != atom.Tr || !hasClass(n, "Row") {
			return
		}
		cols := cells(n)
		if len(cols) < minColumns {
			return
		}
		hit := entity.CatalogHit{
			Code:         cols[1],
			RequestedQty: cols[2],
			Description:  cols[3],
			Availability: cols[4],
			SaleRaw:      cols[5],
			ListRaw:      cols[6],
			CostRaw:      cols[7],
		}
		// los valores que no se pueden leer quedan en cero; el texto original se conserva.
		hit.SalePrice, _ = inventory.ParseCurrency(hit.SaleRaw)
		hit.ListPrice, _ = inventory.ParseCurrency(hit.ListRaw)
		hit.CostPrice, _ = inventory.ParseCurrency(hit.CostRaw)
		hits = append(hits, hit)
	})
	return hits, nil
}

func isLoginPage(body string) bool {
	if !strings.Contains(body, "sUsuar") {
		return false
	}
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return false
	}
	return findFirst(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Input && attr(n, "name") == "sUsuar"
	}) != nil
}

func cells(tr *html.Node) []string {
	var out []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Td {
			out = append(out, strings.Join(strings.Fields(text(c)), " "))
		}
	}
	return out
}

func text(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	})
	return sb.String()
}

func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
