package mercury

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

const loginHTML = `<html><body><form method="post"><input name="sUsuar"><input name="sSenha" type="password"></form></body></html>`

const resultsHTML = `<html><body>
<form id="preco_item_web"><table><tr><td>
  <table><tr><td>cabecera</td></tr></table>
  <table>
    <tr class="Header"><td>#</td><td>Código</td><td>Qtd</td><td>Descrição</td><td>Est</td><td>Venda</td><td>Tabela</td><td>Custo</td></tr>
    <tr class="Row"><td>1</td><td>8M0123</td><td>1</td><td>IMPULSOR
       BOMBA</td><td>Disponível</td><td>R$ 1.234,56</td><td>R$ 1.500,00</td><td>R$ 987,65</td></tr>
    <tr class="Row alt"><td>2</td><td>8M0123-A</td><td>1</td><td>IMPULSOR KIT</td><td>Sem estoque</td><td>R$ 80,00</td><td>R$ 95,00</td><td></td></tr>
    <tr class="Row"><td>3</td><td>incompleta</td></tr>
  </table>
</td></tr></table></form>
</body></html>`

type portal struct {
	logins   atomic.Int32
	searches atomic.Int32
	// expireAfter invalida la sesión después de N búsquedas (0 = nunca).
	expireAfter int32
	page        string
	// warrantyPage y clientsPage responden a las consultas de garantía; clientsFail fuerza un 500.
	warrantyPage string
	clientsPage  string
	clientsFail  bool
}

func (p *portal) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(loginPath, func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		if r.PostForm.Get("sUsuar") != "taller" || r.PostForm.Get("sSenha") != "secreto" {
			_, _ = w.Write([]byte(loginHTML))
			return
		}
		p.logins.Add(1)
		http.SetCookie(w, &http.Cookie{Name: "ASPSESSION", Value: "ok", Path: "/"})
		_, _ = w.Write([]byte("<html>bienvenido</html>"))
	})
	mux.HandleFunc(searchPath, func(w http.ResponseWriter, r *http.Request) {
		n := p.searches.Add(1)
		c, err := r.Cookie("ASPSESSION")
		if err != nil || c.Value != "ok" || (p.expireAfter > 0 && n == p.expireAfter) {
			_, _ = w.Write([]byte(loginHTML))
			return
		}
		if r.URL.Query().Get("s_desc_item") == "NADA" {
			_, _ = w.Write([]byte("<html>Nenhum registro encontrado</html>"))
			return
		}
		_, _ = w.Write([]byte(p.page))
	})
	mux.HandleFunc(warrantyPath, func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("ASPSESSION"); err != nil {
			_, _ = w.Write([]byte(loginHTML))
			return
		}
		_, _ = w.Write([]byte(p.warrantyPage))
	})
	mux.HandleFunc(warrantyClientsPath, func(w http.ResponseWriter, r *http.Request) {
		if p.clientsFail {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(p.clientsPage))
	})
	return mux
}

func newTestClient(t *testing.T, p *portal, password string) *Client {
	srv := httptest.NewServer(p.handler(t))
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "taller", password, 5*time.Second, logger.Nop())
}

func TestSearch_LeeFilasDelFormulario(t *testing.T) {
	p := &portal{page: resultsHTML}
	c := newTestClient(t, p, "secreto")

	hits, err := c.Search(context.Background(), "8M0123")
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "8M0123", hits[0].Code)
	assert.Equal(t, "IMPULSOR BOMBA", hits[0].Description)
	assert.Equal(t, "Disponível", hits[0].Availability)
	assert.Equal(t, "R$ 1.234,56", hits[0].SaleRaw)
	assert.True(t, decimal.RequireFromString("1234.56").Equal(hits[0].SalePrice))
	assert.True(t, decimal.RequireFromString("987.65").Equal(hits[0].CostPrice))
	assert.True(t, hits[1].CostPrice.IsZero())
	assert.Equal(t, int32(1), p.logins.Load())

	_, err = c.Search(context.Background(), "8M0123")
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.logins.Load(), "la sesión se reutiliza")
}

func TestSearch_SinResultados(t *testing.T) {
	c := newTestClient(t, &portal{page: resultsHTML}, "secreto")
	hits, err := c.Search(context.Background(), "NADA")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_SinFormularioDevuelveVacio(t *testing.T) {
	c := newTestClient(t, &portal{page: "<html><body>mantenimiento</body></html>"}, "secreto")
	hits, err := c.Search(context.Background(), "8M0123")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearch_ReautenticaSiLaSesionExpira(t *testing.T) {
	p := &portal{page: resultsHTML, expireAfter: 2}
	c := newTestClient(t, p, "secreto")

	_, err := c.Search(context.Background(), "8M0123")
	require.NoError(t, err)
	hits, err := c.Search(context.Background(), "8M0123")
	require.NoError(t, err)
	assert.Len(t, hits, 2)
	assert.Equal(t, int32(2), p.logins.Load())
}

func TestSearch_CredencialesInvalidas(t *testing.T) {
	c := newTestClient(t, &portal{page: resultsHTML}, "otra")
	_, err := c.Search(context.Background(), "8M0123")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestSearch_ErrorHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "taller", "secreto", time.Second, logger.Nop())
	_, err := c.Search(context.Background(), "8M0123")
	assert.ErrorIs(t, err, domain.ErrExternalService)
}

func TestSearch_CodigoVacio(t *testing.T) {
	c := NewClient("http://127.0.0.1:0", "taller", "secreto", time.Second, logger.Nop())
	_, err := c.Search(context.Background(), "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
