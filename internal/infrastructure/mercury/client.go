// Package mercury consulta precios y garantías en el portal de distribuidores Mercury Marine.
// El portal no tiene API: se inicia sesión por formulario y se lee la tabla HTML de resultados.
package mercury

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

var _ ports.CatalogClient = (*Client)(nil)

const (
	loginPath  = "/epdv001.asp"
	searchPath = "/epdv002d2.asp"
	// pedido genérico que el portal acepta para consultas de precio sin pedido abierto.
	genericOrder = "11111111111111111"
	maxBodyBytes = 4 << 20
)

var errSessionExpired = errors.New("sesión del portal expirada")

// Client adaptador de ports.CatalogClient sobre el portal.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	log        *logger.Logger

	mu       sync.Mutex
	loggedIn bool
}

// NewClient construye el cliente. La sesión se abre en la primera búsqueda.
func NewClient(baseURL, username, password string, timeout time.Duration, log *logger.Logger) *Client {
	jar, _ := cookiejar.New(nil)
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		username: username,
		password: password,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		log: log.Component("mercury"),
	}
}

// Search busca un código en el portal. Sin resultados devuelve slice vacío y nil.
func (c *Client) Search(ctx context.Context, code string) ([]entity.CatalogHit, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewValidationError("code", "requerido")
	}
	hits, err := c.search(ctx, code)
	if errors.Is(err, errSessionExpired) {
		c.log.Info().Str("code", code).Msg("sesión del portal expirada, reautenticando")
		c.resetSession()
		hits, err = c.search(ctx, code)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExternalService, err)
	}
	return hits, nil
}

func (c *Client) search(ctx context.Context, code string) ([]entity.CatalogHit, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("s_nr_pedido_web", genericOrder)
	q.Set("s_nr_tabpre", "")
	q.Set("s_fm_cod_com", "null")
	q.Set("s_desc_item", code)

	body, err := c.get(ctx, searchPath, q)
	if err != nil {
		return nil, err
	}
	if isLoginPage(body) {
		return nil, errSessionExpired
	}
	if strings.Contains(body, "NoRecords") || strings.Contains(body, "Nenhum registro encontrado") {
		return []entity.CatalogHit{}, nil
	}
	return parseResults(body)
}

func (c *Client) ensureLogin(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn {
		return nil
	}
	form := url.Values{}
	form.Set("sUsuar", c.username)
	form.Set("sSenha", c.password)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if isLoginPage(body) {
		return errors.New("login rechazado por el portal")
	}
	c.loggedIn = true
	return nil
}

func (c *Client) resetSession() {
	c.mu.Lock()
	c.loggedIn = false
	c.mu.Unlock()
}

func (c *Client) get(ctx context.Context, path string, q url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return "", err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (string, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return "", fmt.Errorf("portal respondió %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
