package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/inventory"
	"github.com/jhoicas/marina-inventario/internal/application/pricing"
	"github.com/jhoicas/marina-inventario/internal/application/usecase"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/metrics"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/nfe"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/pdf"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/xlsx"
	apphttp "github.com/jhoicas/marina-inventario/internal/interfaces/http"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

const nfeXML = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc><NFe><infNFe Id="NFe35260312345678000190550010000045871000045870">
  <ide><nNF>4587</nNF><dhEmi>2026-03-02T10:15:00-03:00</dhEmi></ide>
  <emit><xNome>Náutica Sul</xNome></emit>
  <det nItem="1"><prod><cProd>8M0123</cProd><cEAN>SEM GTIN</cEAN><xProd>Impulsor</xProd><qCom>4.0000</qCom><vUnCom>55.10</vUnCom></prod></det>
  <det nItem="2"><prod><cProd>NOVO-1</cProd><cEAN>SEM GTIN</cEAN><xProd>Anodo</xProd><qCom>2</qCom><vUnCom>10</vUnCom></prod></det>
</infNFe></NFe></nfeProc>`

type portalStub struct {
	hits     []entity.CatalogHit
	err      error
	warranty *entity.EngineWarranty
}

func (p *portalStub) Search(context.Context, string) ([]entity.CatalogHit, error) {
	return p.hits, p.err
}

func (p *portalStub) Warranty(_ context.Context, serial string) (*entity.EngineWarranty, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.warranty == nil || p.warranty.Serial != serial {
		return nil, fmt.Errorf("%w: motor %s", domain.ErrNotFound, serial)
	}
	return p.warranty, nil
}

type testServer struct {
	app   *fiber.App
	store *memory.Store
	token string
}

func newTestServer(t *testing.T, catalog *portalStub) *testServer {
	t.Helper()
	log := logger.Nop()
	store := memory.NewStore()
	sessions := memory.NewSessionStore()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	partUC := usecase.NewPartUseCase(store.Parts(), xlsx.NewPartsWorkbook(), log)
	movUC := inventory.NewRegisterMovementUseCase(store.TxRunner(), m, log)
	deps := apphttp.RouterDeps{
		ServiceName:      "test",
		PartUC:           partUC,
		RegisterMovement: movUC,
		Ledger:           inventory.NewLedgerUseCase(store.Movements(), store.Parts()),
		Replenishment:    inventory.NewReplenishmentUseCase(store.Parts()),
		InvoiceImport: inventory.NewInvoiceImportUseCase(nfe.NewParser(), store.Parts(), sessions, movUC, partUC,
			inventory.InvoiceImportConfig{Metrics: m}, log),
		Count:     inventory.NewCountUseCase(store.Parts(), sessions, movUC, pdf.NewCountSheetRenderer("Marina"), m, 0, log),
		JWTSecret: testJWTSecret,
		Log:       log,
		Gatherer:  reg,
	}
	if catalog != nil {
		deps.PriceSync = pricing.NewPriceSyncUseCase(catalog, store.Parts(), pricing.Config{Brand: "MERCURY", Metrics: m}, log)
		deps.Warranty = pricing.NewWarrantyUseCase(catalog, log)
	}

	app := fiber.New()
	app.Use(apphttp.RequestLogger(log, m))
	apphttp.Router(app, deps)
	return &testServer{app: app, store: store, token: defaultToken(t)}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *http.Response {
	t.Helper()
	var reader io.Reader
	contentType := fiber.MIMEApplicationJSON
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
		contentType = fiber.MIMEApplicationXML
	case []byte:
		reader = bytes.NewReader(b)
		contentType = fiber.MIMEOctetStream
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Authorization", s.token)
	if reader != nil {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func (s *testServer) createPart(t *testing.T, sku string, qty int) dto.PartResponse {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/parts", map[string]interface{}{
		"sku": sku, "name": "Pieza " + sku, "cost": "10", "price": "20", "quantity": qty, "min_stock": 2,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var out dto.PartResponse
	decode(t, resp, &out)
	return out
}

func TestRouter_PublicasSinToken(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/health", "/metrics"} {
		resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		resp.Body.Close()
	}
	resp, err := s.app.Test(httptest.NewRequest(http.MethodGet, "/api/parts", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestParts_CrudYErrores(t *testing.T) {
	s := newTestServer(t, nil)
	part := s.createPart(t, "8M0123", 5)
	assert.Equal(t, 1, part.Version)

	resp := s.do(t, http.MethodPost, "/api/parts", map[string]interface{}{"sku": "8M0123", "name": "Otra", "price": "5"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var e dto.ErrorResponse
	decode(t, resp, &e)
	assert.Equal(t, "DUPLICATE", e.Code)

	resp = s.do(t, http.MethodPost, "/api/parts", map[string]interface{}{"name": "Sin sku", "price": "5"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	decode(t, resp, &e)
	assert.Equal(t, "sku", e.Field)

	resp = s.do(t, http.MethodPut, "/api/parts/"+part.ID, map[string]interface{}{"name": "Impulsor", "version": 7})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPut, "/api/parts/"+part.ID, map[string]interface{}{"name": "Impulsor", "version": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated dto.PartResponse
	decode(t, resp, &updated)
	assert.Equal(t, "Impulsor", updated.Name)
	assert.Equal(t, 5, updated.Quantity)

	resp = s.do(t, http.MethodDelete, "/api/parts/"+part.ID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(t, http.MethodGet, "/api/parts/"+part.ID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestParts_ListadoBajoStockYExport(t *testing.T) {
	s := newTestServer(t, nil)
	s.createPart(t, "A-1", 1)
	s.createPart(t, "B-2", 30)

	resp := s.do(t, http.MethodGet, "/api/parts?q=a-1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list dto.PartListResponse
	decode(t, resp, &list)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "A-1", list.Items[0].SKU)

	resp = s.do(t, http.MethodGet, "/api/parts/low-stock", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var low struct {
		Total          int                              `json:"total"`
		Replenishments []dto.ReplenishmentSuggestionDTO `json:"replenishments"`
	}
	decode(t, resp, &low)
	require.Equal(t, 1, low.Total)
	assert.Equal(t, "A-1", low.Replenishments[0].SKU)

	resp = s.do(t, http.MethodGet, "/api/parts/export.xlsx", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "spreadsheetml")
	exported, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)

	resp = s.do(t, http.MethodPost, "/api/parts/import.xlsx", exported)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var imported dto.ImportPartsResponse
	decode(t, resp, &imported)
	assert.Equal(t, 0, imported.Created)
	assert.Equal(t, 2, imported.Updated)
	assert.Empty(t, imported.Failed)

	resp = s.do(t, http.MethodPost, "/api/parts/import.xlsx", []byte("no es xlsx"))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestMovements_RegistroYKardex(t *testing.T) {
	s := newTestServer(t, nil)
	part := s.createPart(t, "8M0123", 3)

	resp := s.do(t, http.MethodPost, "/api/inventory/movements", dto.RegisterMovementRequest{PartID: part.ID, Type: "SALE_DIRECT", Quantity: 5})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var e dto.ErrorResponse
	decode(t, resp, &e)
	assert.Equal(t, "INSUFFICIENT_STOCK", e.Code)

	resp = s.do(t, http.MethodPost, "/api/inventory/movements", dto.RegisterMovementRequest{PartID: part.ID, Type: "TRANSFER", Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/inventory/movements", dto.RegisterMovementRequest{PartID: "no-existe", Type: "OUT_OS", Quantity: 1})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/inventory/movements", dto.RegisterMovementRequest{PartID: part.ID, Type: "OUT_OS", Quantity: 2, Description: "OS 991"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var mov dto.MovementResponse
	decode(t, resp, &mov)
	assert.Equal(t, -2, mov.Delta)
	assert.Equal(t, "Marcos", mov.User)

	// una orden de servicio puede adelantarse al stock registrado
	resp = s.do(t, http.MethodPost, "/api/inventory/movements", dto.RegisterMovementRequest{PartID: part.ID, Type: "OUT_OS", Quantity: 4, Description: "OS 992"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	decode(t, resp, &mov)
	assert.Equal(t, -4, mov.Delta)

	resp = s.do(t, http.MethodGet, "/api/inventory/movements?part_id="+part.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page struct {
		Items []dto.MovementResponse `json:"items"`
	}
	decode(t, resp, &page)
	assert.Len(t, page.Items, 2)

	resp = s.do(t, http.MethodGet, "/api/inventory/movements?from=ayer", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodGet, "/api/inventory/parts/"+part.ID+"/ledger", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var audit dto.LedgerAuditResponse
	decode(t, resp, &audit)
	assert.True(t, audit.Consistent)
	assert.Equal(t, -3, audit.Stored)
}

func TestMovements_ListadoSinTopeDeFilas(t *testing.T) {
	s := newTestServer(t, nil)
	part := s.createPart(t, "8M0123", 0)
	for i := 0; i < 150; i++ {
		resp := s.do(t, http.MethodPost, "/api/inventory/movements", dto.RegisterMovementRequest{PartID: part.ID, Type: "IN_INVOICE", Quantity: 1})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := s.do(t, http.MethodGet, "/api/inventory/movements", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all dto.MovementListResponse
	decode(t, resp, &all)
	assert.Len(t, all.Items, 150)
	assert.Equal(t, 150, all.Page.Total)

	resp = s.do(t, http.MethodGet, "/api/inventory/movements?limit=1000", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &all)
	assert.Len(t, all.Items, 150)

	resp = s.do(t, http.MethodGet, "/api/inventory/movements?limit=20&offset=10", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var page dto.MovementListResponse
	decode(t, resp, &page)
	assert.Len(t, page.Items, 20)
	assert.Equal(t, dto.PageResponse{Limit: 20, Offset: 10, Total: 150}, page.Page)

	resp = s.do(t, http.MethodGet, "/api/inventory/movements?limit=-1", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()
}

func TestInvoices_ImportVinculaYEnvia(t *testing.T) {
	s := newTestServer(t, nil)
	part := s.createPart(t, "8M0123", 0)

	resp := s.do(t, http.MethodPost, "/api/inventory/invoices/import", "<nfe>")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/inventory/invoices/import", nfeXML)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sess dto.ImportSessionResponse
	decode(t, resp, &sess)
	require.Len(t, sess.Items, 2)
	assert.Equal(t, part.ID, sess.Items[0].PartID)
	assert.Equal(t, string(entity.LinkUnlinked), sess.Items[1].State)

	base := "/api/inventory/invoices/" + sess.SessionID
	resp = s.do(t, http.MethodPut, base+"/items/1/link", dto.LinkItemRequest{PartID: inventory.NewPartSentinel})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &sess)
	assert.Equal(t, string(entity.LinkPendingCreate), sess.Items[1].State)

	resp = s.do(t, http.MethodPost, base+"/items/1/confirm", dto.ConfirmItemRequest{})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &sess)
	assert.Equal(t, 2, sess.Linked)

	resp = s.do(t, http.MethodPut, base+"/items/9/link", dto.LinkItemRequest{PartID: part.ID})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sub dto.SubmitInvoiceResponse
	decode(t, resp, &sub)
	assert.Equal(t, 2, sub.Submitted)
	assert.Equal(t, string(entity.ImportSubmitted), sub.State)

	resp = s.do(t, http.MethodGet, "/api/parts/"+part.ID, nil)
	var after dto.PartResponse
	decode(t, resp, &after)
	assert.Equal(t, 4, after.Quantity)

	resp = s.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestInvoices_SinVinculadosYReset(t *testing.T) {
	s := newTestServer(t, nil)

	resp := s.do(t, http.MethodPost, "/api/inventory/invoices/import", nfeXML)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var sess dto.ImportSessionResponse
	decode(t, resp, &sess)

	base := "/api/inventory/invoices/" + sess.SessionID
	resp = s.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var e dto.ErrorResponse
	decode(t, resp, &e)
	assert.Equal(t, "NO_LINKED_ITEMS", e.Code)

	resp = s.do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = s.do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCounts_PlanillaYCierre(t *testing.T) {
	s := newTestServer(t, nil)
	a := s.createPart(t, "A-1", 5)
	b := s.createPart(t, "B-2", 5)

	resp := s.do(t, http.MethodPost, "/api/inventory/counts", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var start dto.StartCountResponse
	decode(t, resp, &start)
	require.Len(t, start.Lines, 2)

	resp = s.do(t, http.MethodGet, "/api/inventory/counts/"+start.SessionID+"/sheet.pdf", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	resp.Body.Close()

	resp = s.do(t, http.MethodPost, "/api/inventory/counts/"+start.SessionID+"/finish",
		dto.FinishCountRequest{Counts: map[string]int{a.ID: 8, b.ID: 3}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var fin dto.FinishCountResponse
	decode(t, resp, &fin)
	require.Len(t, fin.Applied, 2)
	assert.False(t, fin.NoDivergence)

	resp = s.do(t, http.MethodPost, "/api/inventory/counts/"+start.SessionID+"/finish",
		dto.FinishCountRequest{Counts: map[string]int{a.ID: 8}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestCatalog_Deshabilitado(t *testing.T) {
	s := newTestServer(t, nil)
	resp := s.do(t, http.MethodGet, "/api/catalog/search/8M0123", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}

func TestCatalog_BusquedaSyncYErrorExterno(t *testing.T) {
	portal := &portalStub{hits: []entity.CatalogHit{{Code: "8M0123", SaleRaw: "R$ 120,00", CostRaw: "R$ 60,00"}}}
	s := newTestServer(t, portal)
	part := s.createPart(t, "8M0123", 1)

	resp := s.do(t, http.MethodGet, "/api/catalog/search/8M0123", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var found dto.CatalogSearchResponse
	decode(t, resp, &found)
	assert.Len(t, found.Results, 1)

	resp = s.do(t, http.MethodPost, "/api/catalog/sync", dto.SyncPartRequest{Code: "8M0123", SaleRaw: "R$ 120,00", CostRaw: "R$ 60,00"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var preview dto.SyncPartResponse
	decode(t, resp, &preview)
	assert.Equal(t, dto.SyncConfirmationRequired, preview.Status)

	resp = s.do(t, http.MethodPost, "/api/catalog/batch-sync", dto.BatchSyncRequest{PartIDs: []string{part.ID}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var batch dto.BatchSyncResponse
	decode(t, resp, &batch)
	assert.Equal(t, 1, batch.Updated)

	portal.err = fmt.Errorf("%w: timeout", domain.ErrExternalService)
	resp = s.do(t, http.MethodGet, "/api/catalog/search/8M0123", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()

	portal.err = errors.New("inesperado")
	resp = s.do(t, http.MethodGet, "/api/catalog/search/8M0123", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	resp.Body.Close()
}

func TestCatalog_GarantiaPorSerie(t *testing.T) {
	portal := &portalStub{warranty: &entity.EngineWarranty{
		Serial: "2B123456", Model: "150 ELPT FOURSTROKE", Status: "ATIVA", ValidUntil: "12/03/2027",
	}}
	s := newTestServer(t, portal)

	resp := s.do(t, http.MethodGet, "/api/catalog/warranty/2b123456", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var w entity.EngineWarranty
	decode(t, resp, &w)
	assert.Equal(t, "150 ELPT FOURSTROKE", w.Model)
	assert.Equal(t, "ATIVA", w.Status)

	resp = s.do(t, http.MethodGet, "/api/catalog/warranty/0X999", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()

	portal.err = fmt.Errorf("%w: portal caído", domain.ErrExternalService)
	resp = s.do(t, http.MethodGet, "/api/catalog/warranty/2B123456", nil)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	resp.Body.Close()

	s = newTestServer(t, nil)
	resp = s.do(t, http.MethodGet, "/api/catalog/warranty/2B123456", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	resp.Body.Close()
}
