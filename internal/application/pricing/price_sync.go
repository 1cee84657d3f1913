package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/inventory"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// Motivos de fallo por pieza en el lote.
const (
	ReasonNotFound   = "not_found"
	ReasonParseError = "parse_error"
	ReasonError      = "error"
)

// syncDraftMinStock mínimo por defecto de una pieza descubierta en el portal.
const syncDraftMinStock = 1

// PriceSyncUseCase sincroniza costo y precio con el portal del fabricante.
// Nunca toca la cantidad: no pasa por el kardex.
type PriceSyncUseCase struct {
	catalog  ports.CatalogClient
	partRepo repository.PartRepository
	brand    string
	workers  int
	metrics  ports.Metrics
	log      *logger.Logger
	now      func() time.Time
}

// Config marca objetivo y tamaño del pool del lote.
type Config struct {
	Brand   string
	Workers int
	Metrics ports.Metrics
}

// NewPriceSyncUseCase construye el caso de uso.
func NewPriceSyncUseCase(catalog ports.CatalogClient, partRepo repository.PartRepository, cfg Config, log *logger.Logger) *PriceSyncUseCase {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Metrics == nil {
		cfg.Metrics = ports.NopMetrics{}
	}
	return &PriceSyncUseCase{
		catalog:  catalog,
		partRepo: partRepo,
		brand:    strings.ToUpper(strings.TrimSpace(cfg.Brand)),
		workers:  cfg.Workers,
		metrics:  cfg.Metrics,
		log:      log.Component("pricing"),
		now:      time.Now,
	}
}

// Search consulta el portal por código.
func (uc *PriceSyncUseCase) Search(ctx context.Context, code string) (*dto.CatalogSearchResponse, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewValidationError("code", "obligatorio")
	}
	hits, err := uc.catalog.Search(ctx, code)
	if err != nil {
		return nil, err
	}
	if hits == nil {
		hits = []entity.CatalogHit{}
	}
	return &dto.CatalogSearchResponse{Code: code, Results: hits}, nil
}

// SyncPart aplica un resultado del portal. Si existe una pieza con ese SKU, sin confirmación
// devuelve la vista previa y con confirmación actualiza costo y precio. Si no existe,
// devuelve el borrador para crearla.
func (uc *PriceSyncUseCase) SyncPart(ctx context.Context, tenantID string, in dto.SyncPartRequest) (*dto.SyncPartResponse, error) {
	code := strings.TrimSpace(in.Code)
	if code == "" {
		return nil, domain.NewValidationError("code", "obligatorio")
	}
	sale, err := inventory.ParseCurrency(in.SaleRaw)
	if err != nil || !sale.IsPositive() {
		return nil, domain.NewValidationError("sale_raw", fmt.Sprintf("precio de venta inválido %q", in.SaleRaw))
	}
	cost, err := inventory.ParseCurrency(in.CostRaw)
	if err != nil {
		return nil, domain.NewValidationError("cost_raw", fmt.Sprintf("costo inválido %q", in.CostRaw))
	}

	part, err := uc.partRepo.GetBySKU(ctx, tenantID, code)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return &dto.SyncPartResponse{
			Status:   dto.SyncDraft,
			NewCost:  cost,
			NewPrice: sale,
			Draft: &entity.PartDraft{
				Name:         strings.TrimSpace(in.Description),
				SKU:          code,
				Manufacturer: uc.brand,
				Cost:         cost,
				Price:        sale,
				Quantity:     0,
				MinStock:     syncDraftMinStock,
				Enriched:     true,
			},
		}, nil
	}

	newCost := keepCostIfMissing(part.Cost, cost)
	out := &dto.SyncPartResponse{
		PartID:   part.ID,
		OldCost:  part.Cost,
		OldPrice: part.Price,
		NewCost:  newCost,
		NewPrice: sale,
	}
	if !in.Confirm {
		out.Status = dto.SyncConfirmationRequired
		return out, nil
	}
	if err := uc.partRepo.UpdatePrices(ctx, tenantID, part.ID, newCost, sale, uc.now().UTC()); err != nil {
		return nil, err
	}
	uc.metrics.PriceSynced(dto.BatchStatusSuccess)
	uc.log.Info().Str("part_id", part.ID).Str("sku", part.SKU).Str("price", sale.String()).Msg("precio sincronizado")
	out.Status = dto.SyncUpdated
	return out, nil
}

// BatchSync consulta el portal para cada pieza y actualiza costo y precio. Sin ids, toma
// las piezas sin fabricante o del fabricante configurado. Cada pieza se resuelve aparte:
// un fallo no detiene el lote. El pool es de uc.workers consultas simultáneas.
func (uc *PriceSyncUseCase) BatchSync(ctx context.Context, tenantID string, partIDs []string) (*dto.BatchSyncResponse, error) {
	targets, missing, err := uc.targets(ctx, tenantID, partIDs)
	if err != nil {
		return nil, err
	}

	results := make([]dto.BatchSyncItem, len(targets))
	var g errgroup.Group
	g.SetLimit(uc.workers)
	for i, part := range targets {
		results[i] = dto.BatchSyncItem{PartID: part.ID, SKU: part.SKU, Status: dto.BatchStatusLoading}
		g.Go(func() error {
			results[i] = uc.syncOne(ctx, tenantID, part)
			return nil
		})
	}
	_ = g.Wait()

	out := &dto.BatchSyncResponse{Results: make([]dto.BatchSyncItem, 0, len(results)+len(missing))}
	for _, r := range results {
		if r.Status == dto.BatchStatusSuccess {
			out.Updated++
		} else {
			out.Failed++
		}
		out.Results = append(out.Results, r)
	}
	for _, id := range missing {
		out.Failed++
		out.Results = append(out.Results, dto.BatchSyncItem{PartID: id, Status: dto.BatchStatusError, Reason: ReasonNotFound})
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Int("updated", out.Updated).
		Int("failed", out.Failed).
		Int("workers", uc.workers).
		Msg("sincronización de precios terminada")
	return out, nil
}

// targets resuelve las piezas del lote. missing son ids pedidos que no existen o fueron eliminados.
func (uc *PriceSyncUseCase) targets(ctx context.Context, tenantID string, partIDs []string) ([]*entity.Part, []string, error) {
	if len(partIDs) == 0 {
		all, err := uc.partRepo.ListByTenant(ctx, tenantID, repository.PartFilter{})
		if err != nil {
			return nil, nil, fmt.Errorf("listar piezas: %w", err)
		}
		out := make([]*entity.Part, 0, len(all))
		for _, p := range all {
			if uc.isBrandTarget(p) {
				out = append(out, p)
			}
		}
		return out, nil, nil
	}

	found, err := uc.partRepo.ListByIDs(ctx, tenantID, partIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("listar piezas: %w", err)
	}
	byID := make(map[string]*entity.Part, len(found))
	for _, p := range found {
		if !p.IsDeleted() {
			byID[p.ID] = p
		}
	}
	out := make([]*entity.Part, 0, len(partIDs))
	var missing []string
	seen := make(map[string]struct{}, len(partIDs))
	for _, id := range partIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := byID[id]; ok {
			out = append(out, p)
		} else {
			missing = append(missing, id)
		}
	}
	return out, missing, nil
}

func (uc *PriceSyncUseCase) isBrandTarget(p *entity.Part) bool {
	m := strings.TrimSpace(p.Manufacturer)
	return m == "" || (uc.brand != "" && strings.Contains(strings.ToUpper(m), uc.brand))
}

func (uc *PriceSyncUseCase) syncOne(ctx context.Context, tenantID string, part *entity.Part) dto.BatchSyncItem {
	res := dto.BatchSyncItem{PartID: part.ID, SKU: part.SKU, Status: dto.BatchStatusError}
	fail := func(reason string, err error) dto.BatchSyncItem {
		res.Reason = reason
		uc.metrics.PriceSynced(reason)
		ev := uc.log.Warn().Str("part_id", part.ID).Str("sku", part.SKU).Str("reason", reason)
		if err != nil {
			ev = ev.Err(err)
		}
		ev.Msg("pieza no sincronizada")
		return res
	}

	hits, err := uc.catalog.Search(ctx, part.SKU)
	if err != nil {
		return fail(ReasonError, err)
	}
	hit, ok := exactHit(hits, part.SKU)
	if !ok {
		return fail(ReasonNotFound, nil)
	}
	sale, err := inventory.ParseCurrency(hit.SaleRaw)
	if err == nil && !sale.IsPositive() {
		err = errors.New("precio de venta vacío")
	}
	if err != nil {
		return fail(ReasonParseError, err)
	}
	cost, err := inventory.ParseCurrency(hit.CostRaw)
	if err != nil {
		return fail(ReasonParseError, err)
	}
	cost = keepCostIfMissing(part.Cost, cost)

	if err := uc.partRepo.UpdatePrices(ctx, tenantID, part.ID, cost, sale, uc.now().UTC()); err != nil {
		return fail(ReasonError, err)
	}
	uc.metrics.PriceSynced(dto.BatchStatusSuccess)
	res.Status = dto.BatchStatusSuccess
	res.NewCost = cost
	res.NewPrice = sale
	return res
}

// exactHit el portal busca por prefijo; solo vale el resultado con el mismo código.
func exactHit(hits []entity.CatalogHit, sku string) (entity.CatalogHit, bool) {
	want := strings.TrimSpace(sku)
	for _, h := range hits {
		if strings.EqualFold(strings.TrimSpace(h.Code), want) {
			return h, true
		}
	}
	return entity.CatalogHit{}, false
}

// keepCostIfMissing el portal a veces no informa costo: se conserva el actual.
func keepCostIfMissing(current, fetched decimal.Decimal) decimal.Decimal {
	if fetched.IsPositive() {
		return fetched
	}
	return current
}
