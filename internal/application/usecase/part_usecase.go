package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/inventory"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// PartUseCase casos de uso del catálogo de piezas. Quantity solo cambia vía movimientos del kardex.
type PartUseCase struct {
	repo     repository.PartRepository
	workbook ports.PartsWorkbook
	log      *logger.Logger
	now      func() time.Time
}

// NewPartUseCase construye el caso de uso. workbook puede ser nil si no se usa XLSX.
func NewPartUseCase(repo repository.PartRepository, workbook ports.PartsWorkbook, log *logger.Logger) *PartUseCase {
	return &PartUseCase{repo: repo, workbook: workbook, log: log.Component("catalog"), now: time.Now}
}

// CreatePart valida y crea una pieza. Exige nombre, SKU y precio mayor a cero;
// cantidad, costo y mínimo son 0 si no vienen.
func (uc *PartUseCase) CreatePart(ctx context.Context, tenantID string, in dto.CreatePartRequest) (*dto.PartResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	in.Barcode = strings.TrimSpace(in.Barcode)
	switch {
	case in.Name == "":
		return nil, domain.NewValidationError("name", "obligatorio")
	case in.SKU == "":
		return nil, domain.NewValidationError("sku", "obligatorio")
	case !in.Price.IsPositive():
		return nil, domain.NewValidationError("price", "debe ser mayor a cero")
	case in.Cost.IsNegative():
		return nil, domain.NewValidationError("cost", "no puede ser negativo")
	case in.Quantity < 0:
		return nil, domain.NewValidationError("quantity", "no puede ser negativa")
	case in.MinStock < 0:
		return nil, domain.NewValidationError("min_stock", "no puede ser negativo")
	}
	if err := uc.ensureUnique(ctx, tenantID, "", in.SKU, in.Barcode); err != nil {
		return nil, err
	}

	now := uc.now().UTC()
	part := &entity.Part{
		ID:              uuid.New().String(),
		TenantID:        tenantID,
		SKU:             in.SKU,
		Barcode:         in.Barcode,
		Name:            in.Name,
		Manufacturer:    strings.TrimSpace(in.Manufacturer),
		Group:           strings.TrimSpace(in.Group),
		Subgroup:        strings.TrimSpace(in.Subgroup),
		Compatibility:   cleanTags(in.Compatibility),
		Location:        strings.TrimSpace(in.Location),
		Cost:            in.Cost,
		Price:           in.Price,
		Quantity:        in.Quantity,
		InitialQuantity: in.Quantity,
		MinStock:        in.MinStock,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.repo.Create(ctx, part); err != nil {
		return nil, err
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("part_id", part.ID).Str("sku", part.SKU).Msg("pieza creada")
	return ToPartResponse(part), nil
}

// GetPart obtiene una pieza viva.
func (uc *PartUseCase) GetPart(ctx context.Context, tenantID, id string) (*dto.PartResponse, error) {
	part, err := uc.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, domain.ErrNotFound
	}
	return ToPartResponse(part), nil
}

// UpdatePart aplica el parche sobre los campos de catálogo. Si al guardar costo y precio
// son iguales y positivos, el precio pasa a costo × 1,60.
// Con Version informada, falla con ErrConflict si otro usuario guardó antes.
func (uc *PartUseCase) UpdatePart(ctx context.Context, tenantID, id string, in dto.UpdatePartRequest) (*dto.PartResponse, error) {
	part, err := uc.repo.GetByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if part == nil {
		return nil, domain.ErrNotFound
	}
	if in.Version != nil && *in.Version != part.Version {
		return nil, fmt.Errorf("%w: versión %d, actual %d", domain.ErrConflict, *in.Version, part.Version)
	}

	if in.SKU != nil {
		sku := strings.TrimSpace(*in.SKU)
		if sku == "" {
			return nil, domain.NewValidationError("sku", "obligatorio")
		}
		part.SKU = sku
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, domain.NewValidationError("name", "obligatorio")
		}
		part.Name = name
	}
	if in.Barcode != nil {
		part.Barcode = strings.TrimSpace(*in.Barcode)
	}
	if in.Manufacturer != nil {
		part.Manufacturer = strings.TrimSpace(*in.Manufacturer)
	}
	if in.Group != nil {
		part.Group = strings.TrimSpace(*in.Group)
	}
	if in.Subgroup != nil {
		part.Subgroup = strings.TrimSpace(*in.Subgroup)
	}
	if in.Compatibility != nil {
		part.Compatibility = cleanTags(in.Compatibility)
	}
	if in.Location != nil {
		part.Location = strings.TrimSpace(*in.Location)
	}
	if in.Cost != nil {
		if in.Cost.IsNegative() {
			return nil, domain.NewValidationError("cost", "no puede ser negativo")
		}
		part.Cost = *in.Cost
	}
	if in.Price != nil {
		if in.Price.IsNegative() {
			return nil, domain.NewValidationError("price", "no puede ser negativo")
		}
		part.Price = *in.Price
	}
	if in.MinStock != nil {
		if *in.MinStock < 0 {
			return nil, domain.NewValidationError("min_stock", "no puede ser negativo")
		}
		part.MinStock = *in.MinStock
	}
	if in.SKU != nil || in.Barcode != nil {
		if err := uc.ensureUnique(ctx, tenantID, part.ID, part.SKU, part.Barcode); err != nil {
			return nil, err
		}
	}

	if price, corrected := inventory.ApplyMarkupGuard(part.Cost, part.Price); corrected {
		uc.log.Info().Str("part_id", part.ID).Str("cost", part.Cost.String()).Str("price", price.String()).Msg("precio igual al costo: margen aplicado")
		part.Price = price
	}
	part.UpdatedAt = uc.now().UTC()
	if err := uc.repo.Update(ctx, part); err != nil {
		return nil, err
	}
	return ToPartResponse(part), nil
}

// DeletePart baja lógica. Los movimientos de la pieza permanecen en el kardex.
func (uc *PartUseCase) DeletePart(ctx context.Context, tenantID, id string) error {
	ok, err := uc.repo.SoftDelete(ctx, tenantID, id, uc.now().UTC())
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotFound
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("part_id", id).Msg("pieza eliminada")
	return nil
}

// ListParts devuelve todas las piezas vivas del tenant con los filtros opcionales.
func (uc *PartUseCase) ListParts(ctx context.Context, tenantID string, q dto.PartListQuery) (*dto.PartListResponse, error) {
	list, err := uc.repo.ListByTenant(ctx, tenantID, repository.PartFilter{
		Search:        strings.TrimSpace(q.Search),
		Group:         strings.TrimSpace(q.Group),
		Subgroup:      strings.TrimSpace(q.Subgroup),
		Compatibility: strings.TrimSpace(q.Compatibility),
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.PartResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *ToPartResponse(p))
	}
	return &dto.PartListResponse{Items: items, Total: len(items)}, nil
}

// ExportParts planilla XLSX con el catálogo completo.
func (uc *PartUseCase) ExportParts(ctx context.Context, tenantID string) ([]byte, error) {
	if uc.workbook == nil {
		return nil, fmt.Errorf("%w: exportación XLSX no configurada", domain.ErrExternalService)
	}
	list, err := uc.repo.ListByTenant(ctx, tenantID, repository.PartFilter{})
	if err != nil {
		return nil, err
	}
	return uc.workbook.RenderParts(list)
}

// ImportPartsWorkbook lee la planilla con el mismo formato de la exportación y la carga.
func (uc *PartUseCase) ImportPartsWorkbook(ctx context.Context, tenantID string, r io.Reader) (*dto.ImportPartsResponse, error) {
	if uc.workbook == nil {
		return nil, fmt.Errorf("%w: importación XLSX no configurada", domain.ErrExternalService)
	}
	rows, err := uc.workbook.ReadParts(r)
	if err != nil {
		return nil, err
	}
	return uc.ImportParts(ctx, tenantID, rows)
}

// ImportParts crea los SKU que no existen y actualiza los datos de catálogo de los existentes.
// La cantidad de la fila solo se usa al crear; en piezas existentes el stock no se toca.
// Un error de fila no detiene la carga; solo los errores de infraestructura abortan.
func (uc *PartUseCase) ImportParts(ctx context.Context, tenantID string, rows []dto.CreatePartRequest) (*dto.ImportPartsResponse, error) {
	res := &dto.ImportPartsResponse{Failed: []dto.ImportRowError{}}
	for i, row := range rows {
		excelRow := i + 2
		row.SKU = strings.TrimSpace(row.SKU)
		if strings.TrimSpace(row.Manufacturer) == "" {
			row.Manufacturer = inventory.InferManufacturer(row.Name, inventory.DefaultManufacturer)
		}
		if row.SKU == "" {
			res.Failed = append(res.Failed, dto.ImportRowError{Row: excelRow, Error: "sku: obligatorio"})
			continue
		}
		existing, err := uc.repo.GetBySKU(ctx, tenantID, row.SKU)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			_, err = uc.CreatePart(ctx, tenantID, row)
		} else {
			_, err = uc.UpdatePart(ctx, tenantID, existing.ID, importPatch(row))
		}
		if err != nil {
			if !isRowError(err) {
				return nil, err
			}
			res.Failed = append(res.Failed, dto.ImportRowError{Row: excelRow, SKU: row.SKU, Error: err.Error()})
			continue
		}
		if existing == nil {
			res.Created++
		} else {
			res.Updated++
		}
	}
	uc.log.Info().Str("tenant_id", tenantID).Int("created", res.Created).Int("updated", res.Updated).
		Int("failed", len(res.Failed)).Msg("carga de planilla de piezas")
	return res, nil
}

// importPatch campos de catálogo que la planilla sobrescribe. Precio cero se ignora.
func importPatch(row dto.CreatePartRequest) dto.UpdatePartRequest {
	name := strings.TrimSpace(row.Name)
	patch := dto.UpdatePartRequest{
		Barcode:      &row.Barcode,
		Manufacturer: &row.Manufacturer,
		Group:        &row.Group,
		Subgroup:     &row.Subgroup,
		Location:     &row.Location,
		Cost:         &row.Cost,
		MinStock:     &row.MinStock,
	}
	if name != "" {
		patch.Name = &name
	}
	if row.Compatibility != nil {
		patch.Compatibility = row.Compatibility
	}
	if row.Price.IsPositive() {
		patch.Price = &row.Price
	}
	return patch
}

func isRowError(err error) bool {
	return errors.Is(err, domain.ErrInvalidInput) || errors.Is(err, domain.ErrDuplicate)
}

// ensureUnique verifica SKU y código de barras contra las demás piezas vivas del tenant.
func (uc *PartUseCase) ensureUnique(ctx context.Context, tenantID, selfID, sku, barcode string) error {
	existing, err := uc.repo.GetBySKU(ctx, tenantID, sku)
	if err != nil {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return fmt.Errorf("%w: sku %s", domain.ErrDuplicate, sku)
	}
	if barcode == "" {
		return nil
	}
	matches, err := uc.repo.FindByCode(ctx, tenantID, barcode)
	if err != nil {
		return err
	}
	for _, p := range matches {
		if p.ID != selfID && p.Barcode == barcode {
			return fmt.Errorf("%w: código de barras %s", domain.ErrDuplicate, barcode)
		}
	}
	return nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := strings.ToLower(t)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, t)
	}
	return out
}

// ToPartResponse mapea la entidad a la salida HTTP.
func ToPartResponse(p *entity.Part) *dto.PartResponse {
	if p == nil {
		return nil
	}
	compat := p.Compatibility
	if compat == nil {
		compat = []string{}
	}
	return &dto.PartResponse{
		ID:              p.ID,
		SKU:             p.SKU,
		Barcode:         p.Barcode,
		Name:            p.Name,
		Manufacturer:    p.Manufacturer,
		Group:           p.Group,
		Subgroup:        p.Subgroup,
		Compatibility:   compat,
		Location:        p.Location,
		Cost:            p.Cost,
		Price:           p.Price,
		Quantity:        p.Quantity,
		MinStock:        p.MinStock,
		LowStock:        p.IsLowStock(),
		Version:         p.Version,
		LastPriceSyncAt: p.LastPriceSyncAt,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}
