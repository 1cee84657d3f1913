package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/inventory"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

// LedgerUseCase lecturas del kardex. No expone modificación ni borrado de movimientos.
type LedgerUseCase struct {
	movRepo  repository.StockMovementRepository
	partRepo repository.PartRepository
}

// NewLedgerUseCase construye el caso de uso.
func NewLedgerUseCase(movRepo repository.StockMovementRepository, partRepo repository.PartRepository) *LedgerUseCase {
	return &LedgerUseCase{movRepo: movRepo, partRepo: partRepo}
}

// ListMovements devuelve el kardex del más reciente al más antiguo, cada entrada resuelta
// a su pieza. Las piezas eliminadas o inexistentes se muestran como "ítem eliminado".
// Sin Limit devuelve el historial completo; Page.Total siempre cuenta todo lo que cumple el filtro.
func (uc *LedgerUseCase) ListMovements(ctx context.Context, tenantID string, q dto.MovementListQuery) (*dto.MovementListResponse, error) {
	if q.Limit < 0 || q.Offset < 0 {
		return nil, domain.NewValidationError("limit", "no puede ser negativo")
	}
	filter := repository.MovementFilter{
		PartID: q.PartID,
		Limit:  q.Limit,
		Offset: q.Offset,
	}
	var err error
	if filter.From, err = parseDateParam("from", q.From, false); err != nil {
		return nil, err
	}
	if filter.To, err = parseDateParam("to", q.To, true); err != nil {
		return nil, err
	}

	movs, err := uc.movRepo.List(ctx, tenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("listar kardex: %w", err)
	}
	res := &dto.MovementListResponse{
		Items: []dto.MovementResponse{},
		Page:  dto.PageResponse{Limit: q.Limit, Offset: q.Offset, Total: q.Offset + len(movs)},
	}
	// solo se cuenta aparte cuando la página no permite deducir el total
	if (q.Limit > 0 && len(movs) == q.Limit) || (q.Offset > 0 && len(movs) == 0) {
		if res.Page.Total, err = uc.movRepo.Count(ctx, tenantID, filter); err != nil {
			return nil, fmt.Errorf("contar kardex: %w", err)
		}
	}
	if len(movs) == 0 {
		return res, nil
	}

	seen := make(map[string]struct{}, len(movs))
	ids := make([]string, 0, len(movs))
	for _, m := range movs {
		if _, ok := seen[m.PartID]; !ok {
			seen[m.PartID] = struct{}{}
			ids = append(ids, m.PartID)
		}
	}
	parts, err := uc.partRepo.ListByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("resolver piezas del kardex: %w", err)
	}
	byID := make(map[string]*entity.Part, len(parts))
	for _, p := range parts {
		byID[p.ID] = p
	}

	res.Items = make([]dto.MovementResponse, 0, len(movs))
	for _, m := range movs {
		res.Items = append(res.Items, toMovementResponse(m, byID[m.PartID]))
	}
	return res, nil
}

// Reconstruct audita una pieza: cantidad inicial más la suma de deltas del kardex contra la cantidad guardada.
func (uc *LedgerUseCase) Reconstruct(ctx context.Context, tenantID, partID string) (*dto.LedgerAuditResponse, error) {
	parts, err := uc.partRepo.ListByIDs(ctx, tenantID, []string{partID})
	if err != nil {
		return nil, fmt.Errorf("obtener pieza: %w", err)
	}
	if len(parts) == 0 {
		return nil, domain.ErrNotFound
	}
	part := parts[0]

	movs, err := uc.movRepo.List(ctx, tenantID, repository.MovementFilter{PartID: partID})
	if err != nil {
		return nil, fmt.Errorf("listar kardex: %w", err)
	}
	rebuilt := inventory.Replay(partID, part.InitialQuantity, movs)
	return &dto.LedgerAuditResponse{
		PartID:          partID,
		InitialQuantity: part.InitialQuantity,
		LedgerDelta:     rebuilt - part.InitialQuantity,
		Reconstructed:   rebuilt,
		Stored:          part.Quantity,
		Consistent:      rebuilt == part.Quantity,
		Movements:       len(movs),
	}, nil
}

// parseDateParam acepta RFC3339 o YYYY-MM-DD. Con endOfDay, una fecha sin hora cubre el día completo.
func parseDateParam(field, raw string, endOfDay bool) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, domain.NewValidationError(field, "fecha inválida, use YYYY-MM-DD")
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
