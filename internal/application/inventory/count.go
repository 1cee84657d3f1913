package inventory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// CountAdjustmentDescription descripción de los movimientos generados por un conteo.
const CountAdjustmentDescription = "Ajuste de Inventario Físico"

// CountUseCase conciliación de inventario físico.
type CountUseCase struct {
	partRepo  repository.PartRepository
	sessions  repository.SessionStore
	movements *RegisterMovementUseCase
	renderer  ports.CountSheetRenderer
	metrics   ports.Metrics
	log       *logger.Logger
	ttl       time.Duration
	now       func() time.Time
}

// NewCountUseCase construye el caso de uso. renderer puede ser nil si no se exporta PDF.
func NewCountUseCase(
	partRepo repository.PartRepository,
	sessions repository.SessionStore,
	movements *RegisterMovementUseCase,
	renderer ports.CountSheetRenderer,
	metrics ports.Metrics,
	ttl time.Duration,
	log *logger.Logger,
) *CountUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CountUseCase{
		partRepo:  partRepo,
		sessions:  sessions,
		movements: movements,
		renderer:  renderer,
		metrics:   metrics,
		log:       log.Component("count"),
		ttl:       ttl,
		now:       time.Now,
	}
}

// StartCount toma la foto de las cantidades actuales y abre la sesión de conteo.
func (uc *CountUseCase) StartCount(ctx context.Context, tenantID string) (*dto.StartCountResponse, error) {
	parts, err := uc.partRepo.ListByTenant(ctx, tenantID, repository.PartFilter{})
	if err != nil {
		return nil, fmt.Errorf("listar piezas: %w", err)
	}
	sess := &entity.CountSession{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		StartedAt: uc.now().UTC(),
		Baseline:  make(map[string]int, len(parts)),
	}
	for _, p := range parts {
		sess.Baseline[p.ID] = p.Quantity
	}
	if err := uc.sessions.Save(ctx, sessionKindCount, sess.ID, sess, uc.ttl); err != nil {
		return nil, fmt.Errorf("guardar sesión de conteo: %w", err)
	}
	uc.log.Info().Str("tenant_id", tenantID).Str("session_id", sess.ID).Int("parts", len(parts)).Msg("conteo iniciado")
	return toCountSheet(sess, parts), nil
}

// CountSheet devuelve las líneas del conteo con la cantidad de la foto inicial.
func (uc *CountUseCase) CountSheet(ctx context.Context, tenantID, sessionID string) (*dto.StartCountResponse, error) {
	sess, err := uc.load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(sess.Baseline))
	for id := range sess.Baseline {
		ids = append(ids, id)
	}
	parts, err := uc.partRepo.ListByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, fmt.Errorf("listar piezas: %w", err)
	}
	live := parts[:0]
	for _, p := range parts {
		if !p.IsDeleted() {
			p.Quantity = sess.Baseline[p.ID]
			live = append(live, p)
		}
	}
	return toCountSheet(sess, live), nil
}

// CountSheetPDF planilla imprimible para el recorrido de estantes.
func (uc *CountUseCase) CountSheetPDF(ctx context.Context, tenantID, sessionID string) ([]byte, error) {
	if uc.renderer == nil {
		return nil, fmt.Errorf("%w: exportación PDF no configurada", domain.ErrExternalService)
	}
	sheet, err := uc.CountSheet(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return uc.renderer.RenderCountSheet(*sheet)
}

// FinishCount compara lo contado con la cantidad actual de cada pieza y registra un ajuste
// por cada divergencia, uno tras otro. Un fallo no detiene el resto; el resultado detalla
// qué ajustes entraron y cuáles no. Sin divergencias no se escribe nada.
func (uc *CountUseCase) FinishCount(ctx context.Context, tenantID, actor, sessionID string, counts map[string]int) (*dto.FinishCountResponse, error) {
	sess, err := uc.load(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(counts))
	for id, counted := range counts {
		if counted < 0 {
			return nil, domain.NewValidationError("counts."+id, "no puede ser negativo")
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := &dto.FinishCountResponse{
		SessionID: sess.ID,
		Applied:   []dto.ItemResult{},
		Failed:    []dto.ItemResult{},
	}
	for _, id := range ids {
		part, err := uc.partRepo.GetByID(ctx, tenantID, id)
		if err != nil || part == nil {
			if err == nil {
				err = domain.ErrNotFound
			}
			out.Failed = append(out.Failed, dto.ItemResult{PartID: id, Error: err.Error()})
			continue
		}
		if base, ok := sess.Baseline[id]; ok && base != part.Quantity {
			out.Drifted = append(out.Drifted, id)
		}

		adj, diverges := entity.DiffCount(id, counts[id], part.Quantity)
		if !diverges {
			continue
		}
		res := dto.ItemResult{PartID: id, Type: string(adj.Type), Quantity: adj.Quantity}
		mov, err := uc.movements.RegisterMovement(ctx, MovementInput{
			TenantID:    tenantID,
			Actor:       actor,
			PartID:      id,
			Type:        adj.Type,
			Quantity:    adj.Quantity,
			Description: CountAdjustmentDescription,
		})
		if err != nil {
			res.Error = err.Error()
			out.Failed = append(out.Failed, res)
			uc.log.Warn().Err(err).Str("session_id", sess.ID).Str("part_id", id).Msg("ajuste de conteo no registrado")
			continue
		}
		res.MovementID = mov.ID
		out.Applied = append(out.Applied, res)
	}
	out.NoDivergence = len(out.Applied) == 0 && len(out.Failed) == 0
	uc.metrics.CountFinished(len(out.Applied), len(out.Failed))

	if len(out.Failed) == 0 {
		if err := uc.sessions.Delete(context.WithoutCancel(ctx), sessionKindCount, sess.ID); err != nil {
			uc.log.Warn().Err(err).Str("session_id", sess.ID).Msg("no se pudo descartar la sesión de conteo")
		}
	}
	uc.log.Info().
		Str("tenant_id", tenantID).
		Str("session_id", sess.ID).
		Int("applied", len(out.Applied)).
		Int("failed", len(out.Failed)).
		Int("drifted", len(out.Drifted)).
		Msg("conteo finalizado")
	return out, nil
}

func (uc *CountUseCase) load(ctx context.Context, tenantID, sessionID string) (*entity.CountSession, error) {
	var sess entity.CountSession
	if err := uc.sessions.Load(ctx, sessionKindCount, sessionID, &sess); err != nil {
		return nil, err
	}
	if sess.TenantID != tenantID {
		return nil, domain.ErrNotFound
	}
	return &sess, nil
}

// toCountSheet ordena por ubicación y nombre para recorrer los estantes en orden.
func toCountSheet(sess *entity.CountSession, parts []*entity.Part) *dto.StartCountResponse {
	lines := make([]dto.CountLine, 0, len(parts))
	for _, p := range parts {
		lines = append(lines, dto.CountLine{
			PartID:   p.ID,
			SKU:      p.SKU,
			Name:     p.Name,
			Location: p.Location,
			Quantity: p.Quantity,
		})
	}
	sort.SliceStable(lines, func(i, j int) bool {
		if lines[i].Location != lines[j].Location {
			return lines[i].Location < lines[j].Location
		}
		return lines[i].Name < lines[j].Name
	})
	return &dto.StartCountResponse{SessionID: sess.ID, StartedAt: sess.StartedAt, Lines: lines}
}
