package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// RegisterMovementUseCase registra movimientos del kardex de forma transaccional
// con bloqueo de fila (SELECT FOR UPDATE) y Commit/Rollback.
//
// Las salidas pueden dejar la cantidad en negativo: el stock registrado puede ir detrás del
// físico hasta el próximo conteo. La venta de mostrador (SALE_DIRECT) siempre exige stock;
// con RequireStock(true) todas las salidas lo exigen.
type RegisterMovementUseCase struct {
	txRunner    TxRunner
	metrics     ports.Metrics
	log         *logger.Logger
	now         func() time.Time
	strictStock bool
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(txRunner TxRunner, metrics ports.Metrics, log *logger.Logger) *RegisterMovementUseCase {
	if metrics == nil {
		metrics = ports.NopMetrics{}
	}
	return &RegisterMovementUseCase{
		txRunner: txRunner,
		metrics:  metrics,
		log:      log.Component("ledger"),
		now:      time.Now,
	}
}

// RequireStock hace que cualquier salida sin stock suficiente falle con ErrInsufficientStock.
func (uc *RegisterMovementUseCase) RequireStock(strict bool) *RegisterMovementUseCase {
	uc.strictStock = strict
	return uc
}

func (uc *RegisterMovementUseCase) needsStock(t entity.MovementType) bool {
	return t == entity.MovementSaleDirect || uc.strictStock
}

// MovementInput entrada para registrar un movimiento. Actor es el usuario autenticado.
type MovementInput struct {
	TenantID    string
	Actor       string
	PartID      string
	Type        entity.MovementType
	Quantity    int
	Description string
}

func (in MovementInput) validate() error {
	if in.TenantID == "" {
		return domain.NewValidationError("tenant_id", "obligatorio")
	}
	if strings.TrimSpace(in.Actor) == "" {
		return domain.NewValidationError("user", "obligatorio")
	}
	if in.PartID == "" {
		return domain.NewValidationError("part_id", "obligatorio")
	}
	if !in.Type.Valid() {
		return domain.NewValidationError("type", fmt.Sprintf("tipo desconocido %q", in.Type))
	}
	if in.Quantity <= 0 {
		return domain.NewValidationError("quantity", "debe ser un entero positivo")
	}
	return nil
}

// RegisterMovement valida la entrada, abre una transacción, bloquea la pieza,
// inserta el movimiento y ajusta la cantidad. Cualquier error revierte ambas escrituras.
func (uc *RegisterMovementUseCase) RegisterMovement(ctx context.Context, in MovementInput) (*entity.StockMovement, error) {
	mov, _, err := uc.record(ctx, in)
	return mov, err
}

// record devuelve además la pieza con la cantidad resultante.
func (uc *RegisterMovementUseCase) record(ctx context.Context, in MovementInput) (*entity.StockMovement, *entity.Part, error) {
	if err := in.validate(); err != nil {
		uc.metrics.MovementRejected("validation")
		return nil, nil, err
	}

	var (
		created *entity.StockMovement
		updated *entity.Part
	)
	err := uc.txRunner.Run(ctx, func(movRepo repository.StockMovementRepository, partRepo repository.PartRepository) error {
		part, err := partRepo.GetForUpdate(ctx, in.TenantID, in.PartID)
		if err != nil {
			return fmt.Errorf("bloquear pieza: %w", err)
		}
		if part == nil || part.IsDeleted() {
			return domain.ErrNotFound
		}

		mov := &entity.StockMovement{
			ID:          uuid.New().String(),
			TenantID:    in.TenantID,
			PartID:      part.ID,
			Type:        in.Type,
			Quantity:    in.Quantity,
			Description: strings.TrimSpace(in.Description),
			User:        in.Actor,
			Date:        uc.now().UTC(),
		}
		next := part.Quantity + mov.SignedDelta()
		if next < 0 && uc.needsStock(in.Type) {
			return fmt.Errorf("%w: disponible %d, solicitado %d", domain.ErrInsufficientStock, part.Quantity, in.Quantity)
		}
		if err := movRepo.Create(ctx, mov); err != nil {
			return fmt.Errorf("insertar movimiento: %w", err)
		}
		if err := partRepo.SetQuantity(ctx, in.TenantID, part.ID, next); err != nil {
			return fmt.Errorf("actualizar cantidad: %w", err)
		}
		part.Quantity = next
		created, updated = mov, part
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			uc.metrics.MovementRejected("not_found")
		case errors.Is(err, domain.ErrInsufficientStock):
			uc.metrics.MovementRejected("insufficient_stock")
		default:
			uc.metrics.MovementRejected("error")
			uc.log.Error().Err(err).Str("part_id", in.PartID).Str("type", string(in.Type)).Msg("movimiento revertido")
		}
		return nil, nil, err
	}

	uc.metrics.MovementRecorded(string(created.Type), created.Quantity)
	if updated.Quantity < 0 {
		uc.log.Warn().Str("tenant_id", in.TenantID).Str("part_id", updated.ID).Int("quantity", updated.Quantity).
			Msg("stock negativo: corregir con conteo físico")
	}
	uc.log.Debug().
		Str("tenant_id", in.TenantID).
		Str("part_id", created.PartID).
		Str("type", string(created.Type)).
		Int("quantity", created.Quantity).
		Msg("movimiento registrado")
	return created, updated, nil
}
