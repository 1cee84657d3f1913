package pricing

import (
	"context"
	"strings"

	"github.com/jhoicas/marina-inventario/internal/application/ports"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

// WarrantyUseCase consulta de garantía de motores en el portal del fabricante.
type WarrantyUseCase struct {
	client ports.WarrantyClient
	log    *logger.Logger
}

// NewWarrantyUseCase construye el caso de uso.
func NewWarrantyUseCase(client ports.WarrantyClient, log *logger.Logger) *WarrantyUseCase {
	return &WarrantyUseCase{client: client, log: log.Component("warranty")}
}

// Lookup busca el motor por número de serie (sin distinguir mayúsculas).
func (uc *WarrantyUseCase) Lookup(ctx context.Context, serial string) (*entity.EngineWarranty, error) {
	serial = strings.ToUpper(strings.TrimSpace(serial))
	if serial == "" {
		return nil, domain.NewValidationError("serial", "obligatorio")
	}
	w, err := uc.client.Warranty(ctx, serial)
	if err != nil {
		return nil, err
	}
	uc.log.Debug().Str("serial", serial).Str("status", w.Status).Msg("garantía consultada")
	return w, nil
}
