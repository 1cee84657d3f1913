package memory

import (
	"context"

	"github.com/jhoicas/marina-inventario/internal/application/inventory"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

var _ inventory.TxRunner = (*TxRunner)(nil)

// TxRunner serializa las transacciones con el mutex del store y revierte el estado si fn falla.
type TxRunner struct {
	s *Store
}

// Run ejecuta fn con repos atados a la "transacción". Un error restaura la foto previa.
func (r *TxRunner) Run(ctx context.Context, fn func(
	movRepo repository.StockMovementRepository,
	partRepo repository.PartRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	snap := r.s.snapshot()
	if err := fn(&StockMovementRepository{s: r.s, inTx: true}, &PartRepository{s: r.s, inTx: true}); err != nil {
		r.s.restore(snap)
		return err
	}
	return nil
}
