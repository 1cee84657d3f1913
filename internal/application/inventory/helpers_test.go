package inventory_test

import (
	"context"
	"io"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marina-inventario/internal/application/inventory"
	"github.com/jhoicas/marina-inventario/internal/application/usecase"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

const tenant = "taller-1"

type fixture struct {
	store     *memory.Store
	sessions  *memory.SessionStore
	movements *inventory.RegisterMovementUseCase
	ledger    *inventory.LedgerUseCase
	parts     *usecase.PartUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	log := logger.Nop()
	return &fixture{
		store:     store,
		sessions:  memory.NewSessionStore(),
		movements: inventory.NewRegisterMovementUseCase(store.TxRunner(), nil, log),
		ledger:    inventory.NewLedgerUseCase(store.Movements(), store.Parts()),
		parts:     usecase.NewPartUseCase(store.Parts(), nil, log),
	}
}

// seedPart crea una pieza directamente en el repositorio con la cantidad dada.
func (f *fixture) seedPart(t *testing.T, id, sku, barcode string, qty int) *entity.Part {
	t.Helper()
	p := &entity.Part{
		ID:              id,
		TenantID:        tenant,
		SKU:             sku,
		Barcode:         barcode,
		Name:            "Pieza " + sku,
		Cost:            decimal.NewFromInt(10),
		Price:           decimal.NewFromInt(20),
		Quantity:        qty,
		InitialQuantity: qty,
		MinStock:        2,
		Version:         1,
	}
	require.NoError(t, f.store.Parts().Create(context.Background(), p))
	return p
}

func (f *fixture) quantity(t *testing.T, id string) int {
	t.Helper()
	p, err := f.store.Parts().GetByID(context.Background(), tenant, id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p.Quantity
}

// parserFunc adapta una función a ports.InvoiceParser.
type parserFunc func(r io.Reader) (*entity.Invoice, error)

func (f parserFunc) Parse(r io.Reader) (*entity.Invoice, error) { return f(r) }

// catalogStub portal falso: resultados por código o error.
type catalogStub struct {
	hits map[string][]entity.CatalogHit
	err  error
}

func (c *catalogStub) Search(_ context.Context, code string) ([]entity.CatalogHit, error) {
	if c.err != nil {
		return nil, c.err
	}
	return c.hits[code], nil
}
