package inventory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/inventory"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

type sheetRecorder struct {
	got dto.StartCountResponse
}

func (s *sheetRecorder) RenderCountSheet(sheet dto.StartCountResponse) ([]byte, error) {
	s.got = sheet
	return []byte("%PDF"), nil
}

func (f *fixture) counter(renderer *sheetRecorder) *inventory.CountUseCase {
	if renderer == nil {
		return inventory.NewCountUseCase(f.store.Parts(), f.sessions, f.movements, nil, nil, 0, nil)
	}
	return inventory.NewCountUseCase(f.store.Parts(), f.sessions, f.movements, renderer, nil, 0, nil)
}

func TestFinishCount_SignoDeLosAjustes(t *testing.T) {
	f := newFixture(t)
	f.seedPart(t, "p1", "A", "", 5)
	f.seedPart(t, "p2", "B", "", 5)
	f.seedPart(t, "p3", "C", "", 5)
	uc := f.counter(nil)
	ctx := context.Background()

	sess, err := uc.StartCount(ctx, tenant)
	require.NoError(t, err)
	require.Len(t, sess.Lines, 3)

	res, err := uc.FinishCount(ctx, tenant, "Ana", sess.SessionID, map[string]int{"p1": 8, "p2": 3, "p3": 5})
	require.NoError(t, err)
	assert.False(t, res.NoDivergence)
	assert.Empty(t, res.Failed)
	require.Len(t, res.Applied, 2)

	byPart := map[string]dto.ItemResult{}
	for _, a := range res.Applied {
		byPart[a.PartID] = a
	}
	assert.Equal(t, string(entity.MovementAdjustmentPlus), byPart["p1"].Type)
	assert.Equal(t, 3, byPart["p1"].Quantity)
	assert.Equal(t, string(entity.MovementAdjustmentMinus), byPart["p2"].Type)
	assert.Equal(t, 2, byPart["p2"].Quantity)
	_, touched := byPart["p3"]
	assert.False(t, touched)

	assert.Equal(t, 8, f.quantity(t, "p1"))
	assert.Equal(t, 3, f.quantity(t, "p2"))
	assert.Equal(t, 5, f.quantity(t, "p3"))

	movs, err := f.store.Movements().List(ctx, tenant, repository.MovementFilter{})
	require.NoError(t, err)
	require.Len(t, movs, 2)
	for _, m := range movs {
		assert.Equal(t, inventory.CountAdjustmentDescription, m.Description)
		assert.Equal(t, "Ana", m.User)
	}
}

func TestFinishCount_SinDivergencias(t *testing.T) {
	f := newFixture(t)
	f.seedPart(t, "p1", "A", "", 5)
	uc := f.counter(nil)
	ctx := context.Background()

	sess, err := uc.StartCount(ctx, tenant)
	require.NoError(t, err)
	res, err := uc.FinishCount(ctx, tenant, "u", sess.SessionID, map[string]int{"p1": 5})
	require.NoError(t, err)
	assert.True(t, res.NoDivergence)
	assert.Zero(t, f.store.MovementCount())
}

func TestFinishCount_CantidadNegativa(t *testing.T) {
	f := newFixture(t)
	f.seedPart(t, "p1", "A", "", 5)
	uc := f.counter(nil)
	ctx := context.Background()

	sess, err := uc.StartCount(ctx, tenant)
	require.NoError(t, err)
	_, err = uc.FinishCount(ctx, tenant, "u", sess.SessionID, map[string]int{"p1": -1})
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "counts.p1", vErr.Field)
}

func TestFinishCount_FalloParcialSeReporta(t *testing.T) {
	f := newFixture(t)
	f.seedPart(t, "p1", "A", "", 5)
	f.seedPart(t, "p2", "B", "", 5)
	uc := f.counter(nil)
	ctx := context.Background()

	sess, err := uc.StartCount(ctx, tenant)
	require.NoError(t, err)
	require.NoError(t, f.parts.DeletePart(ctx, tenant, "p2"))

	res, err := uc.FinishCount(ctx, tenant, "u", sess.SessionID, map[string]int{"p1": 6, "p2": 1})
	require.NoError(t, err)
	require.Len(t, res.Applied, 1)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, "p2", res.Failed[0].PartID)
	assert.NotEmpty(t, res.Failed[0].Error)

	// con fallos la sesión sigue abierta para reintentar
	res, err = uc.FinishCount(ctx, tenant, "u", sess.SessionID, map[string]int{"p1": 6})
	require.NoError(t, err)
	assert.True(t, res.NoDivergence)
}

func TestFinishCount_DerivaDesdeElInicio(t *testing.T) {
	f := newFixture(t)
	f.seedPart(t, "p1", "A", "", 5)
	uc := f.counter(nil)
	ctx := context.Background()

	sess, err := uc.StartCount(ctx, tenant)
	require.NoError(t, err)
	_, err = f.movements.RegisterMovement(ctx, inventory.MovementInput{TenantID: tenant, Actor: "u", PartID: "p1", Type: entity.MovementOutOS, Quantity: 1})
	require.NoError(t, err)

	res, err := uc.FinishCount(ctx, tenant, "u", sess.SessionID, map[string]int{"p1": 5})
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, res.Drifted)
	require.Len(t, res.Applied, 1)
	assert.Equal(t, string(entity.MovementAdjustmentPlus), res.Applied[0].Type)
	assert.Equal(t, 1, res.Applied[0].Quantity)
}

func TestCountSheetPDF_UsaLaFotoInicial(t *testing.T) {
	f := newFixture(t)
	f.seedPart(t, "p1", "A", "", 5)
	f.seedPart(t, "p2", "B", "", 2)
	rec := &sheetRecorder{}
	uc := f.counter(rec)
	ctx := context.Background()

	sess, err := uc.StartCount(ctx, tenant)
	require.NoError(t, err)
	_, err = f.movements.RegisterMovement(ctx, inventory.MovementInput{TenantID: tenant, Actor: "u", PartID: "p1", Type: entity.MovementInInvoice, Quantity: 10})
	require.NoError(t, err)

	pdf, err := uc.CountSheetPDF(ctx, tenant, sess.SessionID)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), pdf)
	require.Len(t, rec.got.Lines, 2)
	for _, l := range rec.got.Lines {
		if l.PartID == "p1" {
			assert.Equal(t, 5, l.Quantity)
		}
	}

	_, err = uc.CountSheetPDF(ctx, tenant, "no-existe")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReplenishment_Prioridad(t *testing.T) {
	f := newFixture(t)
	f.seedPart(t, "p1", "A", "", 2) // mínimo 2: en el mínimo
	f.seedPart(t, "p2", "B", "", 0) // bajo el mínimo
	f.seedPart(t, "p3", "C", "", 9) // ok

	list, err := inventory.NewReplenishmentUseCase(f.store.Parts()).GenerateReplenishmentList(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p2", list[0].PartID)
	assert.Equal(t, 1, list[0].Priority)
	assert.Equal(t, 10, list[0].SuggestedOrderQty)
	assert.True(t, list[0].EstimatedOrderCost.Equal(dec("100")))
	assert.Equal(t, "p1", list[1].PartID)
	assert.Equal(t, 8, list[1].SuggestedOrderQty)
}
