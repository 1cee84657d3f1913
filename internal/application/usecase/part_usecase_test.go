package usecase_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marina-inventario/internal/application/dto"
	"github.com/jhoicas/marina-inventario/internal/application/usecase"
	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
	"github.com/jhoicas/marina-inventario/internal/infrastructure/memory"
	"github.com/jhoicas/marina-inventario/pkg/logger"
)

const tenant = "taller-1"

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}
func sp(s string) *string { return &s }

type workbookStub struct {
	n    int
	rows []dto.CreatePartRequest
}

func (w *workbookStub) RenderParts(parts []*entity.Part) ([]byte, error) {
	w.n = len(parts)
	return []byte("xlsx"), nil
}

func (w *workbookStub) ReadParts(io.Reader) ([]dto.CreatePartRequest, error) {
	return w.rows, nil
}

func newPartUC(t *testing.T) (*usecase.PartUseCase, *memory.Store, *workbookStub) {
	t.Helper()
	store := memory.NewStore()
	wb := &workbookStub{}
	return usecase.NewPartUseCase(store.Parts(), wb, logger.Nop()), store, wb
}

func create(t *testing.T, uc *usecase.PartUseCase, sku string) *dto.PartResponse {
	t.Helper()
	p, err := uc.CreatePart(context.Background(), tenant, dto.CreatePartRequest{
		SKU: sku, Name: "Impulsor " + sku, Price: d("120"), Cost: d("80"), Quantity: 3, MinStock: 1,
	})
	require.NoError(t, err)
	return p
}

func TestCreatePart_CamposObligatorios(t *testing.T) {
	uc, store, _ := newPartUC(t)
	ctx := context.Background()

	cases := map[string]dto.CreatePartRequest{
		"name":  {SKU: "A", Price: d("10")},
		"sku":   {Name: "x", Price: d("10")},
		"price": {SKU: "A", Name: "x"},
	}
	for field, in := range cases {
		_, err := uc.CreatePart(ctx, tenant, in)
		var vErr *domain.ValidationError
		require.True(t, errors.As(err, &vErr), field)
		assert.Equal(t, field, vErr.Field)
	}
	list, err := store.Parts().ListByTenant(ctx, tenant, repository.PartFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreatePart_ValoresPorDefectoYDuplicados(t *testing.T) {
	uc, _, _ := newPartUC(t)
	ctx := context.Background()

	p, err := uc.CreatePart(ctx, tenant, dto.CreatePartRequest{SKU: "8M0123", Barcode: "789", Name: "Impulsor", Price: d("99.9")})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Zero(t, p.Quantity)
	assert.Zero(t, p.MinStock)
	assert.True(t, p.Cost.IsZero())
	assert.Equal(t, 1, p.Version)

	_, err = uc.CreatePart(ctx, tenant, dto.CreatePartRequest{SKU: "8M0123", Name: "Otro", Price: d("1")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = uc.CreatePart(ctx, tenant, dto.CreatePartRequest{SKU: "NUEVO", Barcode: "789", Name: "Otro", Price: d("1")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestUpdatePart_ReglaDeMargen(t *testing.T) {
	uc, _, _ := newPartUC(t)
	ctx := context.Background()
	p := create(t, uc, "A")

	out, err := uc.UpdatePart(ctx, tenant, p.ID, dto.UpdatePartRequest{Cost: dp("100"), Price: dp("100")})
	require.NoError(t, err)
	assert.True(t, d("160").Equal(out.Price), out.Price.String())

	out, err = uc.UpdatePart(ctx, tenant, p.ID, dto.UpdatePartRequest{Cost: dp("0"), Price: dp("0")})
	require.NoError(t, err)
	assert.True(t, out.Price.IsZero())

	out, err = uc.UpdatePart(ctx, tenant, p.ID, dto.UpdatePartRequest{Cost: dp("100"), Price: dp("150")})
	require.NoError(t, err)
	assert.True(t, d("150").Equal(out.Price))

	// solo el costo cambia y queda igual al precio guardado
	out, err = uc.UpdatePart(ctx, tenant, p.ID, dto.UpdatePartRequest{Cost: dp("150")})
	require.NoError(t, err)
	assert.True(t, d("240").Equal(out.Price))
}

func TestUpdatePart_NoTocaCantidad(t *testing.T) {
	uc, _, _ := newPartUC(t)
	ctx := context.Background()
	p := create(t, uc, "A")

	out, err := uc.UpdatePart(ctx, tenant, p.ID, dto.UpdatePartRequest{Name: sp("Impulsor Verado"), Compatibility: []string{" Verado 250 ", "verado 250", ""}})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Quantity)
	assert.Equal(t, []string{"Verado 250"}, out.Compatibility)
	assert.Equal(t, 2, out.Version)
}

func TestUpdatePart_ConflictoDeVersion(t *testing.T) {
	uc, _, _ := newPartUC(t)
	ctx := context.Background()
	p := create(t, uc, "A")

	v := p.Version
	_, err := uc.UpdatePart(ctx, tenant, p.ID, dto.UpdatePartRequest{Location: sp("A-1"), Version: &v})
	require.NoError(t, err)

	_, err = uc.UpdatePart(ctx, tenant, p.ID, dto.UpdatePartRequest{Location: sp("B-2"), Version: &v})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdatePart_Validaciones(t *testing.T) {
	uc, _, _ := newPartUC(t)
	ctx := context.Background()
	p := create(t, uc, "A")
	create(t, uc, "B")

	_, err := uc.UpdatePart(ctx, tenant, p.ID, dto.UpdatePartRequest{Cost: dp("-1")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = uc.UpdatePart(ctx, tenant, p.ID, dto.UpdatePartRequest{SKU: sp("B")})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = uc.UpdatePart(ctx, tenant, "nada", dto.UpdatePartRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeletePart_Logico(t *testing.T) {
	uc, _, _ := newPartUC(t)
	ctx := context.Background()
	p := create(t, uc, "A")

	require.NoError(t, uc.DeletePart(ctx, tenant, p.ID))
	_, err := uc.GetPart(ctx, tenant, p.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, uc.DeletePart(ctx, tenant, p.ID), domain.ErrNotFound)
}

func TestListYExport(t *testing.T) {
	uc, _, wb := newPartUC(t)
	ctx := context.Background()
	create(t, uc, "8M0123")
	create(t, uc, "35-879")

	list, err := uc.ListParts(ctx, tenant, dto.PartListQuery{Search: "8m01"})
	require.NoError(t, err)
	require.Equal(t, 1, list.Total)
	assert.Equal(t, "8M0123", list.Items[0].SKU)

	data, err := uc.ExportParts(ctx, tenant)
	require.NoError(t, err)
	assert.Equal(t, []byte("xlsx"), data)
	assert.Equal(t, 2, wb.n)
}

func TestImportParts_CreaYActualiza(t *testing.T) {
	uc, store, wb := newPartUC(t)
	ctx := context.Background()
	existing := create(t, uc, "8M0123")

	wb.rows = []dto.CreatePartRequest{
		{SKU: "8M0123", Name: "Impulsor nuevo nombre", Cost: d("90"), Price: d("0"), Quantity: 50, MinStock: 2},
		{SKU: "35-879", Name: "Filtro ATTWOOD", Cost: d("10"), Price: d("25"), Quantity: 4},
		{SKU: "", Name: "sin código", Price: d("1")},
		{SKU: "99-1", Name: "sin precio"},
	}
	res, err := uc.ImportPartsWorkbook(ctx, tenant, strings.NewReader("xlsx"))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Failed, 2)
	assert.Equal(t, 4, res.Failed[0].Row)
	assert.Equal(t, 5, res.Failed[1].Row)
	assert.Equal(t, "99-1", res.Failed[1].SKU)

	updated, err := uc.GetPart(ctx, tenant, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, "Impulsor nuevo nombre", updated.Name)
	assert.Equal(t, 3, updated.Quantity, "la carga no toca el stock de piezas existentes")
	assert.True(t, updated.Price.Equal(d("120")), "precio cero en la planilla se ignora")
	assert.True(t, updated.Cost.Equal(d("90")))
	assert.Equal(t, "Mercury", updated.Manufacturer)

	created, err := store.Parts().GetBySKU(ctx, tenant, "35-879")
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, 4, created.Quantity)
	assert.Equal(t, "Attwood", created.Manufacturer)
}
