package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/marina-inventario/internal/domain"
	"github.com/jhoicas/marina-inventario/internal/domain/entity"
	"github.com/jhoicas/marina-inventario/internal/domain/repository"
)

func newPart(id, sku string) *entity.Part {
	return &entity.Part{ID: id, TenantID: "t1", SKU: sku, Name: "Pieza " + sku, Price: decimal.NewFromInt(10), Version: 1}
}

func TestTxRunner_RevierteAlFallar(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	require.NoError(t, s.Parts().Create(ctx, newPart("p1", "A")))

	err := s.TxRunner().Run(ctx, func(movRepo repository.StockMovementRepository, partRepo repository.PartRepository) error {
		require.NoError(t, movRepo.Create(ctx, &entity.StockMovement{ID: "m1", TenantID: "t1", PartID: "p1", Type: entity.MovementInInvoice, Quantity: 3}))
		require.NoError(t, partRepo.SetQuantity(ctx, "t1", "p1", 3))
		return errors.New("boom")
	})
	require.Error(t, err)

	assert.Zero(t, s.MovementCount())
	p, err := s.Parts().GetByID(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Zero(t, p.Quantity)
}

func TestPartRepository_UnicidadYBorradoLogico(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Parts()
	require.NoError(t, repo.Create(ctx, newPart("p1", "A")))
	assert.ErrorIs(t, repo.Create(ctx, newPart("p2", "A")), domain.ErrDuplicate)

	ok, err := repo.SoftDelete(ctx, "t1", "p1", time.Now())
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := repo.GetByID(ctx, "t1", "p1")
	require.NoError(t, err)
	assert.Nil(t, got)

	// el SKU queda libre y la pieza eliminada sigue resolviéndose por id
	require.NoError(t, repo.Create(ctx, newPart("p2", "A")))
	all, err := repo.ListByIDs(ctx, "t1", []string{"p1"})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].IsDeleted())
}

func TestPartRepository_UpdateVersionYCantidad(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	repo := s.Parts()
	require.NoError(t, repo.Create(ctx, newPart("p1", "A")))
	require.NoError(t, repo.SetQuantity(ctx, "t1", "p1", 7))

	edit := newPart("p1", "A")
	edit.Quantity = 999
	edit.Name = "Filtro"
	require.NoError(t, repo.Update(ctx, edit))
	assert.Equal(t, 2, edit.Version)

	stale := newPart("p1", "A")
	assert.ErrorIs(t, repo.Update(ctx, stale), domain.ErrConflict)

	got, _ := repo.GetByID(ctx, "t1", "p1")
	assert.Equal(t, 7, got.Quantity)
	assert.Equal(t, "Filtro", got.Name)
}

func TestPartRepository_Filtros(t *testing.T) {
	ctx := context.Background()
	repo := NewStore().Parts()
	a := newPart("p1", "8M0123")
	a.Name, a.Group, a.Compatibility = "Impulsor", "Bomba de agua", []string{"Verado 250"}
	b := newPart("p2", "35-879")
	b.Name, b.Barcode = "Filtro de combustible", "7891234"
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	got, _ := repo.ListByTenant(ctx, "t1", repository.PartFilter{Search: "789"})
	require.Len(t, got, 1)
	assert.Equal(t, "p2", got[0].ID)

	got, _ = repo.ListByTenant(ctx, "t1", repository.PartFilter{Compatibility: "verado"})
	require.Len(t, got, 1)
	assert.Equal(t, "p1", got[0].ID)

	got, _ = repo.ListByTenant(ctx, "t1", repository.PartFilter{Group: "bomba de agua"})
	assert.Len(t, got, 1)

	got, _ = repo.ListByTenant(ctx, "otro", repository.PartFilter{})
	assert.Empty(t, got)
}

func TestSessionStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "count", "c1", map[string]int{"p1": 3}, time.Minute))
	var got map[string]int
	require.NoError(t, s.Load(ctx, "count", "c1", &got))
	assert.Equal(t, 3, got["p1"])

	now = now.Add(2 * time.Minute)
	assert.ErrorIs(t, s.Load(ctx, "count", "c1", &got), domain.ErrNotFound)
}
