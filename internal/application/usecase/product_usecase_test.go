package usecase

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/infrastructure/memory"
)

func newProductUC() *ProductUseCase {
	store := memory.NewStore()
	return NewProductUseCase(store.Products(), store.Categories())
}

// ─── Catálogo ─────────────────────────────────────────────────────────────────

func TestProductUseCase_CrearConTallas(t *testing.T) {
	uc := newProductUC()
	ctx := context.Background()

	cat, err := uc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Camisetas", Code: "CAM"})
	require.NoError(t, err)

	p, err := uc.Create(ctx, dto.CreateProductRequest{
		SKU: "CAM-LOCAL-24", Name: "Camiseta local 2024", CategoryID: cat.ID,
		Price: decimal.NewFromInt(189900), Stock: 99,
		Sizes: map[string]int{"S": 3, "M": 5},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, p.Stock)
	assert.Equal(t, map[string]int{"S": 3, "M": 5}, p.Sizes)
	assert.True(t, p.Active)

	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "CAM-LOCAL-24", Name: "Otra", Price: decimal.NewFromInt(1)})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestProductUseCase_Validaciones(t *testing.T) {
	uc := newProductUC()
	ctx := context.Background()

	cases := []struct {
		name string
		in   dto.CreateProductRequest
	}{
		{"sin sku", dto.CreateProductRequest{Name: "Balón", Price: decimal.NewFromInt(1)}},
		{"precio cero", dto.CreateProductRequest{SKU: "B1", Name: "Balón"}},
		{"stock negativo", dto.CreateProductRequest{SKU: "B1", Name: "Balón", Price: decimal.NewFromInt(1), Stock: -1}},
		{"talla negativa", dto.CreateProductRequest{SKU: "B1", Name: "Balón", Price: decimal.NewFromInt(1), Sizes: map[string]int{"M": -2}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Create(ctx, tc.in)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}

	_, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "B1", Name: "Balón", Price: decimal.NewFromInt(1), CategoryID: "no-existe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProductUseCase_InactivoSoloParaPersonal(t *testing.T) {
	uc := newProductUC()
	ctx := context.Background()

	inactive := false
	p, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "BUF-01", Name: "Bufanda", Price: decimal.NewFromInt(45000), Stock: 4, Active: &inactive})
	require.NoError(t, err)
	_, err = uc.Create(ctx, dto.CreateProductRequest{SKU: "BAL-01", Name: "Balón", Price: decimal.NewFromInt(120000), Stock: 2})
	require.NoError(t, err)

	_, err = uc.GetByID(ctx, p.ID, false)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	got, err := uc.GetByID(ctx, p.ID, true)
	require.NoError(t, err)
	assert.False(t, got.Active)

	public, err := uc.List(ctx, "", false, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, public.Items, 1)
	assert.Equal(t, "BAL-01", public.Items[0].SKU)
	assert.Equal(t, 20, public.Page.Limit)

	all, err := uc.List(ctx, "", true, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestProductUseCase_UpdateNoTocaStock(t *testing.T) {
	uc := newProductUC()
	ctx := context.Background()

	p, err := uc.Create(ctx, dto.CreateProductRequest{SKU: "GOR-01", Name: "Gorra", Price: decimal.NewFromInt(39000), Stock: 7})
	require.NoError(t, err)

	price := decimal.NewFromInt(35000)
	name := "Gorra edición especial"
	out, err := uc.Update(ctx, p.ID, dto.UpdateProductRequest{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, name, out.Name)
	assert.True(t, price.Equal(out.Price))
	assert.Equal(t, 7, out.Stock)

	zero := decimal.Zero
	_, err = uc.Update(ctx, p.ID, dto.UpdateProductRequest{Price: &zero})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Update(ctx, "no-existe", dto.UpdateProductRequest{Name: &name})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── Categorías ───────────────────────────────────────────────────────────────

func TestProductUseCase_Categorias(t *testing.T) {
	uc := newProductUC()
	ctx := context.Background()

	root, err := uc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Indumentaria", Code: "IND"})
	require.NoError(t, err)
	_, err = uc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Chaquetas", Code: "CHA", ParentID: root.ID})
	require.NoError(t, err)

	_, err = uc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Repetida", Code: "IND"})
	assert.ErrorIs(t, err, domain.ErrDuplicate)
	_, err = uc.CreateCategory(ctx, dto.CreateCategoryRequest{Name: "Huérfana", Code: "HUE", ParentID: "no-existe"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := uc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}
