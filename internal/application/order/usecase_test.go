package order

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/infrastructure/memory"
)

type fakeReceipts struct {
	called int
	err    error
}

func (f *fakeReceipts) GenerateOrderReceipt(_ context.Context, _ *entity.Order) ([]byte, error) {
	f.called++
	return []byte("%PDF"), f.err
}

func seedProducts(t *testing.T, store *memory.Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: "camiseta", SKU: "CAM-01", Name: "Camiseta local", Price: decimal.RequireFromString("89900.50"),
		Active: true, SizeStock: map[string]int{"M": 3, "L": 1},
	}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: "gorra", SKU: "GOR-01", Name: "Gorra", Price: decimal.NewFromInt(30000), Active: true, Stock: 10,
	}))
	require.NoError(t, store.Products().Create(ctx, &entity.Product{
		ID: "bufanda", SKU: "BUF-01", Name: "Bufanda 2019", Price: decimal.NewFromInt(20000), Active: false, Stock: 10,
	}))
}

func newTestUseCase(t *testing.T, tax string) (*UseCase, *memory.Store, *fakeReceipts) {
	t.Helper()
	store := memory.NewStore()
	seedProducts(t, store)
	receipts := &fakeReceipts{}
	return NewUseCase(store.Orders(), store.Products(), nil, receipts, decimal.RequireFromString(tax)), store, receipts
}

func validRequest(items ...dto.OrderItemRequest) dto.CreateOrderRequest {
	return dto.CreateOrderRequest{
		Items:           items,
		ShippingAddress: dto.ShippingAddressDTO{Name: "Ana", Street: "Calle 10 # 5-20", City: "Medellín", Phone: "3001234567"},
		PaymentMethod:   entity.PaymentMethodTarjeta,
	}
}

// ─── Creación ─────────────────────────────────────────────────────────────────

func TestCreateOrder_IgnoraPrecioDelCliente(t *testing.T) {
	uc, store, _ := newTestUseCase(t, "0")
	fake := decimal.NewFromInt(1)
	req := validRequest(
		dto.OrderItemRequest{ProductID: "camiseta", SizeID: "M", Quantity: 2, UnitPrice: &fake},
		dto.OrderItemRequest{ProductID: "gorra", Quantity: 1, UnitPrice: &fake},
	)
	shipping := decimal.NewFromInt(12000)
	req.ShippingCost = &shipping

	out, err := uc.CreateOrder(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusPendiente, out.Status)
	assert.Equal(t, "89900.5", out.Items[0].UnitPrice.String())
	assert.Equal(t, "209801", out.Subtotal.String())
	assert.Equal(t, "221801", out.Total.String())

	saved, err := store.Orders().GetByID(context.Background(), out.ID)
	require.NoError(t, err)
	assert.True(t, saved.Total.Equal(decimal.NewFromInt(221801)))
}

func TestCreateOrder_AplicaImpuesto(t *testing.T) {
	uc, _, _ := newTestUseCase(t, "0.19")
	out, err := uc.CreateOrder(context.Background(), "u1", validRequest(dto.OrderItemRequest{ProductID: "gorra", Quantity: 1}))
	require.NoError(t, err)
	assert.Equal(t, "5700", out.Tax.String())
	assert.Equal(t, "35700", out.Total.String())
}

func TestCreateOrder_Rechazos(t *testing.T) {
	uc, _, _ := newTestUseCase(t, "0")
	ctx := context.Background()

	tests := []struct {
		name string
		item dto.OrderItemRequest
		kind error
		code string
	}{
		{"producto inexistente", dto.OrderItemRequest{ProductID: "nada", Quantity: 1}, domain.ErrNotFound, domain.CodeNotFound},
		{"producto inactivo", dto.OrderItemRequest{ProductID: "bufanda", Quantity: 1}, domain.ErrInvalidInput, domain.CodeProductInactive},
		{"sin stock", dto.OrderItemRequest{ProductID: "camiseta", SizeID: "L", Quantity: 2}, domain.ErrInsufficientStock, domain.CodeInsufficientStock},
		{"sin talla", dto.OrderItemRequest{ProductID: "camiseta", Quantity: 1}, domain.ErrInvalidInput, domain.CodeSizeRequired},
		{"cantidad cero", dto.OrderItemRequest{ProductID: "gorra", Quantity: 0}, domain.ErrInvalidInput, domain.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.CreateOrder(ctx, "u1", validRequest(tt.item))
			assert.ErrorIs(t, err, tt.kind)
			assert.Equal(t, tt.code, domain.CodeOf(err, ""))
		})
	}
}

func TestCreateOrder_SumaLineasRepetidasContraStock(t *testing.T) {
	uc, _, _ := newTestUseCase(t, "0")
	_, err := uc.CreateOrder(context.Background(), "u1", validRequest(
		dto.OrderItemRequest{ProductID: "camiseta", SizeID: "M", Quantity: 2},
		dto.OrderItemRequest{ProductID: "camiseta", SizeID: "M", Quantity: 2},
	))
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

// ─── Estados y permisos ───────────────────────────────────────────────────────

func TestUpdateStatus_GrafoYPermisos(t *testing.T) {
	uc, _, _ := newTestUseCase(t, "0")
	ctx := context.Background()
	o, err := uc.CreateOrder(ctx, "u1", validRequest(dto.OrderItemRequest{ProductID: "gorra", Quantity: 1}))
	require.NoError(t, err)

	_, err = uc.UpdateStatus(ctx, o.ID, "otro", entity.RoleCliente, entity.OrderStatusCancelada)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.UpdateStatus(ctx, o.ID, "admin-1", entity.RoleAdmin, entity.OrderStatusEnviada)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, domain.CodeInvalidTransition, domain.CodeOf(err, ""))

	updated, err := uc.UpdateStatus(ctx, o.ID, "staff-1", entity.RoleStaff, entity.OrderStatusConfirmada)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusConfirmada, updated.Status)

	cancelled, err := uc.UpdateStatus(ctx, o.ID, "u1", entity.RoleCliente, entity.OrderStatusCancelada)
	require.NoError(t, err)
	assert.Equal(t, entity.OrderStatusCancelada, cancelled.Status)

	_, err = uc.UpdateStatus(ctx, o.ID, "u1", entity.RoleCliente, entity.OrderStatusCancelada)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestGetOrder_SoloDuenoOPersonal(t *testing.T) {
	uc, _, _ := newTestUseCase(t, "0")
	ctx := context.Background()
	o, err := uc.CreateOrder(ctx, "u1", validRequest(dto.OrderItemRequest{ProductID: "gorra", Quantity: 1}))
	require.NoError(t, err)

	_, err = uc.GetOrder(ctx, o.ID, "u2", entity.RoleCliente)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	got, err := uc.GetOrder(ctx, o.ID, "staff", entity.RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, o.ID, got.ID)

	_, err = uc.GetOrder(ctx, "no-existe", "u1", entity.RoleCliente)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListMine_SoloPropias(t *testing.T) {
	uc, _, _ := newTestUseCase(t, "0")
	ctx := context.Background()
	_, err := uc.CreateOrder(ctx, "u1", validRequest(dto.OrderItemRequest{ProductID: "gorra", Quantity: 1}))
	require.NoError(t, err)
	_, err = uc.CreateOrder(ctx, "u2", validRequest(dto.OrderItemRequest{ProductID: "gorra", Quantity: 1}))
	require.NoError(t, err)

	mine, err := uc.ListMine(ctx, "u1", dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, "u1", mine.Items[0].UserID)

	all, err := uc.ListAll(ctx, entity.OrderStatusPendiente, dto.PageRequest{})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
}

func TestReceipt_UsaGenerador(t *testing.T) {
	uc, _, receipts := newTestUseCase(t, "0")
	ctx := context.Background()
	o, err := uc.CreateOrder(ctx, "u1", validRequest(dto.OrderItemRequest{ProductID: "gorra", Quantity: 1}))
	require.NoError(t, err)

	pdf, name, err := uc.Receipt(ctx, o.ID, "u1", entity.RoleCliente)
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), pdf)
	assert.Equal(t, "orden_"+o.ID[:8]+".pdf", name)
	assert.Equal(t, 1, receipts.called)

	receipts.err = errors.New("sin fuentes")
	_, _, err = uc.Receipt(ctx, o.ID, "u1", entity.RoleCliente)
	assert.Error(t, err)
}
