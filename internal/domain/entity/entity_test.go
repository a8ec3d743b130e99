package entity_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Regla de talla
// ──────────────────────────────────────────────────────────────────────────────

func TestProduct_ValidateSize(t *testing.T) {
	sized := &entity.Product{SizeStock: map[string]int{"M": 3, "L": 0}}
	plain := &entity.Product{Stock: 5}

	cases := []struct {
		name string
		p    *entity.Product
		size string
		code string
	}{
		{"talla requerida", sized, "", domain.CodeSizeRequired},
		{"talla no válida", sized, "XL", domain.CodeSizeInvalid},
		{"talla registrada con cero", sized, "L", ""},
		{"sin tallas y con talla", plain, "M", domain.CodeSizeNotAllowed},
		{"sin tallas y sin talla", plain, "", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.ValidateSize(tc.size)
			if tc.code == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			assert.Equal(t, tc.code, domain.CodeOf(err, ""))
		})
	}
}

func TestProduct_SetStockForNoTocaOtrasTallas(t *testing.T) {
	p := &entity.Product{Stock: 99, SizeStock: map[string]int{"S": 1, "M": 2}}
	p.SetStockFor("M", 7)

	assert.Equal(t, map[string]int{"S": 1, "M": 7}, p.SizeStock)
	assert.Equal(t, 99, p.Stock, "un producto de tallas nunca toca existencias")
}

func TestProduct_CloneNoComparteMapas(t *testing.T) {
	p := &entity.Product{SizeStock: map[string]int{"S": 1}}
	c := p.Clone()
	c.SizeStock["S"] = 10
	assert.Equal(t, 1, p.SizeStock["S"])
}

// ──────────────────────────────────────────────────────────────────────────────
// Carrito y orden
// ──────────────────────────────────────────────────────────────────────────────

func TestCart_RecalculateRedondeaUnaVez(t *testing.T) {
	c := &entity.Cart{Items: []entity.CartItem{
		{ProductID: "a", Quantity: 1, UnitPrice: decimal.RequireFromString("0.005")},
		{ProductID: "b", Quantity: 1, UnitPrice: decimal.RequireFromString("0.005")},
	}}
	c.Recalculate()
	first := c.Subtotal
	c.Recalculate()

	// redondeando por línea daría 0.02
	assert.True(t, decimal.RequireFromString("0.01").Equal(first), "subtotal=%s", first)
	assert.True(t, first.Equal(c.Subtotal))
	assert.True(t, c.Total.Equal(c.Subtotal))
}

func TestCanTransition(t *testing.T) {
	assert.True(t, entity.CanTransition(entity.OrderStatusPendiente, entity.OrderStatusConfirmada))
	assert.True(t, entity.CanTransition(entity.OrderStatusEnviada, entity.OrderStatusCancelada))
	assert.False(t, entity.CanTransition(entity.OrderStatusEntregada, entity.OrderStatusPendiente))
	assert.False(t, entity.CanTransition(entity.OrderStatusCancelada, entity.OrderStatusCancelada))
	assert.False(t, entity.CanTransition(entity.OrderStatusPendiente, entity.OrderStatusEnviada))
}

func TestPayment_MarkEventProcessedNoDuplica(t *testing.T) {
	p := &entity.Payment{Status: entity.PaymentStatusProcesando}
	p.MarkEventProcessed("evt_1")
	p.MarkEventProcessed("evt_1")

	assert.Equal(t, []string{"evt_1"}, p.ProcessedEventIDs)
	assert.True(t, p.IsActive())
}
