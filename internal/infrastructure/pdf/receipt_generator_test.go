package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

func TestGenerateOrderReceipt_DevuelvePDF(t *testing.T) {
	g := NewReceiptGenerator("")
	order := &entity.Order{
		ID:     "9f1c2a7e-0000-4000-8000-000000000001",
		UserID: "u1",
		Items: []entity.OrderItem{
			{ProductID: "p1", ProductName: "Camiseta local", SizeID: "M", Quantity: 2, UnitPrice: decimal.NewFromInt(189900), Subtotal: decimal.NewFromInt(379800)},
			{ProductID: "p2", ProductName: "Balón oficial", Quantity: 1, UnitPrice: decimal.NewFromInt(120000), Subtotal: decimal.NewFromInt(120000)},
		},
		Subtotal:     decimal.NewFromInt(499800),
		Tax:          decimal.Zero,
		ShippingCost: decimal.NewFromInt(12000),
		Total:        decimal.NewFromInt(511800),
		Status:       entity.OrderStatusConfirmada,
		ShippingAddress: entity.ShippingAddress{
			Name: "Ana Pérez", Street: "Calle 10 # 20-30", City: "Medellín", Phone: "3001234567",
		},
		CreatedAt: time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC),
	}

	out, err := g.GenerateOrderReceipt(context.Background(), order)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = g.GenerateOrderReceipt(context.Background(), nil)
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "$189.900", FormatMoney(decimal.NewFromInt(189900)))
	assert.Equal(t, "$221.801,50", FormatMoney(decimal.RequireFromString("221801.5")))
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "9F1C2A7E", ShortID("9f1c2a7e-0000-4000"))
	assert.Equal(t, "ABC", ShortID("abc"))
}
