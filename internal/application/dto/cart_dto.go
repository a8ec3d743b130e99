package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// AddCartItemRequest body para POST /api/carrito/items. El precio nunca se acepta del cliente.
type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	SizeID    string `json:"size_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// UpdateCartItemRequest body para PUT /api/carrito/items. Quantity=0 elimina la línea.
type UpdateCartItemRequest struct {
	ProductID string `json:"product_id"`
	SizeID    string `json:"size_id,omitempty"`
	Quantity  int    `json:"quantity"`
}

// MergeCartRequest body para POST /api/carrito/fusionar.
type MergeCartRequest struct {
	SessionID string `json:"session_id"`
}

// CheckoutRequest body para POST /api/carrito/checkout.
type CheckoutRequest struct {
	ShippingAddress ShippingAddressDTO `json:"shipping_address"`
	PaymentMethod   string             `json:"payment_method"`
	ShippingCost    *decimal.Decimal   `json:"shipping_cost,omitempty"`
	Notes           string             `json:"notes,omitempty"`
}

// CartItemResponse línea del carrito.
type CartItemResponse struct {
	ProductID string          `json:"product_id"`
	SizeID    string          `json:"size_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartResponse salida del carrito.
type CartResponse struct {
	ID        string             `json:"id"`
	UserID    string             `json:"user_id,omitempty"`
	SessionID string             `json:"session_id,omitempty"`
	Items     []CartItemResponse `json:"items"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	Total     decimal.Decimal    `json:"total"`
	UpdatedAt time.Time          `json:"updated_at"`
}
