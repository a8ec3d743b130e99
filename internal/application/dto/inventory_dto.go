package dto

import "time"

// RegisterMovementRequest body para POST /api/inventario/movimientos.
// Quantity para entrada/salida/venta/devolucion; NewQuantity (absoluta) para ajuste.
type RegisterMovementRequest struct {
	ProductID      string `json:"product_id"`
	Type           string `json:"type"`
	Quantity       *int   `json:"quantity,omitempty"`
	NewQuantity    *int   `json:"new_quantity,omitempty"`
	SizeID         string `json:"size_id,omitempty"`
	Reason         string `json:"reason"`
	Reference      string `json:"reference,omitempty"`
	OrderID        string `json:"order_id,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// AdjustmentRequest body para POST /api/inventario/ajustes (la key también puede ir en el header Idempotency-Key).
type AdjustmentRequest struct {
	ProductID      string `json:"product_id"`
	SizeID         string `json:"size_id,omitempty"`
	NewQuantity    *int   `json:"new_quantity"`
	Reason         string `json:"reason"`
	Reference      string `json:"reference,omitempty"`
	IdempotencyKey string `json:"idempotency_key,omitempty"`
}

// MovementResponse salida de un movimiento. Reused=true si se devolvió uno ya registrado.
type MovementResponse struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	ProductID      string    `json:"product_id"`
	SizeID         string    `json:"size_id,omitempty"`
	PreviousQty    int       `json:"previous_quantity"`
	NewQty         int       `json:"new_quantity"`
	Difference     int       `json:"difference"`
	Reason         string    `json:"reason,omitempty"`
	Reference      string    `json:"reference,omitempty"`
	OrderID        string    `json:"order_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	IdempotencyKey string    `json:"idempotency_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	Reused         bool      `json:"reused"`
}

// StockResponse stock actual de un producto.
type StockResponse struct {
	ProductID string         `json:"product_id"`
	HasSizes  bool           `json:"has_sizes"`
	Stock     int            `json:"stock"`
	Sizes     map[string]int `json:"sizes,omitempty"`
}

// StockAlertDTO producto (o talla) por debajo de su stock mínimo.
type StockAlertDTO struct {
	ProductID   string `json:"product_id"`
	SKU         string `json:"sku"`
	ProductName string `json:"product_name"`
	SizeID      string `json:"size_id,omitempty"`
	Current     int    `json:"current"`
	Minimum     int    `json:"minimum"`
	Missing     int    `json:"missing"`
}
