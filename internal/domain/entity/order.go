package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una orden.
const (
	OrderStatusPendiente  = "PENDIENTE"
	OrderStatusConfirmada = "CONFIRMADA"
	OrderStatusEnProceso  = "EN_PROCESO"
	OrderStatusEnviada    = "ENVIADA"
	OrderStatusEntregada  = "ENTREGADA"
	OrderStatusCancelada  = "CANCELADA"
)

// OrderItem línea de la orden; precio y subtotal siempre calculados en el servidor.
type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"name"`
	SizeID      string          `json:"size_id,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// ShippingAddress dirección de envío (se guarda como JSONB).
type ShippingAddress struct {
	Name       string `json:"name"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code,omitempty"`
	Phone      string `json:"phone"`
}

// Order compra con precios y estado. Total = Subtotal + Tax + ShippingCost.
type Order struct {
	ID              string
	UserID          string
	Items           []OrderItem
	Subtotal        decimal.Decimal
	Tax             decimal.Decimal
	ShippingCost    decimal.Decimal
	Total           decimal.Decimal
	Status          string
	ShippingAddress ShippingAddress
	PaymentMethod   string
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Clone copia la orden sin compartir el slice de items.
func (o *Order) Clone() *Order {
	if o == nil {
		return nil
	}
	c := *o
	c.Items = append([]OrderItem(nil), o.Items...)
	return &c
}
