package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartItem línea del carrito. UnitPrice siempre se lee del producto.
type CartItem struct {
	ProductID string          `json:"product_id"`
	SizeID    string          `json:"size_id,omitempty"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Cart carrito previo al checkout. Pertenece a un usuario o a una sesión anónima, nunca a ambos.
type Cart struct {
	ID        string
	UserID    string
	SessionID string
	Items     []CartItem
	Subtotal  decimal.Decimal
	Total     decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FindItem devuelve el índice de la línea (producto, talla) o -1.
func (c *Cart) FindItem(productID, sizeID string) int {
	for i, it := range c.Items {
		if it.ProductID == productID && it.SizeID == sizeID {
			return i
		}
	}
	return -1
}

// RemoveAt elimina la línea i.
func (c *Cart) RemoveAt(i int) {
	c.Items = append(c.Items[:i], c.Items[i+1:]...)
}

// Recalculate subtotal = Σ(precio × cantidad) redondeado a 2 decimales una sola vez; total = subtotal.
// Impuestos y envío se aplican solo en la orden.
func (c *Cart) Recalculate() {
	sum := decimal.Zero
	for _, it := range c.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	c.Subtotal = sum.Round(2)
	c.Total = c.Subtotal
}

// Clone copia el carrito sin compartir items.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Items = append([]CartItem(nil), c.Items...)
	return &cp
}
