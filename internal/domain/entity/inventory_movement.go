package entity

import "time"

// Tipos de movimiento de inventario.
const (
	MovementTypeEntrada    = "entrada"
	MovementTypeSalida     = "salida"
	MovementTypeVenta      = "venta"
	MovementTypeDevolucion = "devolucion"
	MovementTypeAjuste     = "ajuste"
)

// IsValidMovementType indica si t es un tipo de movimiento soportado.
func IsValidMovementType(t string) bool {
	switch t {
	case MovementTypeEntrada, MovementTypeSalida, MovementTypeVenta, MovementTypeDevolucion, MovementTypeAjuste:
		return true
	}
	return false
}

// RequiresOrder venta y devolución deben referenciar una orden existente.
func RequiresOrder(t string) bool {
	return t == MovementTypeVenta || t == MovementTypeDevolucion
}

// InventoryMovement registro inmutable de un cambio de stock (antes, después y diferencia).
type InventoryMovement struct {
	ID             string
	Type           string
	ProductID      string
	SizeID         string // vacío si el producto no maneja tallas
	PreviousQty    int
	NewQty         int
	Difference     int
	Reason         string
	Reference      string
	OrderID        string
	UserID         string
	IdempotencyKey string
	CreatedAt      time.Time
}

// Clone copia el movimiento.
func (m *InventoryMovement) Clone() *InventoryMovement {
	if m == nil {
		return nil
	}
	c := *m
	return &c
}
