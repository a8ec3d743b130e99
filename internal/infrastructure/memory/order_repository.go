package memory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

var (
	_ repository.InventoryMovementRepository = (*MovementRepo)(nil)
	_ repository.OrderRepository             = (*OrderRepo)(nil)
	_ repository.CartRepository              = (*CartRepo)(nil)
)

// MovementRepo movimientos en memoria (solo inserción).
type MovementRepo struct{ acc accessor }

// Create agrega un movimiento; la idempotency key es única por producto.
func (r *MovementRepo) Create(_ context.Context, m *entity.InventoryMovement) error {
	return r.acc.with(func(d *dataset) error {
		for _, existing := range d.movements {
			if existing.ID == m.ID {
				return domain.ErrDuplicate
			}
			if m.IdempotencyKey != "" && existing.ProductID == m.ProductID && existing.IdempotencyKey == m.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
		d.movements = append(d.movements, m.Clone())
		return nil
	})
}

// GetByID obtiene un movimiento.
func (r *MovementRepo) GetByID(_ context.Context, id string) (*entity.InventoryMovement, error) {
	var out *entity.InventoryMovement
	err := r.acc.with(func(d *dataset) error {
		for _, m := range d.movements {
			if m.ID == id {
				out = m.Clone()
			}
		}
		return nil
	})
	return out, err
}

// GetByIdempotencyKey busca el movimiento registrado con esa key para el producto.
func (r *MovementRepo) GetByIdempotencyKey(_ context.Context, productID, key string) (*entity.InventoryMovement, error) {
	var out *entity.InventoryMovement
	err := r.acc.with(func(d *dataset) error {
		for _, m := range d.movements {
			if m.ProductID == productID && m.IdempotencyKey == key {
				out = m.Clone()
			}
		}
		return nil
	})
	return out, err
}

// ListByProduct más recientes primero.
func (r *MovementRepo) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	err := r.acc.with(func(d *dataset) error {
		for i := len(d.movements) - 1; i >= 0; i-- {
			if d.movements[i].ProductID == productID {
				out = append(out, d.movements[i].Clone())
			}
		}
		return nil
	})
	return paginate(out, limit, offset), err
}

// CountByProduct cantidad de movimientos del producto.
func (r *MovementRepo) CountByProduct(_ context.Context, productID string) (int, error) {
	n := 0
	err := r.acc.with(func(d *dataset) error {
		for _, m := range d.movements {
			if m.ProductID == productID {
				n++
			}
		}
		return nil
	})
	return n, err
}

// OrderRepo órdenes en memoria.
type OrderRepo struct{ acc accessor }

// Create persiste una orden.
func (r *OrderRepo) Create(_ context.Context, o *entity.Order) error {
	return r.acc.with(func(d *dataset) error {
		if _, ok := d.orders[o.ID]; ok {
			return domain.ErrDuplicate
		}
		d.orders[o.ID] = o.Clone()
		return nil
	})
}

// GetByID obtiene una orden; nil si no existe.
func (r *OrderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	var out *entity.Order
	err := r.acc.with(func(d *dataset) error {
		out = d.orders[id].Clone()
		return nil
	})
	return out, err
}

// UpdateStatus cambia solo el estado.
func (r *OrderRepo) UpdateStatus(_ context.Context, id, status string, at time.Time) error {
	return r.acc.with(func(d *dataset) error {
		o, ok := d.orders[id]
		if !ok {
			return domain.ErrNotFound
		}
		o.Status = status
		o.UpdatedAt = at
		return nil
	})
}

// List más recientes primero.
func (r *OrderRepo) List(_ context.Context, f repository.OrderFilter) ([]*entity.Order, error) {
	var out []*entity.Order
	err := r.acc.with(func(d *dataset) error {
		for _, o := range d.orders {
			if f.UserID != "" && o.UserID != f.UserID {
				continue
			}
			if f.Status != "" && o.Status != f.Status {
				continue
			}
			out = append(out, o.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, f.Limit, f.Offset), err
}

// CartRepo carritos en memoria.
type CartRepo struct{ acc accessor }

// Create persiste un carrito; usuario y sesión son únicos.
func (r *CartRepo) Create(_ context.Context, c *entity.Cart) error {
	return r.acc.with(func(d *dataset) error {
		for _, existing := range d.carts {
			if c.UserID != "" && existing.UserID == c.UserID {
				return domain.ErrDuplicate
			}
			if c.SessionID != "" && existing.SessionID == c.SessionID {
				return domain.ErrDuplicate
			}
		}
		d.carts[c.ID] = c.Clone()
		return nil
	})
}

// GetByID obtiene un carrito.
func (r *CartRepo) GetByID(_ context.Context, id string) (*entity.Cart, error) {
	var out *entity.Cart
	err := r.acc.with(func(d *dataset) error {
		out = d.carts[id].Clone()
		return nil
	})
	return out, err
}

// GetByUserID carrito del usuario.
func (r *CartRepo) GetByUserID(_ context.Context, userID string) (*entity.Cart, error) {
	return r.find(func(c *entity.Cart) bool { return c.UserID == userID })
}

// GetBySessionID carrito de la sesión anónima.
func (r *CartRepo) GetBySessionID(_ context.Context, sessionID string) (*entity.Cart, error) {
	return r.find(func(c *entity.Cart) bool { return c.SessionID == sessionID })
}

func (r *CartRepo) find(match func(c *entity.Cart) bool) (*entity.Cart, error) {
	var out *entity.Cart
	err := r.acc.with(func(d *dataset) error {
		for _, c := range d.carts {
			if match(c) {
				out = c.Clone()
				return nil
			}
		}
		return nil
	})
	return out, err
}

// Update reemplaza items y totales.
func (r *CartRepo) Update(_ context.Context, c *entity.Cart) error {
	return r.acc.with(func(d *dataset) error {
		if _, ok := d.carts[c.ID]; !ok {
			return domain.ErrNotFound
		}
		d.carts[c.ID] = c.Clone()
		return nil
	})
}

// Delete elimina el carrito.
func (r *CartRepo) Delete(_ context.Context, id string) error {
	return r.acc.with(func(d *dataset) error {
		delete(d.carts, id)
		return nil
	})
}
