package repository

import (
	"context"
	"time"

	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

// OrderFilter filtros para el listado administrativo.
type OrderFilter struct {
	UserID string
	Status string
	Limit  int
	Offset int
}

// OrderRepository define el puerto de persistencia para Order.
type OrderRepository interface {
	Create(ctx context.Context, order *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	UpdateStatus(ctx context.Context, id, status string, at time.Time) error
	// List devuelve las órdenes más recientes primero.
	List(ctx context.Context, filter OrderFilter) ([]*entity.Order, error)
}
