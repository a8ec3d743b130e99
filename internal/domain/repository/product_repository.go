package repository

import (
	"context"

	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

// ProductFilter filtros para listar el catálogo.
type ProductFilter struct {
	OnlyActive bool
	CategoryID string
	LineID     string
	Limit      int
	Offset     int
}

// ProductRepository define el puerto de persistencia para Product (DIP).
type ProductRepository interface {
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id string) (*entity.Product, error)
	// GetForUpdate bloquea el producto hasta el fin de la transacción (usar solo dentro de TxRunner).
	GetForUpdate(ctx context.Context, id string) (*entity.Product, error)
	GetBySKU(ctx context.Context, sku string) (*entity.Product, error)
	// Update modifica datos de catálogo; no toca stock (se maneja vía movimientos).
	Update(ctx context.Context, product *entity.Product) error
	// UpdateStock escribe solo la entrada de la talla (o las existencias si sizeID es vacío).
	UpdateStock(ctx context.Context, productID, sizeID string, qty int) error
	List(ctx context.Context, filter ProductFilter) ([]*entity.Product, error)
}
