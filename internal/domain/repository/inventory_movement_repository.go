package repository

import (
	"context"

	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

// InventoryMovementRepository define el puerto de persistencia para movimientos de inventario (solo inserción).
type InventoryMovementRepository interface {
	Create(ctx context.Context, movement *entity.InventoryMovement) error
	GetByID(ctx context.Context, id string) (*entity.InventoryMovement, error)
	GetByIdempotencyKey(ctx context.Context, productID, key string) (*entity.InventoryMovement, error)
	// ListByProduct devuelve los movimientos más recientes primero.
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.InventoryMovement, error)
	CountByProduct(ctx context.Context, productID string) (int, error)
}
