package repository

import (
	"context"

	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

// CartRepository define el puerto de persistencia para Cart.
type CartRepository interface {
	Create(ctx context.Context, cart *entity.Cart) error
	GetByID(ctx context.Context, id string) (*entity.Cart, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Cart, error)
	GetBySessionID(ctx context.Context, sessionID string) (*entity.Cart, error)
	Update(ctx context.Context, cart *entity.Cart) error
	Delete(ctx context.Context, id string) error
}
