package repository

import (
	"context"

	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

// PaymentRepository define el puerto de persistencia para Payment.
// La idempotency key es única: Create devuelve domain.ErrDuplicate si ya existe.
type PaymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	GetByID(ctx context.Context, id string) (*entity.Payment, error)
	// GetForUpdate bloquea el pago hasta el fin de la transacción.
	GetForUpdate(ctx context.Context, id string) (*entity.Payment, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (*entity.Payment, error)
	GetByCheckoutSessionID(ctx context.Context, sessionID string) (*entity.Payment, error)
	// FindActiveByOrderAndUser devuelve el pago activo más reciente o nil.
	FindActiveByOrderAndUser(ctx context.Context, orderID, userID string) (*entity.Payment, error)
	CountByOrderAndUser(ctx context.Context, orderID, userID string) (int, error)
	// ListByOrder devuelve los pagos más recientes primero.
	ListByOrder(ctx context.Context, orderID string) ([]*entity.Payment, error)
	Update(ctx context.Context, payment *entity.Payment) error
}
