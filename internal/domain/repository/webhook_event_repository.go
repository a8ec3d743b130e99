package repository

import (
	"context"

	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

// WebhookEventRepository registro de eventos de webhook ya vistos.
type WebhookEventRepository interface {
	// Reserve crea la entrada solo si no existe; created=false si el ID ya estaba registrado.
	Reserve(ctx context.Context, event *entity.WebhookEvent) (created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.WebhookEvent, error)
	// Reclaim pasa a "processing" una entrada cuyo resultado registrado es "error".
	// Devuelve false si otra entrega ya la reclamó o el resultado no es "error".
	Reclaim(ctx context.Context, id string) (bool, error)
	// RecordOutcome guarda el resultado final del procesamiento.
	RecordOutcome(ctx context.Context, event *entity.WebhookEvent) error
	List(ctx context.Context, limit, offset int) ([]*entity.WebhookEvent, error)
}
