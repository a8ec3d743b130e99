package ports

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// PublishBestEffort publica el evento y solo registra el fallo en log.
func PublishBestEffort(ctx context.Context, p EventPublisher, evt DomainEvent) {
	if p == nil {
		return
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	if err := p.Publish(ctx, evt); err != nil {
		log.Warn().Err(err).
			Str("event", evt.Type).
			Str("aggregate_id", evt.AggregateID).
			Msg("no se pudo publicar evento de dominio")
	}
}
