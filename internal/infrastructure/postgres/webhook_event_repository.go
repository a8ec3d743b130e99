package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

var _ repository.WebhookEventRepository = (*WebhookEventRepo)(nil)

const webhookColumns = `id, type, outcome, reason, payment_id, order_id, attempts, created_at, updated_at`

// WebhookEventRepo registro de eventos vistos. La PK sobre el id del proveedor es la deduplicación.
type WebhookEventRepo struct {
	q Querier
}

// NewWebhookEventRepository construye el adaptador.
func NewWebhookEventRepository(q Querier) *WebhookEventRepo {
	return &WebhookEventRepo{q: q}
}

// Reserve inserta con ON CONFLICT DO NOTHING; created=false si otra entrega ya lo registró.
func (r *WebhookEventRepo) Reserve(ctx context.Context, e *entity.WebhookEvent) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		INSERT INTO webhook_events (`+webhookColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.Type, e.Outcome, e.Reason, e.PaymentID, e.OrderID, e.Attempts, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("reserve webhook event: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// GetByID obtiene la entrada.
func (r *WebhookEventRepo) GetByID(ctx context.Context, id string) (*entity.WebhookEvent, error) {
	e, err := scanWebhookEvent(r.q.QueryRow(ctx, `SELECT `+webhookColumns+` FROM webhook_events WHERE id = $1`, id))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get webhook event: %w", err)
	}
	return e, nil
}

// Reclaim UPDATE condicional: solo una entrega concurrente gana el reintento de un evento en error.
func (r *WebhookEventRepo) Reclaim(ctx context.Context, id string) (bool, error) {
	cmd, err := r.q.Exec(ctx, `
		UPDATE webhook_events SET outcome = $2, attempts = attempts + 1, updated_at = now()
		WHERE id = $1 AND outcome = $3`,
		id, entity.WebhookOutcomeProcessing, entity.WebhookOutcomeError,
	)
	if err != nil {
		return false, fmt.Errorf("reclaim webhook event: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

// RecordOutcome guarda el resultado final.
func (r *WebhookEventRepo) RecordOutcome(ctx context.Context, e *entity.WebhookEvent) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE webhook_events SET outcome = $2, reason = $3, payment_id = $4, order_id = $5, updated_at = $6
		WHERE id = $1`,
		e.ID, e.Outcome, e.Reason, e.PaymentID, e.OrderID, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("record webhook outcome: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List más recientes primero.
func (r *WebhookEventRepo) List(ctx context.Context, limit, offset int) ([]*entity.WebhookEvent, error) {
	rows, err := r.q.Query(ctx, `SELECT `+webhookColumns+` FROM webhook_events ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limitOrAll(limit), offset)
	if err != nil {
		return nil, fmt.Errorf("list webhook events: %w", err)
	}
	defer rows.Close()
	var list []*entity.WebhookEvent
	for rows.Next() {
		e, err := scanWebhookEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan webhook event: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func scanWebhookEvent(row rowScanner) (*entity.WebhookEvent, error) {
	var e entity.WebhookEvent
	if err := row.Scan(&e.ID, &e.Type, &e.Outcome, &e.Reason, &e.PaymentID, &e.OrderID, &e.Attempts, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
