package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

var _ repository.PaymentRepository = (*PaymentRepo)(nil)

const paymentColumns = `id, order_id, user_id, provider, method, amount, currency, status, idempotency_key,
	payment_intent_id, checkout_session_id, provider_status, paid_at, refund_id, refund_amount, refund_reason,
	failure_code, failure_message, processed_event_ids, created_at, updated_at`

// PaymentRepo implementación sobre PostgreSQL. Los eventos aplicados se guardan en un text[].
type PaymentRepo struct {
	q Querier
}

// NewPaymentRepository construye el adaptador. Pasar pool o tx (Querier).
func NewPaymentRepository(q Querier) *PaymentRepo {
	return &PaymentRepo{q: q}
}

// Create persiste el pago. idempotency_key es única: la violación devuelve domain.ErrDuplicate.
func (r *PaymentRepo) Create(ctx context.Context, p *entity.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query, paymentArgs(p)...)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

// GetByID obtiene un pago.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (*entity.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
}

// GetForUpdate obtiene el pago con bloqueo de fila (solo dentro de una tx).
func (r *PaymentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
}

// GetByIdempotencyKey busca por key.
func (r *PaymentRepo) GetByIdempotencyKey(ctx context.Context, key string) (*entity.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE idempotency_key = $1`, key)
}

// GetByIntentID busca por el id del intent en el procesador.
func (r *PaymentRepo) GetByIntentID(ctx context.Context, intentID string) (*entity.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE payment_intent_id = $1 ORDER BY created_at DESC LIMIT 1`, intentID)
}

// GetByCheckoutSessionID busca por la sesión de checkout.
func (r *PaymentRepo) GetByCheckoutSessionID(ctx context.Context, sessionID string) (*entity.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE checkout_session_id = $1 ORDER BY created_at DESC LIMIT 1`, sessionID)
}

// FindActiveByOrderAndUser pago activo más reciente de la orden para el usuario.
func (r *PaymentRepo) FindActiveByOrderAndUser(ctx context.Context, orderID, userID string) (*entity.Payment, error) {
	return r.getOne(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE order_id = $1 AND user_id = $2 AND status = ANY($3)
		ORDER BY created_at DESC LIMIT 1`,
		orderID, userID, entity.ActivePaymentStatuses)
}

// CountByOrderAndUser número de intentos de pago (entra en la key derivada).
func (r *PaymentRepo) CountByOrderAndUser(ctx context.Context, orderID, userID string) (int, error) {
	var n int
	err := r.q.QueryRow(ctx, `SELECT count(*) FROM payments WHERE order_id = $1 AND user_id = $2`, orderID, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count payments: %w", err)
	}
	return n, nil
}

// ListByOrder pagos de la orden, más recientes primero.
func (r *PaymentRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Payment, error) {
	rows, err := r.q.Query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE order_id = $1 ORDER BY created_at DESC`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()
	var list []*entity.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// Update reescribe los campos mutables del pago.
func (r *PaymentRepo) Update(ctx context.Context, p *entity.Payment) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE payments SET status = $2, payment_intent_id = $3, checkout_session_id = $4, provider_status = $5,
			paid_at = $6, refund_id = $7, refund_amount = $8, refund_reason = $9, failure_code = $10,
			failure_message = $11, processed_event_ids = $12, updated_at = $13
		WHERE id = $1`,
		p.ID, p.Status, p.PaymentIntentID, p.CheckoutSessionID, p.ProviderStatus,
		p.PaidAt, p.RefundID, p.RefundAmount, p.RefundReason, p.FailureCode,
		p.FailureMessage, eventIDs(p.ProcessedEventIDs), p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *PaymentRepo) getOne(ctx context.Context, query string, args ...any) (*entity.Payment, error) {
	p, err := scanPayment(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get payment: %w", err)
	}
	return p, nil
}

func paymentArgs(p *entity.Payment) []any {
	return []any{
		p.ID, p.OrderID, p.UserID, p.Provider, p.Method, p.Amount, p.Currency, p.Status, p.IdempotencyKey,
		p.PaymentIntentID, p.CheckoutSessionID, p.ProviderStatus, p.PaidAt, p.RefundID, p.RefundAmount, p.RefundReason,
		p.FailureCode, p.FailureMessage, eventIDs(p.ProcessedEventIDs), p.CreatedAt, p.UpdatedAt,
	}
}

func scanPayment(row rowScanner) (*entity.Payment, error) {
	var p entity.Payment
	err := row.Scan(&p.ID, &p.OrderID, &p.UserID, &p.Provider, &p.Method, &p.Amount, &p.Currency, &p.Status,
		&p.IdempotencyKey, &p.PaymentIntentID, &p.CheckoutSessionID, &p.ProviderStatus, &p.PaidAt, &p.RefundID,
		&p.RefundAmount, &p.RefundReason, &p.FailureCode, &p.FailureMessage, &p.ProcessedEventIDs,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func eventIDs(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
