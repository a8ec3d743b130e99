package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

var (
	_ repository.PaymentRepository      = (*PaymentRepo)(nil)
	_ repository.WebhookEventRepository = (*WebhookEventRepo)(nil)
)

// PaymentRepo pagos en memoria.
type PaymentRepo struct{ acc accessor }

// Create persiste un pago; ErrDuplicate si la idempotency key ya existe.
func (r *PaymentRepo) Create(_ context.Context, p *entity.Payment) error {
	return r.acc.with(func(d *dataset) error {
		for _, existing := range d.payments {
			if existing.ID == p.ID || existing.IdempotencyKey == p.IdempotencyKey {
				return domain.ErrDuplicate
			}
		}
		d.payments[p.ID] = p.Clone()
		return nil
	})
}

// GetByID obtiene un pago; nil si no existe.
func (r *PaymentRepo) GetByID(_ context.Context, id string) (*entity.Payment, error) {
	var out *entity.Payment
	err := r.acc.with(func(d *dataset) error {
		out = d.payments[id].Clone()
		return nil
	})
	return out, err
}

// GetForUpdate en memoria equivale a GetByID.
func (r *PaymentRepo) GetForUpdate(ctx context.Context, id string) (*entity.Payment, error) {
	return r.GetByID(ctx, id)
}

// GetByIdempotencyKey busca por idempotency key.
func (r *PaymentRepo) GetByIdempotencyKey(_ context.Context, key string) (*entity.Payment, error) {
	return r.first(func(p *entity.Payment) bool { return p.IdempotencyKey == key })
}

// GetByIntentID busca por id de intent del procesador.
func (r *PaymentRepo) GetByIntentID(_ context.Context, intentID string) (*entity.Payment, error) {
	return r.first(func(p *entity.Payment) bool { return p.PaymentIntentID != "" && p.PaymentIntentID == intentID })
}

// GetByCheckoutSessionID busca por sesión de checkout.
func (r *PaymentRepo) GetByCheckoutSessionID(_ context.Context, sessionID string) (*entity.Payment, error) {
	return r.first(func(p *entity.Payment) bool { return p.CheckoutSessionID != "" && p.CheckoutSessionID == sessionID })
}

// FindActiveByOrderAndUser pago activo más reciente de la orden y el usuario.
func (r *PaymentRepo) FindActiveByOrderAndUser(_ context.Context, orderID, userID string) (*entity.Payment, error) {
	return r.first(func(p *entity.Payment) bool {
		return p.OrderID == orderID && p.UserID == userID && p.IsActive()
	})
}

// CountByOrderAndUser cantidad de pagos registrados para la orden y el usuario.
func (r *PaymentRepo) CountByOrderAndUser(_ context.Context, orderID, userID string) (int, error) {
	list, err := r.filter(func(p *entity.Payment) bool { return p.OrderID == orderID && p.UserID == userID })
	return len(list), err
}

// ListByOrder más recientes primero.
func (r *PaymentRepo) ListByOrder(_ context.Context, orderID string) ([]*entity.Payment, error) {
	return r.filter(func(p *entity.Payment) bool { return p.OrderID == orderID })
}

// Update reemplaza el pago.
func (r *PaymentRepo) Update(_ context.Context, p *entity.Payment) error {
	return r.acc.with(func(d *dataset) error {
		if _, ok := d.payments[p.ID]; !ok {
			return domain.ErrNotFound
		}
		d.payments[p.ID] = p.Clone()
		return nil
	})
}

// filter devuelve copias ordenadas de la más reciente a la más antigua.
func (r *PaymentRepo) filter(match func(p *entity.Payment) bool) ([]*entity.Payment, error) {
	var out []*entity.Payment
	err := r.acc.with(func(d *dataset) error {
		for _, p := range d.payments {
			if match(p) {
				out = append(out, p.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, err
}

func (r *PaymentRepo) first(match func(p *entity.Payment) bool) (*entity.Payment, error) {
	list, err := r.filter(match)
	if err != nil || len(list) == 0 {
		return nil, err
	}
	return list[0], nil
}

// WebhookEventRepo registro de eventos vistos en memoria.
type WebhookEventRepo struct{ acc accessor }

// Reserve crea la entrada si el ID no existe.
func (r *WebhookEventRepo) Reserve(_ context.Context, e *entity.WebhookEvent) (bool, error) {
	created := false
	err := r.acc.with(func(d *dataset) error {
		if _, ok := d.events[e.ID]; ok {
			return nil
		}
		d.events[e.ID] = e.Clone()
		created = true
		return nil
	})
	return created, err
}

// GetByID obtiene la entrada.
func (r *WebhookEventRepo) GetByID(_ context.Context, id string) (*entity.WebhookEvent, error) {
	var out *entity.WebhookEvent
	err := r.acc.with(func(d *dataset) error {
		out = d.events[id].Clone()
		return nil
	})
	return out, err
}

// Reclaim pasa una entrada con resultado error a processing (condicional).
func (r *WebhookEventRepo) Reclaim(_ context.Context, id string) (bool, error) {
	ok := false
	err := r.acc.with(func(d *dataset) error {
		e, found := d.events[id]
		if !found || e.Outcome != entity.WebhookOutcomeError {
			return nil
		}
		e.Outcome = entity.WebhookOutcomeProcessing
		e.Attempts++
		ok = true
		return nil
	})
	return ok, err
}

// RecordOutcome guarda el resultado final.
func (r *WebhookEventRepo) RecordOutcome(_ context.Context, e *entity.WebhookEvent) error {
	return r.acc.with(func(d *dataset) error {
		cur, ok := d.events[e.ID]
		if !ok {
			return domain.ErrNotFound
		}
		cur.Outcome = e.Outcome
		cur.Reason = e.Reason
		cur.PaymentID = e.PaymentID
		cur.OrderID = e.OrderID
		cur.UpdatedAt = e.UpdatedAt
		return nil
	})
}

// List más recientes primero.
func (r *WebhookEventRepo) List(_ context.Context, limit, offset int) ([]*entity.WebhookEvent, error) {
	var out []*entity.WebhookEvent
	err := r.acc.with(func(d *dataset) error {
		for _, e := range d.events {
			out = append(out, e.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return paginate(out, limit, offset), err
}
