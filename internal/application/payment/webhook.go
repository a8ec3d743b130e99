package payment

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/application/ports"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
	"github.com/jhoicas/tienda-club/pkg/metrics"
)

// Razones registradas junto al resultado del evento.
const (
	ReasonUnsupportedType = "tipo_no_soportado"
	ReasonPaymentNotFound = "pago_no_encontrado"
	ReasonStaleTransition = "transicion_obsoleta"
	ReasonAlreadyApplied  = "evento_ya_aplicado"
	ReasonAsyncPending    = "pago_asincrono_pendiente"
	ReasonOrderCancelled  = "orden_cancelada"
	ReasonOrderSettled    = "orden_pagada_con_otro_pago"
)

type effect int

const (
	effectNone effect = iota
	effectSucceeded
	effectFailed
	effectRefunded
)

// WebhookUseCase conciliador de eventos del procesador. Cada evento produce su efecto una
// sola vez: reserva por id de evento + lista de eventos aplicados en el pago.
type WebhookUseCase struct {
	txRunner  repository.TxRunner
	events    repository.WebhookEventRepository
	payments  repository.PaymentRepository
	provider  ports.PaymentProvider
	publisher ports.EventPublisher
}

// NewWebhookUseCase construye el conciliador.
func NewWebhookUseCase(
	txRunner repository.TxRunner,
	events repository.WebhookEventRepository,
	payments repository.PaymentRepository,
	provider ports.PaymentProvider,
	publisher ports.EventPublisher,
) *WebhookUseCase {
	return &WebhookUseCase{
		txRunner:  txRunner,
		events:    events,
		payments:  payments,
		provider:  provider,
		publisher: publisher,
	}
}

// Process verifica la firma, reserva el evento y aplica su efecto sobre Pago y Orden.
// Un error del handler queda registrado como "error" y se devuelve para que el proveedor reintente.
func (uc *WebhookUseCase) Process(ctx context.Context, payload []byte, signature string) (_ *dto.WebhookResult, err error) {
	evt, err := uc.provider.ConstructEvent(payload, signature)
	if err != nil {
		log.Warn().Err(err).Msg("webhook con firma inválida")
		metrics.WebhookEventsTotal.WithLabelValues("desconocido", "firma_invalida").Inc()
		return nil, domain.NewValidation(domain.CodeInvalidSignature, "firma del webhook inválida")
	}

	ctx, span := tracer.Start(ctx, "payment.ProcessWebhook")
	span.SetAttributes(attribute.String("event.id", evt.ID), attribute.String("event.type", evt.Type))
	res := &dto.WebhookResult{EventID: evt.ID, EventType: evt.Type}
	defer func() {
		outcome := res.Outcome
		if err != nil {
			outcome = entity.WebhookOutcomeError
			span.RecordError(err)
			span.SetStatus(codes.Error, "webhook")
		}
		span.SetAttributes(attribute.String("webhook.outcome", outcome))
		metrics.WebhookEventsTotal.WithLabelValues(evt.Type, outcome).Inc()
		span.End()
	}()

	now := time.Now().UTC()
	entry := &entity.WebhookEvent{
		ID:        evt.ID,
		Type:      evt.Type,
		Outcome:   entity.WebhookOutcomeProcessing,
		Attempts:  1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	created, err := uc.events.Reserve(ctx, entry)
	if err != nil {
		return nil, err
	}
	if !created {
		reclaimed, err := uc.events.Reclaim(ctx, evt.ID)
		if err != nil {
			return nil, err
		}
		if !reclaimed {
			res.Outcome = entity.WebhookOutcomeDuplicate
			log.Info().Str("event_id", evt.ID).Str("type", evt.Type).Msg("webhook duplicado")
			return res, nil
		}
		log.Info().Str("event_id", evt.ID).Msg("reprocesando webhook que terminó en error")
	}

	published, handleErr := uc.handle(ctx, evt, res)

	entry.Outcome, entry.Reason = res.Outcome, res.Reason
	entry.PaymentID, entry.OrderID = res.PaymentID, res.OrderID
	if handleErr != nil {
		entry.Outcome, entry.Reason = entity.WebhookOutcomeError, handleErr.Error()
	}
	entry.UpdatedAt = time.Now().UTC()
	if err := uc.events.RecordOutcome(ctx, entry); err != nil {
		log.Error().Err(err).Str("event_id", evt.ID).Msg("no se pudo registrar el resultado del webhook")
	}
	if handleErr != nil {
		log.Error().Err(handleErr).Str("event_id", evt.ID).Str("type", evt.Type).Msg("error procesando webhook")
		return nil, handleErr
	}

	log.Info().Str("event_id", evt.ID).Str("type", evt.Type).Str("outcome", res.Outcome).
		Str("payment_id", res.PaymentID).Str("reason", res.Reason).Msg("webhook procesado")
	if published != nil {
		ports.PublishBestEffort(ctx, uc.publisher, *published)
	}
	return res, nil
}

func effectOf(evt *ports.ProviderEvent) effect {
	switch evt.Type {
	case ports.EventIntentSucceeded, ports.EventCheckoutAsyncSucceeded:
		return effectSucceeded
	case ports.EventCheckoutCompleted:
		// un checkout con método asíncrono se completa antes de cobrarse
		if evt.Object.Status == "unpaid" {
			return effectNone
		}
		return effectSucceeded
	case ports.EventIntentFailed, ports.EventCheckoutAsyncFailed:
		return effectFailed
	case ports.EventChargeRefunded:
		return effectRefunded
	}
	return effectNone
}

// handle resuelve el pago y aplica la transición dentro de una transacción Pago + Orden.
func (uc *WebhookUseCase) handle(ctx context.Context, evt *ports.ProviderEvent, res *dto.WebhookResult) (*ports.DomainEvent, error) {
	eff := effectOf(evt)
	if eff == effectNone {
		res.Outcome, res.Reason = entity.WebhookOutcomeIgnored, ReasonUnsupportedType
		if evt.Type == ports.EventCheckoutCompleted {
			res.Reason = ReasonAsyncPending
		}
		return nil, nil
	}

	p, err := uc.resolve(ctx, evt.Object)
	if err != nil {
		return nil, err
	}
	if p == nil {
		res.Outcome, res.Reason = entity.WebhookOutcomeUnmatched, ReasonPaymentNotFound
		return nil, nil
	}
	res.PaymentID, res.OrderID = p.ID, p.OrderID

	var published *ports.DomainEvent
	err = uc.txRunner.Run(ctx, func(tx repository.TxRepos) error {
		published = nil
		cur, err := tx.Payments.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.NewNotFound("pago no encontrado")
		}
		if cur.HasProcessedEvent(evt.ID) {
			res.Outcome, res.Reason = entity.WebhookOutcomeDuplicate, ReasonAlreadyApplied
			return nil
		}

		now := time.Now().UTC()
		obj := evt.Object
		if evt.Type == ports.EventCheckoutCompleted || evt.Type == ports.EventCheckoutAsyncSucceeded || evt.Type == ports.EventCheckoutAsyncFailed {
			if cur.CheckoutSessionID == "" {
				cur.CheckoutSessionID = obj.ID
			}
		}
		if cur.PaymentIntentID == "" && obj.PaymentIntentID != "" {
			cur.PaymentIntentID = obj.PaymentIntentID
		}

		order, err := tx.Orders.GetByID(ctx, cur.OrderID)
		if err != nil {
			return err
		}
		if order == nil {
			return domain.NewNotFound("orden del pago no encontrada")
		}

		orderStatus := ""
		res.Outcome = entity.WebhookOutcomeProcessed
		switch {
		case stale(cur.Status, eff):
			res.Outcome, res.Reason = entity.WebhookOutcomeIgnored, ReasonStaleTransition

		case eff == effectSucceeded:
			if cur.Status == entity.PaymentStatusCompletado {
				res.Reason = ReasonAlreadyApplied
				break
			}
			cur.Status = entity.PaymentStatusCompletado
			cur.ProviderStatus = ports.IntentStatusSucceeded
			cur.PaidAt = &now
			cur.ClearFailure()
			switch order.Status {
			case entity.OrderStatusPendiente:
				orderStatus = entity.OrderStatusConfirmada
			case entity.OrderStatusCancelada:
				// el cobro queda registrado; la orden no revive y el personal decide el reembolso
				res.Reason = ReasonOrderCancelled
				log.Warn().Str("payment_id", cur.ID).Str("order_id", order.ID).
					Msg("pago cobrado sobre una orden cancelada, requiere reembolso")
			}
			published = &ports.DomainEvent{Type: ports.EventPaymentCompleted, AggregateID: cur.ID,
				Data: map[string]string{"order_id": cur.OrderID, "amount": cur.Amount.String()}}

		case eff == effectFailed:
			cur.Status = entity.PaymentStatusFallido
			cur.ProviderStatus = obj.Status
			cur.FailureCode, cur.FailureMessage = obj.FailureCode, obj.FailureMessage
			if cur.FailureCode == "" {
				cur.FailureCode = "payment_failed"
				if evt.Type == ports.EventCheckoutAsyncFailed {
					cur.FailureCode = "checkout_async_failed"
				}
			}
			revert, reason, err := revertOnFailure(ctx, tx.Payments, order, cur)
			if err != nil {
				return err
			}
			if revert {
				orderStatus = entity.OrderStatusPendiente
			}
			res.Reason = reason
			published = &ports.DomainEvent{Type: ports.EventPaymentFailed, AggregateID: cur.ID,
				Data: map[string]string{"order_id": cur.OrderID, "failure_code": cur.FailureCode}}

		case eff == effectRefunded:
			if cur.Status == entity.PaymentStatusReembolsado {
				res.Reason = ReasonAlreadyApplied
				break
			}
			cur.Status = entity.PaymentStatusReembolsado
			cur.ClearFailure()
			cur.RefundID = obj.RefundID
			cur.RefundAmount = FromMinorUnits(obj.AmountRefunded)
			cur.RefundReason = obj.RefundReason
			if order.Status != entity.OrderStatusCancelada {
				orderStatus = entity.OrderStatusCancelada
			}
			published = &ports.DomainEvent{Type: ports.EventPaymentRefunded, AggregateID: cur.ID,
				Data: map[string]string{"order_id": cur.OrderID, "amount": cur.RefundAmount.String()}}
		}

		cur.MarkEventProcessed(evt.ID)
		cur.UpdatedAt = now
		if err := tx.Payments.Update(ctx, cur); err != nil {
			return err
		}
		if orderStatus != "" {
			if err := tx.Orders.UpdateStatus(ctx, cur.OrderID, orderStatus, now); err != nil {
				return err
			}
			metrics.OrderStatusChangesTotal.WithLabelValues(orderStatus, "webhook").Inc()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return published, nil
}

// revertOnFailure decide si un pago fallido devuelve la orden a PENDIENTE. Solo una orden
// CONFIRMADA retrocede, y nunca si otro pago de la misma orden ya cobró o fue reembolsado.
func revertOnFailure(ctx context.Context, payments repository.PaymentRepository, order *entity.Order, failed *entity.Payment) (bool, string, error) {
	switch order.Status {
	case entity.OrderStatusPendiente:
		return false, "", nil
	case entity.OrderStatusConfirmada:
	case entity.OrderStatusCancelada:
		return false, ReasonOrderCancelled, nil
	default:
		return false, "", nil
	}
	list, err := payments.ListByOrder(ctx, order.ID)
	if err != nil {
		return false, "", err
	}
	for _, p := range list {
		if p.ID == failed.ID {
			continue
		}
		if p.Status == entity.PaymentStatusCompletado || p.Status == entity.PaymentStatusReembolsado {
			return false, ReasonOrderSettled, nil
		}
	}
	return true, "", nil
}

// stale un evento más viejo no puede retroceder un pago ya finalizado.
func stale(status string, eff effect) bool {
	switch status {
	case entity.PaymentStatusCompletado:
		return eff == effectFailed
	case entity.PaymentStatusReembolsado:
		return eff == effectSucceeded || eff == effectFailed
	}
	return false
}

// resolve busca el pago por intent id, por metadata pagoId y por checkout session, en ese orden.
func (uc *WebhookUseCase) resolve(ctx context.Context, obj ports.EventObject) (*entity.Payment, error) {
	if obj.PaymentIntentID != "" {
		p, err := uc.payments.GetByIntentID(ctx, obj.PaymentIntentID)
		if err != nil || p != nil {
			return p, err
		}
	}
	if id := obj.Metadata["pagoId"]; id != "" {
		p, err := uc.payments.GetByID(ctx, id)
		if err != nil || p != nil {
			return p, err
		}
	}
	if obj.Object == "checkout.session" && obj.ID != "" {
		return uc.payments.GetByCheckoutSessionID(ctx, obj.ID)
	}
	return nil, nil
}

// ListEvents registro de eventos recibidos, más recientes primero.
func (uc *WebhookUseCase) ListEvents(ctx context.Context, page dto.PageRequest) ([]dto.WebhookEventResponse, error) {
	page.DefaultPage()
	list, err := uc.events.List(ctx, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.WebhookEventResponse, 0, len(list))
	for _, e := range list {
		out = append(out, ToWebhookEventResponse(e))
	}
	return out, nil
}
