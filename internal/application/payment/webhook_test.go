package payment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/application/ports"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

func initiatedPayment(t *testing.T, fx *fixture) *entity.Payment {
	t.Helper()
	fx.order(t, "o1", "u1", 75000)
	out, err := fx.payments.Initiate(context.Background(), initiate("o1", "u1"))
	require.NoError(t, err)
	return fx.payment(t, out.PaymentID)
}

func intentEvent(id, typ, intentID string) ports.ProviderEvent {
	return ports.ProviderEvent{ID: id, Type: typ, Object: ports.EventObject{ID: intentID, Object: "payment_intent", PaymentIntentID: intentID}}
}

// ─── Deduplicación ────────────────────────────────────────────────────────────

func TestWebhook_MismoEventoDosVeces(t *testing.T) {
	fx := newFixture(t)
	p := initiatedPayment(t, fx)
	payload := eventPayload(t, intentEvent("evt_1", ports.EventIntentSucceeded, p.PaymentIntentID))

	first, err := fx.webhooks.Process(context.Background(), payload, validSignature)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeProcessed, first.Outcome)
	assert.Equal(t, p.ID, first.PaymentID)
	assert.Equal(t, "o1", first.OrderID)

	second, err := fx.webhooks.Process(context.Background(), payload, validSignature)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeDuplicate, second.Outcome)

	got := fx.payment(t, p.ID)
	assert.Equal(t, entity.PaymentStatusCompletado, got.Status)
	assert.NotNil(t, got.PaidAt)
	assert.Equal(t, []string{"evt_1"}, got.ProcessedEventIDs)
	assert.Equal(t, entity.OrderStatusConfirmada, fx.orderStatus(t, "o1"))
}

func TestWebhook_EntregasConcurrentesAplicanUnaVez(t *testing.T) {
	fx := newFixture(t)
	p := initiatedPayment(t, fx)
	payload := eventPayload(t, intentEvent("evt_c", ports.EventIntentSucceeded, p.PaymentIntentID))

	var wg sync.WaitGroup
	outcomes := make([]string, 4)
	for i := range outcomes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := fx.webhooks.Process(context.Background(), payload, validSignature)
			if assert.NoError(t, err) {
				outcomes[i] = res.Outcome
			}
		}(i)
	}
	wg.Wait()

	processed := 0
	for _, o := range outcomes {
		if o == entity.WebhookOutcomeProcessed {
			processed++
		}
	}
	assert.Equal(t, 1, processed)
	assert.Equal(t, []string{"evt_c"}, fx.payment(t, p.ID).ProcessedEventIDs)
}

func TestWebhook_FirmaInvalida(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.webhooks.Process(context.Background(), []byte(`{}`), "otra")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, domain.CodeInvalidSignature, domain.CodeOf(err, ""))

	events, err := fx.webhooks.ListEvents(context.Background(), dto.PageRequest{})
	require.NoError(t, err)
	assert.Empty(t, events)
}

// ─── Transiciones ─────────────────────────────────────────────────────────────

func TestWebhook_FalloDevuelveOrdenAPendiente(t *testing.T) {
	fx := newFixture(t)
	p := initiatedPayment(t, fx)
	evt := intentEvent("evt_f", ports.EventIntentFailed, p.PaymentIntentID)
	evt.Object.FailureCode = "card_declined"
	evt.Object.FailureMessage = "fondos insuficientes"

	res, err := fx.webhooks.Process(context.Background(), eventPayload(t, evt), validSignature)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeProcessed, res.Outcome)

	got := fx.payment(t, p.ID)
	assert.Equal(t, entity.PaymentStatusFallido, got.Status)
	assert.Equal(t, "card_declined", got.FailureCode)
	assert.Equal(t, entity.OrderStatusPendiente, fx.orderStatus(t, "o1"))
}

func TestWebhook_FalloTardioNoRetrocedePagoCompletado(t *testing.T) {
	fx := newFixture(t)
	p := initiatedPayment(t, fx)
	ctx := context.Background()

	_, err := fx.webhooks.Process(ctx, eventPayload(t, intentEvent("evt_ok", ports.EventIntentSucceeded, p.PaymentIntentID)), validSignature)
	require.NoError(t, err)

	res, err := fx.webhooks.Process(ctx, eventPayload(t, intentEvent("evt_viejo", ports.EventIntentFailed, p.PaymentIntentID)), validSignature)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeIgnored, res.Outcome)
	assert.Equal(t, ReasonStaleTransition, res.Reason)

	got := fx.payment(t, p.ID)
	assert.Equal(t, entity.PaymentStatusCompletado, got.Status)
	assert.ElementsMatch(t, []string{"evt_ok", "evt_viejo"}, got.ProcessedEventIDs)
	assert.Equal(t, entity.OrderStatusConfirmada, fx.orderStatus(t, "o1"))
}

func TestWebhook_OrdenCanceladaNoRevive(t *testing.T) {
	ctx := context.Background()

	t.Run("fallo", func(t *testing.T) {
		fx := newFixture(t)
		p := initiatedPayment(t, fx)
		require.NoError(t, fx.store.Orders().UpdateStatus(ctx, "o1", entity.OrderStatusCancelada, time.Now()))

		res, err := fx.webhooks.Process(ctx, eventPayload(t, intentEvent("evt_f", ports.EventIntentFailed, p.PaymentIntentID)), validSignature)
		require.NoError(t, err)
		assert.Equal(t, entity.WebhookOutcomeProcessed, res.Outcome)
		assert.Equal(t, ReasonOrderCancelled, res.Reason)
		assert.Equal(t, entity.PaymentStatusFallido, fx.payment(t, p.ID).Status)
		assert.Equal(t, entity.OrderStatusCancelada, fx.orderStatus(t, "o1"))
	})

	t.Run("cobro", func(t *testing.T) {
		fx := newFixture(t)
		p := initiatedPayment(t, fx)
		require.NoError(t, fx.store.Orders().UpdateStatus(ctx, "o1", entity.OrderStatusCancelada, time.Now()))

		res, err := fx.webhooks.Process(ctx, eventPayload(t, intentEvent("evt_ok", ports.EventIntentSucceeded, p.PaymentIntentID)), validSignature)
		require.NoError(t, err)
		assert.Equal(t, entity.WebhookOutcomeProcessed, res.Outcome)
		assert.Equal(t, ReasonOrderCancelled, res.Reason)
		// el cobro queda registrado para poder reembolsarlo
		assert.Equal(t, entity.PaymentStatusCompletado, fx.payment(t, p.ID).Status)
		assert.Equal(t, entity.OrderStatusCancelada, fx.orderStatus(t, "o1"))
	})
}

func TestWebhook_FalloDePagoReemplazadoNoReabreOrden(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	first := initiatedPayment(t, fx)

	_, err := fx.webhooks.Process(ctx, eventPayload(t, intentEvent("evt_f1", ports.EventIntentFailed, first.PaymentIntentID)), validSignature)
	require.NoError(t, err)
	require.Equal(t, entity.OrderStatusPendiente, fx.orderStatus(t, "o1"))

	out, err := fx.payments.Initiate(ctx, initiate("o1", "u1"))
	require.NoError(t, err)
	require.True(t, out.Created)
	second := fx.payment(t, out.PaymentID)
	require.NotEqual(t, first.PaymentIntentID, second.PaymentIntentID)

	_, err = fx.webhooks.Process(ctx, eventPayload(t, intentEvent("evt_ok2", ports.EventIntentSucceeded, second.PaymentIntentID)), validSignature)
	require.NoError(t, err)
	require.Equal(t, entity.OrderStatusConfirmada, fx.orderStatus(t, "o1"))

	res, err := fx.webhooks.Process(ctx, eventPayload(t, intentEvent("evt_f1b", ports.EventIntentFailed, first.PaymentIntentID)), validSignature)
	require.NoError(t, err)
	assert.Equal(t, ReasonOrderSettled, res.Reason)
	assert.Equal(t, entity.OrderStatusConfirmada, fx.orderStatus(t, "o1"))
	assert.Equal(t, entity.PaymentStatusCompletado, fx.payment(t, second.ID).Status)

	// la orden ya pagada no admite un tercer cobro
	_, err = fx.payments.Initiate(ctx, initiate("o1", "u1"))
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, 2, fx.provider.creates())
}

func TestWebhook_CobroNoRetrocedeOrdenAvanzada(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()
	p := initiatedPayment(t, fx)
	require.NoError(t, fx.store.Orders().UpdateStatus(ctx, "o1", entity.OrderStatusEnProceso, time.Now()))

	res, err := fx.webhooks.Process(ctx, eventPayload(t, intentEvent("evt_ok", ports.EventIntentSucceeded, p.PaymentIntentID)), validSignature)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeProcessed, res.Outcome)
	assert.Equal(t, entity.OrderStatusEnProceso, fx.orderStatus(t, "o1"))
}

func TestWebhook_ReembolsoCancelaOrden(t *testing.T) {
	fx := newFixture(t)
	p := initiatedPayment(t, fx)
	ctx := context.Background()
	_, err := fx.webhooks.Process(ctx, eventPayload(t, intentEvent("evt_ok", ports.EventIntentSucceeded, p.PaymentIntentID)), validSignature)
	require.NoError(t, err)

	evt := ports.ProviderEvent{ID: "evt_r", Type: ports.EventChargeRefunded, Object: ports.EventObject{
		ID: "ch_1", Object: "charge", PaymentIntentID: p.PaymentIntentID,
		AmountRefunded: 7500000, RefundID: "re_9", RefundReason: "requested_by_customer",
	}}
	res, err := fx.webhooks.Process(ctx, eventPayload(t, evt), validSignature)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeProcessed, res.Outcome)

	got := fx.payment(t, p.ID)
	assert.Equal(t, entity.PaymentStatusReembolsado, got.Status)
	assert.Equal(t, "re_9", got.RefundID)
	assert.Equal(t, "75000", got.RefundAmount.String())
	assert.Equal(t, entity.OrderStatusCancelada, fx.orderStatus(t, "o1"))
}

func TestWebhook_ResuelvePorMetadataYCheckout(t *testing.T) {
	fx := newFixture(t)
	p := initiatedPayment(t, fx)

	evt := ports.ProviderEvent{ID: "evt_cs", Type: ports.EventCheckoutCompleted, Object: ports.EventObject{
		ID: "cs_1", Object: "checkout.session", Status: "paid", Metadata: map[string]string{"pagoId": p.ID},
	}}
	res, err := fx.webhooks.Process(context.Background(), eventPayload(t, evt), validSignature)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeProcessed, res.Outcome)

	got := fx.payment(t, p.ID)
	assert.Equal(t, "cs_1", got.CheckoutSessionID)
	assert.Equal(t, entity.PaymentStatusCompletado, got.Status)
}

func TestWebhook_SinPagoYTipoDesconocido(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	res, err := fx.webhooks.Process(ctx, eventPayload(t, intentEvent("evt_x", ports.EventIntentSucceeded, "pi_desconocido")), validSignature)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeUnmatched, res.Outcome)

	res, err = fx.webhooks.Process(ctx, eventPayload(t, ports.ProviderEvent{ID: "evt_y", Type: "customer.created"}), validSignature)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeIgnored, res.Outcome)

	events, err := fx.webhooks.ListEvents(ctx, dto.PageRequest{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	outcomes := []string{events[0].Outcome, events[1].Outcome}
	assert.ElementsMatch(t, []string{entity.WebhookOutcomeUnmatched, entity.WebhookOutcomeIgnored}, outcomes)
}

// ─── Errores y reintentos ─────────────────────────────────────────────────────

type toggleTx struct {
	inner repository.TxRunner
	fail  bool
}

func (t *toggleTx) Run(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	if t.fail {
		return errors.New("base de datos no disponible")
	}
	return t.inner.Run(ctx, fn)
}

func TestWebhook_ErrorSeRegistraYElReintentoLoAplica(t *testing.T) {
	fx := newFixture(t)
	p := initiatedPayment(t, fx)
	tx := &toggleTx{inner: fx.store, fail: true}
	uc := NewWebhookUseCase(tx, fx.store.WebhookEvents(), fx.store.Payments(), fx.provider, nil)
	payload := eventPayload(t, intentEvent("evt_e", ports.EventIntentSucceeded, p.PaymentIntentID))
	ctx := context.Background()

	_, err := uc.Process(ctx, payload, validSignature)
	require.Error(t, err)
	entry, err := fx.store.WebhookEvents().GetByID(ctx, "evt_e")
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeError, entry.Outcome)

	tx.fail = false
	res, err := uc.Process(ctx, payload, validSignature)
	require.NoError(t, err)
	assert.Equal(t, entity.WebhookOutcomeProcessed, res.Outcome)

	entry, _ = fx.store.WebhookEvents().GetByID(ctx, "evt_e")
	assert.Equal(t, 2, entry.Attempts)
	assert.Equal(t, entity.PaymentStatusCompletado, fx.payment(t, p.ID).Status)
}
