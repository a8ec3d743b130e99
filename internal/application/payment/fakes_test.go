package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/tienda-club/internal/application/ports"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
	"github.com/jhoicas/tienda-club/internal/infrastructure/memory"
)

const validSignature = "firma-valida"

// fakeProvider procesador en memoria: cuenta llamadas y permite inyectar fallos.
// Como el procesador real, una idempotency key repetida devuelve el mismo intent.
type fakeProvider struct {
	mu          sync.Mutex
	intents     map[string]*ports.PaymentIntent
	byKey       map[string]*ports.PaymentIntent
	createCalls int
	refundCalls int
	createErr   error
	retrieveErr error
	refundErr   error
	delay       time.Duration
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{intents: map[string]*ports.PaymentIntent{}, byKey: map[string]*ports.PaymentIntent{}}
}

func (f *fakeProvider) CreateIntent(_ context.Context, in ports.CreateIntentInput) (*ports.PaymentIntent, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.createErr != nil {
		return nil, f.createErr
	}
	if pi, ok := f.byKey[in.IdempotencyKey]; ok && in.IdempotencyKey != "" {
		return pi, nil
	}
	id := fmt.Sprintf("pi_%d", len(f.intents)+1)
	pi := &ports.PaymentIntent{
		ID: id, ClientSecret: id + "_secret", Status: ports.IntentStatusRequiresPaymentMethod,
		Amount: in.Amount, Currency: in.Currency, Metadata: in.Metadata,
	}
	f.intents[id] = pi
	if in.IdempotencyKey != "" {
		f.byKey[in.IdempotencyKey] = pi
	}
	return pi, nil
}

func (f *fakeProvider) RetrieveIntent(_ context.Context, id string) (*ports.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	pi, ok := f.intents[id]
	if !ok {
		return nil, &ports.ProviderError{HTTPStatus: 404, Code: "resource_missing", Message: "no such intent"}
	}
	return pi, nil
}

func (f *fakeProvider) CreateRefund(_ context.Context, intentID string, amount int64, _ string) (*ports.Refund, error) {
	time.Sleep(f.delay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refundCalls++
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return &ports.Refund{ID: "re_" + intentID, Amount: amount, Status: "succeeded"}, nil
}

func (f *fakeProvider) ConstructEvent(payload []byte, signature string) (*ports.ProviderEvent, error) {
	if signature != validSignature {
		return nil, errors.New("firma no coincide")
	}
	var evt ports.ProviderEvent
	if err := json.Unmarshal(payload, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

func (f *fakeProvider) creates() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.createCalls
}

func (f *fakeProvider) refunds() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refundCalls
}

type fixture struct {
	store    *memory.Store
	provider *fakeProvider
	payments *UseCase
	webhooks *WebhookUseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	provider := newFakeProvider()
	return &fixture{
		store:    store,
		provider: provider,
		payments: NewUseCase(store, store.Payments(), store.Orders(), provider, memory.NewLocker(), nil,
			Config{Currency: "cop", LockWait: 2 * time.Second}),
		webhooks: NewWebhookUseCase(store, store.WebhookEvents(), store.Payments(), provider, nil),
	}
}

func (fx *fixture) order(t *testing.T, id, userID string, total int64) *entity.Order {
	t.Helper()
	o := &entity.Order{
		ID: id, UserID: userID, Status: entity.OrderStatusPendiente, PaymentMethod: entity.PaymentMethodTarjeta,
		Subtotal: decimal.NewFromInt(total), Total: decimal.NewFromInt(total), CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	require.NoError(t, fx.store.Orders().Create(context.Background(), o))
	return o
}

func (fx *fixture) orderStatus(t *testing.T, id string) string {
	t.Helper()
	o, err := fx.store.Orders().GetByID(context.Background(), id)
	require.NoError(t, err)
	return o.Status
}

func (fx *fixture) payment(t *testing.T, id string) *entity.Payment {
	t.Helper()
	p, err := fx.store.Payments().GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func eventPayload(t *testing.T, evt ports.ProviderEvent) []byte {
	t.Helper()
	b, err := json.Marshal(evt)
	require.NoError(t, err)
	return b
}

// failingTx ejecuta la transacción real pero falla al actualizar la orden.
type failingTx struct {
	inner repository.TxRunner
}

type failingOrders struct {
	repository.OrderRepository
}

func (failingOrders) UpdateStatus(context.Context, string, string, time.Time) error {
	return errors.New("fallo inyectado")
}

func (f failingTx) Run(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	return f.inner.Run(ctx, func(tx repository.TxRepos) error {
		tx.Orders = failingOrders{tx.Orders}
		return fn(tx)
	})
}

// flakyPayments falla las próximas n llamadas a Update.
type flakyPayments struct {
	repository.PaymentRepository
	mu       sync.Mutex
	failNext int
}

func (f *flakyPayments) Update(ctx context.Context, p *entity.Payment) error {
	f.mu.Lock()
	if f.failNext > 0 {
		f.failNext--
		f.mu.Unlock()
		return errors.New("escritura no disponible")
	}
	f.mu.Unlock()
	return f.PaymentRepository.Update(ctx, p)
}

// brokenLocker simula el almacén del candado caído.
type brokenLocker struct{}

func (brokenLocker) Lock(context.Context, string) (func(), error) {
	return nil, errors.New("redis: connection refused")
}
