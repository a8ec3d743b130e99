package payment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/application/ports"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
	"github.com/jhoicas/tienda-club/pkg/metrics"
)

var tracer = otel.Tracer("github.com/jhoicas/tienda-club/internal/application/payment")

// Longitud permitida para la Idempotency-Key enviada por el cliente.
const (
	MinIdempotencyKeyLen = 8
	MaxIdempotencyKeyLen = 255
)

// Config parámetros del orquestador.
type Config struct {
	Currency string        // moneda ISO en minúsculas (cop)
	LockWait time.Duration // espera máxima del candado por orden
}

// UseCase orquestador de pagos: iniciación idempotente con un solo pago activo por orden,
// reembolsos y consultas con control de dueño.
type UseCase struct {
	txRunner  repository.TxRunner
	payments  repository.PaymentRepository
	orders    repository.OrderRepository
	provider  ports.PaymentProvider
	locker    ports.Locker
	publisher ports.EventPublisher
	cfg       Config
}

// NewUseCase construye el orquestador.
func NewUseCase(
	txRunner repository.TxRunner,
	payments repository.PaymentRepository,
	orders repository.OrderRepository,
	provider ports.PaymentProvider,
	locker ports.Locker,
	publisher ports.EventPublisher,
	cfg Config,
) *UseCase {
	if cfg.Currency == "" {
		cfg.Currency = "cop"
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 10 * time.Second
	}
	return &UseCase{
		txRunner:  txRunner,
		payments:  payments,
		orders:    orders,
		provider:  provider,
		locker:    locker,
		publisher: publisher,
		cfg:       cfg,
	}
}

// InitiateInput datos de POST /api/pagos/iniciar.
type InitiateInput struct {
	OrderID        string
	UserID         string
	PaymentMethod  string
	IdempotencyKey string
}

// Initiate crea o reutiliza el intent de pago de una orden. Nunca hay dos pagos activos
// para la misma orden: la sección "buscar activo / crear" corre bajo un candado por orden.
func (uc *UseCase) Initiate(ctx context.Context, in InitiateInput) (_ *dto.InitiatePaymentResponse, err error) {
	ctx, span := tracer.Start(ctx, "payment.Initiate")
	span.SetAttributes(attribute.String("order.id", in.OrderID))
	result := "rejected"
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, domain.CodeOf(err, "error"))
			if errors.Is(err, domain.ErrExternalProvider) {
				result = "provider_error"
			}
		}
		metrics.PaymentInitiationsTotal.WithLabelValues(result).Inc()
		span.End()
	}()

	order, err := uc.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.NewNotFound("orden no encontrada")
	}
	if order.UserID != in.UserID {
		log.Warn().Str("order_id", order.ID).Str("user_id", in.UserID).Msg("intento de pago sobre orden ajena")
		return nil, domain.NewForbidden("no tiene permiso sobre esta orden")
	}
	if order.Status != entity.OrderStatusPendiente {
		return nil, domain.NewConflict(domain.CodeConflict, "la orden no está pendiente de pago (estado "+order.Status+")")
	}
	if in.PaymentMethod != order.PaymentMethod {
		return nil, domain.NewValidation(domain.CodeValidation, "el método de pago no coincide con el de la orden")
	}
	if in.PaymentMethod != entity.PaymentMethodTarjeta {
		return nil, domain.NewValidation(domain.CodeValidation, "el método de pago no se procesa en línea")
	}
	if !order.Total.IsPositive() {
		return nil, domain.NewValidation(domain.CodeValidation, "el total de la orden debe ser mayor a 0")
	}
	if in.IdempotencyKey != "" && (len(in.IdempotencyKey) < MinIdempotencyKeyLen || len(in.IdempotencyKey) > MaxIdempotencyKeyLen) {
		return nil, domain.NewValidation(domain.CodeValidation, "Idempotency-Key debe tener entre 8 y 255 caracteres")
	}

	unlock, err := uc.lockOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	active, err := uc.payments.FindActiveByOrderAndUser(ctx, order.ID, in.UserID)
	if err != nil {
		return nil, err
	}
	if active != nil {
		result = "reused"
		return uc.reuse(ctx, active, order)
	}

	key := in.IdempotencyKey
	if key == "" {
		attempts, err := uc.payments.CountByOrderAndUser(ctx, order.ID, in.UserID)
		if err != nil {
			return nil, err
		}
		key = derivedKey(order.ID, in.UserID, attempts)
	}

	existing, err := uc.payments.GetByIdempotencyKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.OrderID != order.ID || existing.UserID != in.UserID {
			return nil, domain.NewConflict(domain.CodeIdempotencyKeyReuse, "la Idempotency-Key ya se usó en otra operación")
		}
		if existing.Status == entity.PaymentStatusFallido {
			return nil, domain.NewConflict(domain.CodeIdempotencyKeyReuse, "la Idempotency-Key corresponde a un pago fallido, use una nueva")
		}
		if existing.IsActive() {
			result = "reused"
			return uc.reuse(ctx, existing, order)
		}
		return nil, domain.NewConflict(domain.CodeIdempotencyKeyReuse, "la Idempotency-Key corresponde a un pago ya finalizado")
	}

	now := time.Now().UTC()
	p := &entity.Payment{
		ID:             uuid.New().String(),
		OrderID:        order.ID,
		UserID:         in.UserID,
		Provider:       entity.PaymentProviderStripe,
		Method:         in.PaymentMethod,
		Amount:         order.Total,
		Currency:       uc.cfg.Currency,
		Status:         entity.PaymentStatusProcesando,
		IdempotencyKey: key,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := uc.payments.Create(ctx, p); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, domain.NewConflict(domain.CodeIdempotencyKeyReuse, "la Idempotency-Key ya se usó en otra operación")
		}
		return nil, err
	}

	intent, err := uc.createIntent(ctx, p, order)
	if err != nil {
		uc.markFailed(ctx, p, err)
		return nil, domain.NewExternalProvider("no fue posible iniciar el pago con el procesador", err)
	}

	p.PaymentIntentID = intent.ID
	p.ProviderStatus = intent.Status
	if intent.Status == ports.IntentStatusRequiresAction {
		p.Status = entity.PaymentStatusRequiereAccion
	}
	p.UpdatedAt = time.Now().UTC()
	if err := uc.payments.Update(ctx, p); err != nil {
		// el siguiente Initiate recupera el mismo intent con la idempotency key del pago
		log.Error().Err(err).Str("payment_id", p.ID).Str("order_id", order.ID).Str("intent_id", intent.ID).
			Msg("intent creado sin asociarse al pago")
		return nil, err
	}

	result = "created"
	span.SetAttributes(attribute.String("payment.id", p.ID), attribute.String("payment.intent_id", intent.ID))
	log.Info().Str("payment_id", p.ID).Str("order_id", order.ID).Str("intent_id", intent.ID).Msg("pago iniciado")
	ports.PublishBestEffort(ctx, uc.publisher, ports.DomainEvent{
		Type:        ports.EventPaymentInitiated,
		AggregateID: p.ID,
		Data:        map[string]string{"order_id": order.ID, "amount": p.Amount.String(), "currency": p.Currency},
	})
	return &dto.InitiatePaymentResponse{
		PaymentID:        p.ID,
		ProviderIntentID: intent.ID,
		ClientSecret:     intent.ClientSecret,
		Status:           p.Status,
		Created:          true,
	}, nil
}

// lockOrder toma el candado de pagos de la orden. Agotar la espera es un conflicto; cualquier
// otra falla del candado se devuelve tal cual.
func (uc *UseCase) lockOrder(ctx context.Context, orderID string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, uc.cfg.LockWait)
	defer cancel()
	unlock, err := uc.locker.Lock(lockCtx, "pago:orden:"+orderID)
	if err == nil {
		return unlock, nil
	}
	if lockCtx.Err() != nil {
		log.Warn().Err(err).Str("order_id", orderID).Msg("no se obtuvo el candado de pago")
		return nil, domain.NewConflict(domain.CodeLockTimeout, "hay una operación de pago en curso para esta orden, reintente")
	}
	log.Error().Err(err).Str("order_id", orderID).Msg("candado de pagos no disponible")
	return nil, fmt.Errorf("candado de pago: %w", err)
}

// reuse devuelve el intent existente. Si no se puede recuperar se falla: nunca se crea otro.
// Un pago activo sin intent asociado repite la creación con su propia idempotency key, que el
// procesador resuelve al mismo intent.
func (uc *UseCase) reuse(ctx context.Context, p *entity.Payment, order *entity.Order) (*dto.InitiatePaymentResponse, error) {
	if p.PaymentIntentID == "" {
		return uc.attachIntent(ctx, p, order)
	}
	start := time.Now()
	intent, err := uc.provider.RetrieveIntent(ctx, p.PaymentIntentID)
	observeProvider("retrieve_intent", start, err)
	if err != nil {
		log.Error().Err(err).Str("payment_id", p.ID).Str("intent_id", p.PaymentIntentID).Msg("no se pudo recuperar el intent existente")
		return nil, domain.NewExternalProvider("no fue posible recuperar el pago en curso", err)
	}
	return &dto.InitiatePaymentResponse{
		PaymentID:        p.ID,
		ProviderIntentID: intent.ID,
		ClientSecret:     intent.ClientSecret,
		Status:           p.Status,
		Created:          false,
	}, nil
}

func (uc *UseCase) attachIntent(ctx context.Context, p *entity.Payment, order *entity.Order) (*dto.InitiatePaymentResponse, error) {
	intent, err := uc.createIntent(ctx, p, order)
	if err != nil {
		log.Error().Err(err).Str("payment_id", p.ID).Msg("no se pudo recuperar el intent del pago activo")
		return nil, domain.NewExternalProvider("no fue posible recuperar el pago en curso", err)
	}
	p.PaymentIntentID = intent.ID
	p.ProviderStatus = intent.Status
	if intent.Status == ports.IntentStatusRequiresAction {
		p.Status = entity.PaymentStatusRequiereAccion
	}
	p.UpdatedAt = time.Now().UTC()
	if err := uc.payments.Update(ctx, p); err != nil {
		log.Error().Err(err).Str("payment_id", p.ID).Str("intent_id", intent.ID).Msg("intent creado sin asociarse al pago")
		return nil, err
	}
	log.Info().Str("payment_id", p.ID).Str("intent_id", intent.ID).Msg("intent asociado al pago activo")
	return &dto.InitiatePaymentResponse{
		PaymentID:        p.ID,
		ProviderIntentID: intent.ID,
		ClientSecret:     intent.ClientSecret,
		Status:           p.Status,
		Created:          false,
	}, nil
}

func (uc *UseCase) createIntent(ctx context.Context, p *entity.Payment, order *entity.Order) (*ports.PaymentIntent, error) {
	start := time.Now()
	intent, err := uc.provider.CreateIntent(ctx, ports.CreateIntentInput{
		Amount:         ToMinorUnits(p.Amount),
		Currency:       p.Currency,
		Description:    "Orden " + order.ID,
		Metadata:       map[string]string{"pagoId": p.ID, "ordenId": order.ID, "userId": p.UserID},
		IdempotencyKey: p.IdempotencyKey,
	})
	observeProvider("create_intent", start, err)
	return intent, err
}

// markFailed deja el pago FALLIDO con el diagnóstico del procesador.
func (uc *UseCase) markFailed(ctx context.Context, p *entity.Payment, cause error) {
	p.Status = entity.PaymentStatusFallido
	p.FailureCode, p.FailureMessage = failureOf(cause)
	p.UpdatedAt = time.Now().UTC()
	if err := uc.payments.Update(ctx, p); err != nil {
		log.Error().Err(err).Str("payment_id", p.ID).Msg("no se pudo registrar el fallo del pago")
	}
	log.Warn().Err(cause).Str("payment_id", p.ID).Str("order_id", p.OrderID).Msg("el procesador rechazó el pago")
}

// RefundInput datos de un reembolso.
type RefundInput struct {
	PaymentID   string
	Amount      *decimal.Decimal
	Reason      string
	RequestedBy string
	Role        string
}

// Refund reembolsa un pago COMPLETADO. Si el procesador lo acepta, pago REEMBOLSADO y orden
// CANCELADA se escriben en una sola transacción.
func (uc *UseCase) Refund(ctx context.Context, in RefundInput) (_ *dto.PaymentResponse, err error) {
	ctx, span := tracer.Start(ctx, "payment.Refund")
	span.SetAttributes(attribute.String("payment.id", in.PaymentID))
	result := "ok"
	defer func() {
		if err != nil {
			result = domain.CodeOf(err, "error")
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		metrics.PaymentRefundsTotal.WithLabelValues(result).Inc()
		span.End()
	}()

	if !entity.IsStaffRole(in.Role) {
		return nil, domain.NewForbidden("solo el personal de la tienda puede reembolsar")
	}
	p, err := uc.payments.GetByID(ctx, in.PaymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NewNotFound("pago no encontrado")
	}
	// dos reembolsos del mismo pago se serializan con el candado de la orden
	unlock, err := uc.lockOrder(ctx, p.OrderID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	if p, err = uc.payments.GetByID(ctx, in.PaymentID); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NewNotFound("pago no encontrado")
	}
	if p.Status != entity.PaymentStatusCompletado {
		return nil, domain.NewConflict(domain.CodeConflict, "solo se reembolsan pagos completados")
	}
	if p.PaymentIntentID == "" {
		return nil, domain.NewConflict(domain.CodeConflict, "el pago no tiene intent del procesador")
	}
	amount := p.Amount
	if in.Amount != nil {
		amount = *in.Amount
	}
	if !amount.IsPositive() {
		return nil, domain.NewValidation(domain.CodeValidation, "el monto a reembolsar debe ser mayor a 0")
	}
	if amount.GreaterThan(p.Amount) {
		return nil, domain.NewConflict(domain.CodeConflict, "el monto a reembolsar supera el monto pagado")
	}

	start := time.Now()
	refund, err := uc.provider.CreateRefund(ctx, p.PaymentIntentID, ToMinorUnits(amount), in.Reason)
	observeProvider("create_refund", start, err)
	if err != nil {
		p.FailureCode, p.FailureMessage = failureOf(err)
		p.UpdatedAt = time.Now().UTC()
		if uerr := uc.payments.Update(ctx, p); uerr != nil {
			log.Error().Err(uerr).Str("payment_id", p.ID).Msg("no se pudo registrar el fallo del reembolso")
		}
		return nil, domain.NewExternalProvider("el procesador rechazó el reembolso", err)
	}

	var updated *entity.Payment
	err = uc.txRunner.Run(ctx, func(tx repository.TxRepos) error {
		cur, err := tx.Payments.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		if cur == nil {
			return domain.NewNotFound("pago no encontrado")
		}
		now := time.Now().UTC()
		cur.Status = entity.PaymentStatusReembolsado
		cur.ClearFailure()
		cur.RefundID = refund.ID
		cur.RefundAmount = amount
		cur.RefundReason = in.Reason
		cur.UpdatedAt = now
		if err := tx.Payments.Update(ctx, cur); err != nil {
			return err
		}
		if err := tx.Orders.UpdateStatus(ctx, cur.OrderID, entity.OrderStatusCancelada, now); err != nil {
			return err
		}
		updated = cur
		return nil
	})
	if err != nil {
		// el reembolso existe en el procesador: el webhook charge.refunded lo concilia después
		log.Error().Err(err).Str("payment_id", p.ID).Str("refund_id", refund.ID).Msg("reembolso aceptado por el procesador sin confirmar localmente")
		return nil, err
	}

	metrics.OrderStatusChangesTotal.WithLabelValues(entity.OrderStatusCancelada, "refund").Inc()
	log.Info().Str("payment_id", p.ID).Str("refund_id", refund.ID).Str("amount", amount.String()).Str("by", in.RequestedBy).Msg("pago reembolsado")
	ports.PublishBestEffort(ctx, uc.publisher, ports.DomainEvent{
		Type:        ports.EventPaymentRefunded,
		AggregateID: p.ID,
		Data:        map[string]string{"order_id": p.OrderID, "amount": amount.String(), "refund_id": refund.ID},
	})
	out := ToPaymentResponse(updated)
	return &out, nil
}

// GetByID pago por id: personal de la tienda o dueño.
func (uc *UseCase) GetByID(ctx context.Context, paymentID, userID, role string) (*dto.PaymentResponse, error) {
	p, err := uc.payments.GetByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NewNotFound("pago no encontrado")
	}
	if err := authorize(p, userID, role); err != nil {
		return nil, err
	}
	out := ToPaymentResponse(p)
	return &out, nil
}

// GetByOrderID pago más reciente de la orden: personal de la tienda o dueño.
func (uc *UseCase) GetByOrderID(ctx context.Context, orderID, userID, role string) (*dto.PaymentResponse, error) {
	list, err := uc.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.NewNotFound("la orden no tiene pagos")
	}
	if err := authorize(list[0], userID, role); err != nil {
		return nil, err
	}
	out := ToPaymentResponse(list[0])
	return &out, nil
}

// ListByOrder historial de pagos de una orden (personal de la tienda).
func (uc *UseCase) ListByOrder(ctx context.Context, orderID string) ([]dto.PaymentResponse, error) {
	list, err := uc.payments.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(list))
	for _, p := range list {
		out = append(out, ToPaymentResponse(p))
	}
	return out, nil
}

func authorize(p *entity.Payment, userID, role string) error {
	if entity.IsStaffRole(role) || p.UserID == userID {
		return nil
	}
	log.Warn().Str("payment_id", p.ID).Str("user_id", userID).Msg("acceso denegado a pago ajeno")
	return domain.NewForbidden("no tiene permiso sobre este pago")
}

// derivedKey key determinística por (orden, usuario, intentos previos): reintentos sin key
// colapsan en la misma mientras no se registre un pago nuevo.
func derivedKey(orderID, userID string, attempts int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d", orderID, userID, attempts)))
	return "pago-" + hex.EncodeToString(sum[:])
}

// ToMinorUnits convierte a centavos para el procesador.
func ToMinorUnits(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// FromMinorUnits convierte centavos a decimal.
func FromMinorUnits(n int64) decimal.Decimal {
	return decimal.New(n, -2)
}

func failureOf(err error) (code, message string) {
	var pe *ports.ProviderError
	if errors.As(err, &pe) {
		return pe.Code, pe.Message
	}
	return "error_proveedor", err.Error()
}

func observeProvider(op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.ProviderRequestDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
}
