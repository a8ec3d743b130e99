package ports

import (
	"context"
	"fmt"
)

// Tipos de evento del procesador que el conciliador sabe aplicar.
const (
	EventIntentSucceeded        = "payment_intent.succeeded"
	EventIntentFailed           = "payment_intent.payment_failed"
	EventCheckoutCompleted      = "checkout.session.completed"
	EventCheckoutAsyncSucceeded = "checkout.session.async_payment_succeeded"
	EventCheckoutAsyncFailed    = "checkout.session.async_payment_failed"
	EventChargeRefunded         = "charge.refunded"
)

// Estados de intent que reporta el procesador.
const (
	IntentStatusRequiresPaymentMethod = "requires_payment_method"
	IntentStatusRequiresConfirmation  = "requires_confirmation"
	IntentStatusRequiresAction        = "requires_action"
	IntentStatusProcessing            = "processing"
	IntentStatusSucceeded             = "succeeded"
	IntentStatusCanceled              = "canceled"
)

// CreateIntentInput parámetros para crear un intent de pago. Amount va en unidades mínimas.
type CreateIntentInput struct {
	Amount         int64
	Currency       string
	Description    string
	Metadata       map[string]string
	IdempotencyKey string
}

// PaymentIntent vista del intent devuelta por el procesador.
type PaymentIntent struct {
	ID               string
	ClientSecret     string
	Status           string
	Amount           int64
	Currency         string
	Metadata         map[string]string
	LastErrorCode    string
	LastErrorMessage string
}

// Refund resultado de un reembolso.
type Refund struct {
	ID     string
	Amount int64
	Status string
}

// EventObject datos normalizados del objeto que acompaña al evento
// (payment_intent, checkout.session o charge según el tipo).
type EventObject struct {
	ID              string
	Object          string
	PaymentIntentID string
	Status          string
	Metadata        map[string]string
	FailureCode     string
	FailureMessage  string
	AmountRefunded  int64
	RefundID        string
	RefundReason    string
}

// ProviderEvent evento de webhook ya verificado.
type ProviderEvent struct {
	ID      string
	Type    string
	Created int64
	Object  EventObject
}

// PaymentProvider puerto de salida hacia el procesador de pagos.
// Cualquier adaptador (Stripe, mock en tests) debe implementar esta interfaz.
type PaymentProvider interface {
	CreateIntent(ctx context.Context, in CreateIntentInput) (*PaymentIntent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*PaymentIntent, error)
	// CreateRefund amount=0 reembolsa el total.
	CreateRefund(ctx context.Context, intentID string, amount int64, reason string) (*Refund, error)
	// ConstructEvent verifica la firma sobre el cuerpo crudo y decodifica el evento.
	ConstructEvent(payload []byte, signature string) (*ProviderEvent, error)
}

// ProviderError error devuelto por el procesador con su diagnóstico.
// El mensaje se guarda en el pago; al cliente solo llega un mensaje genérico.
type ProviderError struct {
	HTTPStatus int
	Code       string
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("proveedor de pagos: %s (%d): %s", e.Code, e.HTTPStatus, e.Message)
}
