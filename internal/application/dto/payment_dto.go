package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// InitiatePaymentRequest body para POST /api/pagos/iniciar (header Idempotency-Key opcional).
type InitiatePaymentRequest struct {
	OrderID       string `json:"order_id"`
	PaymentMethod string `json:"payment_method"`
}

// InitiatePaymentResponse resultado de iniciar (o reutilizar) un pago.
type InitiatePaymentResponse struct {
	PaymentID        string `json:"payment_id"`
	ProviderIntentID string `json:"provider_intent_id"`
	ClientSecret     string `json:"client_secret"`
	Status           string `json:"status"`
	Created          bool   `json:"created"`
}

// RefundRequest body para POST /api/pagos/:id/reembolso. Sin amount se reembolsa el total.
type RefundRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason string           `json:"reason,omitempty"`
}

// PaymentResponse salida de un pago (sin datos internos del proveedor salvo el intent id).
type PaymentResponse struct {
	ID              string          `json:"id"`
	OrderID         string          `json:"order_id"`
	UserID          string          `json:"user_id"`
	Provider        string          `json:"provider"`
	Method          string          `json:"payment_method"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	Status          string          `json:"status"`
	PaymentIntentID string          `json:"payment_intent_id,omitempty"`
	PaidAt          *time.Time      `json:"paid_at,omitempty"`
	RefundID        string          `json:"refund_id,omitempty"`
	RefundAmount    decimal.Decimal `json:"refund_amount"`
	RefundReason    string          `json:"refund_reason,omitempty"`
	FailureCode     string          `json:"failure_code,omitempty"`
	FailureMessage  string          `json:"failure_message,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// WebhookResult resultado del procesamiento de un webhook.
type WebhookResult struct {
	Outcome   string `json:"outcome"`
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
	PaymentID string `json:"payment_id,omitempty"`
	OrderID   string `json:"order_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// WebhookEventResponse entrada del registro de eventos (inspección de operadores).
type WebhookEventResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	PaymentID string    `json:"payment_id,omitempty"`
	OrderID   string    `json:"order_id,omitempty"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
