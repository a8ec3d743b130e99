package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un pago.
const (
	PaymentStatusPendiente      = "PENDIENTE"
	PaymentStatusProcesando     = "PROCESANDO"
	PaymentStatusRequiereAccion = "REQUIERE_ACCION"
	PaymentStatusCompletado     = "COMPLETADO"
	PaymentStatusFallido        = "FALLIDO"
	PaymentStatusReembolsado    = "REEMBOLSADO"
)

// Métodos de pago. Solo MethodTarjeta está integrado con el procesador.
const (
	PaymentMethodTarjeta       = "tarjeta"
	PaymentMethodTransferencia = "transferencia"
	PaymentMethodContraEntrega = "contra_entrega"
)

// PaymentProviderStripe proveedor integrado.
const PaymentProviderStripe = "stripe"

// ActivePaymentStatuses estados que cuentan como "pago activo" de una orden.
var ActivePaymentStatuses = []string{
	PaymentStatusPendiente,
	PaymentStatusProcesando,
	PaymentStatusRequiereAccion,
}

// IsValidPaymentMethod indica si m es un método conocido.
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodTarjeta, PaymentMethodTransferencia, PaymentMethodContraEntrega:
		return true
	}
	return false
}

// Payment intento de cobro de una orden ante el procesador de pagos.
type Payment struct {
	ID                string
	OrderID           string
	UserID            string
	Provider          string
	Method            string
	Amount            decimal.Decimal
	Currency          string
	Status            string
	IdempotencyKey    string
	PaymentIntentID   string
	CheckoutSessionID string
	ProviderStatus    string
	PaidAt            *time.Time
	RefundID          string
	RefundAmount      decimal.Decimal
	RefundReason      string
	FailureCode       string
	FailureMessage    string
	ProcessedEventIDs []string // eventos de webhook ya aplicados
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsActive PENDIENTE, PROCESANDO o REQUIERE_ACCION.
func (p *Payment) IsActive() bool {
	for _, s := range ActivePaymentStatuses {
		if p.Status == s {
			return true
		}
	}
	return false
}

// HasProcessedEvent indica si el evento ya fue aplicado a este pago.
func (p *Payment) HasProcessedEvent(eventID string) bool {
	for _, id := range p.ProcessedEventIDs {
		if id == eventID {
			return true
		}
	}
	return false
}

// MarkEventProcessed agrega el evento a la lista (sin duplicar).
func (p *Payment) MarkEventProcessed(eventID string) {
	if !p.HasProcessedEvent(eventID) {
		p.ProcessedEventIDs = append(p.ProcessedEventIDs, eventID)
	}
}

// ClearFailure limpia el diagnóstico de fallo.
func (p *Payment) ClearFailure() {
	p.FailureCode = ""
	p.FailureMessage = ""
}

// Clone copia profunda del pago.
func (p *Payment) Clone() *Payment {
	if p == nil {
		return nil
	}
	c := *p
	c.ProcessedEventIDs = append([]string(nil), p.ProcessedEventIDs...)
	if p.PaidAt != nil {
		t := *p.PaidAt
		c.PaidAt = &t
	}
	return &c
}
