package ports

import (
	"context"
	"time"
)

// Tipos de eventos de dominio publicados.
const (
	EventOrderCreated       = "orden.creada"
	EventOrderStatusChanged = "orden.estado_actualizado"
	EventPaymentInitiated   = "pago.iniciado"
	EventPaymentCompleted   = "pago.completado"
	EventPaymentFailed      = "pago.fallido"
	EventPaymentRefunded    = "pago.reembolsado"
	EventStockMoved         = "inventario.movimiento"
)

// DomainEvent evento publicado hacia el bus (kafka o log).
type DomainEvent struct {
	Type        string            `json:"type"`
	AggregateID string            `json:"aggregate_id"`
	OccurredAt  time.Time         `json:"occurred_at"`
	Data        map[string]string `json:"data,omitempty"`
}

// EventPublisher puerto de salida para eventos de dominio. La publicación es best-effort:
// un fallo se registra en log y no revierte la operación que lo originó.
type EventPublisher interface {
	Publish(ctx context.Context, event DomainEvent) error
}
