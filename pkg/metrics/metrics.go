// Package metrics expone los contadores Prometheus de la tienda (servidos en /metrics).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tienda_orders_created_total",
		Help: "Órdenes creadas",
	})

	OrderStatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tienda_order_status_changes_total",
		Help: "Cambios de estado de órdenes por estado destino y origen del cambio",
	}, []string{"status", "source"})

	InventoryMovementsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tienda_inventory_movements_total",
		Help: "Movimientos de inventario por tipo y resultado",
	}, []string{"type", "result"})

	PaymentInitiationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tienda_payment_initiations_total",
		Help: "Iniciaciones de pago por resultado (created, reused, rejected, provider_error)",
	}, []string{"result"})

	PaymentRefundsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tienda_payment_refunds_total",
		Help: "Reembolsos por resultado",
	}, []string{"result"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tienda_webhook_events_total",
		Help: "Eventos de webhook por tipo y resultado",
	}, []string{"type", "outcome"})

	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tienda_payment_provider_request_duration_seconds",
		Help:    "Latencia de las llamadas al procesador de pagos",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tienda_http_request_duration_seconds",
		Help:    "Latencia de peticiones HTTP",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
