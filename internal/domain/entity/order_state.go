package entity

// orderTransitions grafo de transiciones permitidas en actualizaciones explícitas.
// CANCELADA es alcanzable desde cualquier estado salvo desde sí misma.
var orderTransitions = map[string][]string{
	OrderStatusPendiente:  {OrderStatusConfirmada, OrderStatusCancelada},
	OrderStatusConfirmada: {OrderStatusEnProceso, OrderStatusCancelada},
	OrderStatusEnProceso:  {OrderStatusEnviada, OrderStatusCancelada},
	OrderStatusEnviada:    {OrderStatusEntregada, OrderStatusCancelada},
	OrderStatusEntregada:  {OrderStatusCancelada},
}

// IsValidOrderStatus indica si s es un estado conocido.
func IsValidOrderStatus(s string) bool {
	switch s {
	case OrderStatusPendiente, OrderStatusConfirmada, OrderStatusEnProceso,
		OrderStatusEnviada, OrderStatusEntregada, OrderStatusCancelada:
		return true
	}
	return false
}

// CanTransition indica si una actualización explícita puede llevar la orden de from a to.
// Las transiciones disparadas por webhooks no pasan por aquí.
func CanTransition(from, to string) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
