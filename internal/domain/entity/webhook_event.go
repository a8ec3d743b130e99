package entity

import "time"

// Resultados del procesamiento de un webhook.
const (
	WebhookOutcomeProcessing = "processing"
	WebhookOutcomeProcessed  = "processed"
	WebhookOutcomeDuplicate  = "duplicate"
	WebhookOutcomeIgnored    = "ignored"
	WebhookOutcomeUnmatched  = "unmatched"
	WebhookOutcomeError      = "error"
)

// WebhookEvent entrada del registro de eventos vistos; el ID es el asignado por el proveedor.
type WebhookEvent struct {
	ID        string
	Type      string
	Outcome   string
	Reason    string
	PaymentID string
	OrderID   string
	Attempts  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone copia el evento.
func (e *WebhookEvent) Clone() *WebhookEvent {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}
