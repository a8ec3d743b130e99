package payment

import (
	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
)

// ToPaymentResponse mapea entidad a DTO.
func ToPaymentResponse(p *entity.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:              p.ID,
		OrderID:         p.OrderID,
		UserID:          p.UserID,
		Provider:        p.Provider,
		Method:          p.Method,
		Amount:          p.Amount,
		Currency:        p.Currency,
		Status:          p.Status,
		PaymentIntentID: p.PaymentIntentID,
		PaidAt:          p.PaidAt,
		RefundID:        p.RefundID,
		RefundAmount:    p.RefundAmount,
		RefundReason:    p.RefundReason,
		FailureCode:     p.FailureCode,
		FailureMessage:  p.FailureMessage,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

// ToWebhookEventResponse mapea entidad a DTO.
func ToWebhookEventResponse(e *entity.WebhookEvent) dto.WebhookEventResponse {
	return dto.WebhookEventResponse{
		ID:        e.ID,
		Type:      e.Type,
		Outcome:   e.Outcome,
		Reason:    e.Reason,
		PaymentID: e.PaymentID,
		OrderID:   e.OrderID,
		Attempts:  e.Attempts,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}
