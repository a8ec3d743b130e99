package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/application/payment"
	"github.com/jhoicas/tienda-club/internal/domain"
)

// SignatureHeader firma de los webhooks del procesador.
const SignatureHeader = "Stripe-Signature"

// PaymentHandler iniciación de pagos, reembolsos, consultas y webhook del procesador.
type PaymentHandler struct {
	uc       *payment.UseCase
	webhooks *payment.WebhookUseCase
}

// NewPaymentHandler construye el handler.
func NewPaymentHandler(uc *payment.UseCase, webhooks *payment.WebhookUseCase) *PaymentHandler {
	return &PaymentHandler{uc: uc, webhooks: webhooks}
}

// Initiate godoc
// @Summary      Iniciar pago de una orden
// @Description  Reutiliza el pago activo de la orden si existe (200); si no, crea un intent (201).
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                      false  "8 a 255 caracteres"
// @Param        body             body    dto.InitiatePaymentRequest  true   "order_id, payment_method"
// @Success      200  {object}  dto.APIResponse{data=dto.InitiatePaymentResponse}
// @Success      201  {object}  dto.APIResponse{data=dto.InitiatePaymentResponse}
// @Failure      400  {object}  dto.APIResponse
// @Failure      403  {object}  dto.APIResponse
// @Failure      409  {object}  dto.APIResponse
// @Failure      502  {object}  dto.APIResponse
// @Router       /api/pagos/iniciar [post]
func (h *PaymentHandler) Initiate(c *fiber.Ctx) error {
	var in dto.InitiatePaymentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Initiate(c.UserContext(), payment.InitiateInput{
		OrderID:        in.OrderID,
		UserID:         GetUserID(c),
		PaymentMethod:  in.PaymentMethod,
		IdempotencyKey: c.Get("Idempotency-Key"),
	})
	if err != nil {
		return respondError(c, err)
	}
	if out.Created {
		return created(c, out)
	}
	return ok(c, out)
}

// Webhook godoc
// @Summary      Webhook del procesador de pagos
// @Description  Responde 200 para todo evento reservado (incluidos duplicados, ignorados y sin pago asociado).
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        Stripe-Signature  header  string  true  "t=<timestamp>,v1=<firma>"
// @Success      200  {object}  dto.APIResponse{data=dto.WebhookResult}
// @Failure      400  {object}  dto.APIResponse
// @Failure      500  {object}  dto.APIResponse
// @Router       /api/pagos/webhook [post]
func (h *PaymentHandler) Webhook(c *fiber.Ctx) error {
	// copia: fasthttp reutiliza el buffer del body
	payload := append([]byte(nil), c.Body()...)
	res, err := h.webhooks.Process(c.UserContext(), payload, c.Get(SignatureHeader))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return respondError(c, err)
		}
		return fail(c, fiber.StatusInternalServerError, "WEBHOOK_ERROR", "error procesando el evento, se reintentará")
	}
	return ok(c, res)
}

// Refund godoc
// @Summary      Reembolsar un pago (admin/staff)
// @Tags         payments
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string             true   "Payment ID"
// @Param        body  body  dto.RefundRequest  false  "amount (opcional, total por defecto), reason"
// @Success      200   {object}  dto.APIResponse{data=dto.PaymentResponse}
// @Failure      400   {object}  dto.APIResponse
// @Failure      409   {object}  dto.APIResponse
// @Failure      502   {object}  dto.APIResponse
// @Router       /api/pagos/{id}/reembolso [post]
func (h *PaymentHandler) Refund(c *fiber.Ctx) error {
	var in dto.RefundRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	out, err := h.uc.Refund(c.UserContext(), payment.RefundInput{
		PaymentID:   c.Params("id"),
		Amount:      in.Amount,
		Reason:      in.Reason,
		RequestedBy: GetUserID(c),
		Role:        GetRole(c),
	})
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// GetByID godoc
// @Summary      Obtener pago (dueño o admin/staff)
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Payment ID"
// @Success      200  {object}  dto.APIResponse{data=dto.PaymentResponse}
// @Failure      403  {object}  dto.APIResponse
// @Failure      404  {object}  dto.APIResponse
// @Router       /api/pagos/{id} [get]
func (h *PaymentHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.GetByID(c.UserContext(), c.Params("id"), GetUserID(c), GetRole(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// GetByOrder godoc
// @Summary      Pago más reciente de una orden
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        orderId  path  string  true  "Order ID"
// @Success      200  {object}  dto.APIResponse{data=dto.PaymentResponse}
// @Failure      404  {object}  dto.APIResponse
// @Router       /api/pagos/orden/{orderId} [get]
func (h *PaymentHandler) GetByOrder(c *fiber.Ctx) error {
	out, err := h.uc.GetByOrderID(c.UserContext(), c.Params("orderId"), GetUserID(c), GetRole(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// ListByOrder godoc
// @Summary      Todos los pagos de una orden (admin/staff)
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        orderId  path  string  true  "Order ID"
// @Success      200  {object}  dto.APIResponse{data=[]dto.PaymentResponse}
// @Router       /api/admin/pagos/orden/{orderId} [get]
func (h *PaymentHandler) ListByOrder(c *fiber.Ctx) error {
	out, err := h.uc.ListByOrder(c.UserContext(), c.Params("orderId"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// ListWebhookEvents godoc
// @Summary      Eventos de webhook registrados (admin/staff)
// @Tags         payments
// @Security     Bearer
// @Produce      json
// @Param        limit   query  int  false  "Límite (default 20)"
// @Param        offset  query  int  false  "Offset"
// @Success      200  {object}  dto.APIResponse{data=[]dto.WebhookEventResponse}
// @Router       /api/admin/webhooks/eventos [get]
func (h *PaymentHandler) ListWebhookEvents(c *fiber.Ctx) error {
	out, err := h.webhooks.ListEvents(c.UserContext(), pageFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}
