package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/application/inventory"
)

// InventoryHandler movimientos, ajustes y consultas de stock (admin/staff).
type InventoryHandler struct {
	uc    *inventory.RegisterMovementUseCase
	query *inventory.QueryUseCase
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(uc *inventory.RegisterMovementUseCase, query *inventory.QueryUseCase) *InventoryHandler {
	return &InventoryHandler{uc: uc, query: query}
}

// RegisterMovement godoc
// @Summary      Registrar movimiento de inventario
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.RegisterMovementRequest  true  "product_id, type, quantity (new_quantity para ajuste), size_id, order_id (venta/devolucion)"
// @Success      201   {object}  dto.APIResponse{data=dto.MovementResponse}
// @Failure      400   {object}  dto.APIResponse
// @Failure      404   {object}  dto.APIResponse
// @Failure      409   {object}  dto.APIResponse
// @Router       /api/inventario/movimientos [post]
func (h *InventoryHandler) RegisterMovement(c *fiber.Ctx) error {
	var in dto.RegisterMovementRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.uc.ApplyMovement(c.UserContext(), inventory.MovementInputDTO{
		ProductID:      in.ProductID,
		Type:           in.Type,
		Quantity:       in.Quantity,
		NewQuantity:    in.NewQuantity,
		SizeID:         in.SizeID,
		Reason:         in.Reason,
		Reference:      in.Reference,
		OrderID:        in.OrderID,
		UserID:         GetUserID(c),
		IdempotencyKey: in.IdempotencyKey,
	})
	if err != nil {
		return respondError(c, err)
	}
	return h.movementResult(c, res)
}

// RegisterAdjustment godoc
// @Summary      Ajuste de inventario a cantidad absoluta
// @Description  Idempotente: la misma key devuelve el ajuste ya registrado (200) sin tocar el stock.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string                 false  "8 a 255 caracteres (o idempotency_key en el body)"
// @Param        body             body    dto.AdjustmentRequest  true   "product_id, size_id, new_quantity, reason"
// @Success      200   {object}  dto.APIResponse{data=dto.MovementResponse}
// @Success      201   {object}  dto.APIResponse{data=dto.MovementResponse}
// @Failure      400   {object}  dto.APIResponse
// @Failure      404   {object}  dto.APIResponse
// @Router       /api/inventario/ajustes [post]
func (h *InventoryHandler) RegisterAdjustment(c *fiber.Ctx) error {
	var in dto.AdjustmentRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	key := c.Get("Idempotency-Key")
	if key == "" {
		key = in.IdempotencyKey
	}
	res, err := h.uc.RegisterAdjustment(c.UserContext(), inventory.MovementInputDTO{
		ProductID:      in.ProductID,
		NewQuantity:    in.NewQuantity,
		SizeID:         in.SizeID,
		Reason:         in.Reason,
		Reference:      in.Reference,
		UserID:         GetUserID(c),
		IdempotencyKey: key,
	})
	if err != nil {
		return respondError(c, err)
	}
	return h.movementResult(c, res)
}

func (h *InventoryHandler) movementResult(c *fiber.Ctx, res *inventory.MovementResult) error {
	out := inventory.ToMovementResponse(res.Movement, res.Reused)
	if res.Reused {
		return ok(c, out)
	}
	return created(c, out)
}

// GetStock godoc
// @Summary      Stock actual de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "Product ID"
// @Success      200  {object}  dto.APIResponse{data=dto.StockResponse}
// @Failure      404  {object}  dto.APIResponse
// @Router       /api/inventario/productos/{id}/stock [get]
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	out, err := h.query.GetStock(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// ListMovements godoc
// @Summary      Historial de movimientos de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   string  true   "Product ID"
// @Param        limit   query  int     false  "Límite (default 20)"
// @Param        offset  query  int     false  "Offset"
// @Success      200  {object}  dto.APIResponse{data=[]dto.MovementResponse}
// @Router       /api/inventario/productos/{id}/movimientos [get]
func (h *InventoryHandler) ListMovements(c *fiber.Ctx) error {
	out, err := h.query.ListMovements(c.UserContext(), c.Params("id"), pageFromQuery(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// LowStockAlerts godoc
// @Summary      Alertas de stock bajo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.APIResponse{data=[]dto.StockAlertDTO}
// @Router       /api/inventario/alertas [get]
func (h *InventoryHandler) LowStockAlerts(c *fiber.Ctx) error {
	out, err := h.query.LowStockAlerts(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}
