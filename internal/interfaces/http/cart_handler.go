package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/tienda-club/internal/application/cart"
	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/domain"
)

// SessionHeader identifica el carrito de un visitante anónimo.
const SessionHeader = "X-Session-Id"

// CartHandler carrito de usuario autenticado o de sesión anónima.
type CartHandler struct {
	uc *cart.UseCase
}

// NewCartHandler construye el handler.
func NewCartHandler(uc *cart.UseCase) *CartHandler {
	return &CartHandler{uc: uc}
}

func identity(c *fiber.Ctx) cart.Identity {
	return cart.Identity{UserID: GetUserID(c), SessionID: c.Get(SessionHeader)}
}

// Get godoc
// @Summary      Obtener (o crear) el carrito
// @Tags         cart
// @Produce      json
// @Param        X-Session-Id  header  string  false  "Sesión anónima (si no hay token)"
// @Success      200  {object}  dto.APIResponse{data=dto.CartResponse}
// @Failure      400  {object}  dto.APIResponse
// @Router       /api/carrito [get]
func (h *CartHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.GetOrCreate(c.UserContext(), identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// AddItem godoc
// @Summary      Agregar producto al carrito
// @Description  Suma la cantidad si el producto (y talla) ya está en el carrito. El precio lo fija el servidor.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-Session-Id  header  string                  false  "Sesión anónima"
// @Param        body          body    dto.AddCartItemRequest  true   "product_id, size_id, quantity"
// @Success      200  {object}  dto.APIResponse{data=dto.CartResponse}
// @Failure      400  {object}  dto.APIResponse
// @Failure      404  {object}  dto.APIResponse
// @Failure      409  {object}  dto.APIResponse
// @Router       /api/carrito/items [post]
func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	var in dto.AddCartItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.AddItem(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// UpdateItem godoc
// @Summary      Cambiar cantidad de una línea (0 la elimina)
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        X-Session-Id  header  string                     false  "Sesión anónima"
// @Param        body          body    dto.UpdateCartItemRequest  true   "product_id, size_id, quantity"
// @Success      200  {object}  dto.APIResponse{data=dto.CartResponse}
// @Failure      400  {object}  dto.APIResponse
// @Failure      409  {object}  dto.APIResponse
// @Router       /api/carrito/items [put]
func (h *CartHandler) UpdateItem(c *fiber.Ctx) error {
	var in dto.UpdateCartItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateItemQuantity(c.UserContext(), identity(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// RemoveItem godoc
// @Summary      Quitar una línea del carrito
// @Tags         cart
// @Produce      json
// @Param        X-Session-Id  header  string  false  "Sesión anónima"
// @Param        productId     path    string  true   "Product ID"
// @Param        talla         query   string  false  "Talla de la línea"
// @Success      200  {object}  dto.APIResponse{data=dto.CartResponse}
// @Router       /api/carrito/items/{productId} [delete]
func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	out, err := h.uc.RemoveItem(c.UserContext(), identity(c), c.Params("productId"), c.Query("talla"))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// Clear godoc
// @Summary      Vaciar el carrito
// @Tags         cart
// @Produce      json
// @Param        X-Session-Id  header  string  false  "Sesión anónima"
// @Success      200  {object}  dto.APIResponse{data=dto.CartResponse}
// @Router       /api/carrito [delete]
func (h *CartHandler) Clear(c *fiber.Ctx) error {
	out, err := h.uc.Clear(c.UserContext(), identity(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// Merge godoc
// @Summary      Fusionar el carrito de sesión en el del usuario
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.MergeCartRequest  false  "session_id (o header X-Session-Id)"
// @Success      200  {object}  dto.APIResponse{data=dto.CartResponse}
// @Failure      401  {object}  dto.APIResponse
// @Router       /api/carrito/fusionar [post]
func (h *CartHandler) Merge(c *fiber.Ctx) error {
	var in dto.MergeCartRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = c.Get(SessionHeader)
	}
	if sessionID == "" {
		return fail(c, fiber.StatusBadRequest, domain.CodeValidation, "session_id es requerido")
	}
	out, err := h.uc.Merge(c.UserContext(), sessionID, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return ok(c, out)
}

// Checkout godoc
// @Summary      Convertir el carrito en orden
// @Description  La orden se crea primero; el carrito se vacía después.
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  true  "shipping_address, payment_method"
// @Success      201  {object}  dto.APIResponse{data=dto.OrderResponse}
// @Failure      400  {object}  dto.APIResponse
// @Failure      409  {object}  dto.APIResponse
// @Router       /api/carrito/checkout [post]
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Checkout(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return respondError(c, err)
	}
	return created(c, out)
}
