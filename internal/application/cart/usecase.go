package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

// OrderCreator crea la orden en el checkout (implementado por order.UseCase).
type OrderCreator interface {
	CreateOrder(ctx context.Context, userID string, in dto.CreateOrderRequest) (*dto.OrderResponse, error)
}

// Identity dueño del carrito: usuario autenticado o sesión anónima (header X-Session-Id).
type Identity struct {
	UserID    string
	SessionID string
}

// UseCase carrito previo al checkout. Precios siempre leídos del producto.
type UseCase struct {
	carts      repository.CartRepository
	products   repository.ProductRepository
	orders     OrderCreator
	maxPerItem int
}

// NewUseCase construye el caso de uso del carrito.
func NewUseCase(carts repository.CartRepository, products repository.ProductRepository, orders OrderCreator, maxPerItem int) *UseCase {
	return &UseCase{carts: carts, products: products, orders: orders, maxPerItem: maxPerItem}
}

// GetOrCreate busca por usuario (prioridad) y luego por sesión; si no existe crea uno vacío.
func (uc *UseCase) GetOrCreate(ctx context.Context, id Identity) (*dto.CartResponse, error) {
	c, err := uc.getOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	out := ToCartResponse(c)
	return &out, nil
}

func (uc *UseCase) getOrCreate(ctx context.Context, id Identity) (*entity.Cart, error) {
	if id.UserID == "" && id.SessionID == "" {
		return nil, domain.NewValidation(domain.CodeValidation, "se requiere usuario o sesión para el carrito")
	}
	if id.UserID != "" {
		c, err := uc.carts.GetByUserID(ctx, id.UserID)
		if err != nil || c != nil {
			return c, err
		}
	}
	var session *entity.Cart
	if id.SessionID != "" {
		s, err := uc.carts.GetBySessionID(ctx, id.SessionID)
		if err != nil {
			return nil, err
		}
		if s != nil && id.UserID == "" {
			return s, nil
		}
		session = s
	}

	now := time.Now().UTC()
	c := &entity.Cart{ID: uuid.New().String(), Items: []entity.CartItem{}, CreatedAt: now, UpdatedAt: now}
	if id.UserID != "" {
		c.UserID = id.UserID
	} else {
		c.SessionID = id.SessionID
	}
	c.Recalculate()
	if err := uc.carts.Create(ctx, c); err != nil {
		return nil, err
	}
	// un usuario sin carrito propio hereda el de su sesión
	if session != nil {
		if err := uc.absorb(ctx, c, session); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// AddItem agrega o suma a la línea (producto, talla). La cantidad combinada respeta el máximo
// por línea y el stock disponible.
func (uc *UseCase) AddItem(ctx context.Context, id Identity, in dto.AddCartItemRequest) (*dto.CartResponse, error) {
	if in.ProductID == "" {
		return nil, domain.NewValidation(domain.CodeValidation, "product_id es requerido")
	}
	if in.Quantity <= 0 {
		return nil, domain.NewValidation(domain.CodeValidation, "la cantidad debe ser mayor a 0")
	}
	c, err := uc.getOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	p, err := uc.activeProduct(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	available, err := p.StockFor(in.SizeID)
	if err != nil {
		return nil, err
	}

	idx := c.FindItem(in.ProductID, in.SizeID)
	total := in.Quantity
	if idx >= 0 {
		total += c.Items[idx].Quantity
	}
	if err := uc.checkQuantity(total, available); err != nil {
		return nil, err
	}

	if idx >= 0 {
		c.Items[idx].Quantity = total
		c.Items[idx].UnitPrice = p.Price
	} else {
		c.Items = append(c.Items, entity.CartItem{ProductID: p.ID, SizeID: in.SizeID, Quantity: total, UnitPrice: p.Price})
	}
	return uc.save(ctx, c)
}

// UpdateItemQuantity fija la cantidad de una línea; 0 la elimina. Si el producto ya no existe
// en el catálogo la línea se conserva sin refrescar precio.
func (uc *UseCase) UpdateItemQuantity(ctx context.Context, id Identity, in dto.UpdateCartItemRequest) (*dto.CartResponse, error) {
	if in.Quantity < 0 {
		return nil, domain.NewValidation(domain.CodeValidation, "la cantidad no puede ser negativa")
	}
	if in.Quantity == 0 {
		return uc.RemoveItem(ctx, id, in.ProductID, in.SizeID)
	}
	c, err := uc.getOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	idx := c.FindItem(in.ProductID, in.SizeID)
	if idx < 0 {
		return nil, domain.NewNotFound("el producto no está en el carrito")
	}

	p, err := uc.products.GetByID(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		log.Warn().Str("cart_id", c.ID).Str("product_id", in.ProductID).Msg("producto del carrito ya no existe en el catálogo")
		if in.Quantity > uc.maxPerItem {
			return nil, uc.maxError()
		}
		c.Items[idx].Quantity = in.Quantity
		return uc.save(ctx, c)
	}

	available, err := p.StockFor(in.SizeID)
	if err != nil {
		return nil, err
	}
	if err := uc.checkQuantity(in.Quantity, available); err != nil {
		return nil, err
	}
	c.Items[idx].Quantity = in.Quantity
	c.Items[idx].UnitPrice = p.Price
	return uc.save(ctx, c)
}

// RemoveItem quita la línea (producto, talla) si existe.
func (uc *UseCase) RemoveItem(ctx context.Context, id Identity, productID, sizeID string) (*dto.CartResponse, error) {
	c, err := uc.getOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	if idx := c.FindItem(productID, sizeID); idx >= 0 {
		c.RemoveAt(idx)
	}
	return uc.save(ctx, c)
}

// Clear vacía el carrito (no lo elimina).
func (uc *UseCase) Clear(ctx context.Context, id Identity) (*dto.CartResponse, error) {
	c, err := uc.getOrCreate(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Items = []entity.CartItem{}
	return uc.save(ctx, c)
}

// Merge fusiona el carrito anónimo de la sesión en el del usuario al autenticarse.
// Las líneas que ya no son válidas se descartan en silencio; las válidas se suman y se recortan
// a min(suma, máximo por línea, stock). El carrito de la sesión se elimina siempre.
func (uc *UseCase) Merge(ctx context.Context, sessionID, userID string) (*dto.CartResponse, error) {
	if sessionID == "" || userID == "" {
		return nil, domain.NewValidation(domain.CodeValidation, "session_id y usuario son requeridos")
	}
	target, err := uc.getOrCreate(ctx, Identity{UserID: userID})
	if err != nil {
		return nil, err
	}
	source, err := uc.carts.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if source != nil {
		if err := uc.absorb(ctx, target, source); err != nil {
			return nil, err
		}
	}
	out := ToCartResponse(target)
	return &out, nil
}

// absorb suma las líneas válidas de source en target, guarda target y elimina source.
func (uc *UseCase) absorb(ctx context.Context, target, source *entity.Cart) error {
	dropped := 0
	for _, it := range source.Items {
		p, err := uc.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return err
		}
		if p == nil || !p.Active {
			dropped++
			continue
		}
		available, err := p.StockFor(it.SizeID)
		if err != nil {
			dropped++
			continue
		}

		idx := target.FindItem(it.ProductID, it.SizeID)
		qty := it.Quantity
		if idx >= 0 {
			qty += target.Items[idx].Quantity
		}
		qty = min(qty, uc.maxPerItem, available)
		if qty <= 0 {
			dropped++
			continue
		}
		if idx >= 0 {
			target.Items[idx].Quantity = qty
			target.Items[idx].UnitPrice = p.Price
		} else {
			target.Items = append(target.Items, entity.CartItem{ProductID: p.ID, SizeID: it.SizeID, Quantity: qty, UnitPrice: p.Price})
		}
	}

	if _, err := uc.save(ctx, target); err != nil {
		return err
	}
	if err := uc.carts.Delete(ctx, source.ID); err != nil {
		return err
	}
	log.Info().Str("user_id", target.UserID).Str("session_id", source.SessionID).
		Int("merged", len(source.Items)-dropped).Int("dropped", dropped).Msg("carrito de sesión fusionado")
	return nil
}

// Checkout crea la orden desde el carrito del usuario y luego lo vacía. Si vaciarlo falla la
// orden ya existe: el error se registra y no se devuelve.
func (uc *UseCase) Checkout(ctx context.Context, userID string, in dto.CheckoutRequest) (*dto.OrderResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	c, err := uc.carts.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if c == nil || len(c.Items) == 0 {
		return nil, domain.NewValidation(domain.CodeValidation, "el carrito está vacío")
	}

	req := dto.CreateOrderRequest{
		Items:           make([]dto.OrderItemRequest, 0, len(c.Items)),
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		ShippingCost:    in.ShippingCost,
		Notes:           in.Notes,
	}
	for _, it := range c.Items {
		req.Items = append(req.Items, dto.OrderItemRequest{ProductID: it.ProductID, SizeID: it.SizeID, Quantity: it.Quantity})
	}
	order, err := uc.orders.CreateOrder(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	c.Items = []entity.CartItem{}
	if _, err := uc.save(ctx, c); err != nil {
		log.Error().Err(err).Str("cart_id", c.ID).Str("order_id", order.ID).Msg("no se pudo vaciar el carrito tras el checkout")
	}
	return order, nil
}

func (uc *UseCase) activeProduct(ctx context.Context, productID string) (*entity.Product, error) {
	p, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NewNotFound("producto no encontrado")
	}
	if !p.Active {
		return nil, domain.NewValidation(domain.CodeProductInactive, "el producto no está disponible")
	}
	return p, nil
}

func (uc *UseCase) checkQuantity(qty, available int) error {
	if qty > uc.maxPerItem {
		return uc.maxError()
	}
	if qty > available {
		return domain.NewInsufficientStock(fmt.Sprintf("stock insuficiente: disponible %d", available))
	}
	return nil
}

func (uc *UseCase) maxError() error {
	return domain.NewValidation(domain.CodeMaxPerItem, fmt.Sprintf("máximo %d unidades por producto", uc.maxPerItem))
}

func (uc *UseCase) save(ctx context.Context, c *entity.Cart) (*dto.CartResponse, error) {
	c.Recalculate()
	c.UpdatedAt = time.Now().UTC()
	if err := uc.carts.Update(ctx, c); err != nil {
		return nil, err
	}
	out := ToCartResponse(c)
	return &out, nil
}

// ToCartResponse mapea entidad a DTO.
func ToCartResponse(c *entity.Cart) dto.CartResponse {
	items := make([]dto.CartItemResponse, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, dto.CartItemResponse{
			ProductID: it.ProductID,
			SizeID:    it.SizeID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			Subtotal:  it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
		})
	}
	return dto.CartResponse{
		ID:        c.ID,
		UserID:    c.UserID,
		SessionID: c.SessionID,
		Items:     items,
		Subtotal:  c.Subtotal,
		Total:     c.Total,
		UpdatedAt: c.UpdatedAt,
	}
}
