package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/application/ports"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
	"github.com/jhoicas/tienda-club/pkg/metrics"
)

// ReceiptGenerator genera el comprobante PDF de una orden (implementado con Maroto).
type ReceiptGenerator interface {
	GenerateOrderReceipt(ctx context.Context, order *entity.Order) ([]byte, error)
}

// UseCase casos de uso de órdenes: creación con precios del servidor, consulta y cambios de estado.
type UseCase struct {
	orders    repository.OrderRepository
	products  repository.ProductRepository
	publisher ports.EventPublisher
	receipts  ReceiptGenerator
	taxRate   decimal.Decimal
}

// NewUseCase construye el caso de uso. taxRate se aplica sobre el subtotal (0 = sin impuesto).
func NewUseCase(
	orders repository.OrderRepository,
	products repository.ProductRepository,
	publisher ports.EventPublisher,
	receipts ReceiptGenerator,
	taxRate decimal.Decimal,
) *UseCase {
	return &UseCase{
		orders:    orders,
		products:  products,
		publisher: publisher,
		receipts:  receipts,
		taxRate:   taxRate,
	}
}

type lineKey struct{ productID, sizeID string }

// CreateOrder crea la orden en PENDIENTE. Cada producto se lee de nuevo: debe existir, estar
// activo y tener stock; el precio unitario enviado por el cliente se descarta.
func (uc *UseCase) CreateOrder(ctx context.Context, userID string, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	if userID == "" {
		return nil, domain.ErrUnauthorized
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}

	requested := make(map[lineKey]int, len(in.Items))
	items := make([]entity.OrderItem, 0, len(in.Items))
	subtotal := decimal.Zero
	for _, it := range in.Items {
		p, err := uc.products.GetByID(ctx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, domain.NewNotFound("producto no encontrado: " + it.ProductID)
		}
		if !p.Active {
			return nil, domain.NewValidation(domain.CodeProductInactive, "el producto "+p.Name+" no está disponible")
		}
		available, err := p.StockFor(it.SizeID)
		if err != nil {
			return nil, err
		}
		key := lineKey{it.ProductID, it.SizeID}
		requested[key] += it.Quantity
		if requested[key] > available {
			return nil, domain.NewInsufficientStock(fmt.Sprintf("stock insuficiente para %s: disponible %d", p.Name, available))
		}

		lineTotal := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity))).Round(2)
		items = append(items, entity.OrderItem{
			ProductID:   p.ID,
			ProductName: p.Name,
			SizeID:      it.SizeID,
			Quantity:    it.Quantity,
			UnitPrice:   p.Price,
			Subtotal:    lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}

	shipping := decimal.Zero
	if in.ShippingCost != nil {
		shipping = in.ShippingCost.Round(2)
	}
	tax := subtotal.Mul(uc.taxRate).Round(2)
	now := time.Now().UTC()
	o := &entity.Order{
		ID:              uuid.New().String(),
		UserID:          userID,
		Items:           items,
		Subtotal:        subtotal,
		Tax:             tax,
		ShippingCost:    shipping,
		Total:           subtotal.Add(tax).Add(shipping),
		Status:          entity.OrderStatusPendiente,
		ShippingAddress: toAddress(in.ShippingAddress),
		PaymentMethod:   in.PaymentMethod,
		Notes:           strings.TrimSpace(in.Notes),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := uc.orders.Create(ctx, o); err != nil {
		return nil, err
	}

	metrics.OrdersCreatedTotal.Inc()
	log.Info().Str("order_id", o.ID).Str("user_id", userID).Str("total", o.Total.String()).Msg("orden creada")
	ports.PublishBestEffort(ctx, uc.publisher, ports.DomainEvent{
		Type:        ports.EventOrderCreated,
		AggregateID: o.ID,
		Data:        map[string]string{"user_id": userID, "total": o.Total.String()},
	})
	out := ToOrderResponse(o)
	return &out, nil
}

// GetOrder devuelve la orden si el usuario es su dueño o personal de la tienda.
func (uc *UseCase) GetOrder(ctx context.Context, orderID, userID, role string) (*dto.OrderResponse, error) {
	o, err := uc.load(ctx, orderID, userID, role)
	if err != nil {
		return nil, err
	}
	out := ToOrderResponse(o)
	return &out, nil
}

// ListMine órdenes del usuario, más recientes primero.
func (uc *UseCase) ListMine(ctx context.Context, userID string, page dto.PageRequest) (*dto.OrderListResponse, error) {
	return uc.list(ctx, repository.OrderFilter{UserID: userID}, page)
}

// ListAll listado administrativo, opcionalmente filtrado por estado.
func (uc *UseCase) ListAll(ctx context.Context, status string, page dto.PageRequest) (*dto.OrderListResponse, error) {
	if status != "" && !entity.IsValidOrderStatus(status) {
		return nil, domain.NewValidation(domain.CodeValidation, "estado de orden no válido")
	}
	return uc.list(ctx, repository.OrderFilter{Status: status}, page)
}

func (uc *UseCase) list(ctx context.Context, f repository.OrderFilter, page dto.PageRequest) (*dto.OrderListResponse, error) {
	page.DefaultPage()
	f.Limit, f.Offset = page.Limit, page.Offset
	list, err := uc.orders.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &dto.OrderListResponse{
		Items: make([]dto.OrderResponse, 0, len(list)),
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}
	for _, o := range list {
		out.Items = append(out.Items, ToOrderResponse(o))
	}
	return out, nil
}

// UpdateStatus cambio de estado explícito: dueño o personal, y solo por transiciones del grafo.
func (uc *UseCase) UpdateStatus(ctx context.Context, orderID, userID, role, status string) (*dto.OrderResponse, error) {
	if !entity.IsValidOrderStatus(status) {
		return nil, domain.NewValidation(domain.CodeValidation, "estado de orden no válido")
	}
	o, err := uc.load(ctx, orderID, userID, role)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(o.Status, status) {
		return nil, domain.NewConflict(domain.CodeInvalidTransition,
			fmt.Sprintf("no se puede pasar de %s a %s", o.Status, status))
	}

	now := time.Now().UTC()
	if err := uc.orders.UpdateStatus(ctx, o.ID, status, now); err != nil {
		return nil, err
	}
	previous := o.Status
	o.Status, o.UpdatedAt = status, now

	metrics.OrderStatusChangesTotal.WithLabelValues(status, "manual").Inc()
	log.Info().Str("order_id", o.ID).Str("from", previous).Str("to", status).Str("by", userID).Msg("estado de orden actualizado")
	ports.PublishBestEffort(ctx, uc.publisher, ports.DomainEvent{
		Type:        ports.EventOrderStatusChanged,
		AggregateID: o.ID,
		Data:        map[string]string{"from": previous, "to": status, "source": "manual"},
	})
	out := ToOrderResponse(o)
	return &out, nil
}

// Receipt genera el comprobante PDF de la orden. Devuelve bytes y nombre de archivo.
func (uc *UseCase) Receipt(ctx context.Context, orderID, userID, role string) ([]byte, string, error) {
	o, err := uc.load(ctx, orderID, userID, role)
	if err != nil {
		return nil, "", err
	}
	if uc.receipts == nil {
		return nil, "", fmt.Errorf("order: generador de comprobantes no configurado")
	}
	pdf, err := uc.receipts.GenerateOrderReceipt(ctx, o)
	if err != nil {
		return nil, "", fmt.Errorf("order: generar comprobante: %w", err)
	}
	return pdf, "orden_" + shortID(o.ID) + ".pdf", nil
}

func (uc *UseCase) load(ctx context.Context, orderID, userID, role string) (*entity.Order, error) {
	o, err := uc.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, domain.NewNotFound("orden no encontrada")
	}
	if o.UserID != userID && !entity.IsStaffRole(role) {
		log.Warn().Str("order_id", orderID).Str("user_id", userID).Msg("acceso denegado a orden ajena")
		return nil, domain.NewForbidden("no tiene permiso sobre esta orden")
	}
	return o, nil
}

func validateCreate(in dto.CreateOrderRequest) error {
	if len(in.Items) == 0 {
		return domain.NewValidation(domain.CodeValidation, "la orden debe tener al menos un producto")
	}
	for _, it := range in.Items {
		if it.ProductID == "" {
			return domain.NewValidation(domain.CodeValidation, "product_id es requerido en cada línea")
		}
		if it.Quantity <= 0 {
			return domain.NewValidation(domain.CodeValidation, "la cantidad debe ser mayor a 0")
		}
	}
	if !entity.IsValidPaymentMethod(in.PaymentMethod) {
		return domain.NewValidation(domain.CodeValidation, "método de pago no válido")
	}
	a := in.ShippingAddress
	if strings.TrimSpace(a.Name) == "" || strings.TrimSpace(a.Street) == "" || strings.TrimSpace(a.City) == "" {
		return domain.NewValidation(domain.CodeValidation, "dirección de envío incompleta")
	}
	if in.ShippingCost != nil && in.ShippingCost.IsNegative() {
		return domain.NewValidation(domain.CodeValidation, "el costo de envío no puede ser negativo")
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
