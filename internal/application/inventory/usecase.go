package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/jhoicas/tienda-club/internal/application/ports"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
	"github.com/jhoicas/tienda-club/pkg/metrics"
)

var tracer = otel.Tracer("github.com/jhoicas/tienda-club/internal/application/inventory")

// Longitud permitida para idempotency keys de ajustes.
const (
	MinIdempotencyKeyLen = 8
	MaxIdempotencyKeyLen = 255
)

// RegisterMovementUseCase aplica movimientos de inventario (entrada, salida, venta, devolución, ajuste)
// de forma transaccional, con bloqueo del producto (SELECT FOR UPDATE) y Commit/Rollback.
type RegisterMovementUseCase struct {
	txRunner  repository.TxRunner
	products  repository.ProductRepository
	movements repository.InventoryMovementRepository
	publisher ports.EventPublisher
}

// NewRegisterMovementUseCase construye el caso de uso.
func NewRegisterMovementUseCase(
	txRunner repository.TxRunner,
	products repository.ProductRepository,
	movements repository.InventoryMovementRepository,
	publisher ports.EventPublisher,
) *RegisterMovementUseCase {
	return &RegisterMovementUseCase{
		txRunner:  txRunner,
		products:  products,
		movements: movements,
		publisher: publisher,
	}
}

// MovementInputDTO entrada para aplicar un movimiento.
// Quantity para entrada/salida/venta/devolucion; NewQuantity (absoluta) para ajuste.
type MovementInputDTO struct {
	ProductID      string
	Type           string
	Quantity       *int
	NewQuantity    *int
	SizeID         string
	Reason         string
	Reference      string
	OrderID        string
	UserID         string
	IdempotencyKey string
}

// MovementResult movimiento aplicado; Reused=true si la key ya había sido usada.
type MovementResult struct {
	Movement *entity.InventoryMovement
	Reused   bool
}

// RegisterAdjustment ajuste a cantidad absoluta con idempotency key obligatoria.
func (uc *RegisterMovementUseCase) RegisterAdjustment(ctx context.Context, in MovementInputDTO) (*MovementResult, error) {
	if in.IdempotencyKey == "" {
		return nil, domain.NewValidation(domain.CodeValidation, "idempotency key requerida para ajustes")
	}
	in.Type = entity.MovementTypeAjuste
	return uc.ApplyMovement(ctx, in)
}

// ApplyMovement valida el movimiento, bloquea el producto, calcula la cantidad nueva,
// escribe solo la talla afectada y registra el movimiento inmutable, todo en una transacción.
func (uc *RegisterMovementUseCase) ApplyMovement(ctx context.Context, in MovementInputDTO) (_ *MovementResult, err error) {
	ctx, span := tracer.Start(ctx, "inventory.ApplyMovement")
	span.SetAttributes(
		attribute.String("product.id", in.ProductID),
		attribute.String("movement.type", in.Type),
	)
	defer func() {
		result := "ok"
		if err != nil {
			result = domain.CodeOf(err, "error")
			span.RecordError(err)
			span.SetStatus(codes.Error, result)
		}
		metrics.InventoryMovementsTotal.WithLabelValues(in.Type, result).Inc()
		span.End()
	}()

	if err := validateMovement(&in); err != nil {
		return nil, err
	}

	var result *MovementResult
	err = uc.txRunner.Run(ctx, func(tx repository.TxRepos) error {
		r, err := uc.apply(ctx, tx, in)
		result = r
		return err
	})
	if err != nil {
		// Dos ajustes concurrentes con la misma key: el perdedor choca con el índice único.
		if errors.Is(err, domain.ErrDuplicate) && in.IdempotencyKey != "" {
			prev, lookupErr := uc.movements.GetByIdempotencyKey(ctx, in.ProductID, in.IdempotencyKey)
			if lookupErr == nil && prev != nil {
				return &MovementResult{Movement: prev, Reused: true}, nil
			}
		}
		return nil, err
	}

	if !result.Reused {
		mov := result.Movement
		log.Info().
			Str("movement_id", mov.ID).
			Str("product_id", mov.ProductID).
			Str("size_id", mov.SizeID).
			Str("type", mov.Type).
			Int("previous", mov.PreviousQty).
			Int("new", mov.NewQty).
			Msg("movimiento de inventario registrado")
		ports.PublishBestEffort(ctx, uc.publisher, ports.DomainEvent{
			Type:        ports.EventStockMoved,
			AggregateID: mov.ProductID,
			Data: map[string]string{
				"movement_id": mov.ID,
				"type":        mov.Type,
				"size_id":     mov.SizeID,
				"previous":    strconv.Itoa(mov.PreviousQty),
				"new":         strconv.Itoa(mov.NewQty),
			},
		})
	}
	span.SetAttributes(attribute.Bool("movement.reused", result.Reused))
	return result, nil
}

func (uc *RegisterMovementUseCase) apply(ctx context.Context, tx repository.TxRepos, in MovementInputDTO) (*MovementResult, error) {
	if in.IdempotencyKey != "" {
		prev, err := tx.Movements.GetByIdempotencyKey(ctx, in.ProductID, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if prev != nil {
			return &MovementResult{Movement: prev, Reused: true}, nil
		}
	}

	if entity.RequiresOrder(in.Type) {
		order, err := tx.Orders.GetByID(ctx, in.OrderID)
		if err != nil {
			return nil, err
		}
		if order == nil {
			return nil, domain.NewNotFound("la orden referenciada no existe")
		}
	}

	product, err := tx.Products.GetForUpdate(ctx, in.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewNotFound("producto no encontrado")
	}

	previous, err := product.StockFor(in.SizeID)
	if err != nil {
		return nil, err
	}

	var next int
	switch in.Type {
	case entity.MovementTypeAjuste:
		next = *in.NewQuantity
	case entity.MovementTypeEntrada, entity.MovementTypeDevolucion:
		next = previous + *in.Quantity
	case entity.MovementTypeSalida, entity.MovementTypeVenta:
		next = previous - *in.Quantity
	}
	if next < 0 {
		return nil, domain.NewInsufficientStock("stock insuficiente: disponible " + strconv.Itoa(previous))
	}

	if err := tx.Products.UpdateStock(ctx, product.ID, in.SizeID, next); err != nil {
		return nil, err
	}

	mov := &entity.InventoryMovement{
		ID:             uuid.New().String(),
		Type:           in.Type,
		ProductID:      product.ID,
		SizeID:         in.SizeID,
		PreviousQty:    previous,
		NewQty:         next,
		Difference:     next - previous,
		Reason:         in.Reason,
		Reference:      in.Reference,
		OrderID:        in.OrderID,
		UserID:         in.UserID,
		IdempotencyKey: in.IdempotencyKey,
		CreatedAt:      time.Now().UTC(),
	}
	if err := tx.Movements.Create(ctx, mov); err != nil {
		return nil, err
	}
	return &MovementResult{Movement: mov}, nil
}

func validateMovement(in *MovementInputDTO) error {
	if in.ProductID == "" {
		return domain.NewValidation(domain.CodeValidation, "product_id es requerido")
	}
	if !entity.IsValidMovementType(in.Type) {
		return domain.NewValidation(domain.CodeValidation, "tipo de movimiento no válido")
	}
	if in.Type == entity.MovementTypeAjuste {
		if in.NewQuantity == nil {
			return domain.NewValidation(domain.CodeValidation, "el ajuste requiere la cantidad nueva absoluta")
		}
		if *in.NewQuantity < 0 {
			return domain.NewValidation(domain.CodeValidation, "la cantidad nueva no puede ser negativa")
		}
		if in.IdempotencyKey != "" && (len(in.IdempotencyKey) < MinIdempotencyKeyLen || len(in.IdempotencyKey) > MaxIdempotencyKeyLen) {
			return domain.NewValidation(domain.CodeValidation, "idempotency key debe tener entre 8 y 255 caracteres")
		}
	} else {
		if in.Quantity == nil || *in.Quantity <= 0 {
			return domain.NewValidation(domain.CodeValidation, "la cantidad debe ser un entero mayor a 0")
		}
		// la idempotencia aplica solo a ajustes
		in.IdempotencyKey = ""
	}
	if entity.RequiresOrder(in.Type) && in.OrderID == "" {
		return domain.NewValidation(domain.CodeValidation, "order_id es requerido para ventas y devoluciones")
	}
	return nil
}
