package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

const alertsPageSize = 200

// QueryUseCase consultas de inventario: stock actual, historial y alertas de stock mínimo.
type QueryUseCase struct {
	products  repository.ProductRepository
	movements repository.InventoryMovementRepository
}

// NewQueryUseCase construye el caso de uso de consultas.
func NewQueryUseCase(products repository.ProductRepository, movements repository.InventoryMovementRepository) *QueryUseCase {
	return &QueryUseCase{products: products, movements: movements}
}

// GetStock stock actual del producto.
func (uc *QueryUseCase) GetStock(ctx context.Context, productID string) (*dto.StockResponse, error) {
	p, err := uc.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, domain.NewNotFound("producto no encontrado")
	}
	out := &dto.StockResponse{ProductID: p.ID, HasSizes: p.HasSizes()}
	if p.HasSizes() {
		out.Sizes = p.SizeStock
		for _, q := range p.SizeStock {
			out.Stock += q
		}
	} else {
		out.Stock = p.Stock
	}
	return out, nil
}

// ListMovements historial del producto, más reciente primero.
func (uc *QueryUseCase) ListMovements(ctx context.Context, productID string, page dto.PageRequest) ([]dto.MovementResponse, error) {
	page.DefaultPage()
	list, err := uc.movements.ListByProduct(ctx, productID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]dto.MovementResponse, 0, len(list))
	for _, m := range list {
		out = append(out, ToMovementResponse(m, false))
	}
	return out, nil
}

// LowStockAlerts productos activos (o tallas) por debajo de su stock mínimo, los más faltantes primero.
func (uc *QueryUseCase) LowStockAlerts(ctx context.Context) ([]dto.StockAlertDTO, error) {
	alerts := []dto.StockAlertDTO{}
	for offset := 0; ; offset += alertsPageSize {
		list, err := uc.products.List(ctx, repository.ProductFilter{OnlyActive: true, Limit: alertsPageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		for _, p := range list {
			alerts = append(alerts, alertsFor(p)...)
		}
		if len(list) < alertsPageSize {
			break
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Missing > alerts[j].Missing })
	return alerts, nil
}

func alertsFor(p *entity.Product) []dto.StockAlertDTO {
	var out []dto.StockAlertDTO
	add := func(sizeID string, current, minimum int) {
		if minimum > 0 && current < minimum {
			out = append(out, dto.StockAlertDTO{
				ProductID:   p.ID,
				SKU:         p.SKU,
				ProductName: p.Name,
				SizeID:      sizeID,
				Current:     current,
				Minimum:     minimum,
				Missing:     minimum - current,
			})
		}
	}
	if !p.HasSizes() {
		add("", p.Stock, p.MinStock)
		return out
	}
	sizes := make([]string, 0, len(p.SizeStock))
	for s := range p.SizeStock {
		sizes = append(sizes, s)
	}
	sort.Strings(sizes)
	for _, s := range sizes {
		minimum, ok := p.MinStockBySize[s]
		if !ok {
			minimum = p.MinStock
		}
		add(s, p.SizeStock[s], minimum)
	}
	return out
}

// ToMovementResponse mapea entidad a DTO.
func ToMovementResponse(m *entity.InventoryMovement, reused bool) dto.MovementResponse {
	return dto.MovementResponse{
		ID:             m.ID,
		Type:           m.Type,
		ProductID:      m.ProductID,
		SizeID:         m.SizeID,
		PreviousQty:    m.PreviousQty,
		NewQty:         m.NewQty,
		Difference:     m.Difference,
		Reason:         m.Reason,
		Reference:      m.Reference,
		OrderID:        m.OrderID,
		UserID:         m.UserID,
		IdempotencyKey: m.IdempotencyKey,
		CreatedAt:      m.CreatedAt,
		Reused:         reused,
	}
}
