package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/tienda-club/internal/application/dto"
	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

// ProductUseCase casos de uso del catálogo. El stock solo cambia vía movimientos de inventario.
type ProductUseCase struct {
	repo       repository.ProductRepository
	categories repository.CategoryRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository, categories repository.CategoryRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo, categories: categories}
}

// Create crea un producto. Con Sizes el stock inicial va por talla y Stock se ignora.
func (uc *ProductUseCase) Create(ctx context.Context, in dto.CreateProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if in.SKU == "" || in.Name == "" {
		return nil, domain.NewValidation(domain.CodeValidation, "sku y name son requeridos")
	}
	if !in.Price.IsPositive() || in.Cost.IsNegative() {
		return nil, domain.NewValidation(domain.CodeValidation, "el precio debe ser mayor a 0 y el costo no negativo")
	}
	if in.Stock < 0 || in.MinStock < 0 {
		return nil, domain.NewValidation(domain.CodeValidation, "stock y stock mínimo no pueden ser negativos")
	}
	for size, qty := range in.Sizes {
		if strings.TrimSpace(size) == "" || qty < 0 {
			return nil, domain.NewValidation(domain.CodeValidation, "tallas inválidas")
		}
	}
	existing, err := uc.repo.GetBySKU(ctx, in.SKU)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if err := uc.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	now := time.Now().UTC()
	product := &entity.Product{
		ID:             uuid.New().String(),
		SKU:            in.SKU,
		Name:           in.Name,
		Description:    in.Description,
		CategoryID:     in.CategoryID,
		LineID:         in.LineID,
		SupplierID:     in.SupplierID,
		Price:          in.Price,
		Cost:           in.Cost,
		Active:         active,
		MinStock:       in.MinStock,
		MinStockBySize: in.MinStockBySize,
		ImageURL:       in.ImageURL,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if len(in.Sizes) > 0 {
		product.SizeStock = in.Sizes
	} else {
		product.Stock = in.Stock
	}
	if err := uc.repo.Create(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// GetByID obtiene un producto. Los inactivos solo son visibles para el personal.
func (uc *ProductUseCase) GetByID(ctx context.Context, id string, includeInactive bool) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || (!product.Active && !includeInactive) {
		return nil, domain.NewNotFound("producto no encontrado")
	}
	return toProductResponse(product), nil
}

// Update actualiza datos de catálogo. No permite modificar el stock.
func (uc *ProductUseCase) Update(ctx context.Context, id string, in dto.UpdateProductRequest) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, domain.NewNotFound("producto no encontrado")
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, domain.NewValidation(domain.CodeValidation, "name no puede estar vacío")
		}
		product.Name = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.CategoryID != nil {
		if err := uc.checkCategory(ctx, *in.CategoryID); err != nil {
			return nil, err
		}
		product.CategoryID = *in.CategoryID
	}
	if in.Price != nil {
		if !in.Price.IsPositive() {
			return nil, domain.NewValidation(domain.CodeValidation, "el precio debe ser mayor a 0")
		}
		product.Price = *in.Price
	}
	if in.Cost != nil {
		if in.Cost.IsNegative() {
			return nil, domain.NewValidation(domain.CodeValidation, "el costo no puede ser negativo")
		}
		product.Cost = *in.Cost
	}
	if in.Active != nil {
		product.Active = *in.Active
	}
	if in.MinStock != nil {
		product.MinStock = *in.MinStock
	}
	if in.MinStockBySize != nil {
		product.MinStockBySize = in.MinStockBySize
	}
	if in.ImageURL != nil {
		product.ImageURL = *in.ImageURL
	}
	product.UpdatedAt = time.Now().UTC()
	if err := uc.repo.Update(ctx, product); err != nil {
		return nil, err
	}
	return toProductResponse(product), nil
}

// List lista productos con paginación. El público solo ve activos.
func (uc *ProductUseCase) List(ctx context.Context, categoryID string, includeInactive bool, page dto.PageRequest) (*dto.ProductListResponse, error) {
	page.DefaultPage()
	list, err := uc.repo.List(ctx, repository.ProductFilter{
		OnlyActive: !includeInactive,
		CategoryID: categoryID,
		Limit:      page.Limit,
		Offset:     page.Offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(list))
	for _, p := range list {
		items = append(items, *toProductResponse(p))
	}
	return &dto.ProductListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	}, nil
}

// CreateCategory crea una categoría con código único.
func (uc *ProductUseCase) CreateCategory(ctx context.Context, in dto.CreateCategoryRequest) (*dto.CategoryResponse, error) {
	if strings.TrimSpace(in.Name) == "" || strings.TrimSpace(in.Code) == "" {
		return nil, domain.NewValidation(domain.CodeValidation, "name y code son requeridos")
	}
	existing, err := uc.categories.GetByCode(ctx, in.Code)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicate
	}
	if err := uc.checkCategory(ctx, in.ParentID); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	c := &entity.Category{
		ID:        uuid.New().String(),
		ParentID:  in.ParentID,
		Name:      strings.TrimSpace(in.Name),
		Code:      strings.TrimSpace(in.Code),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.categories.Create(ctx, c); err != nil {
		return nil, err
	}
	return toCategoryResponse(c), nil
}

// ListCategories lista todas las categorías.
func (uc *ProductUseCase) ListCategories(ctx context.Context) ([]dto.CategoryResponse, error) {
	list, err := uc.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.CategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, *toCategoryResponse(c))
	}
	return out, nil
}

func (uc *ProductUseCase) checkCategory(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	c, err := uc.categories.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return domain.NewNotFound("categoría no encontrada")
	}
	return nil
}

func toProductResponse(p *entity.Product) *dto.ProductResponse {
	if p == nil {
		return nil
	}
	stock := p.Stock
	if p.HasSizes() {
		stock = 0
		for _, q := range p.SizeStock {
			stock += q
		}
	}
	return &dto.ProductResponse{
		ID:             p.ID,
		SKU:            p.SKU,
		Name:           p.Name,
		Description:    p.Description,
		CategoryID:     p.CategoryID,
		LineID:         p.LineID,
		SupplierID:     p.SupplierID,
		Price:          p.Price,
		Active:         p.Active,
		Stock:          stock,
		Sizes:          p.SizeStock,
		MinStock:       p.MinStock,
		MinStockBySize: p.MinStockBySize,
		ImageURL:       p.ImageURL,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func toCategoryResponse(c *entity.Category) *dto.CategoryResponse {
	return &dto.CategoryResponse{
		ID:       c.ID,
		ParentID: c.ParentID,
		Name:     c.Name,
		Code:     c.Code,
		Status:   c.Status,
	}
}
