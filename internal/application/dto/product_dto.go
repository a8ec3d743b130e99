package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateProductRequest entrada para crear un producto.
// Sizes con entradas convierte el producto en uno de tallas (Stock se ignora).
type CreateProductRequest struct {
	SKU            string          `json:"sku" validate:"required,min=1,max=100"`
	Name           string          `json:"name" validate:"required,min=1,max=200"`
	Description    string          `json:"description"`
	CategoryID     string          `json:"category_id"`
	LineID         string          `json:"line_id"`
	SupplierID     string          `json:"supplier_id"`
	Price          decimal.Decimal `json:"price"`
	Cost           decimal.Decimal `json:"cost"`
	Active         *bool           `json:"active"`
	Stock          int             `json:"stock"`
	Sizes          map[string]int  `json:"sizes"`
	MinStock       int             `json:"min_stock"`
	MinStockBySize map[string]int  `json:"min_stock_by_size"`
	ImageURL       string          `json:"image_url"`
}

// UpdateProductRequest entrada para actualizar un producto (sin stock: se maneja vía movimientos).
type UpdateProductRequest struct {
	Name           *string          `json:"name" validate:"omitempty,min=1,max=200"`
	Description    *string          `json:"description"`
	CategoryID     *string          `json:"category_id"`
	Price          *decimal.Decimal `json:"price"`
	Cost           *decimal.Decimal `json:"cost"`
	Active         *bool            `json:"active"`
	MinStock       *int             `json:"min_stock"`
	MinStockBySize map[string]int   `json:"min_stock_by_size"`
	ImageURL       *string          `json:"image_url"`
}

// ProductResponse salida de un producto.
type ProductResponse struct {
	ID             string          `json:"id"`
	SKU            string          `json:"sku"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	CategoryID     string          `json:"category_id,omitempty"`
	LineID         string          `json:"line_id,omitempty"`
	SupplierID     string          `json:"supplier_id,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Active         bool            `json:"active"`
	Stock          int             `json:"stock"`
	Sizes          map[string]int  `json:"sizes,omitempty"`
	MinStock       int             `json:"min_stock"`
	MinStockBySize map[string]int  `json:"min_stock_by_size,omitempty"`
	ImageURL       string          `json:"image_url,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// ProductListResponse lista paginada de productos.
type ProductListResponse struct {
	Items []ProductResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CreateCategoryRequest entrada para crear una categoría.
type CreateCategoryRequest struct {
	Name     string `json:"name" validate:"required"`
	Code     string `json:"code" validate:"required"`
	ParentID string `json:"parent_id"`
}

// CategoryResponse salida de una categoría.
type CategoryResponse struct {
	ID       string `json:"id"`
	ParentID string `json:"parent_id,omitempty"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Status   string `json:"status"`
}
