package entity

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/tienda-club/internal/domain"
)

// Product representa un producto del catálogo de la tienda del club.
// El stock vive en Stock (existencias globales) o en SizeStock (por talla), nunca en ambos:
// si SizeStock tiene entradas, el producto es de tallas y Stock no se toca.
type Product struct {
	ID             string
	SKU            string
	Name           string
	Description    string
	CategoryID     string
	LineID         string
	SupplierID     string
	Price          decimal.Decimal // precio público
	Cost           decimal.Decimal
	Active         bool
	Stock          int            // existencias (solo productos sin talla)
	SizeStock      map[string]int // tallaID -> cantidad
	MinStock       int
	MinStockBySize map[string]int
	ImageURL       string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasSizes indica si el producto maneja inventario por talla.
func (p *Product) HasSizes() bool {
	return len(p.SizeStock) > 0
}

// ValidateSize aplica la regla de talla: obligatoria y registrada si el producto es de tallas,
// ausente si no lo es.
func (p *Product) ValidateSize(sizeID string) error {
	if p.HasSizes() {
		if sizeID == "" {
			return domain.NewValidation(domain.CodeSizeRequired, "talla requerida para este producto")
		}
		if _, ok := p.SizeStock[sizeID]; !ok {
			return domain.NewValidation(domain.CodeSizeInvalid, "talla no válida para este producto")
		}
		return nil
	}
	if sizeID != "" {
		return domain.NewValidation(domain.CodeSizeNotAllowed, "el producto no maneja tallas")
	}
	return nil
}

// StockFor devuelve el stock disponible para la talla indicada (o el global).
func (p *Product) StockFor(sizeID string) (int, error) {
	if err := p.ValidateSize(sizeID); err != nil {
		return 0, err
	}
	if p.HasSizes() {
		return p.SizeStock[sizeID], nil
	}
	return p.Stock, nil
}

// SetStockFor actualiza solo la entrada correspondiente; el resto de tallas queda igual.
func (p *Product) SetStockFor(sizeID string, qty int) {
	if p.HasSizes() {
		p.SizeStock[sizeID] = qty
		return
	}
	p.Stock = qty
}

// Clone copia profunda (los mapas no se comparten).
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	c := *p
	c.SizeStock = cloneIntMap(p.SizeStock)
	c.MinStockBySize = cloneIntMap(p.MinStockBySize)
	return &c
}

func cloneIntMap(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
