package memory

import (
	"context"
	"sort"

	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

var (
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.CategoryRepository = (*CategoryRepo)(nil)
	_ repository.UserRepository     = (*UserRepo)(nil)
)

// ProductRepo productos en memoria.
type ProductRepo struct{ acc accessor }

// Create persiste un producto; SKU único.
func (r *ProductRepo) Create(_ context.Context, p *entity.Product) error {
	return r.acc.with(func(d *dataset) error {
		if _, ok := d.products[p.ID]; ok {
			return domain.ErrDuplicate
		}
		for _, existing := range d.products {
			if existing.SKU == p.SKU {
				return domain.ErrDuplicate
			}
		}
		d.products[p.ID] = p.Clone()
		return nil
	})
}

// GetByID obtiene un producto; nil si no existe.
func (r *ProductRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	var out *entity.Product
	err := r.acc.with(func(d *dataset) error {
		out = d.products[id].Clone()
		return nil
	})
	return out, err
}

// GetForUpdate en memoria equivale a GetByID: la tx ya es exclusiva.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

// GetBySKU busca por SKU.
func (r *ProductRepo) GetBySKU(_ context.Context, sku string) (*entity.Product, error) {
	var out *entity.Product
	err := r.acc.with(func(d *dataset) error {
		for _, p := range d.products {
			if p.SKU == sku {
				out = p.Clone()
				return nil
			}
		}
		return nil
	})
	return out, err
}

// Update reemplaza los datos de catálogo conservando el stock actual.
func (r *ProductRepo) Update(_ context.Context, p *entity.Product) error {
	return r.acc.with(func(d *dataset) error {
		cur, ok := d.products[p.ID]
		if !ok {
			return domain.ErrNotFound
		}
		next := p.Clone()
		next.Stock = cur.Stock
		next.SizeStock = cur.Clone().SizeStock
		d.products[p.ID] = next
		return nil
	})
}

// UpdateStock escribe solo la talla indicada (o las existencias).
func (r *ProductRepo) UpdateStock(_ context.Context, productID, sizeID string, qty int) error {
	return r.acc.with(func(d *dataset) error {
		p, ok := d.products[productID]
		if !ok {
			return domain.ErrNotFound
		}
		if sizeID == "" {
			p.Stock = qty
			return nil
		}
		if p.SizeStock == nil {
			p.SizeStock = map[string]int{}
		}
		p.SizeStock[sizeID] = qty
		return nil
	})
}

// List lista productos ordenados por nombre.
func (r *ProductRepo) List(_ context.Context, f repository.ProductFilter) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.acc.with(func(d *dataset) error {
		for _, p := range d.products {
			if f.OnlyActive && !p.Active {
				continue
			}
			if f.CategoryID != "" && p.CategoryID != f.CategoryID {
				continue
			}
			if f.LineID != "" && p.LineID != f.LineID {
				continue
			}
			out = append(out, p.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return paginate(out, f.Limit, f.Offset), err
}

// CategoryRepo categorías en memoria.
type CategoryRepo struct{ acc accessor }

// Create persiste una categoría; código único.
func (r *CategoryRepo) Create(_ context.Context, c *entity.Category) error {
	return r.acc.with(func(d *dataset) error {
		for _, existing := range d.categories {
			if existing.Code == c.Code {
				return domain.ErrDuplicate
			}
		}
		d.categories[c.ID] = c.Clone()
		return nil
	})
}

// GetByID obtiene una categoría; nil si no existe.
func (r *CategoryRepo) GetByID(_ context.Context, id string) (*entity.Category, error) {
	var out *entity.Category
	err := r.acc.with(func(d *dataset) error {
		out = d.categories[id].Clone()
		return nil
	})
	return out, err
}

// GetByCode busca por código.
func (r *CategoryRepo) GetByCode(_ context.Context, code string) (*entity.Category, error) {
	var out *entity.Category
	err := r.acc.with(func(d *dataset) error {
		for _, c := range d.categories {
			if c.Code == code {
				out = c.Clone()
			}
		}
		return nil
	})
	return out, err
}

// List todas las categorías por nombre.
func (r *CategoryRepo) List(_ context.Context) ([]*entity.Category, error) {
	var out []*entity.Category
	err := r.acc.with(func(d *dataset) error {
		for _, c := range d.categories {
			out = append(out, c.Clone())
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, err
}

// UserRepo usuarios en memoria.
type UserRepo struct{ acc accessor }

// Create persiste un usuario; email único.
func (r *UserRepo) Create(_ context.Context, u *entity.User) error {
	return r.acc.with(func(d *dataset) error {
		for _, existing := range d.users {
			if existing.Email == u.Email {
				return domain.ErrEmailAlreadyExists
			}
		}
		d.users[u.ID] = u.Clone()
		return nil
	})
}

// GetByID obtiene un usuario; nil si no existe.
func (r *UserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	var out *entity.User
	err := r.acc.with(func(d *dataset) error {
		out = d.users[id].Clone()
		return nil
	})
	return out, err
}

// GetByEmail busca por email.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	var out *entity.User
	err := r.acc.with(func(d *dataset) error {
		for _, u := range d.users {
			if u.Email == email {
				out = u.Clone()
			}
		}
		return nil
	})
	return out, err
}
