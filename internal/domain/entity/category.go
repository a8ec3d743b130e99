package entity

import "time"

// Category categoría del catálogo (camisetas, balones, accesorios...). Jerárquica opcional.
type Category struct {
	ID        string
	ParentID  string // vacío si es raíz
	Name      string
	Code      string // código único
	Status    string // active, inactive
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Clone copia la categoría.
func (c *Category) Clone() *Category {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}
