package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/tienda-club/internal/domain"
	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

var _ repository.CartRepository = (*CartRepo)(nil)

const cartColumns = `id, COALESCE(user_id, ''), COALESCE(session_id, ''), items, subtotal, total, created_at, updated_at`

// CartRepo implementación sobre PostgreSQL. user_id y session_id tienen índice único parcial.
type CartRepo struct {
	q Querier
}

// NewCartRepository construye el adaptador.
func NewCartRepository(q Querier) *CartRepo {
	return &CartRepo{q: q}
}

// Create persiste el carrito; un segundo carrito para el mismo dueño devuelve ErrDuplicate.
func (r *CartRepo) Create(ctx context.Context, c *entity.Cart) error {
	_, err := r.q.Exec(ctx, `
		INSERT INTO carts (id, user_id, session_id, items, subtotal, total, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, $5, $6, $7, $8)`,
		c.ID, c.UserID, c.SessionID, itemsOrEmpty(c.Items), c.Subtotal, c.Total, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

// GetByID obtiene un carrito.
func (r *CartRepo) GetByID(ctx context.Context, id string) (*entity.Cart, error) {
	return r.getOne(ctx, `SELECT `+cartColumns+` FROM carts WHERE id = $1`, id)
}

// GetByUserID carrito del usuario.
func (r *CartRepo) GetByUserID(ctx context.Context, userID string) (*entity.Cart, error) {
	return r.getOne(ctx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID)
}

// GetBySessionID carrito de la sesión anónima.
func (r *CartRepo) GetBySessionID(ctx context.Context, sessionID string) (*entity.Cart, error) {
	return r.getOne(ctx, `SELECT `+cartColumns+` FROM carts WHERE session_id = $1`, sessionID)
}

// Update reemplaza items y totales.
func (r *CartRepo) Update(ctx context.Context, c *entity.Cart) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE carts SET items = $2, subtotal = $3, total = $4, updated_at = $5 WHERE id = $1`,
		c.ID, itemsOrEmpty(c.Items), c.Subtotal, c.Total, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Delete elimina el carrito.
func (r *CartRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM carts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

func (r *CartRepo) getOne(ctx context.Context, query, arg string) (*entity.Cart, error) {
	var c entity.Cart
	err := r.q.QueryRow(ctx, query, arg).Scan(&c.ID, &c.UserID, &c.SessionID, &c.Items, &c.Subtotal, &c.Total, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}
	return &c, nil
}

func itemsOrEmpty(items []entity.CartItem) []entity.CartItem {
	if items == nil {
		return []entity.CartItem{}
	}
	return items
}
