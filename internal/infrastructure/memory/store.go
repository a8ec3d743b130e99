// Package memory implementa los puertos de persistencia en memoria.
// Se usa en tests y con STORE_DRIVER=memory para desarrollo local.
package memory

import (
	"context"
	"sync"

	"github.com/jhoicas/tienda-club/internal/domain/entity"
	"github.com/jhoicas/tienda-club/internal/domain/repository"
)

var _ repository.TxRunner = (*Store)(nil)

// dataset estado completo del almacén. Los repos guardan y devuelven copias.
type dataset struct {
	products   map[string]*entity.Product
	categories map[string]*entity.Category
	movements  []*entity.InventoryMovement // orden de inserción
	orders     map[string]*entity.Order
	payments   map[string]*entity.Payment
	carts      map[string]*entity.Cart
	events     map[string]*entity.WebhookEvent
	users      map[string]*entity.User
}

func newDataset() *dataset {
	return &dataset{
		products:   map[string]*entity.Product{},
		categories: map[string]*entity.Category{},
		orders:     map[string]*entity.Order{},
		payments:   map[string]*entity.Payment{},
		carts:      map[string]*entity.Cart{},
		events:     map[string]*entity.WebhookEvent{},
		users:      map[string]*entity.User{},
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.products {
		c.products[k] = v.Clone()
	}
	for k, v := range d.categories {
		c.categories[k] = v.Clone()
	}
	c.movements = make([]*entity.InventoryMovement, 0, len(d.movements))
	for _, m := range d.movements {
		c.movements = append(c.movements, m.Clone())
	}
	for k, v := range d.orders {
		c.orders[k] = v.Clone()
	}
	for k, v := range d.payments {
		c.payments[k] = v.Clone()
	}
	for k, v := range d.carts {
		c.carts[k] = v.Clone()
	}
	for k, v := range d.events {
		c.events[k] = v.Clone()
	}
	for k, v := range d.users {
		c.users[k] = v.Clone()
	}
	return c
}

// accessor da acceso exclusivo al dataset durante fn.
type accessor interface {
	with(fn func(d *dataset) error) error
}

// storeAccessor toma el mutex del Store por operación.
type storeAccessor struct{ s *Store }

func (a storeAccessor) with(fn func(d *dataset) error) error {
	a.s.mu.Lock()
	defer a.s.mu.Unlock()
	return fn(a.s.data)
}

// txAccessor trabaja sobre la copia de una transacción; el Store ya está bloqueado por Run.
type txAccessor struct{ d *dataset }

func (a txAccessor) with(fn func(d *dataset) error) error { return fn(a.d) }

// Store almacén en memoria seguro para uso concurrente.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

func (s *Store) acc() accessor { return storeAccessor{s: s} }

// Products repositorio de productos fuera de transacción.
func (s *Store) Products() *ProductRepo { return &ProductRepo{acc: s.acc()} }

// Categories repositorio de categorías.
func (s *Store) Categories() *CategoryRepo { return &CategoryRepo{acc: s.acc()} }

// Movements repositorio de movimientos.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{acc: s.acc()} }

// Orders repositorio de órdenes.
func (s *Store) Orders() *OrderRepo { return &OrderRepo{acc: s.acc()} }

// Payments repositorio de pagos.
func (s *Store) Payments() *PaymentRepo { return &PaymentRepo{acc: s.acc()} }

// Carts repositorio de carritos.
func (s *Store) Carts() *CartRepo { return &CartRepo{acc: s.acc()} }

// WebhookEvents registro de eventos vistos.
func (s *Store) WebhookEvents() *WebhookEventRepo { return &WebhookEventRepo{acc: s.acc()} }

// Users repositorio de usuarios.
func (s *Store) Users() *UserRepo { return &UserRepo{acc: s.acc()} }

// Run ejecuta fn de forma serializable sobre una copia del estado: si fn devuelve nil
// la copia reemplaza al estado (Commit); si no, se descarta (Rollback).
// Dentro de fn solo deben usarse los repos de tx; los del Store bloquearían.
func (s *Store) Run(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.data.clone()
	acc := txAccessor{d: work}
	tx := repository.TxRepos{
		Products:  &ProductRepo{acc: acc},
		Movements: &MovementRepo{acc: acc},
		Orders:    &OrderRepo{acc: acc},
		Payments:  &PaymentRepo{acc: acc},
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.data = work
	return nil
}

func paginate[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
