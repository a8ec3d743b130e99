package repository

import "context"

// TxRepos repositorios atados a una misma transacción.
type TxRepos struct {
	Products  ProductRepository
	Movements InventoryMovementRepository
	Orders    OrderRepository
	Payments  PaymentRepository
}

// TxRunner ejecuta una función dentro de una transacción: Commit si fn devuelve nil, Rollback si no.
// Garantiza atomicidad para movimientos de inventario y para el par Pago + Orden.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx TxRepos) error) error
}
