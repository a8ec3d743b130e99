package ports

import "context"

// Locker candado consultivo por clave (p. ej. "pago:orden:<id>").
// Lock espera hasta obtenerlo o hasta que ctx expire; unlock libera solo si sigue siendo el dueño.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
