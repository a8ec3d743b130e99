package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/tienda-club/internal/application/ports"
)

var _ ports.Locker = (*Locker)(nil)

// Locker candado por clave dentro del proceso (tests y desarrollo sin Redis).
type Locker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
}

// NewLocker construye el candado.
func NewLocker() *Locker {
	return &Locker{held: map[string]chan struct{}{}}
}

// Lock espera a que la clave quede libre o a que ctx expire.
func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	for {
		l.mu.Lock()
		ch, busy := l.held[key]
		if !busy {
			done := make(chan struct{})
			l.held[key] = done
			l.mu.Unlock()
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(done)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
		}
	}
}
