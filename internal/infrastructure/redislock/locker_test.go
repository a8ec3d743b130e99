package redislock

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Requiere un Redis real: REDIS_TEST_URL=redis://localhost:6379/15
func newTestLocker(t *testing.T) *Locker {
	t.Helper()
	url := os.Getenv("REDIS_TEST_URL")
	if url == "" {
		t.Skip("REDIS_TEST_URL no definido")
	}
	rdb, err := NewClient(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, 5*time.Second)
}

func TestLocker_ExclusionYLiberacion(t *testing.T) {
	l := newTestLocker(t)
	key := "pruebas:" + t.Name()

	unlock, err := l.Lock(context.Background(), key)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()
	_, err = l.Lock(ctx, key)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	unlock()
	unlock2, err := l.Lock(context.Background(), key)
	require.NoError(t, err)
	unlock2()
}

func TestLocker_NoLiberaCandadoAjeno(t *testing.T) {
	l := newTestLocker(t)
	key := "pruebas:" + t.Name()
	ctx := context.Background()

	require.NoError(t, l.rdb.Set(ctx, "lock:"+key, "otro-dueño", 5*time.Second).Err())
	l.release("lock:"+key, "mi-token")

	val, err := l.rdb.Get(ctx, "lock:"+key).Result()
	require.NoError(t, err)
	assert.Equal(t, "otro-dueño", val)
	require.NoError(t, l.rdb.Del(ctx, "lock:"+key).Err())
}
