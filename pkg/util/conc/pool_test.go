package conc

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool(t *testing.T) {
	pool := NewPool[int](4, WithPreAlloc(true))
	defer pool.Release()
	assert.Equal(t, 4, pool.Cap())

	futures := make([]*Future[int], 0, 16)
	for i := 0; i < 16; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	for i, f := range futures {
		assert.Equal(t, i*i, f.Value())
		assert.True(t, f.OK())
	}
}

func TestPoolError(t *testing.T) {
	pool := NewDefaultPool[string]()
	defer pool.Release()

	errBoom := errors.New("boom")
	ok := pool.Submit(func() (string, error) { return "ok", nil })
	bad := pool.Submit(func() (string, error) { return "", errBoom })

	assert.ErrorIs(t, AwaitAll(ok, bad), errBoom)
	v, err := ok.Await()
	assert.NoError(t, err)
	assert.Equal(t, "ok", v)
	assert.ErrorIs(t, bad.Err(), errBoom)
}

func TestPoolConcealPanic(t *testing.T) {
	pool := NewPool[int](2, WithPreAlloc(true), WithConcealPanic(true))
	defer pool.Release()

	bad := pool.Submit(func() (int, error) {
		var m map[string]int
		m["x"] = 1
		return 0, nil
	})
	_, err := bad.Await()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")

	// panic 之后协程池仍然可用。
	assert.Equal(t, 7, pool.Submit(func() (int, error) { return 7, nil }).Value())
}

func TestPoolReleased(t *testing.T) {
	pool := NewPool[int](1)
	pool.Release()

	f := pool.Submit(func() (int, error) { return 1, nil })
	assert.Error(t, f.Err())
}

