//nolint:exhaustruct // tests
package shopcache

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDehydrateHydrate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newTestCache(t)

	var calls atomic.Int32
	featured := NewKey("products", testParams{Featured: true})
	Read(ctx, src, featured, counter(&calls, []testProduct{{Name: "scarf"}}))
	Read(ctx, src, NewKey("categories"), counter(&calls, []string{"hats"}))
	Read(ctx, src, NewKey("cart"), func(context.Context) (int, error) { return 0, testError{} })

	b, err := src.Dehydrate()
	require.NoError(t, err)

	dst := newTestCache(t)
	require.NoError(t, dst.Hydrate(b))
	require.Equal(t, 2, dst.Len())

	calls.Store(0)
	res := Read(ctx, dst, featured, counter(&calls, []testProduct{{Name: "other"}}), StaleTime(time.Hour))
	require.NoError(t, res.Err)
	require.Equal(t, []testProduct{{Name: "scarf"}}, res.Data)
	require.Equal(t, int32(0), calls.Load(), "hydrated data is served without fetching")

	// decoded once, then kept in its typed form
	require.Equal(t, []testProduct{{Name: "scarf"}}, Peek[[]testProduct](dst, featured).Data)
	require.Equal(t, []string{"hats"}, Peek[[]string](dst, NewKey("categories")).Data)

	// a snapshot of a hydrated cache round-trips as well
	again, err := dst.Dehydrate()
	require.NoError(t, err)

	third := newTestCache(t)
	require.NoError(t, third.Hydrate(again))
	require.Equal(t, []string{"hats"}, Peek[[]string](third, NewKey("categories")).Data)
}

func TestDehydrateHydrate_HTMLCharactersInKey(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newTestCache(t)

	key := NewKey("products", testParams{Category: "Tops & Tees <new>"})
	Read(ctx, src, key, counter(new(atomic.Int32), []testProduct{{Name: "saved"}}))

	b, err := src.Dehydrate()
	require.NoError(t, err)

	dst := newTestCache(t)
	require.NoError(t, dst.Hydrate(b))

	var calls atomic.Int32
	res := Read(ctx, dst, key, counter(&calls, []testProduct{{Name: "fresh"}}), StaleTime(time.Hour))
	require.NoError(t, res.Err)
	require.Equal(t, []testProduct{{Name: "saved"}}, res.Data)
	require.Equal(t, int32(0), calls.Load())
	require.Equal(t, 1, dst.Len())
}

func TestHydrate_KeepsLiveEntries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := newTestCache(t)
	Read(ctx, src, NewKey("categories"), counter(new(atomic.Int32), []string{"old"}))
	b, err := src.Dehydrate()
	require.NoError(t, err)

	dst := newTestCache(t)
	Read(ctx, dst, NewKey("categories"), counter(new(atomic.Int32), []string{"live"}))
	require.NoError(t, dst.Hydrate(b))
	require.Equal(t, []string{"live"}, Peek[[]string](dst, NewKey("categories")).Data)
}

func TestHydrate_Invalid(t *testing.T) {
	t.Parallel()

	c := newTestCache(t)
	require.Error(t, c.Hydrate([]byte("{")))
	require.Error(t, c.Hydrate([]byte(`{"version":99}`)))
}
