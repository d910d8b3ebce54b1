package shopcache

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKeyEncoderPool(t *testing.T) {
	t.Parallel()

	pool := newKeyEncoderPool()

	enc := pool.Get()
	s, err := enc.encode(map[string]any{"b": 1, "a": "<x>"})
	require.NoError(t, err)
	require.Equal(t, `{"a":"<x>","b":1}`, s, "map keys are sorted and HTML is not escaped")

	_, err = enc.encode(make(chan int))
	require.Error(t, err)

	// Put the encoder back into the pool and verify the buffer is reset
	pool.Put(enc)
	enc = pool.Get()
	require.Zero(t, enc.buf.Len())

	s, err = enc.encode("cart")
	require.NoError(t, err)
	require.Equal(t, `"cart"`, s)
}

func TestKey(t *testing.T) {
	t.Parallel()

	parts := []any{"orders", "TRK-1"}
	key := NewKey(parts...)
	parts[1] = "changed"

	require.Equal(t, `["orders","TRK-1"]`, key.String(), "keys are copied on construction")
	require.Contains(t, NewKey(func() {}).String(), "invalid key")
	require.False(t, NewKey("a").HasPrefix(NewKey("a", "b")))
	require.True(t, NewKey("a", "b").HasPrefix(NewKey("a", "b")))
}
