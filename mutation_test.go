//nolint:exhaustruct // tests
package shopcache

import (
	"context"
	"errors"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type staticTokens string

func (s staticTokens) Token(context.Context) (string, error) { return string(s), nil }

type brokenTokens struct{}

func (brokenTokens) Token(context.Context) (string, error) { return "", errors.New("storage unavailable") }

type testCart struct {
	Items []string `json:"items"`
}

// cartBackend is an in-memory stand-in for the cart endpoints.
type cartBackend struct {
	mu    sync.Mutex
	items []string
	gets  atomic.Int32
	fail  bool
}

func (b *cartBackend) get(context.Context) (testCart, error) {
	b.gets.Add(1)

	b.mu.Lock()
	defer b.mu.Unlock()

	return testCart{Items: slices.Clone(b.items)}, nil
}

func (b *cartBackend) addMutation(writes *atomic.Int32) Mutation[string, testCart] {
	return Mutation[string, testCart]{
		Name:         "add to cart",
		RequiresAuth: true,
		Execute: func(_ context.Context, token string, productID string) (testCart, error) {
			writes.Add(1)
			if token == "" {
				return testCart{}, errors.New("token was not passed")
			}

			b.mu.Lock()
			defer b.mu.Unlock()

			if b.fail {
				return testCart{}, errors.New("server error")
			}
			b.items = append(b.items, productID)

			return testCart{Items: slices.Clone(b.items)}, nil
		},
		Invalidates: func(string) []Key { return []Key{NewKey("cart")} },
	}
}

func TestMutate_InvalidatesAndRefetches(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := &mockLogger{}
	c := newTestCache(t)
	exec := NewExecutor(c, staticTokens("secret"), WithLogger("test", logger))

	backend := &cartBackend{items: []string{"A"}}
	key := NewKey("cart")

	res := Read(ctx, c, key, backend.get, StaleTime(time.Hour))
	require.Equal(t, testCart{Items: []string{"A"}}, res.Data)

	var writes atomic.Int32
	out, err := Mutate(ctx, exec, backend.addMutation(&writes), "B")
	require.NoError(t, err)
	require.Equal(t, []string{"A", "B"}, out.Items)
	require.Equal(t, int32(1), writes.Load())
	require.True(t, Peek[testCart](c, key).HasData)

	res = Read(ctx, c, key, backend.get, StaleTime(time.Hour))
	require.NoError(t, res.Err)
	require.Equal(t, testCart{Items: []string{"A", "B"}}, res.Data)
	require.Equal(t, int32(2), backend.gets.Load(), "the read after a mutation must fetch")
	require.Equal(t, 1, logger.mutationOK)
}

func TestMutate_FailureLeavesCacheUntouched(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	logger := &mockLogger{}
	c := newTestCache(t)
	exec := NewExecutor(c, staticTokens("secret"), WithLogger("test", logger))

	backend := &cartBackend{items: []string{"A"}, fail: true}
	key := NewKey("cart")
	Read(ctx, c, key, backend.get, StaleTime(time.Hour))
	before := Peek[testCart](c, key)

	var writes atomic.Int32
	_, err := Mutate(ctx, exec, backend.addMutation(&writes), "B")

	var mErr *MutationError
	require.ErrorAs(t, err, &mErr)
	require.Equal(t, "add to cart", mErr.Mutation)
	require.Equal(t, int32(1), writes.Load(), "mutations are never retried")

	after := Peek[testCart](c, key)
	require.Equal(t, before, after)
	require.False(t, Peek[testCart](c, key).Status == StatusLoading)

	Read(ctx, c, key, backend.get, StaleTime(time.Hour))
	require.Equal(t, int32(1), backend.gets.Load(), "failed mutation must not invalidate")
	require.Equal(t, 1, logger.mutationFail)
}

func TestMutate_WithoutToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	backend := &cartBackend{}

	for name, tokens := range map[string]TokenSource{
		"nil source":   nil,
		"empty token":  staticTokens(""),
		"broken store": brokenTokens{},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			exec := NewExecutor(newTestCache(t), tokens)

			var writes atomic.Int32
			_, err := Mutate(ctx, exec, backend.addMutation(&writes), "B")
			require.Error(t, err)
			require.Equal(t, int32(0), writes.Load(), "no write may be attempted without a token")

			if name != "broken store" {
				require.ErrorIs(t, err, ErrAuthentication)

				var authErr *AuthenticationError
				require.ErrorAs(t, err, &authErr)
				require.Equal(t, "add to cart", authErr.Operation)
			}
		})
	}
}

func TestReadToken(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	token, err := ReadToken(ctx, staticTokens("secret"), "get cart", true)
	require.NoError(t, err)
	require.Equal(t, "secret", token)

	_, err = ReadToken(ctx, nil, "get cart", true)
	require.ErrorIs(t, err, ErrAuthentication)

	_, err = ReadToken(ctx, staticTokens(""), "get cart", true)
	require.ErrorIs(t, err, ErrAuthentication)

	_, err = ReadToken(ctx, brokenTokens{}, "get cart", true)
	require.ErrorContains(t, err, "read token: storage unavailable")
	require.NotErrorIs(t, err, ErrAuthentication)

	token, err = ReadToken(ctx, brokenTokens{}, "list products", false)
	require.NoError(t, err)
	require.Empty(t, token)

	// the executor reports the same failure as a mutation error
	exec := NewExecutor(nil, brokenTokens{})
	_, err = exec.token(ctx, "add to cart", true)
	var mErr *MutationError
	require.ErrorAs(t, err, &mErr)
	require.ErrorContains(t, err, "read token: storage unavailable")
}

func TestMutate_PublicWithoutToken(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(nil, brokenTokens{})

	var gotToken atomic.Value
	m := Mutation[string, bool]{
		Name: "newsletter",
		Execute: func(_ context.Context, token string, _ string) (bool, error) {
			gotToken.Store(token)

			return true, nil
		},
	}

	ok, err := Mutate(context.Background(), exec, m, "a@b.c")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "", gotToken.Load())
}

func TestMutate_InvalidatesPrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c := newTestCache(t)
	exec := NewExecutor(c, staticTokens("secret"))

	var calls atomic.Int32
	Read(ctx, c, NewKey("products", testParams{Featured: true}), counter(&calls, 1), StaleTime(time.Hour))
	Read(ctx, c, NewKey("reviews", "p1"), counter(&calls, 1), StaleTime(time.Hour))

	m := Mutation[string, struct{}]{
		Name:              "submit review",
		RequiresAuth:      true,
		Execute:           func(context.Context, string, string) (struct{}, error) { return struct{}{}, nil },
		Invalidates:       func(id string) []Key { return []Key{NewKey("reviews", id)} },
		InvalidatesPrefix: func(string) []Key { return []Key{NewKey("products")} },
	}

	_, err := Mutate(ctx, exec, m, "p1")
	require.NoError(t, err)

	require.True(t, Peek[int](c, NewKey("reviews", "p1")).HasData)
	Read(ctx, c, NewKey("products", testParams{Featured: true}), counter(&calls, 1), StaleTime(time.Hour))
	Read(ctx, c, NewKey("reviews", "p1"), counter(&calls, 1), StaleTime(time.Hour))
	require.Equal(t, int32(4), calls.Load())
}

func TestMutate_InvalidKeyIsReported(t *testing.T) {
	t.Parallel()

	exec := NewExecutor(newTestCache(t), nil)
	m := Mutation[int, int]{
		Name:        "bad",
		Execute:     func(_ context.Context, _ string, in int) (int, error) { return in, nil },
		Invalidates: func(int) []Key { return []Key{NewKey(make(chan int))} },
	}

	out, err := Mutate(context.Background(), exec, m, 3)
	require.Equal(t, 3, out)
	require.ErrorIs(t, err, ErrInvalidKey)

	_, err = Mutate(context.Background(), exec, Mutation[int, int]{Name: "empty"}, 1)
	require.Error(t, err)
}
