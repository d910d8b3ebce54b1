// Package hooks binds storefront endpoints to cache keys and mutations.
// Hooks only wire; caching, deduplication, retries and invalidation live in shopcache.
package hooks

import (
	"context"
	"net/http"
	"net/url"

	"github.com/n-r-w/shopcache"
)

// API is the part of apiclient.Client the hooks use.
type API interface {
	Do(ctx context.Context, method, path string, body any, token string, out any) error
}

// Deps bundles what every hook needs. All hooks of an application share one Cache and Executor.
type Deps struct {
	Cache    *shopcache.Cache
	Executor *shopcache.Executor
	API      API
	Tokens   shopcache.TokenSource
}

// CategoriesKey is the key of GET /api/categories.
func CategoriesKey() shopcache.Key { return shopcache.NewKey("categories") }

// ProductsKey is the key of GET /api/products for p. Equal params share one key.
func ProductsKey(p ProductParams) shopcache.Key { return shopcache.NewKey("products", p) }

// CartKey is the key of GET /api/cart.
func CartKey() shopcache.Key { return shopcache.NewKey("cart") }

// WishlistKey is the key of GET /api/wishlist.
func WishlistKey() shopcache.Key { return shopcache.NewKey("wishlist") }

// OrderKey is the key of GET /api/orders/{trackingId}.
func OrderKey(trackingID string) shopcache.Key { return shopcache.NewKey("orders", trackingID) }

// ReviewsKey is the key of GET /api/products/{id}/reviews.
func ReviewsKey(productID string) shopcache.Key { return shopcache.NewKey("reviews", productID) }

// getter returns a fetcher issuing GET path.
func getter[T any](d Deps, op, path string, auth bool) shopcache.Fetcher[T] {
	return func(ctx context.Context) (T, error) {
		var out T
		token, err := shopcache.ReadToken(ctx, d.Tokens, op, auth)
		if err != nil {
			return out, err
		}
		err = d.API.Do(ctx, http.MethodGet, path, nil, token, &out)

		return out, err
	}
}

// writer returns an Execute function sending method path(input) with body(input).
func writer[I, T any](api API, method string, path func(I) string, body func(I) any) func(context.Context, string, I) (T, error) {
	return func(ctx context.Context, token string, in I) (T, error) {
		var out T
		var payload any
		if body != nil {
			payload = body(in)
		}
		err := api.Do(ctx, method, path(in), payload, token, &out)

		return out, err
	}
}

// fixed returns an invalidation list that does not depend on the input.
func fixed[I any](k ...shopcache.Key) func(I) []shopcache.Key {
	return func(I) []shopcache.Key { return k }
}

func withDefaults(defaults []shopcache.QueryOption, opts []shopcache.QueryOption) []shopcache.QueryOption {
	out := make([]shopcache.QueryOption, 0, len(defaults)+len(opts))
	out = append(out, defaults...)

	return append(out, opts...)
}

func escape(s string) string { return url.PathEscape(s) }
