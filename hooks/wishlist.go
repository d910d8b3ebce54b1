package hooks

import (
	"context"
	"net/http"

	"github.com/n-r-w/shopcache"
)

// WishlistHook exposes saved products. Every operation requires a token.
type WishlistHook struct {
	d      Deps
	add    shopcache.Mutation[string, Wishlist]
	remove shopcache.Mutation[string, struct{}]
}

type wishlistBody struct {
	ProductID string `json:"productId"`
}

// NewWishlist creates the wishlist hook.
func NewWishlist(d Deps) *WishlistHook {
	return &WishlistHook{
		d: d,
		add: shopcache.Mutation[string, Wishlist]{
			Name:         "add to wishlist",
			RequiresAuth: true,
			Execute: writer[string, Wishlist](d.API, http.MethodPost,
				func(string) string { return "/api/wishlist" },
				func(id string) any { return wishlistBody{ProductID: id} }),
			Invalidates: fixed[string](WishlistKey()),
		},
		remove: shopcache.Mutation[string, struct{}]{
			Name:         "remove from wishlist",
			RequiresAuth: true,
			Execute: writer[string, struct{}](d.API, http.MethodDelete,
				func(id string) string { return "/api/wishlist/" + escape(id) }, nil),
			Invalidates: fixed[string](WishlistKey()),
		},
	}
}

// Get reads GET /api/wishlist under ["wishlist"].
func (h *WishlistHook) Get(ctx context.Context, opts ...shopcache.QueryOption) shopcache.Result[Wishlist] {
	return shopcache.Read(ctx, h.d.Cache, WishlistKey(),
		getter[Wishlist](h.d, "get wishlist", "/api/wishlist", true), opts...)
}

// Add sends POST /api/wishlist and invalidates ["wishlist"].
func (h *WishlistHook) Add(ctx context.Context, productID string) (Wishlist, error) {
	return shopcache.Mutate(ctx, h.d.Executor, h.add, productID)
}

// Remove sends DELETE /api/wishlist/{productId} and invalidates ["wishlist"].
func (h *WishlistHook) Remove(ctx context.Context, productID string) error {
	_, err := shopcache.Mutate(ctx, h.d.Executor, h.remove, productID)

	return err
}

// Toggle adds productID when it is not saved and removes it otherwise.
func (h *WishlistHook) Toggle(ctx context.Context, productID string) error {
	res := h.Get(ctx)
	if res.Err != nil && !res.HasData {
		return res.Err
	}
	if res.Data.Contains(productID) {
		return h.Remove(ctx, productID)
	}
	_, err := h.Add(ctx, productID)

	return err
}
