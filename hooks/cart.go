package hooks

import (
	"context"
	"net/http"

	"github.com/n-r-w/shopcache"
)

// CartHook exposes the cart and its mutations. Every operation requires a token.
type CartHook struct {
	d      Deps
	add    shopcache.Mutation[AddToCartInput, CartItem]
	update shopcache.Mutation[UpdateCartItemInput, CartItem]
	remove shopcache.Mutation[string, struct{}]
}

// NewCart creates the cart hook.
func NewCart(d Deps) *CartHook {
	return &CartHook{
		d: d,
		add: shopcache.Mutation[AddToCartInput, CartItem]{
			Name:         "add to cart",
			RequiresAuth: true,
			Execute: writer[AddToCartInput, CartItem](d.API, http.MethodPost,
				func(AddToCartInput) string { return "/api/cart" },
				func(in AddToCartInput) any { return in }),
			Invalidates: fixed[AddToCartInput](CartKey()),
		},
		update: shopcache.Mutation[UpdateCartItemInput, CartItem]{
			Name:         "update cart item",
			RequiresAuth: true,
			Execute: writer[UpdateCartItemInput, CartItem](d.API, http.MethodPut,
				func(in UpdateCartItemInput) string { return "/api/cart/" + escape(in.ID) },
				func(in UpdateCartItemInput) any { return in }),
			Invalidates: fixed[UpdateCartItemInput](CartKey()),
		},
		remove: shopcache.Mutation[string, struct{}]{
			Name:         "remove cart item",
			RequiresAuth: true,
			Execute: writer[string, struct{}](d.API, http.MethodDelete,
				func(id string) string { return "/api/cart/" + escape(id) }, nil),
			Invalidates: fixed[string](CartKey()),
		},
	}
}

// Get reads GET /api/cart under ["cart"].
func (h *CartHook) Get(ctx context.Context, opts ...shopcache.QueryOption) shopcache.Result[Cart] {
	return shopcache.Read(ctx, h.d.Cache, CartKey(), getter[Cart](h.d, "get cart", "/api/cart", true), opts...)
}

// Add sends POST /api/cart and invalidates ["cart"].
func (h *CartHook) Add(ctx context.Context, in AddToCartInput) (CartItem, error) {
	if in.Quantity <= 0 {
		in.Quantity = 1
	}

	return shopcache.Mutate(ctx, h.d.Executor, h.add, in)
}

// Update sends PUT /api/cart/{id} and invalidates ["cart"].
func (h *CartHook) Update(ctx context.Context, id string, quantity int) (CartItem, error) {
	return shopcache.Mutate(ctx, h.d.Executor, h.update, UpdateCartItemInput{ID: id, Quantity: quantity})
}

// Remove sends DELETE /api/cart/{id} and invalidates ["cart"].
func (h *CartHook) Remove(ctx context.Context, id string) error {
	_, err := shopcache.Mutate(ctx, h.d.Executor, h.remove, id)

	return err
}
