package hooks

import (
	"context"
	"net/http"

	"github.com/n-r-w/shopcache"
)

// ReviewsHook lists and submits product reviews. Submitting requires a token.
type ReviewsHook struct {
	d      Deps
	submit shopcache.Mutation[ReviewInput, Review]
}

// NewReviews creates the reviews hook.
func NewReviews(d Deps) *ReviewsHook {
	return &ReviewsHook{
		d: d,
		submit: shopcache.Mutation[ReviewInput, Review]{
			Name:         "submit review",
			RequiresAuth: true,
			Execute: writer[ReviewInput, Review](d.API, http.MethodPost,
				func(in ReviewInput) string { return reviewsPath(in.ProductID) },
				func(in ReviewInput) any { return in }),
			Invalidates: func(in ReviewInput) []shopcache.Key { return []shopcache.Key{ReviewsKey(in.ProductID)} },
			// ratings shown in product lists change with every review
			InvalidatesPrefix: fixed[ReviewInput](shopcache.NewKey("products")),
		},
	}
}

// List reads GET /api/products/{id}/reviews under ["reviews", id].
func (h *ReviewsHook) List(ctx context.Context, productID string, opts ...shopcache.QueryOption) shopcache.Result[[]Review] {
	return shopcache.Read(ctx, h.d.Cache, ReviewsKey(productID),
		getter[[]Review](h.d, "list reviews", reviewsPath(productID), false),
		withDefaults([]shopcache.QueryOption{shopcache.Enabled(productID != "")}, opts)...)
}

// Submit posts a review and invalidates the product's reviews and every product list.
func (h *ReviewsHook) Submit(ctx context.Context, in ReviewInput) (Review, error) {
	return shopcache.Mutate(ctx, h.d.Executor, h.submit, in)
}

func reviewsPath(productID string) string {
	return "/api/products/" + escape(productID) + "/reviews"
}
