package hooks

import (
	"context"
	"time"

	"github.com/n-r-w/shopcache"
)

const catalogStaleTime = 5 * time.Minute

// CatalogHook reads categories and product lists. Both endpoints are public.
type CatalogHook struct {
	d Deps
}

// NewCatalog creates the catalog hook.
func NewCatalog(d Deps) *CatalogHook {
	return &CatalogHook{d: d}
}

// Categories reads GET /api/categories under ["categories"].
func (h *CatalogHook) Categories(ctx context.Context, opts ...shopcache.QueryOption) shopcache.Result[[]Category] {
	return shopcache.Read(ctx, h.d.Cache, CategoriesKey(),
		getter[[]Category](h.d, "list categories", "/api/categories", false),
		withDefaults([]shopcache.QueryOption{shopcache.StaleTime(catalogStaleTime)}, opts)...)
}

// Products reads GET /api/products?params under ["products", params].
func (h *CatalogHook) Products(ctx context.Context, p ProductParams, opts ...shopcache.QueryOption) shopcache.Result[[]Product] {
	path := "/api/products"
	if q := p.Values().Encode(); q != "" {
		path += "?" + q
	}

	return shopcache.Read(ctx, h.d.Cache, ProductsKey(p),
		getter[[]Product](h.d, "list products", path, false),
		withDefaults([]shopcache.QueryOption{shopcache.StaleTime(catalogStaleTime)}, opts)...)
}

// Featured is Products with Featured set.
func (h *CatalogHook) Featured(ctx context.Context, limit int, opts ...shopcache.QueryOption) shopcache.Result[[]Product] {
	return h.Products(ctx, ProductParams{Featured: true, Limit: limit}, opts...)
}
