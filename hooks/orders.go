package hooks

import (
	"context"
	"strings"
	"sync"

	"github.com/n-r-w/shopcache"
)

// OrderTracker looks up an order by tracking id. Nothing is fetched until Lookup is called.
type OrderTracker struct {
	d Deps

	mu         sync.Mutex
	trackingID string
}

// NewOrderTracker creates a tracker with no order looked up yet.
func NewOrderTracker(d Deps) *OrderTracker {
	return &OrderTracker{d: d}
}

// Lookup remembers trackingID and reads GET /api/orders/{trackingId} under ["orders", trackingId].
func (t *OrderTracker) Lookup(ctx context.Context, trackingID string, opts ...shopcache.QueryOption) shopcache.Result[Order] {
	t.mu.Lock()
	t.trackingID = strings.TrimSpace(trackingID)
	t.mu.Unlock()

	return t.State(ctx, opts...)
}

// State reads the last looked-up order. Before the first Lookup the query is disabled and Idle.
func (t *OrderTracker) State(ctx context.Context, opts ...shopcache.QueryOption) shopcache.Result[Order] {
	t.mu.Lock()
	id := t.trackingID
	t.mu.Unlock()

	return shopcache.Read(ctx, t.d.Cache, OrderKey(id),
		getter[Order](t.d, "track order", "/api/orders/"+escape(id), false),
		withDefaults([]shopcache.QueryOption{shopcache.Enabled(id != "")}, opts)...)
}

// TrackingID returns the id of the last lookup.
func (t *OrderTracker) TrackingID() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.trackingID
}
