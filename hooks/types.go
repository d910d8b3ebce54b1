package hooks

import (
	"net/url"
	"strconv"
	"time"
)

// Category is a product category shown in navigation and on the home page.
type Category struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	ImageURL string `json:"imageUrl,omitempty"`
}

// Product is a catalog item.
type Product struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug,omitempty"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price"`
	SalePrice   *float64 `json:"salePrice,omitempty"`
	Images      []string `json:"images,omitempty"`
	Category    string   `json:"category,omitempty"`
	Sizes       []string `json:"sizes,omitempty"`
	Colors      []string `json:"colors,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	ReviewCount int      `json:"reviewCount,omitempty"`
	Featured    bool     `json:"featured,omitempty"`
	InStock     bool     `json:"inStock"`
}

// ProductParams filters the product list. It is part of the products cache key,
// so equal params share one entry.
type ProductParams struct {
	Featured bool   `json:"featured,omitempty"`
	Category string `json:"category,omitempty"`
	Sort     string `json:"sort,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Values encodes the params as URL query values; zero fields are omitted.
func (p ProductParams) Values() url.Values {
	v := url.Values{}
	if p.Featured {
		v.Set("featured", "true")
	}
	if p.Category != "" {
		v.Set("category", p.Category)
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}

	return v
}

// CartItem is a line of the cart.
type CartItem struct {
	ID        string   `json:"id"`
	ProductID string   `json:"productId"`
	Quantity  int      `json:"quantity"`
	Size      string   `json:"size,omitempty"`
	Color     string   `json:"color,omitempty"`
	Product   *Product `json:"product,omitempty"`
}

// Cart is the signed-in user's cart.
type Cart struct {
	Items []CartItem `json:"items"`
	Total float64    `json:"total"`
}

// Count returns the number of units in the cart.
func (c Cart) Count() int {
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}

	return n
}

// AddToCartInput is the body of POST /api/cart.
type AddToCartInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

// UpdateCartItemInput changes the quantity of a cart line.
type UpdateCartItemInput struct {
	ID       string `json:"-"`
	Quantity int    `json:"quantity"`
}

// Wishlist is the signed-in user's saved products.
type Wishlist struct {
	Items []Product `json:"items"`
}

// Contains reports whether productID is saved.
func (w Wishlist) Contains(productID string) bool {
	for _, p := range w.Items {
		if p.ID == productID {
			return true
		}
	}

	return false
}

// OrderEvent is one step of an order's shipping history.
type OrderEvent struct {
	Status    string    `json:"status"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// OrderItem is a purchased line.
type OrderItem struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Order is the public tracking view of an order.
type Order struct {
	TrackingID        string       `json:"trackingId"`
	Status            string       `json:"status"`
	Items             []OrderItem  `json:"items,omitempty"`
	Total             float64      `json:"total"`
	CreatedAt         time.Time    `json:"createdAt"`
	EstimatedDelivery *time.Time   `json:"estimatedDelivery,omitempty"`
	Timeline          []OrderEvent `json:"timeline,omitempty"`
}

// Review is a customer review of a product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Rating    int       `json:"rating"`
	Title     string    `json:"title,omitempty"`
	Comment   string    `json:"comment"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReviewInput is the body of a review submission.
type ReviewInput struct {
	ProductID string `json:"-"`
	Rating    int    `json:"rating"`
	Title     string `json:"title,omitempty"`
	Comment   string `json:"comment"`
}

// NewsletterInput is the body of a newsletter signup.
type NewsletterInput struct {
	Email string `json:"email"`
}
