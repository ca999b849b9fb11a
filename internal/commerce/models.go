package commerce

import "errors"

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
)

// Order statuses.
const (
	OrderPending = "pending"
	OrderPaid    = "paid"
	OrderFailed  = "failed"
)

type Product struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	PriceCents  int    `json:"price_cents"`
	Currency    string `json:"currency"`
	ImageURL    string `json:"image_url,omitempty"`
	Active      bool   `json:"active"`
}

type Order struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	ProductID   string `json:"product_id"`
	AmountCents int    `json:"amount_cents"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	ProviderRef string `json:"provider_ref,omitempty"`
	CreatedAt   int64  `json:"created_at"`
}
