package commerce

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/learnhub-io/learnhub-portal/internal/payments"
)

var ErrInactiveProduct = errors.New("product is not for sale")

// Checkout drives the order flow: create a pending order, open a hosted
// checkout session, then settle on the gateway's webhook.
type Checkout struct {
	store     Store
	gateway   *payments.Client
	publicURL string
}

func NewCheckout(store Store, gateway *payments.Client, publicURL string) *Checkout {
	return &Checkout{store: store, gateway: gateway, publicURL: strings.TrimRight(publicURL, "/")}
}

// Begin creates the order and returns the gateway URL the client should
// redirect to.
func (c *Checkout) Begin(ctx context.Context, userID, productID string) (Order, string, error) {
	p, err := c.store.GetProduct(ctx, productID)
	if err != nil {
		return Order{}, "", err
	}
	if !p.Active {
		return Order{}, "", ErrInactiveProduct
	}
	o := Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		ProductID:   p.ID,
		AmountCents: p.PriceCents,
		Currency:    p.Currency,
		Status:      OrderPending,
		CreatedAt:   time.Now().Unix(),
	}
	if err := c.store.CreateOrder(ctx, o); err != nil {
		return Order{}, "", err
	}
	sess, err := c.gateway.CreateCheckoutSession(ctx, payments.CheckoutParams{
		Reference:   o.ID,
		AmountCents: o.AmountCents,
		Currency:    o.Currency,
		Description: p.Title,
		SuccessURL:  c.publicURL + "/store/orders/" + o.ID + "?state=success",
		CancelURL:   c.publicURL + "/store/orders/" + o.ID + "?state=canceled",
	})
	if err != nil {
		return Order{}, "", err
	}
	if err := c.store.SetOrderStatus(ctx, o.ID, OrderPending, sess.ID); err != nil {
		return Order{}, "", err
	}
	o.ProviderRef = sess.ID
	return o, sess.URL, nil
}

// Settle applies a webhook outcome to the order.
func (c *Checkout) Settle(ctx context.Context, orderID string, paid bool) (Order, error) {
	o, err := c.store.GetOrder(ctx, orderID)
	if err != nil {
		return Order{}, err
	}
	status := OrderFailed
	if paid {
		status = OrderPaid
	}
	if err := c.store.SetOrderStatus(ctx, o.ID, status, o.ProviderRef); err != nil {
		return Order{}, err
	}
	o.Status = status
	return o, nil
}
