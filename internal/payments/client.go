package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client talks to the hosted payment gateway. The gateway owns all card
// data; the portal only creates sessions and consumes webhooks.
type Client struct {
	rc            *resty.Client
	webhookSecret string
}

func NewClient(baseURL, apiKey, webhookSecret string) *Client {
	rc := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(15 * time.Second).
		SetRetryCount(2)
	return &Client{rc: rc, webhookSecret: webhookSecret}
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

type CheckoutParams struct {
	Reference   string `json:"reference"` // our order/subscription id
	AmountCents int    `json:"amount_cents"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	SuccessURL  string `json:"success_url"`
	CancelURL   string `json:"cancel_url"`
}

// CreateCheckoutSession opens a hosted checkout page for a one-off
// purchase.
func (c *Client) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (CheckoutSession, error) {
	var out CheckoutSession
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(p).
		SetResult(&out).
		Post("/checkout/sessions")
	if err != nil {
		return CheckoutSession{}, err
	}
	if resp.IsError() {
		return CheckoutSession{}, fmt.Errorf("payment gateway: status %d: %s", resp.StatusCode(), resp.String())
	}
	return out, nil
}

type SubscriptionParams struct {
	Reference string `json:"reference"`
	Plan      string `json:"plan"`
	Customer  string `json:"customer"` // user id
}

type ProviderSubscription struct {
	ID               string `json:"id"`
	Status           string `json:"status"`
	CurrentPeriodEnd int64  `json:"current_period_end"`
}

// CreateSubscription starts a recurring plan for the user.
func (c *Client) CreateSubscription(ctx context.Context, p SubscriptionParams) (ProviderSubscription, error) {
	var out ProviderSubscription
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(p).
		SetResult(&out).
		Post("/subscriptions")
	if err != nil {
		return ProviderSubscription{}, err
	}
	if resp.IsError() {
		return ProviderSubscription{}, fmt.Errorf("payment gateway: status %d: %s", resp.StatusCode(), resp.String())
	}
	return out, nil
}

// CancelSubscription stops renewal; access runs to period end.
func (c *Client) CancelSubscription(ctx context.Context, providerRef string) error {
	resp, err := c.rc.R().
		SetContext(ctx).
		Delete("/subscriptions/" + providerRef)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("payment gateway: status %d: %s", resp.StatusCode(), resp.String())
	}
	return nil
}

// VerifyWebhook checks the HMAC signature the gateway puts on webhook
// deliveries.
func (c *Client) VerifyWebhook(body []byte, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.webhookSecret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(signature))
}
