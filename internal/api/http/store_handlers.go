package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub-io/learnhub-portal/internal/auth"
	"github.com/learnhub-io/learnhub-portal/internal/commerce"
	"github.com/learnhub-io/learnhub-portal/internal/payments"
)

func ListProductsHandler(store commerce.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ps, err := store.ListProducts(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, ps)
	}
}

type putProductReq struct {
	ID          string `json:"id" validate:"required"`
	Title       string `json:"title" validate:"required"`
	Description string `json:"description"`
	PriceCents  int    `json:"price_cents" validate:"gt=0"`
	Currency    string `json:"currency" validate:"required,len=3"`
	ImageURL    string `json:"image_url"`
	Active      bool   `json:"active"`
}

func PutProductHandler(store commerce.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req putProductReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		p := commerce.Product{
			ID:          req.ID,
			Title:       req.Title,
			Description: req.Description,
			PriceCents:  req.PriceCents,
			Currency:    req.Currency,
			ImageURL:    req.ImageURL,
			Active:      req.Active,
		}
		if err := store.PutProduct(r.Context(), p); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

type checkoutReq struct {
	ProductID string `json:"product_id" validate:"required"`
}

func CheckoutHandler(co *commerce.Checkout) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req checkoutReq
		if err := decodeValid(r, &req); err != nil {
			http.Error(w, "bad request: "+err.Error(), http.StatusBadRequest)
			return
		}
		o, url, err := co.Begin(r.Context(), auth.SubjectFromContext(r.Context()), req.ProductID)
		if err != nil {
			switch {
			case errors.Is(err, commerce.ErrProductNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, commerce.ErrInactiveProduct):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, err.Error(), http.StatusBadGateway)
			}
			return
		}
		writeJSON(w, http.StatusCreated, map[string]interface{}{"order": o, "checkout_url": url})
	}
}

func GetOrderHandler(store commerce.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		o, err := store.GetOrder(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if o.UserID != auth.SubjectFromContext(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		writeJSON(w, http.StatusOK, o)
	}
}

func ListOrdersHandler(store commerce.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		os, err := store.ListOrders(r.Context(), auth.SubjectFromContext(r.Context()))
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, os)
	}
}

type paymentWebhook struct {
	Reference string `json:"reference"`
	Event     string `json:"event"` // payment_succeeded|payment_failed
}

// PaymentWebhookHandler consumes gateway callbacks. The signature check
// is the only auth on this route.
func PaymentWebhookHandler(co *commerce.Checkout, gateway *payments.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		if !gateway.VerifyWebhook(body, r.Header.Get("X-Payment-Signature")) {
			http.Error(w, "bad signature", http.StatusUnauthorized)
			return
		}
		var evt paymentWebhook
		if err := json.Unmarshal(body, &evt); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		o, err := co.Settle(r.Context(), evt.Reference, evt.Event == "payment_succeeded")
		if err != nil {
			if errors.Is(err, commerce.ErrOrderNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"order_id": o.ID, "status": o.Status})
	}
}
