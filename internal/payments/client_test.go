package payments_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/learnhub-io/learnhub-portal/internal/payments"
)

func TestCreateCheckoutSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/sessions" || r.Method != http.MethodPost {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Fatalf("auth header = %q", got)
		}
		var p payments.CheckoutParams
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if p.Reference != "order-1" || p.AmountCents != 4900 {
			t.Fatalf("params %+v", p)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(payments.CheckoutSession{ID: "cs_1", URL: "https://pay.example/cs_1"})
	}))
	defer srv.Close()

	c := payments.NewClient(srv.URL, "test-key", "whsec")
	sess, err := c.CreateCheckoutSession(context.Background(), payments.CheckoutParams{
		Reference:   "order-1",
		AmountCents: 4900,
		Currency:    "usd",
	})
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.ID != "cs_1" || sess.URL != "https://pay.example/cs_1" {
		t.Fatalf("session %+v", sess)
	}
}

func TestGatewayErrorSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "insufficient funds", http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := payments.NewClient(srv.URL, "k", "s")
	if _, err := c.CreateCheckoutSession(context.Background(), payments.CheckoutParams{}); err == nil {
		t.Fatal("gateway error not surfaced")
	}
}

func TestVerifyWebhook(t *testing.T) {
	c := payments.NewClient("http://unused", "k", "whsec")
	body := []byte(`{"reference":"order-1","event":"payment_succeeded"}`)

	mac := hmac.New(sha256.New, []byte("whsec"))
	mac.Write(body)
	sig := hex.EncodeToString(mac.Sum(nil))

	if !c.VerifyWebhook(body, sig) {
		t.Fatal("valid signature rejected")
	}
	if c.VerifyWebhook(body, "deadbeef") {
		t.Fatal("bad signature accepted")
	}
	if c.VerifyWebhook(append(body, '!'), sig) {
		t.Fatal("tampered body accepted")
	}
}
