package stripe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/revendahub/revendahub/internal/constants"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"secret_key": " sk_test_abc ",
	})
	if err != nil {
		t.Fatalf("ParseConfig error: %v", err)
	}
	if cfg.SecretKey != "sk_test_abc" {
		t.Fatalf("secret key not trimmed: %q", cfg.SecretKey)
	}
	if cfg.APIBaseURL != defaultAPIBaseURL {
		t.Fatalf("expected default base url, got %q", cfg.APIBaseURL)
	}
}

func TestValidateConfigMissingSecret(t *testing.T) {
	if err := ValidateConfig(&Config{}); err == nil {
		t.Fatalf("expected error for missing secret key")
	}
}

func TestCreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/checkout/sessions" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		user, _, ok := r.BasicAuth()
		if !ok || user != "sk_test_abc" {
			t.Fatalf("basic auth not set with secret key")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("client_reference_id"); got != "RVD-1001" {
			t.Fatalf("client_reference_id = %q", got)
		}
		if got := r.PostForm.Get("line_items[0][price_data][unit_amount]"); got != "15990" {
			t.Fatalf("unit_amount = %q", got)
		}
		if got := r.PostForm.Get("line_items[0][price_data][currency]"); got != "brl" {
			t.Fatalf("currency = %q", got)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":  "cs_test_123",
			"url": "https://checkout.stripe.com/pay/cs_test_123",
		})
	}))
	defer server.Close()

	cfg := &Config{SecretKey: "sk_test_abc", APIBaseURL: server.URL}
	result, err := CreateCheckoutSession(context.Background(), cfg, CreateInput{
		OrderNo:     "RVD-1001",
		AmountCents: 15990,
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession error: %v", err)
	}
	if result.TransactionID != "cs_test_123" {
		t.Fatalf("transaction id = %q", result.TransactionID)
	}
	if result.PayURL == "" {
		t.Fatalf("expected pay url")
	}
	if result.Status != constants.PaymentStatusPending {
		t.Fatalf("status = %q", result.Status)
	}
}

func TestVerifyStatusPaid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":             "cs_test_123",
			"status":         "complete",
			"payment_status": "paid",
		})
	}))
	defer server.Close()

	cfg := &Config{SecretKey: "sk_test_abc", APIBaseURL: server.URL}
	result := VerifyStatus(context.Background(), cfg, "cs_test_123")
	if !result.Success {
		t.Fatalf("expected success, message=%s", result.Message)
	}
	if result.Status != constants.PaymentStatusApproved {
		t.Fatalf("status = %q", result.Status)
	}
}

func TestVerifyStatusTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	cfg := &Config{SecretKey: "sk_test_abc", APIBaseURL: server.URL}
	result := VerifyStatus(context.Background(), cfg, "cs_test_123")
	if result.Success {
		t.Fatalf("expected failure on transport error")
	}
	if result.Status != constants.PaymentStatusPending {
		t.Fatalf("status = %q, want pending", result.Status)
	}
}

func TestMapPaymentStatus(t *testing.T) {
	cases := map[string]string{
		"paid":                constants.PaymentStatusApproved,
		"unpaid":              constants.PaymentStatusPending,
		"":                    constants.PaymentStatusPending,
		"no_payment_required": constants.PaymentStatusPending,
	}
	for input, want := range cases {
		if got := MapPaymentStatus(input); got != want {
			t.Fatalf("MapPaymentStatus(%q) = %q, want %q", input, got, want)
		}
	}
}
