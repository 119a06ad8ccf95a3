package mercadopago

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/revendahub/revendahub/internal/constants"
)

func TestParseConfigDefaults(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"access_token": " APP_USR-123 ",
	})
	if err != nil {
		t.Fatalf("parse config failed: %v", err)
	}
	if cfg.AccessToken != "APP_USR-123" {
		t.Fatalf("unexpected access token: %s", cfg.AccessToken)
	}
	if cfg.BaseURL != defaultBaseURL {
		t.Fatalf("unexpected base url: %s", cfg.BaseURL)
	}
	if cfg.TokenURL != defaultTokenURL {
		t.Fatalf("unexpected token url: %s", cfg.TokenURL)
	}
}

func TestBuildRefreshRequest(t *testing.T) {
	cfg := &Config{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		RefreshToken: "refresh-1",
		TokenURL:     "https://example.com/oauth/token",
	}
	req, err := BuildRefreshRequest(context.Background(), cfg)
	if err != nil {
		t.Fatalf("build refresh request failed: %v", err)
	}
	user, pass, ok := req.BasicAuth()
	if !ok || user != "client-1" || pass != "secret-1" {
		t.Fatalf("expected basic auth of client credentials")
	}
	body, _ := io.ReadAll(req.Body)
	values, _ := url.ParseQuery(string(body))
	if values.Get("grant_type") != "refresh_token" {
		t.Fatalf("unexpected grant type: %s", values.Get("grant_type"))
	}
	if values.Get("refresh_token") != "refresh-1" {
		t.Fatalf("unexpected refresh token: %s", values.Get("refresh_token"))
	}
}

func TestBuildRefreshRequestIncompleteCredentials(t *testing.T) {
	cfg := &Config{ClientID: "client-1", TokenURL: "https://example.com/oauth/token"}
	if _, err := BuildRefreshRequest(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for incomplete credentials")
	}
}

func TestCreatePixPayment(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); !strings.HasPrefix(got, "Bearer ") {
			t.Errorf("expected bearer auth, got %s", got)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{
			"id": 12345,
			"status": "pending",
			"point_of_interaction": {"transaction_data": {"qr_code": "00020126PIX"}}
		}`))
	}))
	defer server.Close()

	cfg := &Config{AccessToken: "token", BaseURL: server.URL}
	result, err := CreatePayment(context.Background(), cfg, CreateInput{
		OrderNo:     "PED-1",
		AmountCents: 15000,
		Method:      constants.PaymentMethodPix,
		PayerEmail:  "buyer@example.com",
	})
	if err != nil {
		t.Fatalf("create payment failed: %v", err)
	}
	if result.TransactionID != "12345" {
		t.Fatalf("unexpected transaction id: %s", result.TransactionID)
	}
	if result.PixQRCode != "00020126PIX" {
		t.Fatalf("unexpected qr code: %s", result.PixQRCode)
	}
	if result.Status != constants.PaymentStatusPending {
		t.Fatalf("unexpected status: %s", result.Status)
	}
}

func TestCreatePixPaymentMissingQRCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 12345, "status": "pending"}`))
	}))
	defer server.Close()

	cfg := &Config{AccessToken: "token", BaseURL: server.URL}
	_, err := CreatePayment(context.Background(), cfg, CreateInput{
		OrderNo:     "PED-1",
		AmountCents: 15000,
		Method:      constants.PaymentMethodPix,
	})
	if err != ErrPixCodeMissing {
		t.Fatalf("expected ErrPixCodeMissing, got %v", err)
	}
}

func TestVerifyStatusTransportErrorIsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	cfg := &Config{AccessToken: "token", BaseURL: server.URL}
	result := VerifyStatus(context.Background(), cfg, "12345")
	if result.Success {
		t.Fatalf("expected success=false on transport error")
	}
	if result.Status != constants.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", result.Status)
	}
}

func TestMapStatus(t *testing.T) {
	if got := MapStatus("approved"); got != constants.PaymentStatusApproved {
		t.Fatalf("expected approved, got %s", got)
	}
	if got := MapStatus("rejected"); got != constants.PaymentStatusFailed {
		t.Fatalf("expected failed, got %s", got)
	}
	if got := MapStatus("in_process"); got != constants.PaymentStatusPending {
		t.Fatalf("expected pending, got %s", got)
	}
}
