package ipag

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/revendahub/revendahub/internal/constants"
)

func TestNormalizeJSONDataWrapper(t *testing.T) {
	raw := []byte(`{"data": {"id_transacao": "X", "status": {"message": "Aprovado"}}}`)
	got := Normalize(raw)
	if got.Status != constants.PaymentStatusApproved {
		t.Fatalf("expected approved, got %s", got.Status)
	}
	if got.TransactionID != "X" {
		t.Fatalf("expected transaction id X, got %s", got.TransactionID)
	}
}

func TestNormalizeJSONRetornoWinsOverData(t *testing.T) {
	raw := []byte(`{"tid": "outer", "data": {"tid": "from-data"}, "retorno": {"tid": "from-retorno"}}`)
	got := Normalize(raw)
	if got.TransactionID != "from-retorno" {
		t.Fatalf("expected retorno wrapper to win, got %s", got.TransactionID)
	}
}

func TestNormalizePseudoXMLStatusCode(t *testing.T) {
	raw := []byte(`<retorno><status code="5">Capturado</status><codigo_transacao>TID-99</codigo_transacao></retorno>`)
	got := Normalize(raw)
	if got.Status != constants.PaymentStatusApproved {
		t.Fatalf("expected approved, got %s", got.Status)
	}
	if got.Code != 5 {
		t.Fatalf("expected code 5, got %d", got.Code)
	}
	if got.TransactionID != "TID-99" {
		t.Fatalf("expected transaction id TID-99, got %s", got.TransactionID)
	}
}

func TestNormalizeAmbiguousResponseIsPending(t *testing.T) {
	raw := []byte(`{"mensagem_transacao": "Em analise", "num_transacao": "T-1"}`)
	got := Normalize(raw)
	if got.Status != constants.PaymentStatusPending {
		t.Fatalf("ambiguous response must be pending, got %s", got.Status)
	}
	if got.TransactionID != "T-1" {
		t.Fatalf("expected transaction id T-1, got %s", got.TransactionID)
	}
}

func TestNormalizePartialApprovalMatch(t *testing.T) {
	got := Normalize([]byte(`{"mensagem_transacao": "Transacao Aprovada com sucesso"}`))
	if got.Status != constants.PaymentStatusApproved {
		t.Fatalf("partial aprovad match must approve, got %s", got.Status)
	}
}

func TestBuildCardFormMastercard(t *testing.T) {
	cfg := &Config{APIID: "id", APIKey: "key"}
	form := BuildCardForm(cfg, CardInput{
		OrderID:       "PED-2024-0001-LONG-SUFFIX",
		AmountCents:   15000,
		CardNumber:    "5555 4444 3333 2222",
		CustomerCPF:   "123.456.789-09",
		CustomerPhone: "(11) 99999-0000",
	})
	if got := form.Get("metodo"); got != "mastercard" {
		t.Fatalf("expected metodo mastercard, got %s", got)
	}
	if got := form.Get("valor"); got != "150.00" {
		t.Fatalf("expected valor 150.00, got %s", got)
	}
	if got := form.Get("pedido"); len(got) != 16 {
		t.Fatalf("expected 16-char order id, got %q (%d)", got, len(got))
	}
	if got := form.Get("documento"); got != "12345678909" {
		t.Fatalf("expected digits-only cpf, got %s", got)
	}
	if got := form.Get("fone"); got != "11999990000" {
		t.Fatalf("expected digits-only phone, got %s", got)
	}
}

func TestCardBrandFirstDigit(t *testing.T) {
	cases := map[string]string{
		"4111111111111111": "visa",
		"5555444433332222": "mastercard",
		"6362970000457013": "elo",
		"378282246310005":  "amex",
		"9999000011112222": "visa",
		"":                 "visa",
	}
	for number, expected := range cases {
		if got := CardBrand(number); got != expected {
			t.Fatalf("card %s: expected %s, got %s", number, expected, got)
		}
	}
}

func TestFormatAmount(t *testing.T) {
	if got := FormatAmount(15000); got != "150.00" {
		t.Fatalf("expected 150.00, got %s", got)
	}
	if got := FormatAmount(199); got != "1.99" {
		t.Fatalf("expected 1.99, got %s", got)
	}
	if got := FormatAmount(5); got != "0.05" {
		t.Fatalf("expected 0.05, got %s", got)
	}
	if got := FormatAmount(-150); got != "-1.50" {
		t.Fatalf("expected -1.50, got %s", got)
	}
	if got := FormatAmount(-50); got != "-0.50" {
		t.Fatalf("expected -0.50, got %s", got)
	}
}

func TestCreatePixPaymentMissingQRCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"retorno": {"id_transacao": "PIX-1", "mensagem_transacao": "gerado"}}`))
	}))
	defer server.Close()

	cfg := &Config{APIID: "id", APIKey: "key", BaseURL: server.URL}
	_, err := CreatePixPayment(context.Background(), cfg, PixInput{OrderID: "PED-1", AmountCents: 1000})
	if !errors.Is(err, ErrPixCodeMissing) {
		t.Fatalf("expected ErrPixCodeMissing, got %v", err)
	}
}

func TestCreatePixPaymentResolvesQRCodeVariants(t *testing.T) {
	bodies := []string{
		`{"pix": {"qrcode": "PIXCODE-A"}, "id_transacao": "T1"}`,
		`{"pix_code": "PIXCODE-B", "id_transacao": "T2"}`,
		`{"pix_qrcode": "PIXCODE-C", "id_transacao": "T3"}`,
		`{"qrcode": "PIXCODE-D", "id_transacao": "T4"}`,
	}
	for _, body := range bodies {
		response := body
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(response))
		}))
		cfg := &Config{APIID: "id", APIKey: "key", BaseURL: server.URL}
		result, err := CreatePixPayment(context.Background(), cfg, PixInput{OrderID: "PED-1", AmountCents: 1000})
		server.Close()
		if err != nil {
			t.Fatalf("body %s: unexpected error: %v", body, err)
		}
		if result.PixQRCode == "" {
			t.Fatalf("body %s: expected qr code", body)
		}
	}
}

func TestConsultStatusTransportErrorIsPending(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // force connection refused

	cfg := &Config{APIID: "id", APIKey: "key", BaseURL: server.URL}
	result := ConsultStatus(context.Background(), cfg, "TID-1")
	if result.Success {
		t.Fatalf("expected success=false on transport error")
	}
	if result.Status != constants.PaymentStatusPending {
		t.Fatalf("transport error must yield pending, got %s", result.Status)
	}
}

func TestConsultStatusPaid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "id" || pass != "key" {
			t.Errorf("expected basic auth credentials")
		}
		_, _ = w.Write([]byte(`<retorno><status code="8">Capturado</status></retorno>`))
	}))
	defer server.Close()

	cfg := &Config{APIID: "id", APIKey: "key", BaseURL: server.URL}
	result := ConsultStatus(context.Background(), cfg, "TID-1")
	if !result.Success {
		t.Fatalf("expected success, got message %s", result.Message)
	}
	if result.Status != constants.PaymentStatusApproved {
		t.Fatalf("expected approved, got %s", result.Status)
	}
}

func TestParseAndValidateConfig(t *testing.T) {
	cfg, err := ParseConfig(map[string]interface{}{
		"api_id":  " merchant-1 ",
		"api_key": " secret ",
		"sandbox": true,
	})
	if err != nil {
		t.Fatalf("parse config failed: %v", err)
	}
	if cfg.APIID != "merchant-1" {
		t.Fatalf("unexpected api id: %s", cfg.APIID)
	}
	if cfg.BaseURL != sandboxBaseURL {
		t.Fatalf("expected sandbox base url, got %s", cfg.BaseURL)
	}
	if err := ValidateConfig(cfg); err != nil {
		t.Fatalf("validate config failed: %v", err)
	}
	if err := ValidateConfig(&Config{APIID: "only-id"}); err == nil {
		t.Fatalf("expected validation error for missing api_key")
	}
}
