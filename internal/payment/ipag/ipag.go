package ipag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/revendahub/revendahub/internal/constants"
)

const (
	productionBaseURL = "https://api.ipag.com.br"
	sandboxBaseURL    = "https://sandbox.ipag.com.br"

	// the provider rejects order identifiers longer than 16 characters
	maxOrderIDLen = 16
)

var (
	ErrConfigInvalid   = errors.New("ipag config invalid")
	ErrRequestFailed   = errors.New("ipag request failed")
	ErrResponseInvalid = errors.New("ipag response invalid")
	ErrPixCodeMissing  = errors.New("ipag pix qrcode missing")
)

// successMessages are the provider replies treated as definitive approval.
var successMessages = map[string]bool{
	"aprovado":  true,
	"approved":  true,
	"capturado": true,
	"captured":  true,
	"sucesso":   true,
	"success":   true,
	"paid":      true,
}

// paidStatuses are the consult replies treated as paid during polling.
var paidStatuses = map[string]bool{
	"approved":  true,
	"capturado": true,
	"paid":      true,
	"sucesso":   true,
}

// Config iPag account credentials.
type Config struct {
	APIID   string `json:"api_id"`
	APIKey  string `json:"api_key"`
	BaseURL string `json:"base_url"`
	Sandbox bool   `json:"sandbox"`
}

// ParseConfig builds a Config from a stored credential blob.
func ParseConfig(raw map[string]interface{}) (*Config, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty config", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal config failed", ErrConfigInvalid)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshal config failed", ErrConfigInvalid)
	}
	cfg.normalize()
	return &cfg, nil
}

// ValidateConfig checks credential completeness.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIID) == "" {
		return fmt.Errorf("%w: api_id is required", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return fmt.Errorf("%w: api_key is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.APIID = strings.TrimSpace(c.APIID)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		if c.Sandbox {
			c.BaseURL = sandboxBaseURL
		} else {
			c.BaseURL = productionBaseURL
		}
	}
}

// CardInput card payment request.
type CardInput struct {
	OrderID       string
	AmountCents   int64
	CardNumber    string
	CardHolder    string
	CardExpiry    string // MM/YYYY
	CardCVV       string
	Installments  int
	CustomerName  string
	CustomerCPF   string
	CustomerPhone string
}

// PixInput PIX payment request.
type PixInput struct {
	OrderID       string
	AmountCents   int64
	CustomerName  string
	CustomerCPF   string
	CustomerPhone string
	ExpiresInMin  int
}

// Result normalized payment outcome.
type Result struct {
	Status        string // approved / pending / failed
	TransactionID string
	Message       string
	PixQRCode     string
	Raw           map[string]interface{}
}

// StatusResult consult outcome.
type StatusResult struct {
	Success       bool
	Status        string // approved / pending
	TransactionID string
	Message       string
}

var nonDigits = regexp.MustCompile(`\D`)

// OnlyDigits strips every non-numeric character, used for CPF and phone.
func OnlyDigits(value string) string {
	return nonDigits.ReplaceAllString(value, "")
}

// CardBrand infers the brand from the first digit of the sanitized number.
func CardBrand(cardNumber string) string {
	digits := OnlyDigits(cardNumber)
	if digits == "" {
		return "visa"
	}
	switch digits[0] {
	case '5':
		return "mastercard"
	case '4':
		return "visa"
	case '6':
		return "elo"
	case '3':
		return "amex"
	default:
		return "visa"
	}
}

// FormatAmount converts integer centavos into the provider's 2-decimal string.
func FormatAmount(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}

// TruncateOrderID shortens an order identifier to the provider limit.
func TruncateOrderID(orderID string) string {
	trimmed := strings.TrimSpace(orderID)
	if len(trimmed) > maxOrderIDLen {
		return trimmed[:maxOrderIDLen]
	}
	return trimmed
}

// BuildCardForm assembles the form-encoded card payment body.
func BuildCardForm(cfg *Config, input CardInput) url.Values {
	installments := input.Installments
	if installments < 1 {
		installments = 1
	}
	form := url.Values{}
	form.Set("identificacao", cfg.APIID)
	form.Set("pedido", TruncateOrderID(input.OrderID))
	form.Set("valor", FormatAmount(input.AmountCents))
	form.Set("metodo", CardBrand(input.CardNumber))
	form.Set("num_cartao", OnlyDigits(input.CardNumber))
	form.Set("nome_cartao", strings.TrimSpace(input.CardHolder))
	form.Set("validade", strings.TrimSpace(input.CardExpiry))
	form.Set("cvv_cartao", OnlyDigits(input.CardCVV))
	form.Set("parcelas", strconv.Itoa(installments))
	form.Set("nome", strings.TrimSpace(input.CustomerName))
	form.Set("documento", OnlyDigits(input.CustomerCPF))
	form.Set("fone", OnlyDigits(input.CustomerPhone))
	return form
}

// BuildPixForm assembles the form-encoded PIX generation body.
func BuildPixForm(cfg *Config, input PixInput) url.Values {
	expires := input.ExpiresInMin
	if expires <= 0 {
		expires = 60
	}
	form := url.Values{}
	form.Set("identificacao", cfg.APIID)
	form.Set("pedido", TruncateOrderID(input.OrderID))
	form.Set("valor", FormatAmount(input.AmountCents))
	form.Set("metodo", "pix")
	form.Set("nome", strings.TrimSpace(input.CustomerName))
	form.Set("documento", OnlyDigits(input.CustomerCPF))
	form.Set("fone", OnlyDigits(input.CustomerPhone))
	form.Set("vencto", strconv.Itoa(expires))
	return form
}

// CreateCardPayment issues a card charge and normalizes the reply.
func CreateCardPayment(ctx context.Context, cfg *Config, input CardInput) (*Result, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.OrderID == "" || input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: order id and amount are required", ErrConfigInvalid)
	}
	body, err := postForm(ctx, cfg, "/payment", BuildCardForm(cfg, input))
	if err != nil {
		return nil, err
	}
	normalized := Normalize(body)
	return &Result{
		Status:        normalized.Status,
		TransactionID: normalized.TransactionID,
		Message:       normalized.Message,
		Raw:           normalized.Fields,
	}, nil
}

// CreatePixPayment generates a PIX charge. A missing QR code text is a hard
// error regardless of HTTP success.
func CreatePixPayment(ctx context.Context, cfg *Config, input PixInput) (*Result, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.OrderID == "" || input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: order id and amount are required", ErrConfigInvalid)
	}
	body, err := postForm(ctx, cfg, "/payment", BuildPixForm(cfg, input))
	if err != nil {
		return nil, err
	}
	normalized := Normalize(body)
	qrCode := resolvePixCode(normalized.Fields)
	if qrCode == "" {
		return nil, ErrPixCodeMissing
	}
	status := normalized.Status
	if status == constants.PaymentStatusFailed {
		status = constants.PaymentStatusPending
	}
	return &Result{
		Status:        status,
		TransactionID: normalized.TransactionID,
		Message:       normalized.Message,
		PixQRCode:     qrCode,
		Raw:           normalized.Fields,
	}, nil
}

// ConsultStatus polls the provider for a transaction. A transport failure is
// reported as a pending result, never as a payment failure.
func ConsultStatus(ctx context.Context, cfg *Config, transactionID string) *StatusResult {
	pending := &StatusResult{
		Success:       false,
		Status:        constants.PaymentStatusPending,
		TransactionID: transactionID,
	}
	if err := ValidateConfig(cfg); err != nil {
		pending.Message = err.Error()
		return pending
	}
	if strings.TrimSpace(transactionID) == "" {
		pending.Message = "transaction id is empty"
		return pending
	}

	endpoint := cfg.BaseURL + "/consult?tid=" + url.QueryEscape(transactionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		pending.Message = err.Error()
		return pending
	}
	req.SetBasicAuth(cfg.APIID, cfg.APIKey)
	req.Header.Set("Accept", "application/json, text/xml, */*")
	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		pending.Message = err.Error()
		return pending
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		pending.Message = err.Error()
		return pending
	}

	normalized := Normalize(body)
	message := strings.ToLower(strings.TrimSpace(normalized.Message))
	status := constants.PaymentStatusPending
	if paidStatuses[message] || normalized.Status == constants.PaymentStatusApproved {
		status = constants.PaymentStatusApproved
	}
	tid := normalized.TransactionID
	if tid == "" {
		tid = transactionID
	}
	return &StatusResult{
		Success:       true,
		Status:        status,
		TransactionID: tid,
		Message:       normalized.Message,
	}
}

func postForm(ctx context.Context, cfg *Config, path string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(cfg.APIID, cfg.APIKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, text/xml, */*")
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		normalized := Normalize(body)
		if normalized.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrRequestFailed, normalized.Message)
		}
		return nil, fmt.Errorf("%w: http %d", ErrRequestFailed, resp.StatusCode)
	}
	return body, nil
}

func resolvePixCode(fields map[string]interface{}) string {
	if pix, ok := fields["pix"].(map[string]interface{}); ok {
		if code := stringField(pix, "qrcode"); code != "" {
			return code
		}
	}
	for _, key := range []string{"pix_code", "pix_qrcode", "qrcode"} {
		if code := stringField(fields, key); code != "" {
			return code
		}
	}
	return ""
}

func stringField(fields map[string]interface{}, key string) string {
	if fields == nil {
		return ""
	}
	switch v := fields[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	}
	return ""
}
