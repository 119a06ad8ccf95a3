package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/revendahub/revendahub/internal/constants"
)

var (
	ErrConfigInvalid   = errors.New("mercadopago config invalid")
	ErrRequestFailed   = errors.New("mercadopago request failed")
	ErrResponseInvalid = errors.New("mercadopago response invalid")
	ErrPixCodeMissing  = errors.New("mercadopago pix qrcode missing")
)

const (
	defaultBaseURL  = "https://api.mercadopago.com"
	defaultTokenURL = "https://api.mercadopago.com/oauth/token"
	defaultTimeout  = 15 * time.Second
)

// Config Mercado Pago account credentials. AccessToken is what payment calls
// use; the OAuth fields feed the token refresh flow.
type Config struct {
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	TokenExpiresAt int64  `json:"token_expires_at"`
	BaseURL        string `json:"base_url"`
	TokenURL       string `json:"token_url"`
	Sandbox        bool   `json:"sandbox"`
}

// CanRefresh reports whether the blob carries everything a refresh needs.
func (c *Config) CanRefresh() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// ExpiresWithin reports whether the access token expires inside the window.
func (c *Config) ExpiresWithin(window time.Duration, now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return true
	}
	return time.Unix(c.TokenExpiresAt, 0).Before(now.Add(window))
}

// CreateInput payment creation request.
type CreateInput struct {
	OrderNo      string
	AmountCents  int64
	Method       string // credit_card / pix
	CardToken    string
	Installments int
	PayerEmail   string
	PayerName    string
	PayerCPF     string
	Description  string
}

// CreateResult normalized payment creation outcome.
type CreateResult struct {
	Status        string // approved / pending / failed
	TransactionID string
	PixQRCode     string
	Raw           map[string]interface{}
}

// StatusResult payment status poll outcome.
type StatusResult struct {
	Success       bool
	Status        string
	TransactionID string
	Message       string
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

// ValidateConfig checks credential completeness for payment calls.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return fmt.Errorf("%w: access_token is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.AccessToken = strings.TrimSpace(c.AccessToken)
	c.RefreshToken = strings.TrimSpace(c.RefreshToken)
	c.ClientID = strings.TrimSpace(c.ClientID)
	c.ClientSecret = strings.TrimSpace(c.ClientSecret)
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	c.TokenURL = strings.TrimSpace(c.TokenURL)
	if c.TokenURL == "" {
		c.TokenURL = defaultTokenURL
	}
}

// BuildRefreshRequest assembles the OAuth refresh_token grant request used by
// the token manager. Basic-auth of client_id:client_secret.
func BuildRefreshRequest(ctx context.Context, cfg *Config) (*http.Request, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if cfg.ClientID == "" || cfg.ClientSecret == "" || cfg.RefreshToken == "" {
		return nil, fmt.Errorf("%w: incomplete oauth credentials", ErrConfigInvalid)
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", cfg.RefreshToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.SetBasicAuth(cfg.ClientID, cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// CreatePayment issues a payment through /v1/payments.
func CreatePayment(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.OrderNo == "" || input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: order no and amount are required", ErrConfigInvalid)
	}

	payload := map[string]interface{}{
		"transaction_amount": float64(input.AmountCents) / 100,
		"external_reference": input.OrderNo,
		"description":        input.Description,
		"payer": map[string]interface{}{
			"email": input.PayerEmail,
			"identification": map[string]interface{}{
				"type":   "CPF",
				"number": input.PayerCPF,
			},
		},
	}
	switch input.Method {
	case constants.PaymentMethodPix:
		payload["payment_method_id"] = "pix"
	case constants.PaymentMethodCreditCard:
		if strings.TrimSpace(input.CardToken) == "" {
			return nil, fmt.Errorf("%w: card token is required", ErrConfigInvalid)
		}
		payload["token"] = input.CardToken
		installments := input.Installments
		if installments < 1 {
			installments = 1
		}
		payload["installments"] = installments
	default:
		return nil, fmt.Errorf("%w: unsupported method %s", ErrConfigInvalid, input.Method)
	}

	raw, status, err := doJSONRequest(ctx, cfg, http.MethodPost, "/v1/payments", payload)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, readString(raw, "message"))
	}

	result := &CreateResult{
		Status:        MapStatus(readString(raw, "status")),
		TransactionID: readID(raw),
		Raw:           raw,
	}
	if input.Method == constants.PaymentMethodPix {
		result.PixQRCode = readString(raw, "point_of_interaction", "transaction_data", "qr_code")
		if result.PixQRCode == "" {
			return nil, ErrPixCodeMissing
		}
	}
	return result, nil
}

// VerifyStatus polls a payment. Transport failures yield a pending result.
func VerifyStatus(ctx context.Context, cfg *Config, transactionID string) *StatusResult {
	pending := &StatusResult{
		Success:       false,
		Status:        constants.PaymentStatusPending,
		TransactionID: transactionID,
	}
	if err := ValidateConfig(cfg); err != nil {
		pending.Message = err.Error()
		return pending
	}
	raw, status, err := doJSONRequest(ctx, cfg, http.MethodGet, "/v1/payments/"+url.PathEscape(transactionID), nil)
	if err != nil {
		pending.Message = err.Error()
		return pending
	}
	if status < 200 || status >= 300 {
		pending.Message = readString(raw, "message")
		return pending
	}
	return &StatusResult{
		Success:       true,
		Status:        MapStatus(readString(raw, "status")),
		TransactionID: transactionID,
		Message:       readString(raw, "status_detail"),
	}
}

// MapStatus translates a provider status into the normalized set.
func MapStatus(providerStatus string) string {
	switch strings.ToLower(strings.TrimSpace(providerStatus)) {
	case "approved", "authorized":
		return constants.PaymentStatusApproved
	case "rejected", "cancelled", "refunded", "charged_back":
		return constants.PaymentStatusFailed
	default:
		return constants.PaymentStatusPending
	}
}

func doJSONRequest(ctx context.Context, cfg *Config, method, path string, payload interface{}) (map[string]interface{}, int, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		body = bytes.NewReader(encoded)
	}
	req, err := http.NewRequestWithContext(ctx, method, cfg.BaseURL+path, body)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+cfg.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	client := &http.Client{Timeout: defaultTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	var raw map[string]interface{}
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &raw); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
		}
	}
	return raw, resp.StatusCode, nil
}

func readID(raw map[string]interface{}) string {
	switch v := raw["id"].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatInt(int64(v), 10)
	case json.Number:
		return v.String()
	}
	return ""
}

func readString(raw map[string]interface{}, path ...string) string {
	current := raw
	for i, key := range path {
		if current == nil {
			return ""
		}
		if i == len(path)-1 {
			if value, ok := current[key].(string); ok {
				return strings.TrimSpace(value)
			}
			return ""
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return ""
		}
		current = next
	}
	return ""
}
