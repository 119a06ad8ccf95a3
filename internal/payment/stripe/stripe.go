package stripe

import (
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
	ErrConfigInvalid   = errors.New("stripe config invalid")
	ErrRequestFailed   = errors.New("stripe request failed")
	ErrResponseInvalid = errors.New("stripe response invalid")
)

const (
	defaultAPIBaseURL = "https://api.stripe.com"
	defaultTimeout    = 12 * time.Second
)

// Config Stripe account credentials.
type Config struct {
	SecretKey  string `json:"secret_key"`
	APIBaseURL string `json:"api_base_url"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`
}

// CreateInput checkout session creation request.
type CreateInput struct {
	OrderNo     string
	AmountCents int64
	Currency    string
	Description string
}

// CreateResult checkout session creation outcome.
type CreateResult struct {
	Status        string
	TransactionID string
	PayURL        string
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

// ValidateConfig checks credential completeness.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if strings.TrimSpace(cfg.SecretKey) == "" {
		return fmt.Errorf("%w: secret_key is required", ErrConfigInvalid)
	}
	return nil
}

func (c *Config) normalize() {
	c.SecretKey = strings.TrimSpace(c.SecretKey)
	c.APIBaseURL = strings.TrimRight(strings.TrimSpace(c.APIBaseURL), "/")
	if c.APIBaseURL == "" {
		c.APIBaseURL = defaultAPIBaseURL
	}
	c.SuccessURL = strings.TrimSpace(c.SuccessURL)
	c.CancelURL = strings.TrimSpace(c.CancelURL)
}

// CreateCheckoutSession opens a hosted checkout session for a card payment.
func CreateCheckoutSession(ctx context.Context, cfg *Config, input CreateInput) (*CreateResult, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if input.OrderNo == "" || input.AmountCents <= 0 {
		return nil, fmt.Errorf("%w: order no and amount are required", ErrConfigInvalid)
	}
	currency := strings.ToLower(strings.TrimSpace(input.Currency))
	if currency == "" {
		currency = "brl"
	}
	description := strings.TrimSpace(input.Description)
	if description == "" {
		description = input.OrderNo
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("client_reference_id", input.OrderNo)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(input.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", description)
	if cfg.SuccessURL != "" {
		form.Set("success_url", cfg.SuccessURL)
	}
	if cfg.CancelURL != "" {
		form.Set("cancel_url", cfg.CancelURL)
	}

	raw, status, err := doFormRequest(ctx, cfg, "/v1/checkout/sessions", form)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrRequestFailed, readString(raw, "error", "message"))
	}
	sessionID := readString(raw, "id")
	payURL := readString(raw, "url")
	if sessionID == "" || payURL == "" {
		return nil, ErrResponseInvalid
	}
	return &CreateResult{
		Status:        constants.PaymentStatusPending,
		TransactionID: sessionID,
		PayURL:        payURL,
		Raw:           raw,
	}, nil
}

// VerifyStatus polls a checkout session. Transport failures yield pending.
func VerifyStatus(ctx context.Context, cfg *Config, sessionID string) *StatusResult {
	pending := &StatusResult{
		Success:       false,
		Status:        constants.PaymentStatusPending,
		TransactionID: sessionID,
	}
	if err := ValidateConfig(cfg); err != nil {
		pending.Message = err.Error()
		return pending
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.APIBaseURL+"/v1/checkout/sessions/"+url.PathEscape(sessionID), nil)
	if err != nil {
		pending.Message = err.Error()
		return pending
	}
	req.SetBasicAuth(cfg.SecretKey, "")
	client := &http.Client{Timeout: defaultTimeout}
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
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		pending.Message = err.Error()
		return pending
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		pending.Message = readString(raw, "error", "message")
		return pending
	}
	return &StatusResult{
		Success:       true,
		Status:        MapPaymentStatus(readString(raw, "payment_status")),
		TransactionID: sessionID,
		Message:       readString(raw, "status"),
	}
}

// MapPaymentStatus translates a session payment_status into the normalized set.
func MapPaymentStatus(paymentStatus string) string {
	switch strings.ToLower(strings.TrimSpace(paymentStatus)) {
	case "paid":
		return constants.PaymentStatusApproved
	default:
		return constants.PaymentStatusPending
	}
}

func doFormRequest(ctx context.Context, cfg *Config, path string, form url.Values) (map[string]interface{}, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.SetBasicAuth(cfg.SecretKey, "")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	client := &http.Client{Timeout: defaultTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	var raw map[string]interface{}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
		}
	}
	return raw, resp.StatusCode, nil
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
