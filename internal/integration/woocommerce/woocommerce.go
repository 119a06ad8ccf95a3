package woocommerce

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
)

var (
	ErrConfigInvalid   = errors.New("woocommerce config invalid")
	ErrRequestFailed   = errors.New("woocommerce request failed")
	ErrResponseInvalid = errors.New("woocommerce response invalid")
)

const (
	apiPrefix      = "/wp-json/wc/v3"
	defaultTimeout = 30 * time.Second
)

// Config WooCommerce REST credentials stored on integration rows.
type Config struct {
	StoreURL       string `json:"store_url"`
	ConsumerKey    string `json:"consumer_key"`
	ConsumerSecret string `json:"consumer_secret"`
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
	cfg.StoreURL = strings.TrimRight(strings.TrimSpace(cfg.StoreURL), "/")
	cfg.ConsumerKey = strings.TrimSpace(cfg.ConsumerKey)
	cfg.ConsumerSecret = strings.TrimSpace(cfg.ConsumerSecret)
	return &cfg, nil
}

// ValidateConfig checks credential completeness.
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: config is nil", ErrConfigInvalid)
	}
	if cfg.StoreURL == "" {
		return fmt.Errorf("%w: store_url is required", ErrConfigInvalid)
	}
	if cfg.ConsumerKey == "" || cfg.ConsumerSecret == "" {
		return fmt.Errorf("%w: consumer_key and consumer_secret are required", ErrConfigInvalid)
	}
	return nil
}

// Client WooCommerce REST v3 client for one store.
type Client struct {
	cfg        *Config
	httpClient *http.Client
}

func NewClient(cfg *Config) (*Client, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}, nil
}

// Ping verifies the credentials with a one-item product listing.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.doJSON(ctx, http.MethodGet, "/products?per_page=1", nil)
	return err
}

// CreateOrder creates a store order from an arbitrary payload.
func (c *Client) CreateOrder(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
	raw, err := c.doJSON(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: order payload is not an object", ErrResponseInvalid)
	}
	return obj, nil
}

// UpdateOrder patches an existing store order.
func (c *Client) UpdateOrder(ctx context.Context, orderID int64, payload map[string]interface{}) (map[string]interface{}, error) {
	raw, err := c.doJSON(ctx, http.MethodPut, "/orders/"+strconv.FormatInt(orderID, 10), payload)
	if err != nil {
		return nil, err
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: order payload is not an object", ErrResponseInvalid)
	}
	return obj, nil
}

// UpdateOrderStatus sets only the order status.
func (c *Client) UpdateOrderStatus(ctx context.Context, orderID int64, status string) (map[string]interface{}, error) {
	return c.UpdateOrder(ctx, orderID, map[string]interface{}{"status": status})
}

// AddOrderNote attaches a note to a store order.
func (c *Client) AddOrderNote(ctx context.Context, orderID int64, note string, customerVisible bool) error {
	path := "/orders/" + strconv.FormatInt(orderID, 10) + "/notes"
	_, err := c.doJSON(ctx, http.MethodPost, path, map[string]interface{}{
		"note":          note,
		"customer_note": customerVisible,
	})
	return err
}

// ListProducts fetches a page of products.
func (c *Client) ListProducts(ctx context.Context, page, perPage int) ([]map[string]interface{}, error) {
	query := url.Values{}
	if page > 0 {
		query.Set("page", strconv.Itoa(page))
	}
	if perPage > 0 {
		query.Set("per_page", strconv.Itoa(perPage))
	}
	path := "/products"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	raw, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	items, ok := raw.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%w: product listing is not an array", ErrResponseInvalid)
	}
	products := make([]map[string]interface{}, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]interface{}); ok {
			products = append(products, obj)
		}
	}
	return products, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload map[string]interface{}) (interface{}, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.StoreURL+apiPrefix+path, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.SetBasicAuth(c.cfg.ConsumerKey, c.cfg.ConsumerSecret)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, readErrorMessage(data))
	}
	var raw interface{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
		}
	}
	return raw, nil
}

func readErrorMessage(data []byte) string {
	var payload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	if len(data) > 200 {
		data = data[:200]
	}
	return string(data)
}
