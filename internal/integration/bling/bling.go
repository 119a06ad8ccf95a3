package bling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var (
	ErrConfigInvalid   = errors.New("bling config invalid")
	ErrRequestFailed   = errors.New("bling request failed")
	ErrResponseInvalid = errors.New("bling response invalid")
	ErrUnsafePath      = errors.New("bling danfe path outside storage dir")
)

const (
	defaultTokenURL = "https://www.bling.com.br/Api/v3/oauth/token"
	defaultAPIURL   = "https://api.bling.com.br/Api/v3"
	defaultTimeout  = 30 * time.Second
)

// orderIDPattern filenames derive only from this charset.
var orderIDPattern = regexp.MustCompile(`[^A-Za-z0-9_-]`)

// Credentials OAuth blob stored on billing company rows.
type Credentials struct {
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	AccessToken    string `json:"access_token"`
	RefreshToken   string `json:"refresh_token"`
	TokenExpiresAt int64  `json:"token_expires_at"`
}

// ParseCredentials builds Credentials from a stored JSON blob.
func ParseCredentials(raw map[string]interface{}) (*Credentials, error) {
	if raw == nil {
		return nil, fmt.Errorf("%w: empty credentials", ErrConfigInvalid)
	}
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal credentials failed", ErrConfigInvalid)
	}
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("%w: unmarshal credentials failed", ErrConfigInvalid)
	}
	creds.ClientID = strings.TrimSpace(creds.ClientID)
	creds.ClientSecret = strings.TrimSpace(creds.ClientSecret)
	creds.AccessToken = strings.TrimSpace(creds.AccessToken)
	creds.RefreshToken = strings.TrimSpace(creds.RefreshToken)
	return &creds, nil
}

// CanRefresh reports whether the blob carries everything a refresh needs.
func (c *Credentials) CanRefresh() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
}

// ExpiresWithin reports whether the access token expires inside the window.
func (c *Credentials) ExpiresWithin(window time.Duration, now time.Time) bool {
	if c == nil || c.AccessToken == "" {
		return true
	}
	return time.Unix(c.TokenExpiresAt, 0).Before(now.Add(window))
}

// RefreshResult fields returned by the OAuth token endpoint.
type RefreshResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	TokenType    string `json:"token_type"`
}

// Client Bling v3 REST client for one billing company.
type Client struct {
	tokenURL   string
	apiURL     string
	httpClient *http.Client
}

// NewClient uses package defaults for empty URLs.
func NewClient(tokenURL, apiURL string) *Client {
	if strings.TrimSpace(tokenURL) == "" {
		tokenURL = defaultTokenURL
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultAPIURL
	}
	return &Client{
		tokenURL:   tokenURL,
		apiURL:     strings.TrimRight(apiURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// BuildRefreshRequest prepares the refresh_token grant request.
// Incomplete credentials fail before any request is built.
func (c *Client) BuildRefreshRequest(ctx context.Context, creds *Credentials) (*http.Request, error) {
	if !creds.CanRefresh() {
		return nil, fmt.Errorf("%w: client_id, client_secret and refresh_token are required", ErrConfigInvalid)
	}
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", creds.RefreshToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.SetBasicAuth(creds.ClientID, creds.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// RefreshToken exchanges the refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, creds *Credentials) (*RefreshResult, error) {
	req, err := c.BuildRefreshRequest(ctx, creds)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: token endpoint status %d: %s", ErrRequestFailed, resp.StatusCode, truncate(string(body), 200))
	}
	var result RefreshResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	if result.AccessToken == "" {
		return nil, fmt.Errorf("%w: token endpoint returned no access_token", ErrResponseInvalid)
	}
	return &result, nil
}

// Apply merges a refresh result back into the stored blob.
// Bling rotates refresh tokens, an absent one keeps the previous value.
func (c *Credentials) Apply(result *RefreshResult, now time.Time) {
	c.AccessToken = result.AccessToken
	if result.RefreshToken != "" {
		c.RefreshToken = result.RefreshToken
	}
	c.TokenExpiresAt = now.Add(time.Duration(result.ExpiresIn) * time.Second).Unix()
}

// GetOrder fetches a sales order by Bling id.
func (c *Client) GetOrder(ctx context.Context, accessToken, orderID string) (map[string]interface{}, error) {
	return c.getJSON(ctx, accessToken, "/pedidos/vendas/"+url.PathEscape(orderID))
}

// ListOrders fetches a page of sales orders.
func (c *Client) ListOrders(ctx context.Context, accessToken string, page int) (map[string]interface{}, error) {
	path := "/pedidos/vendas"
	if page > 0 {
		path = fmt.Sprintf("%s?pagina=%d", path, page)
	}
	return c.getJSON(ctx, accessToken, path)
}

// GetNFe fetches an invoice by Bling id.
func (c *Client) GetNFe(ctx context.Context, accessToken, nfeID string) (map[string]interface{}, error) {
	return c.getJSON(ctx, accessToken, "/nfe/"+url.PathEscape(nfeID))
}

// DanfePath resolves the local storage path for an order's DANFE PDF.
// The order id is reduced to a safe charset and the resolved path must stay
// under dir, anything else is rejected before any filesystem access.
func DanfePath(dir, orderID string) (string, error) {
	trimmed := strings.TrimSpace(orderID)
	if trimmed == "" || strings.Contains(trimmed, "..") || strings.ContainsAny(trimmed, `/\`) {
		return "", fmt.Errorf("%w: order id %q", ErrUnsafePath, orderID)
	}
	sanitized := orderIDPattern.ReplaceAllString(trimmed, "")
	if sanitized == "" {
		return "", fmt.Errorf("%w: order id %q yields empty filename", ErrUnsafePath, orderID)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	full, err := filepath.Abs(filepath.Join(root, "danfe_"+sanitized+".pdf"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsafePath, err)
	}
	if full != root && !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrUnsafePath, full)
	}
	return full, nil
}

// DownloadDanfe streams the DANFE PDF for an invoice into the storage dir
// and returns the local file path.
func (c *Client) DownloadDanfe(ctx context.Context, accessToken, orderID, pdfURL, dir string) (string, error) {
	target, err := DanfePath(dir, orderID)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pdfURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: danfe download status %d", ErrRequestFailed, resp.StatusCode)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	file, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer file.Close()
	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	return target, nil
}

func (c *Client) getJSON(ctx context.Context, accessToken, path string) (map[string]interface{}, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, fmt.Errorf("%w: access token is required", ErrConfigInvalid)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: status %d: %s", ErrRequestFailed, resp.StatusCode, truncate(string(body), 200))
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseInvalid, err)
	}
	return raw, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
