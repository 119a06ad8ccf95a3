package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/integration/bling"
	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/payment/mercadopago"
	"github.com/revendahub/revendahub/internal/repository"
)

const (
	// onDemandRefreshWindow tokens closer to expiry than this are refreshed
	// before being handed out
	onDemandRefreshWindow = 5 * time.Minute
	defaultSweepWindow    = time.Hour
)

// TokenService manages OAuth access tokens for Bling (per billing company)
// and Mercado Pago (per gateway). Refresh failures keep the stale token.
type TokenService struct {
	companyRepo repository.BillingCompanyRepository
	gatewayRepo repository.PaymentGatewayRepository
	blingClient *bling.Client
	httpClient  *http.Client
	sweepWindow time.Duration
	now         func() time.Time
}

// NewTokenService creates the token service
func NewTokenService(companyRepo repository.BillingCompanyRepository, gatewayRepo repository.PaymentGatewayRepository, blingClient *bling.Client, sweepWindowMinutes int) *TokenService {
	window := defaultSweepWindow
	if sweepWindowMinutes > 0 {
		window = time.Duration(sweepWindowMinutes) * time.Minute
	}
	return &TokenService{
		companyRepo: companyRepo,
		gatewayRepo: gatewayRepo,
		blingClient: blingClient,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		sweepWindow: window,
		now:         time.Now,
	}
}

// BlingAccessToken returns a usable Bling access token for a company,
// refreshing first when the stored one expires within five minutes.
func (s *TokenService) BlingAccessToken(ctx context.Context, company *models.BillingCompany) (string, error) {
	if company == nil {
		return "", ErrNotFound
	}
	creds, err := bling.ParseCredentials(company.BlingJSON)
	if err != nil {
		return "", err
	}
	if !creds.CanRefresh() {
		if creds.AccessToken != "" && !creds.ExpiresWithin(onDemandRefreshWindow, s.now()) {
			return creds.AccessToken, nil
		}
		return "", fmt.Errorf("%w: bling company %d", ErrTokenIncomplete, company.ID)
	}
	if !creds.ExpiresWithin(onDemandRefreshWindow, s.now()) {
		return creds.AccessToken, nil
	}

	result, err := s.blingClient.RefreshToken(ctx, creds)
	if err != nil {
		return "", err
	}
	creds.Apply(result, s.now())
	if err := s.persistBlingCredentials(company, creds); err != nil {
		return "", err
	}
	return creds.AccessToken, nil
}

// MercadoPagoAccessToken returns a usable Mercado Pago access token for a
// gateway, refreshing on the same five minute window.
func (s *TokenService) MercadoPagoAccessToken(ctx context.Context, gateway *models.PaymentGateway) (string, error) {
	if gateway == nil {
		return "", ErrNotFound
	}
	cfg, err := mercadopago.ParseConfig(gateway.CredentialsJSON)
	if err != nil {
		return "", err
	}
	if !cfg.CanRefresh() {
		// static access tokens never rotate
		if cfg.AccessToken != "" {
			return cfg.AccessToken, nil
		}
		return "", fmt.Errorf("%w: mercadopago gateway %d", ErrTokenIncomplete, gateway.ID)
	}
	if !cfg.ExpiresWithin(onDemandRefreshWindow, s.now()) {
		return cfg.AccessToken, nil
	}

	if err := s.refreshMercadoPago(ctx, cfg); err != nil {
		return "", err
	}
	if err := s.persistGatewayConfig(gateway, cfg); err != nil {
		return "", err
	}
	return cfg.AccessToken, nil
}

// SweepResult counts of one sweep pass
type SweepResult struct {
	Checked   int `json:"checked"`
	Refreshed int `json:"refreshed"`
	Failed    int `json:"failed"`
}

// SweepExpiring refreshes every refreshable credential set expiring within
// the sweep window. Failures are logged per record and do not stop the pass.
func (s *TokenService) SweepExpiring(ctx context.Context) (SweepResult, error) {
	var result SweepResult
	now := s.now()

	companies, err := s.companyRepo.ListActive()
	if err != nil {
		return result, err
	}
	for i := range companies {
		company := &companies[i]
		creds, err := bling.ParseCredentials(company.BlingJSON)
		if err != nil || !creds.CanRefresh() {
			continue
		}
		if !creds.ExpiresWithin(s.sweepWindow, now) {
			continue
		}
		result.Checked++
		refreshResult, err := s.blingClient.RefreshToken(ctx, creds)
		if err != nil {
			result.Failed++
			logger.Warnw("token_sweep_bling_refresh_failed", "company_id", company.ID, "error", err)
			continue
		}
		creds.Apply(refreshResult, s.now())
		if err := s.persistBlingCredentials(company, creds); err != nil {
			result.Failed++
			logger.Warnw("token_sweep_bling_persist_failed", "company_id", company.ID, "error", err)
			continue
		}
		result.Refreshed++
	}

	gateways, _, err := s.gatewayRepo.List(repository.PaymentGatewayListFilter{
		GatewayType: constants.GatewayTypeMercadoPago,
		ActiveOnly:  true,
	})
	if err != nil {
		return result, err
	}
	for i := range gateways {
		gateway := &gateways[i]
		cfg, err := mercadopago.ParseConfig(gateway.CredentialsJSON)
		if err != nil || !cfg.CanRefresh() {
			continue
		}
		if !cfg.ExpiresWithin(s.sweepWindow, now) {
			continue
		}
		result.Checked++
		if err := s.refreshMercadoPago(ctx, cfg); err != nil {
			result.Failed++
			logger.Warnw("token_sweep_mercadopago_refresh_failed", "gateway_id", gateway.ID, "error", err)
			continue
		}
		if err := s.persistGatewayConfig(gateway, cfg); err != nil {
			result.Failed++
			logger.Warnw("token_sweep_mercadopago_persist_failed", "gateway_id", gateway.ID, "error", err)
			continue
		}
		result.Refreshed++
	}

	return result, nil
}

func (s *TokenService) refreshMercadoPago(ctx context.Context, cfg *mercadopago.Config) error {
	req, err := mercadopago.BuildRefreshRequest(ctx, cfg)
	if err != nil {
		return err
	}
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("mercadopago token endpoint status %d", resp.StatusCode)
	}
	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}
	if payload.AccessToken == "" {
		return fmt.Errorf("mercadopago token endpoint returned no access_token")
	}
	cfg.AccessToken = payload.AccessToken
	if payload.RefreshToken != "" {
		cfg.RefreshToken = payload.RefreshToken
	}
	cfg.TokenExpiresAt = s.now().Add(time.Duration(payload.ExpiresIn) * time.Second).Unix()
	return nil
}

func (s *TokenService) persistBlingCredentials(company *models.BillingCompany, creds *bling.Credentials) error {
	blob, err := mergeJSONMap(company.BlingJSON, creds)
	if err != nil {
		return err
	}
	company.BlingJSON = blob
	return s.companyRepo.UpdateBlingJSON(company.ID, blob)
}

func (s *TokenService) persistGatewayConfig(gateway *models.PaymentGateway, cfg *mercadopago.Config) error {
	blob, err := mergeJSONMap(gateway.CredentialsJSON, cfg)
	if err != nil {
		return err
	}
	gateway.CredentialsJSON = blob
	return s.gatewayRepo.UpdateCredentials(gateway.ID, blob)
}

// mergeJSONMap overlays the serialized value onto a copy of the existing
// blob, keeping keys the refresh does not touch.
func mergeJSONMap(existing models.JSON, value interface{}) (models.JSON, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	var refreshed map[string]interface{}
	if err := json.Unmarshal(data, &refreshed); err != nil {
		return nil, err
	}
	blob := make(models.JSON, len(existing)+len(refreshed))
	for key, val := range existing {
		blob[key] = val
	}
	for key, val := range refreshed {
		blob[key] = val
	}
	return blob, nil
}
