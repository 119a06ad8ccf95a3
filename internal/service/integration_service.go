package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/integration/bling"
	"github.com/revendahub/revendahub/internal/integration/woocommerce"
	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"
)

// secretFields maps integration type to the credential keys that must be
// masked when the record is read back.
var secretFields = map[string][]string{
	constants.IntegrationTypeWooCommerce: {"consumer_secret"},
	constants.IntegrationTypeSMTP:        {"password"},
	constants.IntegrationTypeBling:       {"client_secret", "access_token", "refresh_token"},
	constants.IntegrationTypeMeta:        {"access_token"},
	constants.IntegrationTypeMercadoPago: {"access_token", "client_secret", "refresh_token"},
}

// requiredFields maps integration type to the credential keys that must be
// present before the record is accepted.
var requiredFields = map[string][]string{
	constants.IntegrationTypeWooCommerce: {"store_url", "consumer_key", "consumer_secret"},
	constants.IntegrationTypeSMTP:        {"host", "port", "username", "password"},
	constants.IntegrationTypeBling:       {"client_id", "client_secret"},
	constants.IntegrationTypeMeta:        {"access_token"},
	constants.IntegrationTypeMercadoPago: {"access_token"},
}

// IntegrationService manages third-party integration credentials
type IntegrationService struct {
	integrationRepo repository.IntegrationRepository
	now             func() time.Time
}

// NewIntegrationService creates the integration service
func NewIntegrationService(integrationRepo repository.IntegrationRepository) *IntegrationService {
	return &IntegrationService{
		integrationRepo: integrationRepo,
		now:             time.Now,
	}
}

// IntegrationView integration record with secrets masked
type IntegrationView struct {
	ID          uint                   `json:"id"`
	Type        string                 `json:"type"`
	Credentials map[string]interface{} `json:"credentials"`
	IsActive    bool                   `json:"is_active"`
	LastTestAt  *time.Time             `json:"last_test_at"`
	LastTestOK  bool                   `json:"last_test_ok"`
}

// Get returns the masked record for one integration type
func (s *IntegrationService) Get(integrationType string) (*IntegrationView, error) {
	if _, ok := requiredFields[integrationType]; !ok {
		return nil, ErrIntegrationUnknown
	}
	integration, err := s.integrationRepo.GetByType(integrationType)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		return nil, ErrNotFound
	}
	return s.toView(integration), nil
}

// List returns every stored integration, masked
func (s *IntegrationService) List() ([]IntegrationView, error) {
	integrations, err := s.integrationRepo.List()
	if err != nil {
		return nil, err
	}
	views := make([]IntegrationView, 0, len(integrations))
	for i := range integrations {
		views = append(views, *s.toView(&integrations[i]))
	}
	return views, nil
}

// Save validates and stores credentials for one integration type. Masked
// values submitted back untouched keep the stored secret.
func (s *IntegrationService) Save(integrationType string, credentials map[string]interface{}, isActive bool) (*IntegrationView, error) {
	required, ok := requiredFields[integrationType]
	if !ok {
		return nil, ErrIntegrationUnknown
	}

	existing, err := s.integrationRepo.GetByType(integrationType)
	if err != nil {
		return nil, err
	}
	merged := s.mergeMasked(integrationType, existing, credentials)

	for _, field := range required {
		if merged[field] == nil || strings.TrimSpace(fmt.Sprint(merged[field])) == "" {
			return nil, fmt.Errorf("%w: missing %s", ErrIntegrationIncomplete, field)
		}
	}

	integration, err := s.integrationRepo.Upsert(integrationType, models.JSON(merged), isActive)
	if err != nil {
		return nil, err
	}
	logger.Infow("integration_saved", "type", integrationType, "active", isActive)
	return s.toView(integration), nil
}

// Delete removes the record for one integration type
func (s *IntegrationService) Delete(integrationType string) error {
	integration, err := s.integrationRepo.GetByType(integrationType)
	if err != nil {
		return err
	}
	if integration == nil {
		return ErrNotFound
	}
	return s.integrationRepo.Delete(integration.ID)
}

// Test runs a connection check for one integration and records the outcome
func (s *IntegrationService) Test(ctx context.Context, integrationType string) (bool, error) {
	integration, err := s.integrationRepo.GetByType(integrationType)
	if err != nil {
		return false, err
	}
	if integration == nil {
		return false, ErrNotFound
	}

	testErr := s.runTest(ctx, integration)
	ok := testErr == nil
	if err := s.integrationRepo.RecordTest(integration.ID, s.now(), ok); err != nil {
		logger.Warnw("integration_test_record_failed", "type", integrationType, "error", err)
	}
	if testErr != nil {
		logger.Warnw("integration_test_failed", "type", integrationType, "error", testErr)
	}
	return ok, testErr
}

func (s *IntegrationService) runTest(ctx context.Context, integration *models.Integration) error {
	creds := map[string]interface{}(integration.CredentialsJSON)
	switch integration.IntegrationType {
	case constants.IntegrationTypeWooCommerce:
		cfg, err := woocommerce.ParseConfig(creds)
		if err != nil {
			return err
		}
		client, err := woocommerce.NewClient(cfg)
		if err != nil {
			return err
		}
		return client.Ping(ctx)
	case constants.IntegrationTypeBling:
		parsed, err := bling.ParseCredentials(creds)
		if err != nil {
			return err
		}
		if !parsed.CanRefresh() && strings.TrimSpace(parsed.AccessToken) == "" {
			return ErrIntegrationIncomplete
		}
		return nil
	case constants.IntegrationTypeSMTP, constants.IntegrationTypeMeta, constants.IntegrationTypeMercadoPago:
		for _, field := range requiredFields[integration.IntegrationType] {
			if creds[field] == nil || strings.TrimSpace(fmt.Sprint(creds[field])) == "" {
				return fmt.Errorf("%w: missing %s", ErrIntegrationIncomplete, field)
			}
		}
		return nil
	default:
		return ErrIntegrationUnknown
	}
}

// mergeMasked replaces masked placeholder values with the stored secret so
// that re-saving a record without retyping secrets keeps them intact.
func (s *IntegrationService) mergeMasked(integrationType string, existing *models.Integration, incoming map[string]interface{}) map[string]interface{} {
	merged := make(map[string]interface{}, len(incoming))
	for k, v := range incoming {
		merged[k] = v
	}
	if existing == nil {
		return merged
	}
	stored := map[string]interface{}(existing.CredentialsJSON)
	for _, field := range secretFields[integrationType] {
		value, ok := merged[field].(string)
		if !ok {
			continue
		}
		if isMaskedValue(value, fmt.Sprint(stored[field])) {
			merged[field] = stored[field]
		}
	}
	return merged
}

func (s *IntegrationService) toView(integration *models.Integration) *IntegrationView {
	masked := make(map[string]interface{}, len(integration.CredentialsJSON))
	for k, v := range integration.CredentialsJSON {
		masked[k] = v
	}
	for _, field := range secretFields[integration.IntegrationType] {
		if value, ok := masked[field].(string); ok && value != "" {
			masked[field] = maskSecret(value)
		}
	}
	return &IntegrationView{
		ID:          integration.ID,
		Type:        integration.IntegrationType,
		Credentials: masked,
		IsActive:    integration.IsActive,
		LastTestAt:  integration.LastTestAt,
		LastTestOK:  integration.LastTestOK,
	}
}

// maskSecret keeps the last four characters for recognition
func maskSecret(value string) string {
	if len(value) <= 4 {
		return "••••"
	}
	return "••••" + value[len(value)-4:]
}

func isMaskedValue(incoming, stored string) bool {
	return strings.HasPrefix(incoming, "••••") && incoming == maskSecret(stored)
}
