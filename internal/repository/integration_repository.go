package repository

import (
	"errors"
	"time"

	"github.com/revendahub/revendahub/internal/models"

	"gorm.io/gorm"
)

// IntegrationRepository integration credential data access interface
type IntegrationRepository interface {
	GetByType(integrationType string) (*models.Integration, error)
	List() ([]models.Integration, error)
	Upsert(integrationType string, credentials models.JSON, isActive bool) (*models.Integration, error)
	RecordTest(id uint, at time.Time, ok bool) error
	Delete(id uint) error
}

// GormIntegrationRepository GORM implementation
type GormIntegrationRepository struct {
	db *gorm.DB
}

// NewIntegrationRepository creates the integration repository
func NewIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// GetByType fetches the record for one integration type
func (r *GormIntegrationRepository) GetByType(integrationType string) (*models.Integration, error) {
	var integration models.Integration
	if err := r.db.Where("integration_type = ?", integrationType).First(&integration).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &integration, nil
}

// List fetches all integration records
func (r *GormIntegrationRepository) List() ([]models.Integration, error) {
	integrations := make([]models.Integration, 0)
	if err := r.db.Order("integration_type ASC").Find(&integrations).Error; err != nil {
		return nil, err
	}
	return integrations, nil
}

// Upsert writes the single record per integration type
func (r *GormIntegrationRepository) Upsert(integrationType string, credentials models.JSON, isActive bool) (*models.Integration, error) {
	integration, err := r.GetByType(integrationType)
	if err != nil {
		return nil, err
	}
	if integration == nil {
		integration = &models.Integration{
			IntegrationType: integrationType,
			CredentialsJSON: credentials,
			IsActive:        isActive,
		}
		if err := r.db.Create(integration).Error; err != nil {
			return nil, err
		}
		return integration, nil
	}

	integration.CredentialsJSON = credentials
	integration.IsActive = isActive
	if err := r.db.Save(integration).Error; err != nil {
		return nil, err
	}
	return integration, nil
}

// RecordTest stores the outcome of a connection test
func (r *GormIntegrationRepository) RecordTest(id uint, at time.Time, ok bool) error {
	return r.db.Model(&models.Integration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_test_at": at,
			"last_test_ok": ok,
		}).Error
}

// Delete removes an integration record
func (r *GormIntegrationRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.Integration{}, id).Error
}
