package repository

import (
	"errors"
	"time"

	"github.com/revendahub/revendahub/internal/models"

	"gorm.io/gorm"
)

// WebhookEndpointRepository webhook endpoint data access interface
type WebhookEndpointRepository interface {
	GetByID(id uint) (*models.WebhookEndpoint, error)
	List() ([]models.WebhookEndpoint, error)
	ListActiveForEvent(event string) ([]models.WebhookEndpoint, error)
	Create(endpoint *models.WebhookEndpoint) error
	Update(endpoint *models.WebhookEndpoint) error
	RecordFired(id uint, at time.Time) error
	Delete(id uint) error
}

// GormWebhookEndpointRepository GORM implementation
type GormWebhookEndpointRepository struct {
	db *gorm.DB
}

// NewWebhookEndpointRepository creates the webhook endpoint repository
func NewWebhookEndpointRepository(db *gorm.DB) *GormWebhookEndpointRepository {
	return &GormWebhookEndpointRepository{db: db}
}

// GetByID fetches one endpoint
func (r *GormWebhookEndpointRepository) GetByID(id uint) (*models.WebhookEndpoint, error) {
	var endpoint models.WebhookEndpoint
	if err := r.db.First(&endpoint, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &endpoint, nil
}

// List fetches all endpoints
func (r *GormWebhookEndpointRepository) List() ([]models.WebhookEndpoint, error) {
	endpoints := make([]models.WebhookEndpoint, 0)
	if err := r.db.Order("id ASC").Find(&endpoints).Error; err != nil {
		return nil, err
	}
	return endpoints, nil
}

// ListActiveForEvent fetches active endpoints subscribed to an event.
// Subscription filtering happens in memory, events is a serialized array.
func (r *GormWebhookEndpointRepository) ListActiveForEvent(event string) ([]models.WebhookEndpoint, error) {
	endpoints := make([]models.WebhookEndpoint, 0)
	if err := r.db.Where("is_active = ?", true).Order("id ASC").Find(&endpoints).Error; err != nil {
		return nil, err
	}
	matched := make([]models.WebhookEndpoint, 0, len(endpoints))
	for _, endpoint := range endpoints {
		if endpoint.SubscribedTo(event) {
			matched = append(matched, endpoint)
		}
	}
	return matched, nil
}

// Create creates an endpoint
func (r *GormWebhookEndpointRepository) Create(endpoint *models.WebhookEndpoint) error {
	return r.db.Create(endpoint).Error
}

// Update saves an endpoint
func (r *GormWebhookEndpointRepository) Update(endpoint *models.WebhookEndpoint) error {
	return r.db.Save(endpoint).Error
}

// RecordFired stamps the last delivery time
func (r *GormWebhookEndpointRepository) RecordFired(id uint, at time.Time) error {
	return r.db.Model(&models.WebhookEndpoint{}).
		Where("id = ?", id).
		Update("last_fired_at", at).Error
}

// Delete removes an endpoint
func (r *GormWebhookEndpointRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.WebhookEndpoint{}, id).Error
}
