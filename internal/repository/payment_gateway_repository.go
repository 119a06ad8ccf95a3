package repository

import (
	"errors"

	"github.com/revendahub/revendahub/internal/models"

	"gorm.io/gorm"
)

// PaymentGatewayRepository payment gateway data access interface
type PaymentGatewayRepository interface {
	GetByID(id uint) (*models.PaymentGateway, error)
	ListByCompany(companyID uint, activeOnly bool) ([]models.PaymentGateway, error)
	List(filter PaymentGatewayListFilter) ([]models.PaymentGateway, int64, error)
	Create(gateway *models.PaymentGateway) error
	Update(gateway *models.PaymentGateway) error
	UpdateCredentials(id uint, blob models.JSON) error
	Delete(id uint) error
}

// GormPaymentGatewayRepository GORM implementation
type GormPaymentGatewayRepository struct {
	db *gorm.DB
}

// NewPaymentGatewayRepository creates the payment gateway repository
func NewPaymentGatewayRepository(db *gorm.DB) *GormPaymentGatewayRepository {
	return &GormPaymentGatewayRepository{db: db}
}

// GetByID fetches one gateway
func (r *GormPaymentGatewayRepository) GetByID(id uint) (*models.PaymentGateway, error) {
	var gateway models.PaymentGateway
	if err := r.db.First(&gateway, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &gateway, nil
}

// ListByCompany fetches a company's gateways ordered by priority.
// Ties resolve by insertion order.
func (r *GormPaymentGatewayRepository) ListByCompany(companyID uint, activeOnly bool) ([]models.PaymentGateway, error) {
	gateways := make([]models.PaymentGateway, 0)
	query := r.db.Where("company_id = ?", companyID)
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("priority DESC, id ASC").Find(&gateways).Error; err != nil {
		return nil, err
	}
	return gateways, nil
}

// List admin listing with filters
func (r *GormPaymentGatewayRepository) List(filter PaymentGatewayListFilter) ([]models.PaymentGateway, int64, error) {
	var gateways []models.PaymentGateway
	query := r.db.Model(&models.PaymentGateway{})

	if filter.CompanyID != 0 {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.GatewayType != "" {
		query = query.Where("gateway_type = ?", filter.GatewayType)
	}
	if filter.Method != "" {
		query = query.Where("CAST(supported_methods AS TEXT) LIKE ?", "%\""+filter.Method+"\"%")
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("priority DESC, id ASC").Find(&gateways).Error; err != nil {
		return nil, 0, err
	}
	return gateways, total, nil
}

// Create creates a gateway
func (r *GormPaymentGatewayRepository) Create(gateway *models.PaymentGateway) error {
	return r.db.Create(gateway).Error
}

// Update saves a gateway
func (r *GormPaymentGatewayRepository) Update(gateway *models.PaymentGateway) error {
	return r.db.Save(gateway).Error
}

// UpdateCredentials persists only the credential blob
func (r *GormPaymentGatewayRepository) UpdateCredentials(id uint, blob models.JSON) error {
	return r.db.Model(&models.PaymentGateway{}).
		Where("id = ?", id).
		Update("credentials_json", blob).Error
}

// Delete soft-deletes a gateway
func (r *GormPaymentGatewayRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.PaymentGateway{}, id).Error
}
