package repository

import (
	"errors"

	"github.com/revendahub/revendahub/internal/models"

	"gorm.io/gorm"
)

// BillingCompanyRepository billing company data access interface
type BillingCompanyRepository interface {
	GetByID(id uint) (*models.BillingCompany, error)
	GetDefault() (*models.BillingCompany, error)
	ListActive() ([]models.BillingCompany, error)
	List(filter BillingCompanyListFilter) ([]models.BillingCompany, int64, error)
	Create(company *models.BillingCompany) error
	Update(company *models.BillingCompany) error
	UpdateBlingJSON(id uint, blob models.JSON) error
	Delete(id uint) error
}

// GormBillingCompanyRepository GORM implementation
type GormBillingCompanyRepository struct {
	db *gorm.DB
}

// NewBillingCompanyRepository creates the billing company repository
func NewBillingCompanyRepository(db *gorm.DB) *GormBillingCompanyRepository {
	return &GormBillingCompanyRepository{db: db}
}

// GetByID fetches one company with its gateways
func (r *GormBillingCompanyRepository) GetByID(id uint) (*models.BillingCompany, error) {
	var company models.BillingCompany
	if err := r.db.Preload("Gateways").First(&company, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// GetDefault fetches the first active default company
func (r *GormBillingCompanyRepository) GetDefault() (*models.BillingCompany, error) {
	var company models.BillingCompany
	err := r.db.Preload("Gateways").
		Where("is_default = ? AND is_active = ?", true, true).
		Order("id ASC").
		First(&company).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &company, nil
}

// ListActive fetches all active companies ordered by id, gateways preloaded.
// State resolution iterates this list in insertion order.
func (r *GormBillingCompanyRepository) ListActive() ([]models.BillingCompany, error) {
	companies := make([]models.BillingCompany, 0)
	err := r.db.Preload("Gateways").
		Where("is_active = ?", true).
		Order("id ASC").
		Find(&companies).Error
	if err != nil {
		return nil, err
	}
	return companies, nil
}

// List admin listing with filters
func (r *GormBillingCompanyRepository) List(filter BillingCompanyListFilter) ([]models.BillingCompany, int64, error) {
	var companies []models.BillingCompany
	query := r.db.Model(&models.BillingCompany{})

	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		query = query.Where("name LIKE ? OR cnpj LIKE ?", like, like)
	}
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.State != "" {
		// states is a serialized JSON array of uppercase UF codes; the cast
		// makes LIKE work on both the sqlite blob and the postgres json column
		query = query.Where("CAST(states AS TEXT) LIKE ?", "%\""+filter.State+"\"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Preload("Gateways").Order("id ASC").Find(&companies).Error; err != nil {
		return nil, 0, err
	}
	return companies, total, nil
}

// Create creates a company
func (r *GormBillingCompanyRepository) Create(company *models.BillingCompany) error {
	return r.db.Create(company).Error
}

// Update saves a company
func (r *GormBillingCompanyRepository) Update(company *models.BillingCompany) error {
	return r.db.Save(company).Error
}

// UpdateBlingJSON persists only the Bling credential blob
func (r *GormBillingCompanyRepository) UpdateBlingJSON(id uint, blob models.JSON) error {
	return r.db.Model(&models.BillingCompany{}).
		Where("id = ?", id).
		Update("bling_json", blob).Error
}

// Delete soft-deletes a company
func (r *GormBillingCompanyRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.BillingCompany{}, id).Error
}
