package repository

import (
	"errors"

	"github.com/revendahub/revendahub/internal/models"

	"gorm.io/gorm"
)

// AbandonedCartRepository abandoned cart data access interface
type AbandonedCartRepository interface {
	GetByID(id uint) (*models.AbandonedCart, error)
	List(filter CartListFilter) ([]models.AbandonedCart, int64, error)
	Create(cart *models.AbandonedCart) error
	Update(cart *models.AbandonedCart) error
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	Delete(id uint) error
}

// GormAbandonedCartRepository GORM implementation
type GormAbandonedCartRepository struct {
	db *gorm.DB
}

// NewAbandonedCartRepository creates the abandoned cart repository
func NewAbandonedCartRepository(db *gorm.DB) *GormAbandonedCartRepository {
	return &GormAbandonedCartRepository{db: db}
}

// GetByID fetches one cart
func (r *GormAbandonedCartRepository) GetByID(id uint) (*models.AbandonedCart, error) {
	var cart models.AbandonedCart
	if err := r.db.First(&cart, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cart, nil
}

// List admin listing with filters
func (r *GormAbandonedCartRepository) List(filter CartListFilter) ([]models.AbandonedCart, int64, error) {
	var carts []models.AbandonedCart
	query := r.db.Model(&models.AbandonedCart{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id DESC").Find(&carts).Error; err != nil {
		return nil, 0, err
	}
	return carts, total, nil
}

// Create creates a cart
func (r *GormAbandonedCartRepository) Create(cart *models.AbandonedCart) error {
	return r.db.Create(cart).Error
}

// Update saves a cart
func (r *GormAbandonedCartRepository) Update(cart *models.AbandonedCart) error {
	return r.db.Save(cart).Error
}

// UpdateStatus updates the cart status plus extra columns
func (r *GormAbandonedCartRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.AbandonedCart{}).Where("id = ?", id).Updates(updates).Error
}

// Delete soft-deletes a cart
func (r *GormAbandonedCartRepository) Delete(id uint) error {
	if id == 0 {
		return nil
	}
	return r.db.Delete(&models.AbandonedCart{}, id).Error
}
