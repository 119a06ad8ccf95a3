package repository

import (
	"errors"

	"github.com/revendahub/revendahub/internal/models"

	"gorm.io/gorm"
)

// OrderRepository order data access interface
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByOrderNo(orderNo string) (*models.Order, error)
	GetByTransactionID(transactionID string) (*models.Order, error)
	ListByOrderNo(orderNo string) ([]models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	ListPendingForPoll(limit int) ([]models.Order, error)
	Update(order *models.Order) error
	UpdateStatus(id uint, status string, updates map[string]interface{}) error
	DeleteByIDs(ids []uint) (int64, error)
}

// GormOrderRepository GORM implementation
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates the order repository
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create creates an order
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID fetches one order
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByOrderNo fetches the oldest order for a number.
// Numbers are not unique, duplicates surface via ListByOrderNo.
func (r *GormOrderRepository) GetByOrderNo(orderNo string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Where("order_no = ?", orderNo).Order("id ASC").First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByTransactionID fetches the order holding a provider transaction id
func (r *GormOrderRepository) GetByTransactionID(transactionID string) (*models.Order, error) {
	if transactionID == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("transaction_id = ?", transactionID).Order("id ASC").First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// ListByOrderNo fetches every order sharing a number
func (r *GormOrderRepository) ListByOrderNo(orderNo string) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.db.Where("order_no = ?", orderNo).Order("id ASC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// List admin listing with filters
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.UserID != 0 {
		query = query.Where("user_id = ?", filter.UserID)
	}
	if filter.CompanyID != 0 {
		query = query.Where("company_id = ?", filter.CompanyID)
	}
	if filter.GatewayID != 0 {
		query = query.Where("gateway_id = ?", filter.GatewayID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", filter.PaymentMethod)
	}
	if filter.OrderNo != "" {
		query = query.Where("order_no = ?", filter.OrderNo)
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
	if err := query.Order("id DESC").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListPendingForPoll fetches pending orders with a transaction id, oldest first
func (r *GormOrderRepository) ListPendingForPoll(limit int) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	query := r.db.Where("status = ? AND transaction_id <> ''", "pending").Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Update saves an order
func (r *GormOrderRepository) Update(order *models.Order) error {
	return r.db.Save(order).Error
}

// UpdateStatus updates the order status plus extra columns
func (r *GormOrderRepository) UpdateStatus(id uint, status string, updates map[string]interface{}) error {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = status
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// DeleteByIDs soft-deletes a batch of orders and reports rows affected
func (r *GormOrderRepository) DeleteByIDs(ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.Delete(&models.Order{}, ids)
	return result.RowsAffected, result.Error
}
