package repository

import (
	"time"

	"github.com/revendahub/revendahub/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DashboardRepository aggregate queries for the admin overview
type DashboardRepository interface {
	CountOrdersByStatus() (map[string]int64, error)
	SumPaidTotalSince(since time.Time) (decimal.Decimal, error)
	CountUsers() (int64, error)
	CountCartsByStatus() (map[string]int64, error)
}

// GormDashboardRepository GORM implementation
type GormDashboardRepository struct {
	db *gorm.DB
}

// NewDashboardRepository creates the dashboard repository
func NewDashboardRepository(db *gorm.DB) *GormDashboardRepository {
	return &GormDashboardRepository{db: db}
}

type statusCountRow struct {
	Status string
	Count  int64
}

// CountOrdersByStatus groups live orders by status
func (r *GormDashboardRepository) CountOrdersByStatus() (map[string]int64, error) {
	rows := make([]statusCountRow, 0)
	if err := r.db.Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// SumPaidTotalSince sums totals of orders paid after the cutoff
func (r *GormDashboardRepository) SumPaidTotalSince(since time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	if err := r.db.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("paid_at IS NOT NULL AND paid_at >= ?", since).
		Scan(&total).Error; err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// CountUsers counts live buyers
func (r *GormDashboardRepository) CountUsers() (int64, error) {
	var count int64
	if err := r.db.Model(&models.User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountCartsByStatus groups abandoned carts by status
func (r *GormDashboardRepository) CountCartsByStatus() (map[string]int64, error) {
	rows := make([]statusCountRow, 0)
	if err := r.db.Model(&models.AbandonedCart{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
