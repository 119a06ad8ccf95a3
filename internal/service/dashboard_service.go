package service

import (
	"time"

	"github.com/revendahub/revendahub/internal/repository"

	"github.com/shopspring/decimal"
)

// DashboardService admin overview aggregates
type DashboardService struct {
	dashboardRepo repository.DashboardRepository
}

// NewDashboardService creates the dashboard service
func NewDashboardService(dashboardRepo repository.DashboardRepository) *DashboardService {
	return &DashboardService{dashboardRepo: dashboardRepo}
}

// DashboardOverview counters shown on the admin landing page
type DashboardOverview struct {
	OrdersByStatus map[string]int64 `json:"orders_by_status"`
	Revenue30Days  decimal.Decimal  `json:"revenue_30_days"`
	UserCount      int64            `json:"user_count"`
	CartsByStatus  map[string]int64 `json:"carts_by_status"`
}

// Overview collects the landing page counters
func (s *DashboardService) Overview() (*DashboardOverview, error) {
	orders, err := s.dashboardRepo.CountOrdersByStatus()
	if err != nil {
		return nil, err
	}
	revenue, err := s.dashboardRepo.SumPaidTotalSince(time.Now().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	users, err := s.dashboardRepo.CountUsers()
	if err != nil {
		return nil, err
	}
	carts, err := s.dashboardRepo.CountCartsByStatus()
	if err != nil {
		return nil, err
	}
	return &DashboardOverview{
		OrdersByStatus: orders,
		Revenue30Days:  revenue,
		UserCount:      users,
		CartsByStatus:  carts,
	}, nil
}
