package service

import (
	"strings"
	"time"

	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"
)

// OrderService order lifecycle service
type OrderService struct {
	orderRepo      repository.OrderRepository
	webhookService *WebhookService
}

// NewOrderService creates the order service
func NewOrderService(orderRepo repository.OrderRepository, webhookService *WebhookService) *OrderService {
	return &OrderService{
		orderRepo:      orderRepo,
		webhookService: webhookService,
	}
}

var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusPaid:     true,
		constants.OrderStatusCanceled: true,
	},
	constants.OrderStatusPaid: {
		constants.OrderStatusShipped:  true,
		constants.OrderStatusCanceled: true,
		constants.OrderStatusRefunded: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
	},
}

// CanTransition reports whether a status change is allowed
func CanTransition(from, to string) bool {
	return allowedTransitions[from][to]
}

// GetByID fetches one order
func (s *OrderService) GetByID(id uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List lists orders for the dashboard
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// UpdateStatus applies an admin status change, validating the transition and
// firing the matching lifecycle webhook.
func (s *OrderService) UpdateStatus(id uint, status string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status == status {
		return order, nil
	}
	if !CanTransition(order.Status, status) {
		return nil, ErrOrderStatusInvalid
	}

	now := time.Now()
	updates := map[string]interface{}{}
	switch status {
	case constants.OrderStatusPaid:
		updates["paid_at"] = now
	case constants.OrderStatusCanceled:
		updates["canceled_at"] = now
	}
	if err := s.orderRepo.UpdateStatus(id, status, updates); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	order.Status = status

	if s.webhookService != nil {
		s.webhookService.Fire(webhookEventForStatus(status), order)
	}
	return order, nil
}

// UpdateTracking sets shipment tracking fields
func (s *OrderService) UpdateTracking(id uint, trackingCode, trackingURL, carrier string) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	order.TrackingCode = strings.TrimSpace(trackingCode)
	order.TrackingURL = strings.TrimSpace(trackingURL)
	order.Carrier = strings.TrimSpace(carrier)
	if err := s.orderRepo.Update(order); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	return order, nil
}

// DuplicateCleanupResult outcome of one cleanup run
type DuplicateCleanupResult struct {
	OrderNo string `json:"order_no"`
	KeptID  uint   `json:"kept_id"`
	Deleted int64  `json:"deleted"`
}

// CleanupDuplicates removes the duplicates of an order number, keeping the
// best candidate. A row with a confirmed transaction id always survives;
// among rows without one the oldest stays.
func (s *OrderService) CleanupDuplicates(orderNo string) (*DuplicateCleanupResult, error) {
	orders, err := s.orderRepo.ListByOrderNo(orderNo)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrOrderNotFound
	}
	if len(orders) == 1 {
		return &DuplicateCleanupResult{OrderNo: orderNo, KeptID: orders[0].ID, Deleted: 0}, nil
	}

	keep := orders[0]
	for _, candidate := range orders {
		if candidate.TransactionID != "" && keep.TransactionID == "" {
			keep = candidate
		}
	}

	ids := make([]uint, 0, len(orders)-1)
	for _, candidate := range orders {
		if candidate.ID == keep.ID {
			continue
		}
		if candidate.TransactionID != "" {
			// never drop a row tied to a provider transaction
			continue
		}
		ids = append(ids, candidate.ID)
	}

	deleted, err := s.orderRepo.DeleteByIDs(ids)
	if err != nil {
		return nil, err
	}
	logger.Infow("order_duplicates_cleaned", "order_no", orderNo, "kept_id", keep.ID, "deleted", deleted)
	return &DuplicateCleanupResult{OrderNo: orderNo, KeptID: keep.ID, Deleted: deleted}, nil
}

func webhookEventForStatus(status string) string {
	switch status {
	case constants.OrderStatusPaid:
		return constants.WebhookEventOrderPaid
	case constants.OrderStatusShipped:
		return constants.WebhookEventOrderShipped
	case constants.OrderStatusDelivered:
		return constants.WebhookEventOrderDelivered
	case constants.OrderStatusCanceled:
		return constants.WebhookEventOrderCanceled
	case constants.OrderStatusRefunded:
		return constants.WebhookEventOrderRefunded
	default:
		return constants.WebhookEventOrderCreated
	}
}
