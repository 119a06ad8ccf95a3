package service

import (
	"time"

	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/queue"
	"github.com/revendahub/revendahub/internal/repository"
)

// CartService abandoned cart follow-up service
type CartService struct {
	cartRepo       repository.AbandonedCartRepository
	queueClient    *queue.Client
	webhookService *WebhookService
}

// NewCartService creates the cart service
func NewCartService(cartRepo repository.AbandonedCartRepository, queueClient *queue.Client, webhookService *WebhookService) *CartService {
	return &CartService{
		cartRepo:       cartRepo,
		queueClient:    queueClient,
		webhookService: webhookService,
	}
}

// GetByID fetches one cart
func (s *CartService) GetByID(id uint) (*models.AbandonedCart, error) {
	cart, err := s.cartRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	return cart, nil
}

// List lists carts for the dashboard
func (s *CartService) List(filter repository.CartListFilter) ([]models.AbandonedCart, int64, error) {
	return s.cartRepo.List(filter)
}

// Track registers a fresh abandoned cart
func (s *CartService) Track(userID uint, items models.JSON) (*models.AbandonedCart, error) {
	cart := &models.AbandonedCart{
		UserID:    userID,
		ItemsJSON: items,
		Status:    constants.CartStatusAbandoned,
	}
	if err := s.cartRepo.Create(cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// MarkRecovered links a cart to the order that closed it
func (s *CartService) MarkRecovered(id uint, orderID uint) (*models.AbandonedCart, error) {
	cart, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if cart.Status != constants.CartStatusAbandoned {
		return nil, ErrCartStatusInvalid
	}
	updates := map[string]interface{}{}
	if orderID != 0 {
		updates["recovered_order_id"] = orderID
	}
	if err := s.cartRepo.UpdateStatus(id, constants.CartStatusRecovered, updates); err != nil {
		return nil, err
	}
	cart.Status = constants.CartStatusRecovered
	cart.RecoveredOrderID = orderID
	return cart, nil
}

// MarkExpired closes a cart that will not be chased anymore
func (s *CartService) MarkExpired(id uint) (*models.AbandonedCart, error) {
	cart, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if cart.Status != constants.CartStatusAbandoned {
		return nil, ErrCartStatusInvalid
	}
	if err := s.cartRepo.UpdateStatus(id, constants.CartStatusExpired, nil); err != nil {
		return nil, err
	}
	cart.Status = constants.CartStatusExpired
	return cart, nil
}

// TriggerRecovery enqueues a recovery message for one cart through the
// chosen channel. The actual send happens in the worker.
func (s *CartService) TriggerRecovery(id uint, channel string) error {
	if channel != constants.RecoveryChannelEmail && channel != constants.RecoveryChannelWhatsApp {
		return ErrRecoveryChannelInvalid
	}
	cart, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if cart.Status != constants.CartStatusAbandoned {
		return ErrCartStatusInvalid
	}
	if s.queueClient.Enabled() {
		return s.queueClient.EnqueueCartRecovery(queue.CartRecoveryPayload{CartID: id, Channel: channel})
	}
	return s.SendRecovery(id, channel)
}

// SendRecovery fires the recovery webhook and flips the sent flag for the
// channel. Runs inside the worker for queued triggers.
func (s *CartService) SendRecovery(id uint, channel string) error {
	cart, err := s.cartRepo.GetByID(id)
	if err != nil {
		return err
	}
	if cart == nil || cart.Status != constants.CartStatusAbandoned {
		return nil
	}

	if s.webhookService != nil {
		s.webhookService.Fire(constants.WebhookEventCartRecovery, map[string]interface{}{
			"cart_id": cart.ID,
			"user_id": cart.UserID,
			"channel": channel,
			"items":   cart.ItemsJSON,
		})
	}

	switch channel {
	case constants.RecoveryChannelEmail:
		cart.EmailSent = true
	case constants.RecoveryChannelWhatsApp:
		cart.WhatsAppSent = true
	}
	if err := s.cartRepo.Update(cart); err != nil {
		return err
	}
	logger.Infow("cart_recovery_sent", "cart_id", cart.ID, "channel", channel, "at", time.Now())
	return nil
}
