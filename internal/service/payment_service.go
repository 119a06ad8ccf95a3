package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/revendahub/revendahub/internal/config"
	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/logger"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/payment/ipag"
	"github.com/revendahub/revendahub/internal/payment/mercadopago"
	"github.com/revendahub/revendahub/internal/payment/stripe"
	"github.com/revendahub/revendahub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentService checkout orchestration. Resolves the billing company and
// gateway for the buyer, dispatches to the provider adapter and persists the
// transaction refs on the order. Provider errors propagate verbatim, no
// retries happen here.
type PaymentService struct {
	cfg            *config.Config
	billingService *BillingService
	tokenService   *TokenService
	orderRepo      repository.OrderRepository
	webhookService *WebhookService
}

// NewPaymentService creates the payment service
func NewPaymentService(cfg *config.Config, billingService *BillingService, tokenService *TokenService, orderRepo repository.OrderRepository, webhookService *WebhookService) *PaymentService {
	return &PaymentService{
		cfg:            cfg,
		billingService: billingService,
		tokenService:   tokenService,
		orderRepo:      orderRepo,
		webhookService: webhookService,
	}
}

// CheckoutInput one checkout attempt
type CheckoutInput struct {
	UserID        uint
	State         string // buyer UF, drives company resolution
	Method        string // credit_card / pix
	AmountCents   int64
	Installments  int
	Description   string
	CustomerName  string
	CustomerEmail string
	CustomerCPF   string
	CustomerPhone string
	CardNumber    string
	CardHolder    string
	CardExpiry    string
	CardCVV       string
	CardToken     string // tokenized card for mercadopago
	Details       models.JSON
}

// CheckoutResult normalized checkout outcome
type CheckoutResult struct {
	Order         *models.Order `json:"order"`
	Status        string        `json:"status"`
	TransactionID string        `json:"transaction_id"`
	PixQRCode     string        `json:"pix_qrcode,omitempty"`
	PayURL        string        `json:"pay_url,omitempty"`
}

// Checkout runs one payment attempt end to end.
func (s *PaymentService) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if input.Method != constants.PaymentMethodCreditCard && input.Method != constants.PaymentMethodPix {
		return nil, ErrPaymentMethodInvalid
	}
	if input.AmountCents <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	company, err := s.billingService.ResolveForState(input.State)
	if err != nil {
		return nil, err
	}

	var gateway *models.PaymentGateway
	if company != nil {
		gateway, err = s.billingService.SelectGateway(company.ID, input.Method)
		if err != nil {
			return nil, err
		}
	}

	order := &models.Order{
		OrderNo:       newOrderNo(),
		UserID:        input.UserID,
		Status:        constants.OrderStatusPending,
		PaymentMethod: input.Method,
		Installments:  normalizeInstallments(input.Installments),
		Total:         models.NewMoneyFromDecimal(decimal.New(input.AmountCents, -2)),
		DetailsJSON:   input.Details,
	}
	if company != nil {
		order.CompanyID = company.ID
	}
	if gateway != nil {
		order.GatewayID = gateway.ID
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}

	result, err := s.dispatch(ctx, gateway, order, input)
	if err != nil {
		return nil, err
	}

	order.TransactionID = result.TransactionID
	updates := map[string]interface{}{"transaction_id": result.TransactionID}
	if result.Status == constants.PaymentStatusApproved {
		now := time.Now()
		order.Status = constants.OrderStatusPaid
		order.PaidAt = &now
		updates["paid_at"] = now
	}
	status := order.Status
	if result.Status == constants.PaymentStatusFailed {
		status = constants.OrderStatusCanceled
		order.Status = status
	}
	if err := s.orderRepo.UpdateStatus(order.ID, status, updates); err != nil {
		return nil, ErrOrderUpdateFailed
	}

	if s.webhookService != nil {
		s.webhookService.Fire(constants.WebhookEventOrderCreated, order)
		if order.Status == constants.OrderStatusPaid {
			s.webhookService.Fire(constants.WebhookEventOrderPaid, order)
		}
	}

	result.Order = order
	return result, nil
}

func (s *PaymentService) dispatch(ctx context.Context, gateway *models.PaymentGateway, order *models.Order, input CheckoutInput) (*CheckoutResult, error) {
	if gateway == nil {
		return s.payThroughFallbackIpag(ctx, order, input)
	}
	switch gateway.GatewayType {
	case constants.GatewayTypeIpag:
		cfg, err := ipag.ParseConfig(gateway.CredentialsJSON)
		if err != nil {
			return nil, err
		}
		cfg.Sandbox = cfg.Sandbox || gateway.Sandbox
		return s.payThroughIpag(ctx, cfg, order, input)
	case constants.GatewayTypeMercadoPago:
		return s.payThroughMercadoPago(ctx, gateway, order, input)
	case constants.GatewayTypeStripe:
		return s.payThroughStripe(ctx, gateway, order, input)
	default:
		return nil, fmt.Errorf("unknown gateway type %q", gateway.GatewayType)
	}
}

func (s *PaymentService) payThroughFallbackIpag(ctx context.Context, order *models.Order, input CheckoutInput) (*CheckoutResult, error) {
	fallback := s.cfg.Payment.FallbackIpag
	if strings.TrimSpace(fallback.APIID) == "" || strings.TrimSpace(fallback.APIKey) == "" {
		return nil, ErrNoCompanyForState
	}
	cfg := &ipag.Config{
		APIID:   fallback.APIID,
		APIKey:  fallback.APIKey,
		Sandbox: fallback.Sandbox,
	}
	if err := ipag.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	logger.Infow("checkout_fallback_ipag", "order_no", order.OrderNo, "state", input.State)
	return s.payThroughIpag(ctx, cfg, order, input)
}

func (s *PaymentService) payThroughIpag(ctx context.Context, cfg *ipag.Config, order *models.Order, input CheckoutInput) (*CheckoutResult, error) {
	var result *ipag.Result
	var err error
	if input.Method == constants.PaymentMethodPix {
		result, err = ipag.CreatePixPayment(ctx, cfg, ipag.PixInput{
			OrderID:       order.OrderNo,
			AmountCents:   input.AmountCents,
			CustomerName:  input.CustomerName,
			CustomerCPF:   input.CustomerCPF,
			CustomerPhone: input.CustomerPhone,
		})
	} else {
		result, err = ipag.CreateCardPayment(ctx, cfg, ipag.CardInput{
			OrderID:       order.OrderNo,
			AmountCents:   input.AmountCents,
			CardNumber:    input.CardNumber,
			CardHolder:    input.CardHolder,
			CardExpiry:    input.CardExpiry,
			CardCVV:       input.CardCVV,
			Installments:  normalizeInstallments(input.Installments),
			CustomerName:  input.CustomerName,
			CustomerCPF:   input.CustomerCPF,
			CustomerPhone: input.CustomerPhone,
		})
	}
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{
		Status:        result.Status,
		TransactionID: result.TransactionID,
		PixQRCode:     result.PixQRCode,
	}, nil
}

func (s *PaymentService) payThroughMercadoPago(ctx context.Context, gateway *models.PaymentGateway, order *models.Order, input CheckoutInput) (*CheckoutResult, error) {
	cfg, err := mercadopago.ParseConfig(gateway.CredentialsJSON)
	if err != nil {
		return nil, err
	}
	token, err := s.tokenService.MercadoPagoAccessToken(ctx, gateway)
	if err != nil {
		return nil, err
	}
	cfg.AccessToken = token

	result, err := mercadopago.CreatePayment(ctx, cfg, mercadopago.CreateInput{
		OrderNo:      order.OrderNo,
		AmountCents:  input.AmountCents,
		Method:       input.Method,
		CardToken:    input.CardToken,
		Installments: normalizeInstallments(input.Installments),
		PayerEmail:   input.CustomerEmail,
		PayerName:    input.CustomerName,
		PayerCPF:     input.CustomerCPF,
		Description:  input.Description,
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{
		Status:        result.Status,
		TransactionID: result.TransactionID,
		PixQRCode:     result.PixQRCode,
	}, nil
}

func (s *PaymentService) payThroughStripe(ctx context.Context, gateway *models.PaymentGateway, order *models.Order, input CheckoutInput) (*CheckoutResult, error) {
	if input.Method != constants.PaymentMethodCreditCard {
		return nil, ErrPaymentMethodInvalid
	}
	cfg, err := stripe.ParseConfig(gateway.CredentialsJSON)
	if err != nil {
		return nil, err
	}
	result, err := stripe.CreateCheckoutSession(ctx, cfg, stripe.CreateInput{
		OrderNo:     order.OrderNo,
		AmountCents: input.AmountCents,
		Description: input.Description,
	})
	if err != nil {
		return nil, err
	}
	return &CheckoutResult{
		Status:        result.Status,
		TransactionID: result.TransactionID,
		PayURL:        result.PayURL,
	}, nil
}

// VerifyOrder polls the provider for an order's payment status, marking the
// order paid on approval.
func (s *PaymentService) VerifyOrder(ctx context.Context, orderID uint) (*models.Order, string, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, "", err
	}
	if order == nil {
		return nil, "", ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return order, order.Status, nil
	}
	if order.TransactionID == "" {
		return order, constants.PaymentStatusPending, nil
	}

	status, err := s.consultProvider(ctx, order)
	if err != nil {
		return nil, "", err
	}
	if status == constants.PaymentStatusApproved {
		now := time.Now()
		if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusPaid, map[string]interface{}{"paid_at": now}); err != nil {
			return nil, "", ErrOrderUpdateFailed
		}
		order.Status = constants.OrderStatusPaid
		order.PaidAt = &now
		if s.webhookService != nil {
			s.webhookService.Fire(constants.WebhookEventOrderPaid, order)
		}
	}
	return order, status, nil
}

func (s *PaymentService) consultProvider(ctx context.Context, order *models.Order) (string, error) {
	gateway, cfgErr := s.gatewayForOrder(order)
	if cfgErr != nil {
		return "", cfgErr
	}

	if gateway == nil {
		fallback := s.cfg.Payment.FallbackIpag
		cfg := &ipag.Config{APIID: fallback.APIID, APIKey: fallback.APIKey, Sandbox: fallback.Sandbox}
		if err := ipag.ValidateConfig(cfg); err != nil {
			return "", err
		}
		result := ipag.ConsultStatus(ctx, cfg, order.TransactionID)
		return result.Status, nil
	}

	switch gateway.GatewayType {
	case constants.GatewayTypeIpag:
		cfg, err := ipag.ParseConfig(gateway.CredentialsJSON)
		if err != nil {
			return "", err
		}
		cfg.Sandbox = cfg.Sandbox || gateway.Sandbox
		result := ipag.ConsultStatus(ctx, cfg, order.TransactionID)
		return result.Status, nil
	case constants.GatewayTypeMercadoPago:
		cfg, err := mercadopago.ParseConfig(gateway.CredentialsJSON)
		if err != nil {
			return "", err
		}
		token, err := s.tokenService.MercadoPagoAccessToken(ctx, gateway)
		if err != nil {
			return "", err
		}
		cfg.AccessToken = token
		result := mercadopago.VerifyStatus(ctx, cfg, order.TransactionID)
		return result.Status, nil
	case constants.GatewayTypeStripe:
		cfg, err := stripe.ParseConfig(gateway.CredentialsJSON)
		if err != nil {
			return "", err
		}
		result := stripe.VerifyStatus(ctx, cfg, order.TransactionID)
		return result.Status, nil
	default:
		return "", fmt.Errorf("unknown gateway type %q", gateway.GatewayType)
	}
}

func (s *PaymentService) gatewayForOrder(order *models.Order) (*models.PaymentGateway, error) {
	if order.GatewayID == 0 {
		return nil, nil
	}
	return s.billingService.GatewayByID(order.GatewayID)
}

// PollPendingOrders consults every pending order carrying a transaction id.
// Per-order failures are logged and do not stop the pass.
func (s *PaymentService) PollPendingOrders(ctx context.Context, batchSize int) (int, error) {
	if batchSize <= 0 {
		batchSize = s.cfg.Sweep.OrderPollBatchSize
	}
	orders, err := s.orderRepo.ListPendingForPoll(batchSize)
	if err != nil {
		return 0, err
	}
	confirmed := 0
	for i := range orders {
		_, status, err := s.VerifyOrder(ctx, orders[i].ID)
		if err != nil {
			logger.Warnw("order_poll_verify_failed", "order_id", orders[i].ID, "error", err)
			continue
		}
		if status == constants.PaymentStatusApproved {
			confirmed++
		}
	}
	return confirmed, nil
}

// HandleIpagCallback processes an asynchronous iPag notification body.
// The normalized TID locates the order; approval marks it paid.
func (s *PaymentService) HandleIpagCallback(raw []byte) (*models.Order, error) {
	normalized := ipag.Normalize(raw)
	if normalized.TransactionID == "" {
		return nil, fmt.Errorf("callback carries no transaction id")
	}

	order, err := s.findOrderByTransaction(normalized.TransactionID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Status != constants.OrderStatusPending {
		return order, nil
	}
	if normalized.Status != constants.PaymentStatusApproved {
		logger.Infow("ipag_callback_not_approved",
			"order_no", order.OrderNo,
			"status", normalized.Status,
			"message", normalized.Message,
		)
		return order, nil
	}

	now := time.Now()
	if err := s.orderRepo.UpdateStatus(order.ID, constants.OrderStatusPaid, map[string]interface{}{"paid_at": now}); err != nil {
		return nil, ErrOrderUpdateFailed
	}
	order.Status = constants.OrderStatusPaid
	order.PaidAt = &now
	if s.webhookService != nil {
		s.webhookService.Fire(constants.WebhookEventOrderPaid, order)
	}
	return order, nil
}

func (s *PaymentService) findOrderByTransaction(transactionID string) (*models.Order, error) {
	return s.orderRepo.GetByTransactionID(transactionID)
}

func normalizeInstallments(installments int) int {
	if installments < 1 {
		return 1
	}
	if installments > 12 {
		return 12
	}
	return installments
}

func newOrderNo() string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return "RVD" + id[:13]
}
