package public

import (
	"errors"
	"io"
	"strings"

	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/service"

	"github.com/gin-gonic/gin"
)

const callbackBodyLimit = 1 << 20

// GetGatewayOptions returns the payment methods available for a buyer state
func (h *Handler) GetGatewayOptions(c *gin.Context) {
	state := strings.ToUpper(strings.TrimSpace(c.Query("state")))
	if len(state) != 2 {
		respondError(c, response.CodeBadRequest, "state is required", nil)
		return
	}

	company, err := h.BillingService.ResolveForState(state)
	if err != nil {
		respondError(c, response.CodeInternal, "gateway resolution failed", err)
		return
	}
	if company == nil {
		// no company configured, checkout falls back to the env iPag account
		methods := []string{}
		if h.Config.Payment.FallbackIpag.APIID != "" {
			methods = []string{constants.PaymentMethodCreditCard, constants.PaymentMethodPix}
		}
		response.Success(c, gin.H{
			"company": nil,
			"methods": methods,
		})
		return
	}

	options, err := h.BillingService.GatewayOptions(company)
	if err != nil {
		respondError(c, response.CodeInternal, "gateway resolution failed", err)
		return
	}
	methods := make([]string, 0, len(options))
	for _, option := range options {
		methods = append(methods, option.Method)
	}
	response.Success(c, gin.H{
		"company": gin.H{
			"id":   company.ID,
			"name": company.Name,
			"cnpj": company.CNPJ,
		},
		"methods": methods,
	})
}

// CreatePaymentRequest checkout payload
type CreatePaymentRequest struct {
	UserID        uint                   `json:"user_id"`
	State         string                 `json:"state" binding:"required"`
	Method        string                 `json:"method" binding:"required"`
	AmountCents   int64                  `json:"amount_cents" binding:"required"`
	Installments  int                    `json:"installments"`
	Description   string                 `json:"description"`
	CustomerName  string                 `json:"customer_name" binding:"required"`
	CustomerEmail string                 `json:"customer_email" binding:"required,email"`
	CustomerCPF   string                 `json:"customer_cpf"`
	CustomerPhone string                 `json:"customer_phone"`
	CardNumber    string                 `json:"card_number"`
	CardHolder    string                 `json:"card_holder"`
	CardExpiry    string                 `json:"card_expiry"`
	CardCVV       string                 `json:"card_cvv"`
	CardToken     string                 `json:"card_token"`
	Details       map[string]interface{} `json:"details"`
}

// CreatePayment runs a checkout attempt
func (h *Handler) CreatePayment(c *gin.Context) {
	var req CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	result, err := h.PaymentService.Checkout(c.Request.Context(), service.CheckoutInput{
		UserID:        req.UserID,
		State:         req.State,
		Method:        req.Method,
		AmountCents:   req.AmountCents,
		Installments:  req.Installments,
		Description:   req.Description,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerCPF:   req.CustomerCPF,
		CustomerPhone: req.CustomerPhone,
		CardNumber:    req.CardNumber,
		CardHolder:    req.CardHolder,
		CardExpiry:    req.CardExpiry,
		CardCVV:       req.CardCVV,
		CardToken:     req.CardToken,
		Details:       models.JSON(req.Details),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPaymentMethodInvalid):
			respondError(c, response.CodeBadRequest, "payment method not supported", nil)
		case errors.Is(err, service.ErrNoCompanyForState):
			respondError(c, response.CodeBadRequest, "no billing available for this state", nil)
		case errors.Is(err, service.ErrNoGatewayForMethod):
			respondError(c, response.CodeBadRequest, "payment method unavailable", nil)
		default:
			respondError(c, response.CodeInternal, "payment failed", err)
		}
		return
	}

	response.Success(c, result)
}

// GetPaymentStatus polls the status of an order by number, consulting the
// provider when the order is still pending.
func (h *Handler) GetPaymentStatus(c *gin.Context) {
	orderNo := strings.TrimSpace(c.Param("order_no"))
	if orderNo == "" {
		respondError(c, response.CodeBadRequest, "order number is required", nil)
		return
	}
	order, err := h.OrderRepo.GetByOrderNo(orderNo)
	if err != nil {
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	if order == nil {
		respondError(c, response.CodeNotFound, "order not found", nil)
		return
	}

	status := order.Status
	verified, verifiedStatus, err := h.PaymentService.VerifyOrder(c.Request.Context(), order.ID)
	if err != nil {
		// provider consult failure leaves the stored pending state visible
		requestLog(c).Warnw("payment_status_consult_failed", "order_no", orderNo, "error", err)
	} else {
		order = verified
		status = verifiedStatus
	}
	response.Success(c, gin.H{
		"order_no":       order.OrderNo,
		"status":         order.Status,
		"payment_status": status,
		"paid_at":        order.PaidAt,
	})
}

// IpagCallback receives iPag payment notifications, JSON or the legacy
// pseudo-XML body, and confirms the matching order.
func (h *Handler) IpagCallback(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, callbackBodyLimit))
	if err != nil {
		respondError(c, response.CodeBadRequest, "unreadable callback body", err)
		return
	}

	order, err := h.PaymentService.HandleIpagCallback(raw)
	if err != nil {
		requestLog(c).Warnw("ipag_callback_rejected", "error", err)
		respondError(c, response.CodeBadRequest, "callback rejected", nil)
		return
	}

	response.Success(c, gin.H{
		"order_no": order.OrderNo,
		"status":   order.Status,
	})
}
