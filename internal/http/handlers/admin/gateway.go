package admin

import (
	"strconv"
	"strings"

	"github.com/revendahub/revendahub/internal/constants"
	handlershared "github.com/revendahub/revendahub/internal/http/handlers/shared"
	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListGateways lists payment gateways
func (h *Handler) ListGateways(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	companyID, _ := strconv.ParseUint(c.Query("company_id"), 10, 64)
	filter := repository.PaymentGatewayListFilter{
		Page:        page,
		PageSize:    pageSize,
		CompanyID:   uint(companyID),
		GatewayType: c.Query("gateway_type"),
		Method:      c.Query("method"),
		ActiveOnly:  c.Query("active") == "true",
	}

	gateways, total, err := h.PaymentGatewayRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "gateway list failed", err)
		return
	}
	response.SuccessWithPage(c, gateways, response.NewPagination(page, pageSize, total))
}

// GetGateway fetches one gateway
func (h *Handler) GetGateway(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	gateway, err := h.PaymentGatewayRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "gateway fetch failed", err)
		return
	}
	if gateway == nil {
		respondError(c, response.CodeNotFound, "gateway not found", nil)
		return
	}
	response.Success(c, gateway)
}

// GatewayRequest create/update payload
type GatewayRequest struct {
	CompanyID        uint                   `json:"company_id" binding:"required"`
	Name             string                 `json:"name" binding:"required"`
	GatewayType      string                 `json:"gateway_type" binding:"required"`
	SupportedMethods []string               `json:"supported_methods"`
	Priority         int                    `json:"priority"`
	IsActive         *bool                  `json:"is_active"`
	Sandbox          bool                   `json:"sandbox"`
	Credentials      map[string]interface{} `json:"credentials"`
}

func validGatewayType(gatewayType string) bool {
	switch gatewayType {
	case constants.GatewayTypeIpag, constants.GatewayTypeMercadoPago, constants.GatewayTypeStripe:
		return true
	}
	return false
}

func normalizeMethods(methods []string) (models.StringArray, bool) {
	normalized := make(models.StringArray, 0, len(methods))
	for _, method := range methods {
		method = strings.TrimSpace(method)
		if method != constants.PaymentMethodCreditCard && method != constants.PaymentMethodPix {
			return nil, false
		}
		normalized = append(normalized, method)
	}
	return normalized, true
}

// CreateGateway creates a payment gateway
func (h *Handler) CreateGateway(c *gin.Context) {
	var req GatewayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if !validGatewayType(req.GatewayType) {
		respondError(c, response.CodeBadRequest, "unknown gateway type", nil)
		return
	}
	methods, ok := normalizeMethods(req.SupportedMethods)
	if !ok {
		respondError(c, response.CodeBadRequest, "unknown payment method", nil)
		return
	}

	company, err := h.BillingCompanyRepo.GetByID(req.CompanyID)
	if err != nil {
		respondError(c, response.CodeInternal, "billing company fetch failed", err)
		return
	}
	if company == nil {
		respondError(c, response.CodeBadRequest, "billing company not found", nil)
		return
	}

	gateway := &models.PaymentGateway{
		CompanyID:        req.CompanyID,
		Name:             strings.TrimSpace(req.Name),
		GatewayType:      req.GatewayType,
		SupportedMethods: methods,
		Priority:         req.Priority,
		IsActive:         true,
		Sandbox:          req.Sandbox,
		CredentialsJSON:  models.JSON(req.Credentials),
	}
	if req.IsActive != nil {
		gateway.IsActive = *req.IsActive
	}
	if err := h.PaymentGatewayRepo.Create(gateway); err != nil {
		respondError(c, response.CodeInternal, "gateway create failed", err)
		return
	}
	response.Success(c, gateway)
}

// UpdateGateway updates a payment gateway
func (h *Handler) UpdateGateway(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req GatewayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if !validGatewayType(req.GatewayType) {
		respondError(c, response.CodeBadRequest, "unknown gateway type", nil)
		return
	}
	methods, valid := normalizeMethods(req.SupportedMethods)
	if !valid {
		respondError(c, response.CodeBadRequest, "unknown payment method", nil)
		return
	}

	gateway, err := h.PaymentGatewayRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "gateway fetch failed", err)
		return
	}
	if gateway == nil {
		respondError(c, response.CodeNotFound, "gateway not found", nil)
		return
	}

	gateway.CompanyID = req.CompanyID
	gateway.Name = strings.TrimSpace(req.Name)
	gateway.GatewayType = req.GatewayType
	gateway.SupportedMethods = methods
	gateway.Priority = req.Priority
	gateway.Sandbox = req.Sandbox
	if req.IsActive != nil {
		gateway.IsActive = *req.IsActive
	}
	if req.Credentials != nil {
		gateway.CredentialsJSON = models.JSON(req.Credentials)
	}
	if err := h.PaymentGatewayRepo.Update(gateway); err != nil {
		respondError(c, response.CodeInternal, "gateway update failed", err)
		return
	}
	response.Success(c, gateway)
}

// DeleteGateway soft deletes a payment gateway
func (h *Handler) DeleteGateway(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.PaymentGatewayRepo.Delete(id); err != nil {
		respondError(c, response.CodeInternal, "gateway delete failed", err)
		return
	}
	response.Success(c, nil)
}
