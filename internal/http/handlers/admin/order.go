package admin

import (
	"errors"
	"strconv"
	"strings"
	"time"

	handlershared "github.com/revendahub/revendahub/internal/http/handlers/shared"
	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/repository"
	"github.com/revendahub/revendahub/internal/service"

	"github.com/gin-gonic/gin"
)

// ListOrders lists orders
func (h *Handler) ListOrders(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	companyID, _ := strconv.ParseUint(c.Query("company_id"), 10, 64)
	gatewayID, _ := strconv.ParseUint(c.Query("gateway_id"), 10, 64)

	filter := repository.OrderListFilter{
		Page:          page,
		PageSize:      pageSize,
		UserID:        uint(userID),
		CompanyID:     uint(companyID),
		GatewayID:     uint(gatewayID),
		Status:        c.Query("status"),
		PaymentMethod: c.Query("payment_method"),
		OrderNo:       strings.TrimSpace(c.Query("order_no")),
	}
	if from := parseDateQuery(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseDateQuery(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}

	orders, total, err := h.OrderService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder fetches one order
func (h *Handler) GetOrder(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	order, err := h.OrderService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "order fetch failed", err)
		return
	}
	response.Success(c, order)
}

// UpdateOrderStatusRequest status update payload
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus moves an order through its lifecycle
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	order, err := h.OrderService.UpdateStatus(id, strings.TrimSpace(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrOrderStatusInvalid):
			respondError(c, response.CodeBadRequest, "status transition not allowed", nil)
		default:
			respondError(c, response.CodeInternal, "order update failed", err)
		}
		return
	}
	response.Success(c, order)
}

// UpdateTrackingRequest tracking update payload
type UpdateTrackingRequest struct {
	TrackingCode string `json:"tracking_code" binding:"required"`
	TrackingURL  string `json:"tracking_url"`
	Carrier      string `json:"carrier"`
}

// UpdateOrderTracking stores shipment tracking on an order
func (h *Handler) UpdateOrderTracking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UpdateTrackingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	order, err := h.OrderService.UpdateTracking(id, req.TrackingCode, req.TrackingURL, req.Carrier)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "tracking update failed", err)
		return
	}
	response.Success(c, order)
}

// CleanupDuplicatesRequest duplicate cleanup payload
type CleanupDuplicatesRequest struct {
	OrderNo string `json:"order_no" binding:"required"`
}

// CleanupDuplicateOrders removes duplicated rows sharing one order number,
// never dropping rows that hold a provider transaction id.
func (h *Handler) CleanupDuplicateOrders(c *gin.Context) {
	var req CleanupDuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	result, err := h.OrderService.CleanupDuplicates(strings.TrimSpace(req.OrderNo))
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			respondError(c, response.CodeNotFound, "order not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "duplicate cleanup failed", err)
		return
	}
	response.Success(c, result)
}

// DownloadOrderDanfe fetches the DANFE PDF for an order
func (h *Handler) DownloadOrderDanfe(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	path, err := h.FiscalService.DownloadDanfe(c.Request.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "order not found", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "invoice not available", nil)
		case errors.Is(err, service.ErrTokenIncomplete):
			respondError(c, response.CodeBadRequest, "bling credentials incomplete", err)
		default:
			respondError(c, response.CodeInternal, "danfe download failed", err)
		}
		return
	}

	c.FileAttachment(path, "danfe.pdf")
}

func parseDateQuery(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil
	}
	return &parsed
}
