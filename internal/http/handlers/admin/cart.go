package admin

import (
	"errors"
	"strconv"

	handlershared "github.com/revendahub/revendahub/internal/http/handlers/shared"
	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/repository"
	"github.com/revendahub/revendahub/internal/service"

	"github.com/gin-gonic/gin"
)

// ListCarts lists abandoned carts
func (h *Handler) ListCarts(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	userID, _ := strconv.ParseUint(c.Query("user_id"), 10, 64)
	filter := repository.CartListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   uint(userID),
		Status:   c.Query("status"),
	}
	if from := parseDateQuery(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseDateQuery(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}

	carts, total, err := h.CartService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "cart list failed", err)
		return
	}
	response.SuccessWithPage(c, carts, response.NewPagination(page, pageSize, total))
}

// GetCart fetches one cart
func (h *Handler) GetCart(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	cart, err := h.CartService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrCartNotFound) {
			respondError(c, response.CodeNotFound, "cart not found", nil)
			return
		}
		respondError(c, response.CodeInternal, "cart fetch failed", err)
		return
	}
	response.Success(c, cart)
}

// TriggerCartRecoveryRequest recovery trigger payload
type TriggerCartRecoveryRequest struct {
	Channel string `json:"channel" binding:"required"` // email / whatsapp
}

// TriggerCartRecovery queues a recovery message for one cart
func (h *Handler) TriggerCartRecovery(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req TriggerCartRecoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	if err := h.CartService.TriggerRecovery(id, req.Channel); err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			respondError(c, response.CodeNotFound, "cart not found", nil)
		case errors.Is(err, service.ErrRecoveryChannelInvalid):
			respondError(c, response.CodeBadRequest, "unknown recovery channel", nil)
		case errors.Is(err, service.ErrCartStatusInvalid):
			respondError(c, response.CodeBadRequest, "cart is not recoverable", nil)
		default:
			respondError(c, response.CodeInternal, "recovery trigger failed", err)
		}
		return
	}
	response.Success(c, nil)
}

// MarkCartExpired closes a cart without recovery
func (h *Handler) MarkCartExpired(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	cart, err := h.CartService.MarkExpired(id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrCartNotFound):
			respondError(c, response.CodeNotFound, "cart not found", nil)
		case errors.Is(err, service.ErrCartStatusInvalid):
			respondError(c, response.CodeBadRequest, "cart already closed", nil)
		default:
			respondError(c, response.CodeInternal, "cart update failed", err)
		}
		return
	}
	response.Success(c, cart)
}
