package admin

import (
	"errors"
	"strings"

	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/service"

	"github.com/gin-gonic/gin"
)

// ListIntegrations lists stored integrations with secrets masked
func (h *Handler) ListIntegrations(c *gin.Context) {
	views, err := h.IntegrationService.List()
	if err != nil {
		respondError(c, response.CodeInternal, "integration list failed", err)
		return
	}
	response.Success(c, views)
}

// GetIntegration fetches one integration, masked
func (h *Handler) GetIntegration(c *gin.Context) {
	integrationType := strings.TrimSpace(c.Param("type"))
	view, err := h.IntegrationService.Get(integrationType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIntegrationUnknown):
			respondError(c, response.CodeBadRequest, "unknown integration type", nil)
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "integration not configured", nil)
		default:
			respondError(c, response.CodeInternal, "integration fetch failed", err)
		}
		return
	}
	response.Success(c, view)
}

// SaveIntegrationRequest upsert payload
type SaveIntegrationRequest struct {
	Credentials map[string]interface{} `json:"credentials" binding:"required"`
	IsActive    *bool                  `json:"is_active"`
}

// SaveIntegration validates and stores integration credentials
func (h *Handler) SaveIntegration(c *gin.Context) {
	integrationType := strings.TrimSpace(c.Param("type"))
	var req SaveIntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	view, err := h.IntegrationService.Save(integrationType, req.Credentials, isActive)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIntegrationUnknown):
			respondError(c, response.CodeBadRequest, "unknown integration type", nil)
		case errors.Is(err, service.ErrIntegrationIncomplete):
			respondError(c, response.CodeBadRequest, err.Error(), nil)
		default:
			respondError(c, response.CodeInternal, "integration save failed", err)
		}
		return
	}
	response.Success(c, view)
}

// TestIntegration runs a connection test and records the outcome
func (h *Handler) TestIntegration(c *gin.Context) {
	integrationType := strings.TrimSpace(c.Param("type"))
	ok, err := h.IntegrationService.Test(c.Request.Context(), integrationType)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotFound):
			respondError(c, response.CodeNotFound, "integration not configured", nil)
			return
		case errors.Is(err, service.ErrIntegrationUnknown):
			respondError(c, response.CodeBadRequest, "unknown integration type", nil)
			return
		}
		// the failed probe outcome is data, not a server error
		response.Success(c, gin.H{"ok": false, "error": err.Error()})
		return
	}
	response.Success(c, gin.H{"ok": ok})
}

// DeleteIntegration removes an integration record
func (h *Handler) DeleteIntegration(c *gin.Context) {
	integrationType := strings.TrimSpace(c.Param("type"))
	if err := h.IntegrationService.Delete(integrationType); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "integration not configured", nil)
			return
		}
		respondError(c, response.CodeInternal, "integration delete failed", err)
		return
	}
	response.Success(c, nil)
}
