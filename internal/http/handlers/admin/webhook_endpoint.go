package admin

import (
	"strings"

	"github.com/revendahub/revendahub/internal/constants"
	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/models"

	"github.com/gin-gonic/gin"
)

var knownWebhookEvents = map[string]bool{
	constants.WebhookEventOrderCreated:   true,
	constants.WebhookEventOrderPaid:      true,
	constants.WebhookEventOrderShipped:   true,
	constants.WebhookEventOrderDelivered: true,
	constants.WebhookEventOrderCanceled:  true,
	constants.WebhookEventOrderRefunded:  true,
	constants.WebhookEventCartRecovery:   true,
}

// ListWebhookEndpoints lists webhook endpoints
func (h *Handler) ListWebhookEndpoints(c *gin.Context) {
	endpoints, err := h.WebhookEndpointRepo.List()
	if err != nil {
		respondError(c, response.CodeInternal, "webhook endpoint list failed", err)
		return
	}
	response.Success(c, endpoints)
}

// WebhookEndpointRequest create/update payload
type WebhookEndpointRequest struct {
	Name         string   `json:"name" binding:"required"`
	URL          string   `json:"url" binding:"required,url"`
	SecretHeader string   `json:"secret_header"`
	Events       []string `json:"events"` // empty subscribes to everything
	IsActive     *bool    `json:"is_active"`
}

func (r WebhookEndpointRequest) normalizedEvents() (models.StringArray, bool) {
	events := make(models.StringArray, 0, len(r.Events))
	for _, event := range r.Events {
		event = strings.TrimSpace(event)
		if !knownWebhookEvents[event] {
			return nil, false
		}
		events = append(events, event)
	}
	return events, true
}

// CreateWebhookEndpoint registers an endpoint
func (h *Handler) CreateWebhookEndpoint(c *gin.Context) {
	var req WebhookEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	events, ok := req.normalizedEvents()
	if !ok {
		respondError(c, response.CodeBadRequest, "unknown webhook event", nil)
		return
	}

	endpoint := &models.WebhookEndpoint{
		Name:         strings.TrimSpace(req.Name),
		URL:          strings.TrimSpace(req.URL),
		SecretHeader: req.SecretHeader,
		Events:       events,
		IsActive:     true,
	}
	if req.IsActive != nil {
		endpoint.IsActive = *req.IsActive
	}
	if err := h.WebhookEndpointRepo.Create(endpoint); err != nil {
		respondError(c, response.CodeInternal, "webhook endpoint create failed", err)
		return
	}
	response.Success(c, endpoint)
}

// UpdateWebhookEndpoint updates an endpoint
func (h *Handler) UpdateWebhookEndpoint(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req WebhookEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	events, valid := req.normalizedEvents()
	if !valid {
		respondError(c, response.CodeBadRequest, "unknown webhook event", nil)
		return
	}

	endpoint, err := h.WebhookEndpointRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "webhook endpoint fetch failed", err)
		return
	}
	if endpoint == nil {
		respondError(c, response.CodeNotFound, "webhook endpoint not found", nil)
		return
	}

	endpoint.Name = strings.TrimSpace(req.Name)
	endpoint.URL = strings.TrimSpace(req.URL)
	endpoint.Events = events
	if req.SecretHeader != "" {
		endpoint.SecretHeader = req.SecretHeader
	}
	if req.IsActive != nil {
		endpoint.IsActive = *req.IsActive
	}
	if err := h.WebhookEndpointRepo.Update(endpoint); err != nil {
		respondError(c, response.CodeInternal, "webhook endpoint update failed", err)
		return
	}
	response.Success(c, endpoint)
}

// DeleteWebhookEndpoint removes an endpoint
func (h *Handler) DeleteWebhookEndpoint(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.WebhookEndpointRepo.Delete(id); err != nil {
		respondError(c, response.CodeInternal, "webhook endpoint delete failed", err)
		return
	}
	response.Success(c, nil)
}
