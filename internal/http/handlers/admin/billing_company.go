package admin

import (
	"strings"

	handlershared "github.com/revendahub/revendahub/internal/http/handlers/shared"
	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"

	"github.com/gin-gonic/gin"
)

// ListBillingCompanies lists billing companies
func (h *Handler) ListBillingCompanies(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.BillingCompanyListFilter{
		Page:       page,
		PageSize:   pageSize,
		Search:     c.Query("search"),
		State:      strings.ToUpper(strings.TrimSpace(c.Query("state"))),
		ActiveOnly: c.Query("active") == "true",
	}

	companies, total, err := h.BillingCompanyRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "billing company list failed", err)
		return
	}
	response.SuccessWithPage(c, companies, response.NewPagination(page, pageSize, total))
}

// GetBillingCompany fetches one billing company
func (h *Handler) GetBillingCompany(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	company, err := h.BillingCompanyRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "billing company fetch failed", err)
		return
	}
	if company == nil {
		respondError(c, response.CodeNotFound, "billing company not found", nil)
		return
	}
	response.Success(c, company)
}

// BillingCompanyRequest create/update payload
type BillingCompanyRequest struct {
	Name      string                 `json:"name" binding:"required"`
	CNPJ      string                 `json:"cnpj"`
	States    []string               `json:"states"`
	IsDefault bool                   `json:"is_default"`
	IsActive  *bool                  `json:"is_active"`
	Bling     map[string]interface{} `json:"bling"`
}

func (r BillingCompanyRequest) normalizedStates() models.StringArray {
	states := make(models.StringArray, 0, len(r.States))
	for _, state := range r.States {
		state = strings.ToUpper(strings.TrimSpace(state))
		if state != "" {
			states = append(states, state)
		}
	}
	return states
}

// CreateBillingCompany creates a billing company
func (h *Handler) CreateBillingCompany(c *gin.Context) {
	var req BillingCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	company := &models.BillingCompany{
		Name:      strings.TrimSpace(req.Name),
		CNPJ:      strings.TrimSpace(req.CNPJ),
		States:    req.normalizedStates(),
		IsDefault: req.IsDefault,
		IsActive:  true,
		BlingJSON: models.JSON(req.Bling),
	}
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}
	if err := h.BillingCompanyRepo.Create(company); err != nil {
		respondError(c, response.CodeInternal, "billing company create failed", err)
		return
	}
	response.Success(c, company)
}

// UpdateBillingCompany updates a billing company
func (h *Handler) UpdateBillingCompany(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req BillingCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	company, err := h.BillingCompanyRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "billing company fetch failed", err)
		return
	}
	if company == nil {
		respondError(c, response.CodeNotFound, "billing company not found", nil)
		return
	}

	company.Name = strings.TrimSpace(req.Name)
	company.CNPJ = strings.TrimSpace(req.CNPJ)
	company.States = req.normalizedStates()
	company.IsDefault = req.IsDefault
	if req.IsActive != nil {
		company.IsActive = *req.IsActive
	}
	if req.Bling != nil {
		company.BlingJSON = models.JSON(req.Bling)
	}
	if err := h.BillingCompanyRepo.Update(company); err != nil {
		respondError(c, response.CodeInternal, "billing company update failed", err)
		return
	}
	response.Success(c, company)
}

// DeleteBillingCompany soft deletes a billing company
func (h *Handler) DeleteBillingCompany(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.BillingCompanyRepo.Delete(id); err != nil {
		respondError(c, response.CodeInternal, "billing company delete failed", err)
		return
	}
	response.Success(c, nil)
}
