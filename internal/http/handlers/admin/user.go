package admin

import (
	"strings"

	handlershared "github.com/revendahub/revendahub/internal/http/handlers/shared"
	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/models"
	"github.com/revendahub/revendahub/internal/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// ListUsers lists buyers
func (h *Handler) ListUsers(c *gin.Context) {
	page, pageSize := handlershared.ParsePagination(c)
	filter := repository.UserListFilter{
		Page:       page,
		PageSize:   pageSize,
		Keyword:    strings.TrimSpace(c.Query("keyword")),
		State:      strings.ToUpper(strings.TrimSpace(c.Query("state"))),
		ActiveOnly: c.Query("active") == "true",
	}
	if from := parseDateQuery(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseDateQuery(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}

	users, total, err := h.UserRepo.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "user list failed", err)
		return
	}
	response.SuccessWithPage(c, users, response.NewPagination(page, pageSize, total))
}

// GetUser fetches one buyer
func (h *Handler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	user, err := h.UserRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "user not found", nil)
		return
	}
	response.Success(c, user)
}

// UserRequest create/update payload
type UserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	CPF      string `json:"cpf"`
	State    string `json:"state"`
	Password string `json:"password"`
	IsActive *bool  `json:"is_active"`
}

// CreateUser creates a buyer
func (h *Handler) CreateUser(c *gin.Context) {
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}
	if len(req.Password) < 8 {
		respondError(c, response.CodeBadRequest, "password too short", nil)
		return
	}

	existing, err := h.UserRepo.GetByEmail(req.Email)
	if err != nil {
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}
	if existing != nil {
		respondError(c, response.CodeBadRequest, "email already registered", nil)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, response.CodeInternal, "user create failed", err)
		return
	}

	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		Phone:        strings.TrimSpace(req.Phone),
		CPF:          strings.TrimSpace(req.CPF),
		State:        strings.ToUpper(strings.TrimSpace(req.State)),
		PasswordHash: string(hash),
		IsActive:     true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := h.UserRepo.Create(user); err != nil {
		respondError(c, response.CodeInternal, "user create failed", err)
		return
	}
	response.Success(c, user)
}

// UpdateUser updates a buyer
func (h *Handler) UpdateUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	user, err := h.UserRepo.GetByID(id)
	if err != nil {
		respondError(c, response.CodeInternal, "user fetch failed", err)
		return
	}
	if user == nil {
		respondError(c, response.CodeNotFound, "user not found", nil)
		return
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = strings.ToLower(strings.TrimSpace(req.Email))
	user.Phone = strings.TrimSpace(req.Phone)
	user.CPF = strings.TrimSpace(req.CPF)
	user.State = strings.ToUpper(strings.TrimSpace(req.State))
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if req.Password != "" {
		if len(req.Password) < 8 {
			respondError(c, response.CodeBadRequest, "password too short", nil)
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, response.CodeInternal, "user update failed", err)
			return
		}
		user.PasswordHash = string(hash)
	}
	if err := h.UserRepo.Update(user); err != nil {
		respondError(c, response.CodeInternal, "user update failed", err)
		return
	}
	response.Success(c, user)
}

// DeleteUser soft deletes a buyer
func (h *Handler) DeleteUser(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.UserRepo.Delete(id); err != nil {
		respondError(c, response.CodeInternal, "user delete failed", err)
		return
	}
	response.Success(c, nil)
}
