package admin

import (
	"strings"

	"github.com/revendahub/revendahub/internal/http/response"
	"github.com/revendahub/revendahub/internal/models"

	"github.com/gin-gonic/gin"
)

// knownSettingKeys whitelists the dashboard preference groups.
var knownSettingKeys = map[string]bool{
	"general":       true,
	"checkout":      true,
	"notifications": true,
}

// GetSetting returns one settings group, empty when never saved.
func (h *Handler) GetSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if !knownSettingKeys[key] {
		respondError(c, response.CodeBadRequest, "unknown settings key", nil)
		return
	}

	setting, err := h.SettingRepo.GetByKey(key)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to load settings", err)
		return
	}

	value := models.JSON{}
	if setting != nil && setting.ValueJSON != nil {
		value = setting.ValueJSON
	}
	response.Success(c, gin.H{"key": key, "value": value})
}

// UpdateSetting replaces one settings group.
func (h *Handler) UpdateSetting(c *gin.Context) {
	key := strings.TrimSpace(c.Param("key"))
	if !knownSettingKeys[key] {
		respondError(c, response.CodeBadRequest, "unknown settings key", nil)
		return
	}

	var value models.JSON
	if err := c.ShouldBindJSON(&value); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request", err)
		return
	}

	setting, err := h.SettingRepo.Upsert(key, value)
	if err != nil {
		respondError(c, response.CodeInternal, "failed to save settings", err)
		return
	}
	response.Success(c, gin.H{"key": setting.Key, "value": setting.ValueJSON})
}
