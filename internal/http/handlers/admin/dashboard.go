package admin

import (
	"github.com/revendahub/revendahub/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetDashboard returns the admin overview counters
func (h *Handler) GetDashboard(c *gin.Context) {
	overview, err := h.DashboardService.Overview()
	if err != nil {
		respondError(c, response.CodeInternal, "dashboard fetch failed", err)
		return
	}
	response.Success(c, overview)
}
