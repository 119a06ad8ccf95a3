package admin

import (
	handlershared "github.com/revendahub/revendahub/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetContextUint(c, "admin_id")
}

func parseIDParam(c *gin.Context) (uint, bool) {
	return handlershared.ParseIDParam(c, "id")
}
