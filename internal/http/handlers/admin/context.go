package admin

import (
	handlershared "github.com/petcare-next/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func getAdminID(c *gin.Context) (uint, bool) {
	return handlershared.GetAccountID(c)
}

// currentAdminID 仅用于日志与审计，缺失时返回 0 且不写响应
func currentAdminID(c *gin.Context) uint {
	if value, ok := c.Get("account_id"); ok {
		if id, ok := value.(uint); ok {
			return id
		}
	}
	return 0
}
