package shared

import (
	"github.com/petcare-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

// GetContextUintWithKeys 从上下文读取 uint 值并统一处理错误响应。
func GetContextUintWithKeys(c *gin.Context, key, invalidKey, typeInvalidKey string) (uint, bool) {
	value, exists := c.Get(key)
	if !exists {
		RespondError(c, response.CodeUnauthorized, "error.unauthorized", nil)
		return 0, false
	}

	switch v := value.(type) {
	case uint:
		return v, true
	case int:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	case float64:
		if v < 0 {
			RespondError(c, response.CodeBadRequest, invalidKey, nil)
			return 0, false
		}
		return uint(v), true
	default:
		RespondError(c, response.CodeInternal, typeInvalidKey, nil)
		return 0, false
	}
}

// GetAccountID 读取令牌中的账号 ID（客户为客户 ID，员工为员工 ID）。
func GetAccountID(c *gin.Context) (uint, bool) {
	return GetContextUintWithKeys(c, "account_id", "error.account_id_invalid", "error.account_id_type")
}

// GetAccountRole 读取令牌中的账号角色。
func GetAccountRole(c *gin.Context) string {
	return c.GetString("account_role")
}

// GetBranchID 读取令牌中的门店 ID，未绑定门店时返回 0。
func GetBranchID(c *gin.Context) uint {
	value, exists := c.Get("branch_id")
	if !exists {
		return 0
	}
	if branchID, ok := value.(uint); ok {
		return branchID
	}
	return 0
}
