package staff

import (
	handlershared "github.com/petcare-next/internal/http/handlers/shared"
	"github.com/petcare-next/internal/http/response"

	"github.com/gin-gonic/gin"
)

func getStaffID(c *gin.Context) (uint, bool) {
	return handlershared.GetAccountID(c)
}

// resolveBranchID 绑定门店的员工只能操作本门店；未绑定门店的账号（管理员）使用请求中的门店
func resolveBranchID(c *gin.Context, requested uint) (uint, bool) {
	own := handlershared.GetBranchID(c)
	if own == 0 {
		return requested, true
	}
	if requested != 0 && requested != own {
		respondError(c, response.CodeForbidden, "error.forbidden", nil)
		return 0, false
	}
	return own, true
}

// inBranchScope 判断记录是否属于当前员工的门店
func inBranchScope(c *gin.Context, branchID uint) bool {
	own := handlershared.GetBranchID(c)
	return own == 0 || own == branchID
}
