package staff

import "github.com/petcare-next/internal/provider"

// Handler 门店员工接口处理器入口
// 说明：兽医、前台、销售与管理员共用，具体操作由角色策略控制。
type Handler struct {
	*provider.Container
}

// New 创建门店处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
