package customer

import "github.com/petcare-next/internal/provider"

// Handler 客户侧接口处理器入口
// 说明：客户只能读取与评价本人的服务和账单。
type Handler struct {
	*provider.Container
}

// New 创建客户侧处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
