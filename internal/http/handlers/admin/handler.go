package admin

import "github.com/petcare-next/internal/provider"

// Handler 管理端接口：服务目录、商品、门店活动、账单与角色权限
type Handler struct {
	*provider.Container
}

// New 创建管理端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
