package repository

import "time"

// BranchPromotionListFilter 查询分店活动列表的过滤条件
type BranchPromotionListFilter struct {
	Page        int
	PageSize    int
	ID          uint
	BranchID    uint
	ServiceType string
	Audience    string
	ActiveAt    *time.Time
}

// ServiceInstanceListFilter 查询服务记录列表的过滤条件
type ServiceInstanceListFilter struct {
	Page          int
	PageSize      int
	CustomerID    uint
	BranchID      uint
	StaffID       uint
	ServiceType   string
	OnlyUnbilled  bool
	PerformedFrom *time.Time
	PerformedTo   *time.Time
}

// InvoiceListFilter 查询账单列表的过滤条件
type InvoiceListFilter struct {
	Page        int
	PageSize    int
	CustomerID  uint
	BranchID    uint
	Status      string
	InvoiceNo   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// AuthzAuditLogListFilter 查询权限审计日志的过滤条件
type AuthzAuditLogListFilter struct {
	Page              int
	PageSize          int
	OperatorAccountID uint
	Action            string
	Role              string
	ObjectPrefix      string
	RequestID         string
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
}

// ProductListFilter 查询商品列表的过滤条件
type ProductListFilter struct {
	Page       int
	PageSize   int
	Search     string
	OnlyActive bool
}
