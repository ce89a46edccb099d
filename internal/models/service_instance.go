package models

import (
	"time"

	"github.com/petcare-next/internal/constants"

	"github.com/shopspring/decimal"
)

// ServiceInstance 一次已提供的服务（计费单元）
type ServiceInstance struct {
	ID                 uint                      `gorm:"primarykey" json:"id"`                                      // 主键
	CustomerID         uint                      `gorm:"index;not null" json:"customer_id"`                         // 客户ID
	BranchID           uint                      `gorm:"index;not null" json:"branch_id"`                           // 分店ID
	StaffID            uint                      `gorm:"index;not null" json:"staff_id"`                            // 服务人员ID
	ServiceType        constants.ServiceTypeCode `gorm:"type:varchar(32);index;not null" json:"service_type"`       // 服务类型
	PerformedAt        time.Time                 `gorm:"index;not null" json:"performed_at"`                        // 服务日期
	BasePrice          Money                     `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"`   // 基础价快照
	VaccineID          *uint                     `gorm:"index" json:"vaccine_id,omitempty"`                         // 疫苗ID
	VaccineCost        Money                     `gorm:"type:decimal(20,2);not null;default:0" json:"vaccine_cost"` // 疫苗费用
	PackageID          *uint                     `gorm:"index" json:"package_id,omitempty"`                         // 套餐ID
	PackageCost        Money                     `gorm:"type:decimal(20,2);not null;default:0" json:"package_cost"` // 套餐费用
	InvoiceID          *uint                     `gorm:"index" json:"invoice_id,omitempty"`                         // 所属账单（只设置一次）
	QualityRating      *int                      `json:"quality_rating,omitempty"`                                  // 服务质量评分
	AttitudeRating     *int                      `json:"attitude_rating,omitempty"`                                 // 服务态度评分
	SatisfactionRating *int                      `json:"satisfaction_rating,omitempty"`                             // 整体满意度评分
	RatingComment      string                    `gorm:"type:varchar(500)" json:"rating_comment,omitempty"`         // 评价内容
	Rated              bool                      `gorm:"not null;default:false;index" json:"rated"`                 // 是否已评价
	RatedAt            *time.Time                `json:"rated_at,omitempty"`                                        // 评价时间
	CreatedAt          time.Time                 `gorm:"index" json:"created_at"`                                   // 创建时间
	UpdatedAt          time.Time                 `json:"updated_at"`                                                // 更新时间
}

// TableName 指定表名
func (ServiceInstance) TableName() string {
	return "service_instances"
}

// GrossAmount 折前金额 = 基础价 + 疫苗费用 + 套餐费用
func (s ServiceInstance) GrossAmount() decimal.Decimal {
	return s.BasePrice.Decimal.Add(s.VaccineCost.Decimal).Add(s.PackageCost.Decimal)
}

// IsInvoiced 是否已关联账单
func (s ServiceInstance) IsInvoiced() bool {
	return s.InvoiceID != nil && *s.InvoiceID != 0
}
