package models

import (
	"time"

	"gorm.io/gorm"
)

// BranchPromotion 分店活动折扣
type BranchPromotion struct {
	ID           uint           `gorm:"primarykey" json:"id"`                      // 主键
	BranchID     uint           `gorm:"index;not null" json:"branch_id"`           // 分店ID
	Description  string         `gorm:"type:varchar(500)" json:"description"`      // 活动说明
	Audience     string         `gorm:"type:varchar(20);not null" json:"audience"` // 目标受众（all/loyal_plus/vip_plus）
	ServiceTypes StringArray    `gorm:"type:json" json:"service_types"`            // 适用服务类型
	DiscountRate int            `gorm:"not null" json:"discount_rate"`             // 折扣率（百分比）
	StartsAt     time.Time      `gorm:"index;not null" json:"starts_at"`           // 开始时间
	EndsAt       time.Time      `gorm:"index;not null" json:"ends_at"`             // 结束时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt    time.Time      `json:"updated_at"`                                // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间

	Active bool `gorm:"-" json:"is_active"` // 展示用，由 IsActive 计算
}

// TableName 指定表名
func (BranchPromotion) TableName() string {
	return "branch_promotions"
}

// IsActive 判断 at 是否落在 [StartsAt, EndsAt] 闭区间内
func (p BranchPromotion) IsActive(at time.Time) bool {
	if p.EndsAt.Before(p.StartsAt) {
		return false
	}
	return !at.Before(p.StartsAt) && !at.After(p.EndsAt)
}

// HasValidWindow 结束时间不早于开始时间
func (p BranchPromotion) HasValidWindow() bool {
	return !p.EndsAt.Before(p.StartsAt)
}
