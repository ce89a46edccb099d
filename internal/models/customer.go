package models

import "time"

// Customer 客户（本服务只读写会员与积分相关字段）
type Customer struct {
	ID                uint      `gorm:"primarykey" json:"id"`                                             // 主键
	Name              string    `gorm:"type:varchar(120);not null" json:"name"`                           // 姓名
	Phone             string    `gorm:"type:varchar(32);index" json:"phone"`                              // 手机号
	MembershipTier    string    `gorm:"type:varchar(20);not null;default:'basic'" json:"membership_tier"` // 会员等级
	LifetimePaidTotal Money     `gorm:"type:decimal(20,2);not null;default:0" json:"lifetime_paid_total"` // 累计已付金额
	LoyaltyPoints     int64     `gorm:"not null;default:0" json:"loyalty_points"`                         // 积分
	CreatedAt         time.Time `gorm:"index" json:"created_at"`                                          // 创建时间
	UpdatedAt         time.Time `json:"updated_at"`                                                       // 更新时间
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}
