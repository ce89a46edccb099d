package models

import (
	"time"

	"github.com/petcare-next/internal/constants"
)

// ServiceType 服务类型（基础价格目录）
type ServiceType struct {
	ID        uint                      `gorm:"primarykey" json:"id"`                                    // 主键
	Code      constants.ServiceTypeCode `gorm:"type:varchar(32);uniqueIndex;not null" json:"code"`       // 类型编码
	Name      string                    `gorm:"type:varchar(120);not null" json:"name"`                  // 展示名称
	BasePrice Money                     `gorm:"type:decimal(20,2);not null;default:0" json:"base_price"` // 基础价格
	CreatedAt time.Time                 `gorm:"index" json:"created_at"`                                 // 创建时间
	UpdatedAt time.Time                 `json:"updated_at"`                                              // 更新时间
}

// TableName 指定表名
func (ServiceType) TableName() string {
	return "service_types"
}

// Vaccine 单剂疫苗
type Vaccine struct {
	ID        uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name      string    `gorm:"type:varchar(120);not null" json:"name"`             // 名称
	Price     Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 单价
	IsActive  bool      `gorm:"not null;default:true" json:"is_active"`             // 是否可用
	CreatedAt time.Time `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (Vaccine) TableName() string {
	return "vaccines"
}

// VaccinePackage 疫苗套餐
type VaccinePackage struct {
	ID         uint      `gorm:"primarykey" json:"id"`                               // 主键
	Name       string    `gorm:"type:varchar(120);not null" json:"name"`             // 名称
	Price      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 套餐价
	VaccineIDs UintArray `gorm:"type:json" json:"vaccine_ids"`                       // 包含疫苗
	IsActive   bool      `gorm:"not null;default:true" json:"is_active"`             // 是否可用
	CreatedAt  time.Time `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt  time.Time `json:"updated_at"`                                         // 更新时间
}

// TableName 指定表名
func (VaccinePackage) TableName() string {
	return "vaccine_packages"
}
