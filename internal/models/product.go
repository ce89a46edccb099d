package models

import (
	"time"

	"gorm.io/gorm"
)

// Product 零售商品（计费只读取价格与库存）
type Product struct {
	ID            uint           `gorm:"primarykey" json:"id"`                               // 主键
	SKU           string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"sku"`   // 商品编码
	Name          string         `gorm:"type:varchar(200);not null" json:"name"`             // 名称
	Price         Money          `gorm:"type:decimal(20,2);not null;default:0" json:"price"` // 单价
	StockQuantity int            `gorm:"not null;default:0" json:"stock_quantity"`           // 库存数量
	IsActive      bool           `gorm:"default:true;index" json:"is_active"`                // 是否在售
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`                            // 创建时间
	UpdatedAt     time.Time      `json:"updated_at"`                                         // 更新时间
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`                                     // 软删除时间
}

// TableName 指定表名
func (Product) TableName() string {
	return "products"
}
