package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Invoice 账单
type Invoice struct {
	ID                  uint            `gorm:"primarykey" json:"id"`                                         // 主键
	InvoiceNo           string          `gorm:"uniqueIndex;not null" json:"invoice_no"`                       // 账单编号
	CustomerID          uint            `gorm:"index;not null" json:"customer_id"`                            // 客户ID
	BranchID            uint            `gorm:"index;not null" json:"branch_id"`                              // 分店ID
	Status              string          `gorm:"index;not null" json:"status"`                                 // 状态
	PaymentMethod       string          `gorm:"type:varchar(20);not null" json:"payment_method"`              // 支付方式
	Subtotal            Money           `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 折前小计
	DiscountAmount      Money           `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 折扣合计
	Tax                 Money           `gorm:"type:decimal(20,2);not null;default:0" json:"tax"`             // 税额
	TotalAmount         Money           `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 应付总额
	TaxRate             decimal.Decimal `gorm:"type:decimal(10,4);not null;default:0" json:"tax_rate"`        // 税率快照
	TaxBase             string          `gorm:"type:varchar(10);not null" json:"tax_base"`                    // 计税基数（gross/net）
	LoyaltyPointsEarned int64           `gorm:"not null;default:0" json:"loyalty_points_earned"`              // 本单新增积分
	AppliedPromotionIDs UintArray       `gorm:"type:json" json:"applied_promotion_ids"`                       // 命中的活动
	StaffAttitudeRating *int            `json:"staff_attitude_rating"`                                        // 服务态度汇总评分
	OverallSatisfaction *int            `json:"overall_satisfaction"`                                         // 满意度汇总评分
	PaidAt              *time.Time      `gorm:"index" json:"paid_at"`                                         // 支付时间
	CancelledAt         *time.Time      `gorm:"index" json:"cancelled_at"`                                    // 取消时间
	CreatedAt           time.Time       `gorm:"index" json:"created_at"`                                      // 创建时间
	UpdatedAt           time.Time       `gorm:"index" json:"updated_at"`                                      // 更新时间
	DeletedAt           gorm.DeletedAt  `gorm:"index" json:"-"`                                               // 软删除时间

	ServiceInstances []ServiceInstance    `gorm:"foreignKey:InvoiceID" json:"service_instances,omitempty"` // 服务明细
	ProductLines     []InvoiceProductLine `gorm:"foreignKey:InvoiceID" json:"product_lines,omitempty"`     // 商品明细
}

// TableName 指定表名
func (Invoice) TableName() string {
	return "invoices"
}

// InvoiceProductLine 账单商品行
type InvoiceProductLine struct {
	ID             uint      `gorm:"primarykey" json:"id"`                                         // 主键
	InvoiceID      uint      `gorm:"index;not null" json:"invoice_id"`                             // 账单ID
	ProductID      uint      `gorm:"index;not null" json:"product_id"`                             // 商品ID
	ProductName    string    `gorm:"type:varchar(200)" json:"product_name"`                        // 商品名称快照
	Quantity       int       `gorm:"not null" json:"quantity"`                                     // 数量
	UnitPrice      Money     `gorm:"type:decimal(20,2);not null;default:0" json:"unit_price"`      // 单价快照
	Subtotal       Money     `gorm:"type:decimal(20,2);not null;default:0" json:"subtotal"`        // 折前小计
	DiscountAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"discount_amount"` // 折扣
	TotalAmount    Money     `gorm:"type:decimal(20,2);not null;default:0" json:"total_amount"`    // 折后金额
	PromotionID    *uint     `gorm:"index" json:"promotion_id,omitempty"`                          // 命中的活动
	CreatedAt      time.Time `gorm:"index" json:"created_at"`                                      // 创建时间
}

// TableName 指定表名
func (InvoiceProductLine) TableName() string {
	return "invoice_product_lines"
}
