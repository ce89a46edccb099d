package repository

import (
	"errors"
	"time"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InvoiceRepository 账单数据访问接口
type InvoiceRepository interface {
	Create(invoice *models.Invoice) error
	GetByID(id uint) (*models.Invoice, error)
	GetByIDForUpdate(id uint) (*models.Invoice, error)
	TransitionStatus(id uint, from, to string, fields map[string]interface{}) (bool, error)
	UpdatePendingTotals(id uint, fields map[string]interface{}) (bool, error)
	ListPendingIDsByBranch(branchID uint) ([]uint, error)
	UpdateRatingAggregates(id uint, attitude, satisfaction *int) error
	CreateProductLines(lines []models.InvoiceProductLine) error
	ListProductLines(invoiceID uint) ([]models.InvoiceProductLine, error)
	CountByAppliedPromotion(promotionID uint, status string) (int64, error)
	List(filter InvoiceListFilter) ([]models.Invoice, int64, error)
	SumPaidTotalByCustomer(customerID uint) (decimal.Decimal, error)
	ListCustomerIDsPaidSince(since time.Time) ([]uint, error)
	WithTx(tx *gorm.DB) *GormInvoiceRepository
}

// GormInvoiceRepository GORM 实现
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewInvoiceRepository 创建账单仓库
func NewInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormInvoiceRepository) WithTx(tx *gorm.DB) *GormInvoiceRepository {
	if tx == nil {
		return r
	}
	return &GormInvoiceRepository{db: tx}
}

func (r *GormInvoiceRepository) withDetails(query *gorm.DB) *gorm.DB {
	return query.
		Preload("ServiceInstances", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("ProductLines", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") })
}

// Create 创建账单（不级联写入明细）
func (r *GormInvoiceRepository) Create(invoice *models.Invoice) error {
	return r.db.Omit(clause.Associations).Create(invoice).Error
}

// GetByID 根据ID获取账单及明细
func (r *GormInvoiceRepository) GetByID(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.withDetails(r.db).First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// GetByIDForUpdate 加锁获取账单（不含明细）
func (r *GormInvoiceRepository) GetByIDForUpdate(id uint) (*models.Invoice, error) {
	var invoice models.Invoice
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&invoice, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &invoice, nil
}

// TransitionStatus 仅当当前状态为 from 时切换到 to
func (r *GormInvoiceRepository) TransitionStatus(id uint, from, to string, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{
		"status":     to,
		"updated_at": time.Now(),
	}
	for key, value := range fields {
		updates[key] = value
	}
	result := r.db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdatePendingTotals 仅当账单仍为待支付时写入金额字段
func (r *GormInvoiceRepository) UpdatePendingTotals(id uint, fields map[string]interface{}) (bool, error) {
	updates := map[string]interface{}{"updated_at": time.Now()}
	for key, value := range fields {
		updates[key] = value
	}
	result := r.db.Model(&models.Invoice{}).
		Where("id = ? AND status = ?", id, constants.InvoiceStatusPending).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// ListPendingIDsByBranch 获取分店全部待支付账单ID
func (r *GormInvoiceRepository) ListPendingIDsByBranch(branchID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.Invoice{}).
		Where("branch_id = ? AND status = ?", branchID, constants.InvoiceStatusPending).
		Order("id asc").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// UpdateRatingAggregates 写入账单的评分汇总
func (r *GormInvoiceRepository) UpdateRatingAggregates(id uint, attitude, satisfaction *int) error {
	return r.db.Model(&models.Invoice{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"staff_attitude_rating": attitude,
			"overall_satisfaction":  satisfaction,
			"updated_at":            time.Now(),
		}).Error
}

// CreateProductLines 批量创建商品行
func (r *GormInvoiceRepository) CreateProductLines(lines []models.InvoiceProductLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.Create(&lines).Error
}

// ListProductLines 获取账单商品行
func (r *GormInvoiceRepository) ListProductLines(invoiceID uint) ([]models.InvoiceProductLine, error) {
	var lines []models.InvoiceProductLine
	if err := r.db.Where("invoice_id = ?", invoiceID).Order("id asc").Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

// CountByAppliedPromotion 统计指定状态下命中该活动的账单数
func (r *GormInvoiceRepository) CountByAppliedPromotion(promotionID uint, status string) (int64, error) {
	var count int64
	cond, arg := jsonArrayContains(r.db, "applied_promotion_ids", promotionID)
	if err := r.db.Model(&models.Invoice{}).
		Where("status = ?", status).
		Where(cond, arg).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// List 获取账单列表
func (r *GormInvoiceRepository) List(filter InvoiceListFilter) ([]models.Invoice, int64, error) {
	var invoices []models.Invoice
	query := r.db.Model(&models.Invoice{})

	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.BranchID != 0 {
		query = query.Where("branch_id = ?", filter.BranchID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.InvoiceNo != "" {
		query = query.Where("invoice_no = ?", filter.InvoiceNo)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	total, err := countAndFind(query, filter.Page, filter.PageSize, "id desc", &invoices)
	if err != nil {
		return nil, 0, err
	}
	return invoices, total, nil
}

// SumPaidTotalByCustomer 汇总客户全部已支付账单的应付总额
func (r *GormInvoiceRepository) SumPaidTotalByCustomer(customerID uint) (decimal.Decimal, error) {
	var totals []models.Money
	if err := r.db.Model(&models.Invoice{}).
		Where("customer_id = ? AND status = ?", customerID, constants.InvoiceStatusPaid).
		Pluck("total_amount", &totals).Error; err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, item := range totals {
		sum = sum.Add(item.Decimal)
	}
	return sum, nil
}

// ListCustomerIDsPaidSince 获取 since 之后有支付记录的客户
func (r *GormInvoiceRepository) ListCustomerIDsPaidSince(since time.Time) ([]uint, error) {
	var ids []uint
	if err := r.db.Model(&models.Invoice{}).
		Where("status = ? AND paid_at >= ?", constants.InvoiceStatusPaid, since.UTC()).
		Distinct("customer_id").
		Order("customer_id asc").
		Pluck("customer_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
