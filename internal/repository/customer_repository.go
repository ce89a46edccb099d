package repository

import (
	"errors"
	"time"

	"github.com/petcare-next/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CustomerRepository 客户数据访问接口
type CustomerRepository interface {
	GetByID(id uint) (*models.Customer, error)
	GetByIDForUpdate(id uint) (*models.Customer, error)
	Create(customer *models.Customer) error
	UpdateLoyalty(id uint, lifetimePaid decimal.Decimal, points int64) error
	WithTx(tx *gorm.DB) *GormCustomerRepository
}

// GormCustomerRepository GORM 实现
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository 创建客户仓库
func NewCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCustomerRepository) WithTx(tx *gorm.DB) *GormCustomerRepository {
	if tx == nil {
		return r
	}
	return &GormCustomerRepository{db: tx}
}

// GetByID 根据ID获取客户
func (r *GormCustomerRepository) GetByID(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// GetByIDForUpdate 加锁获取客户，用于串行化同一客户的积分结算
func (r *GormCustomerRepository) GetByIDForUpdate(id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&customer, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &customer, nil
}

// Create 创建客户
func (r *GormCustomerRepository) Create(customer *models.Customer) error {
	return r.db.Create(customer).Error
}

// UpdateLoyalty 覆盖写入累计消费与积分
func (r *GormCustomerRepository) UpdateLoyalty(id uint, lifetimePaid decimal.Decimal, points int64) error {
	return r.db.Model(&models.Customer{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"lifetime_paid_total": models.NewMoneyFromDecimal(lifetimePaid),
			"loyalty_points":      points,
			"updated_at":          time.Now(),
		}).Error
}
