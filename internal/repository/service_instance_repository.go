package repository

import (
	"errors"
	"time"

	"github.com/petcare-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ServiceRating 单次服务的三项评分
type ServiceRating struct {
	Quality      int
	Attitude     int
	Satisfaction int
	Comment      string
}

// ServiceInstanceRepository 服务记录数据访问接口
type ServiceInstanceRepository interface {
	Create(instance *models.ServiceInstance) error
	GetByID(id uint) (*models.ServiceInstance, error)
	GetByIDForUpdate(id uint) (*models.ServiceInstance, error)
	ListByIDs(ids []uint) ([]models.ServiceInstance, error)
	ListByInvoice(invoiceID uint) ([]models.ServiceInstance, error)
	ListRatedByInvoice(invoiceID uint) ([]models.ServiceInstance, error)
	List(filter ServiceInstanceListFilter) ([]models.ServiceInstance, int64, error)
	LinkToInvoice(ids []uint, invoiceID uint) (int64, error)
	MarkRated(id uint, rating ServiceRating, ratedAt time.Time) (bool, error)
	UpdateFields(id uint, fields map[string]interface{}) error
	WithTx(tx *gorm.DB) *GormServiceInstanceRepository
}

// GormServiceInstanceRepository GORM 实现
type GormServiceInstanceRepository struct {
	db *gorm.DB
}

// NewServiceInstanceRepository 创建服务记录仓库
func NewServiceInstanceRepository(db *gorm.DB) *GormServiceInstanceRepository {
	return &GormServiceInstanceRepository{db: db}
}

// WithTx 绑定事务
func (r *GormServiceInstanceRepository) WithTx(tx *gorm.DB) *GormServiceInstanceRepository {
	if tx == nil {
		return r
	}
	return &GormServiceInstanceRepository{db: tx}
}

// Create 创建服务记录
func (r *GormServiceInstanceRepository) Create(instance *models.ServiceInstance) error {
	return r.db.Create(instance).Error
}

// GetByID 根据ID获取服务记录
func (r *GormServiceInstanceRepository) GetByID(id uint) (*models.ServiceInstance, error) {
	var instance models.ServiceInstance
	if err := r.db.First(&instance, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &instance, nil
}

// GetByIDForUpdate 加锁获取服务记录
func (r *GormServiceInstanceRepository) GetByIDForUpdate(id uint) (*models.ServiceInstance, error) {
	var instance models.ServiceInstance
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&instance, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &instance, nil
}

// ListByIDs 批量获取服务记录
func (r *GormServiceInstanceRepository) ListByIDs(ids []uint) ([]models.ServiceInstance, error) {
	if len(ids) == 0 {
		return []models.ServiceInstance{}, nil
	}
	var instances []models.ServiceInstance
	if err := r.db.Where("id IN ?", ids).Order("id asc").Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

// ListByInvoice 获取账单下的全部服务记录
func (r *GormServiceInstanceRepository) ListByInvoice(invoiceID uint) ([]models.ServiceInstance, error) {
	var instances []models.ServiceInstance
	if err := r.db.Where("invoice_id = ?", invoiceID).Order("id asc").Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

// ListRatedByInvoice 获取账单下已评价的服务记录
func (r *GormServiceInstanceRepository) ListRatedByInvoice(invoiceID uint) ([]models.ServiceInstance, error) {
	var instances []models.ServiceInstance
	if err := r.db.Where("invoice_id = ? AND rated = ?", invoiceID, true).
		Order("id asc").
		Find(&instances).Error; err != nil {
		return nil, err
	}
	return instances, nil
}

// List 获取服务记录列表
func (r *GormServiceInstanceRepository) List(filter ServiceInstanceListFilter) ([]models.ServiceInstance, int64, error) {
	var instances []models.ServiceInstance
	query := r.db.Model(&models.ServiceInstance{})

	if filter.CustomerID != 0 {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	if filter.BranchID != 0 {
		query = query.Where("branch_id = ?", filter.BranchID)
	}
	if filter.StaffID != 0 {
		query = query.Where("staff_id = ?", filter.StaffID)
	}
	if filter.ServiceType != "" {
		query = query.Where("service_type = ?", filter.ServiceType)
	}
	if filter.OnlyUnbilled {
		query = query.Where("invoice_id IS NULL")
	}
	if filter.PerformedFrom != nil {
		query = query.Where("performed_at >= ?", filter.PerformedFrom.UTC())
	}
	if filter.PerformedTo != nil {
		query = query.Where("performed_at <= ?", filter.PerformedTo.UTC())
	}

	total, err := countAndFind(query, filter.Page, filter.PageSize, "id desc", &instances)
	if err != nil {
		return nil, 0, err
	}
	return instances, total, nil
}

// LinkToInvoice 将尚未入账的服务记录关联到账单，返回实际关联条数
func (r *GormServiceInstanceRepository) LinkToInvoice(ids []uint, invoiceID uint) (int64, error) {
	if len(ids) == 0 || invoiceID == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.ServiceInstance{}).
		Where("id IN ? AND invoice_id IS NULL", ids).
		Updates(map[string]interface{}{
			"invoice_id": invoiceID,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// MarkRated 写入评分，仅对未评价的记录生效
func (r *GormServiceInstanceRepository) MarkRated(id uint, rating ServiceRating, ratedAt time.Time) (bool, error) {
	result := r.db.Model(&models.ServiceInstance{}).
		Where("id = ? AND rated = ?", id, false).
		Updates(map[string]interface{}{
			"quality_rating":      rating.Quality,
			"attitude_rating":     rating.Attitude,
			"satisfaction_rating": rating.Satisfaction,
			"rating_comment":      rating.Comment,
			"rated":               true,
			"rated_at":            ratedAt,
			"updated_at":          time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

// UpdateFields 更新服务记录的指定字段
func (r *GormServiceInstanceRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	if len(fields) == 0 {
		return nil
	}
	if _, ok := fields["updated_at"]; !ok {
		fields["updated_at"] = time.Now()
	}
	return r.db.Model(&models.ServiceInstance{}).Where("id = ?", id).Updates(fields).Error
}
