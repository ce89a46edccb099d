package repository

import (
	"errors"
	"time"

	"github.com/petcare-next/internal/models"

	"gorm.io/gorm"
)

// BranchPromotionRepository 分店活动数据访问接口
type BranchPromotionRepository interface {
	GetByID(id uint) (*models.BranchPromotion, error)
	ListActiveByBranch(branchID uint, asOf time.Time) ([]models.BranchPromotion, error)
	Create(promotion *models.BranchPromotion) error
	Update(promotion *models.BranchPromotion) error
	Delete(id uint) error
	List(filter BranchPromotionListFilter) ([]models.BranchPromotion, int64, error)
	WithTx(tx *gorm.DB) *GormBranchPromotionRepository
}

// GormBranchPromotionRepository GORM 实现
type GormBranchPromotionRepository struct {
	db *gorm.DB
}

// NewBranchPromotionRepository 创建分店活动仓库
func NewBranchPromotionRepository(db *gorm.DB) *GormBranchPromotionRepository {
	return &GormBranchPromotionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormBranchPromotionRepository) WithTx(tx *gorm.DB) *GormBranchPromotionRepository {
	if tx == nil {
		return r
	}
	return &GormBranchPromotionRepository{db: tx}
}

// GetByID 根据ID获取活动
func (r *GormBranchPromotionRepository) GetByID(id uint) (*models.BranchPromotion, error) {
	var promotion models.BranchPromotion
	if err := r.db.First(&promotion, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &promotion, nil
}

// ListActiveByBranch 获取分店在 asOf 时刻生效的活动（闭区间）；
// 时间窗倒置的历史数据一并返回，由调用方告警后跳过
func (r *GormBranchPromotionRepository) ListActiveByBranch(branchID uint, asOf time.Time) ([]models.BranchPromotion, error) {
	var promotions []models.BranchPromotion
	at := asOf.UTC()
	query := r.db.Where("branch_id = ?", branchID).
		Where("((starts_at <= ? AND ends_at >= ?) OR ends_at < starts_at)", at, at)
	if err := query.Order("id asc").Find(&promotions).Error; err != nil {
		return nil, err
	}
	return promotions, nil
}

// Create 创建活动
func (r *GormBranchPromotionRepository) Create(promotion *models.BranchPromotion) error {
	return r.db.Create(promotion).Error
}

// Update 更新活动
func (r *GormBranchPromotionRepository) Update(promotion *models.BranchPromotion) error {
	return r.db.Save(promotion).Error
}

// Delete 删除活动
func (r *GormBranchPromotionRepository) Delete(id uint) error {
	return r.db.Delete(&models.BranchPromotion{}, id).Error
}

// List 获取活动列表
func (r *GormBranchPromotionRepository) List(filter BranchPromotionListFilter) ([]models.BranchPromotion, int64, error) {
	var promotions []models.BranchPromotion
	query := r.db.Model(&models.BranchPromotion{})

	if filter.ID != 0 {
		query = query.Where("id = ?", filter.ID)
	}
	if filter.BranchID != 0 {
		query = query.Where("branch_id = ?", filter.BranchID)
	}
	if filter.Audience != "" {
		query = query.Where("audience = ?", filter.Audience)
	}
	if filter.ServiceType != "" {
		cond, arg := jsonArrayContains(r.db, "service_types", filter.ServiceType)
		query = query.Where(cond, arg)
	}
	if filter.ActiveAt != nil {
		at := filter.ActiveAt.UTC()
		query = query.Where("starts_at <= ? AND ends_at >= ?", at, at)
	}

	total, err := countAndFind(query, filter.Page, filter.PageSize, "id desc", &promotions)
	if err != nil {
		return nil, 0, err
	}
	return promotions, total, nil
}
