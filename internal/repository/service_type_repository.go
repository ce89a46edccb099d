package repository

import (
	"errors"

	"github.com/petcare-next/internal/constants"
	"github.com/petcare-next/internal/models"

	"gorm.io/gorm"
)

// ServiceTypeRepository 服务类型数据访问接口
type ServiceTypeRepository interface {
	GetByCode(code constants.ServiceTypeCode) (*models.ServiceType, error)
	List() ([]models.ServiceType, error)
	Save(serviceType *models.ServiceType) error
	WithTx(tx *gorm.DB) *GormServiceTypeRepository
}

// GormServiceTypeRepository GORM 实现
type GormServiceTypeRepository struct {
	db *gorm.DB
}

// NewServiceTypeRepository 创建服务类型仓库
func NewServiceTypeRepository(db *gorm.DB) *GormServiceTypeRepository {
	return &GormServiceTypeRepository{db: db}
}

// WithTx 绑定事务
func (r *GormServiceTypeRepository) WithTx(tx *gorm.DB) *GormServiceTypeRepository {
	if tx == nil {
		return r
	}
	return &GormServiceTypeRepository{db: tx}
}

// GetByCode 按编码获取服务类型
func (r *GormServiceTypeRepository) GetByCode(code constants.ServiceTypeCode) (*models.ServiceType, error) {
	var row models.ServiceType
	if err := r.db.Where("code = ?", code).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// List 获取全部服务类型
func (r *GormServiceTypeRepository) List() ([]models.ServiceType, error) {
	var rows []models.ServiceType
	if err := r.db.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Save 新建或更新服务类型
func (r *GormServiceTypeRepository) Save(serviceType *models.ServiceType) error {
	if serviceType.ID == 0 {
		return r.db.Create(serviceType).Error
	}
	return r.db.Save(serviceType).Error
}
