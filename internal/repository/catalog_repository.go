package repository

import (
	"errors"

	"github.com/petcare-next/internal/models"

	"gorm.io/gorm"
)

// CatalogRepository 疫苗与套餐目录数据访问接口
type CatalogRepository interface {
	GetVaccineByID(id uint) (*models.Vaccine, error)
	GetPackageByID(id uint) (*models.VaccinePackage, error)
	ListVaccines(onlyActive bool) ([]models.Vaccine, error)
	ListPackages(onlyActive bool) ([]models.VaccinePackage, error)
	CreateVaccine(vaccine *models.Vaccine) error
	CreatePackage(pkg *models.VaccinePackage) error
	WithTx(tx *gorm.DB) *GormCatalogRepository
}

// GormCatalogRepository GORM 实现
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository 创建目录仓库
func NewCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCatalogRepository) WithTx(tx *gorm.DB) *GormCatalogRepository {
	if tx == nil {
		return r
	}
	return &GormCatalogRepository{db: tx}
}

// GetVaccineByID 根据ID获取疫苗
func (r *GormCatalogRepository) GetVaccineByID(id uint) (*models.Vaccine, error) {
	var vaccine models.Vaccine
	if err := r.db.First(&vaccine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &vaccine, nil
}

// GetPackageByID 根据ID获取疫苗套餐
func (r *GormCatalogRepository) GetPackageByID(id uint) (*models.VaccinePackage, error) {
	var pkg models.VaccinePackage
	if err := r.db.First(&pkg, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &pkg, nil
}

// ListVaccines 获取疫苗列表
func (r *GormCatalogRepository) ListVaccines(onlyActive bool) ([]models.Vaccine, error) {
	var rows []models.Vaccine
	query := r.db.Model(&models.Vaccine{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListPackages 获取套餐列表
func (r *GormCatalogRepository) ListPackages(onlyActive bool) ([]models.VaccinePackage, error) {
	var rows []models.VaccinePackage
	query := r.db.Model(&models.VaccinePackage{})
	if onlyActive {
		query = query.Where("is_active = ?", true)
	}
	if err := query.Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CreateVaccine 创建疫苗
func (r *GormCatalogRepository) CreateVaccine(vaccine *models.Vaccine) error {
	return r.db.Create(vaccine).Error
}

// CreatePackage 创建套餐
func (r *GormCatalogRepository) CreatePackage(pkg *models.VaccinePackage) error {
	return r.db.Create(pkg).Error
}
