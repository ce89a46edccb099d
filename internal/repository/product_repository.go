package repository

import (
	"errors"
	"strings"

	"github.com/petcare-next/internal/models"

	"gorm.io/gorm"
)

// ProductRepository 零售商品数据访问接口，计费侧只读
type ProductRepository interface {
	GetByID(id uint) (*models.Product, error)
	GetBySKU(sku string) (*models.Product, error)
	ListByIDs(ids []uint) ([]models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	List(filter ProductListFilter) ([]models.Product, int64, error)
	WithTx(tx *gorm.DB) *GormProductRepository
}

// GormProductRepository GORM 实现
type GormProductRepository struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓库
func NewProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// WithTx 绑定事务
func (r *GormProductRepository) WithTx(tx *gorm.DB) *GormProductRepository {
	if tx == nil {
		return r
	}
	return &GormProductRepository{db: tx}
}

func (r *GormProductRepository) first(query *gorm.DB) (*models.Product, error) {
	var product models.Product
	err := query.First(&product).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetByID 根据ID获取商品
func (r *GormProductRepository) GetByID(id uint) (*models.Product, error) {
	return r.first(r.db.Where("id = ?", id))
}

// GetBySKU 根据商品编码获取商品，编码比较前去除首尾空白
func (r *GormProductRepository) GetBySKU(sku string) (*models.Product, error) {
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return nil, nil
	}
	return r.first(r.db.Where("sku = ?", sku))
}

// ListByIDs 批量获取商品，重复 ID 只查一次，结果按 ID 升序
func (r *GormProductRepository) ListByIDs(ids []uint) ([]models.Product, error) {
	unique := uniqueIDs(ids)
	products := make([]models.Product, 0, len(unique))
	if len(unique) == 0 {
		return products, nil
	}
	if err := r.db.Where("id IN ?", unique).Order("id ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// Create 创建商品
func (r *GormProductRepository) Create(product *models.Product) error {
	return r.db.Create(product).Error
}

// Update 保存商品全部字段
func (r *GormProductRepository) Update(product *models.Product) error {
	return r.db.Save(product).Error
}

// List 管理端商品列表，Search 同时匹配名称与编码
func (r *GormProductRepository) List(filter ProductListFilter) ([]models.Product, int64, error) {
	query := applyProductSearch(r.db.Model(&models.Product{}), filter.Search)
	if filter.OnlyActive {
		query = query.Where("is_active = ?", true)
	}
	products := make([]models.Product, 0)
	total, err := countAndFind(query, filter.Page, filter.PageSize, "id DESC", &products)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func applyProductSearch(db *gorm.DB, raw string) *gorm.DB {
	search := strings.TrimSpace(raw)
	if search == "" {
		return db
	}
	like := "%" + search + "%"
	return db.Where("name LIKE ? OR sku LIKE ?", like, like)
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]struct{}, len(ids))
	result := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
